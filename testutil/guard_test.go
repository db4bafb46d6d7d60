package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"example.com/mod/internal/x", true},
		{"example.com/mod/pkg/x", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestModuleImportsExcept(t *testing.T) {
	forbidden := ModuleImportsExcept("pkg/domain")
	cases := map[string]bool{
		Module + "/pkg/domain":         false,
		Module + "/internal/menus":     true,
		Module + "/pkg/domainextra":    true,
		"github.com/google/uuid":       false,
		"github.com/SeuMarco/programs": false,
	}
	for in, want := range cases {
		if got := forbidden(in); got != want {
			t.Fatalf("ModuleImportsExcept(%q)=%v want %v", in, got, want)
		}
	}
}

func TestImportsUnder(t *testing.T) {
	under := ImportsUnder("internal/infra/")
	if !under(Module + "/internal/infra/persistence/memory") {
		t.Fatalf("expected nested infra package to match")
	}
	if !under(Module + "/internal/infra") {
		t.Fatalf("expected prefix package itself to match")
	}
	if under(Module + "/internal/infrastructure") {
		t.Fatalf("unexpected match on sibling with shared prefix")
	}
}

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\t\"example.com/mod/internal/x\"\n)\nvar _ = fmt.Sprint\nvar _ = x.Y\n")
	writeGo(t, dir, "a_test.go", "package tmp\nimport \"example.com/mod/internal/y\"\nvar _ = y.Z\n")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "example.com/mod/internal/x (in a.go)" {
		t.Fatalf("unexpected violations: %v", viols)
	}

	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")

	writeGo(t, dir, "broken.go", "package tmp\nimport (")
	if _, err := directImportViolations(dir, InternalImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected read error")
	}
}
