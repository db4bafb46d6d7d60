package templates

import (
	"testing"

	"github.com/SeuMarco/program/testutil"
)

func TestTemplatesDependOnDomainOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ModuleImportsExcept("pkg/domain"), "templates must only depend on pkg/domain")
}
