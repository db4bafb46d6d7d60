package domain

import (
	"testing"

	"github.com/SeuMarco/program/testutil"
)

// TestDomainDoesNotImportInternal keeps the domain layer free of
// implementation packages.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must not import internal packages")
}
