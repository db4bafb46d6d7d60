package menus

import (
	"testing"

	"github.com/SeuMarco/program/internal/templates"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *Manager {
	return NewManager(templates.NewRegistry(nil))
}

func TestValidateDisablingClearsName(t *testing.T) {
	m := newValidator()
	for _, vals := range []domain.ResultLevelValues{
		{TopLevelMenu: domain.Bool(false)},
		{TopLevelMenu: domain.Bool(false), TopLevelMenuName: domain.String("Alpha")},
		{TopLevelMenu: domain.Bool(false), ParentID: domain.String("p1"), TopLevelMenuName: domain.String("Alpha")},
	} {
		require.NoError(t, m.validate(&vals, nil))
		require.NotNil(t, vals.TopLevelMenuName)
		assert.Empty(t, *vals.TopLevelMenuName)
	}
}

func TestValidateRequiresMenuName(t *testing.T) {
	m := newValidator()
	var missing MissingMenuNameError

	vals := domain.ResultLevelValues{TopLevelMenu: domain.Bool(true)}
	assert.ErrorAs(t, m.validate(&vals, nil), &missing)

	vals = domain.ResultLevelValues{TopLevelMenu: domain.Bool(true), TopLevelMenuName: domain.String("")}
	named := []domain.ResultLevel{{Base: domain.Base{ID: "a"}, TopLevelMenuName: "Alpha", Depth: 1}}
	assert.ErrorAs(t, m.validate(&vals, named), &missing, "explicit empty name overrides the stored one")

	unnamed := []domain.ResultLevel{{Base: domain.Base{ID: "b"}, Depth: 1}}
	vals = domain.ResultLevelValues{TopLevelMenu: domain.Bool(true)}
	err := m.validate(&vals, unnamed)
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "b", missing.LevelID)

	vals = domain.ResultLevelValues{TopLevelMenu: domain.Bool(true)}
	assert.NoError(t, m.validate(&vals, named), "existing name satisfies the check")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.metrics.ValidationFailures.WithLabelValues("missing_name")))
}

func TestValidateRejectsNonRootPlacement(t *testing.T) {
	m := newValidator()
	var placement InvalidTopLevelPlacementError

	vals := domain.ResultLevelValues{TopLevelMenu: domain.Bool(true), TopLevelMenuName: domain.String("Alpha"), ParentID: domain.String("p1")}
	assert.ErrorAs(t, m.validate(&vals, nil), &placement)

	nested := []domain.ResultLevel{{Base: domain.Base{ID: "c"}, ParentID: "p1", Depth: 2}}
	vals = domain.ResultLevelValues{TopLevelMenu: domain.Bool(true), TopLevelMenuName: domain.String("Alpha")}
	err := m.validate(&vals, nested)
	require.ErrorAs(t, err, &placement)
	assert.Equal(t, "c", placement.LevelID)
	assert.Contains(t, err.Error(), "highest level of a result chain")

	vals = domain.ResultLevelValues{TopLevelMenu: domain.Bool(true), TopLevelMenuName: domain.String("Alpha"), ParentID: domain.String("")}
	assert.NoError(t, m.validate(&vals, nested), "detaching the node makes it a root")

	vals = domain.ResultLevelValues{Name: domain.String("renamed"), ParentID: domain.String("p2")}
	assert.NoError(t, m.validate(&vals, nested))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.ValidationFailures.WithLabelValues("invalid_placement")))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "no top-level menu name provided", MissingMenuNameError{}.Error())
	assert.Equal(t, "result level x: no top-level menu name provided", MissingMenuNameError{LevelID: "x"}.Error())
	assert.Equal(t, "top-level menus can only be set on the highest level of a result chain", InvalidTopLevelPlacementError{}.Error())
}
