package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultLevelValuesApply(t *testing.T) {
	level := ResultLevel{Name: "Outcome", ParentID: "p1", TopLevelMenu: true, TopLevelMenuName: "Alpha"}
	vals := ResultLevelValues{ParentID: String(""), TopLevelMenu: Bool(false), TopLevelMenuName: String("")}
	vals.Apply(&level)

	assert.Equal(t, "Outcome", level.Name, "absent fields are untouched")
	assert.Empty(t, level.ParentID)
	assert.False(t, level.TopLevelMenu)
	assert.Empty(t, level.TopLevelMenuName)
}

func TestResultLevelValuesPredicates(t *testing.T) {
	assert.False(t, ResultLevelValues{}.WantsTopLevelMenu())
	assert.True(t, ResultLevelValues{TopLevelMenu: Bool(true)}.WantsTopLevelMenu())
	assert.True(t, ResultLevelValues{ParentID: String("p")}.SetsParent())
	assert.False(t, ResultLevelValues{ParentID: String("")}.SetsParent())
	assert.True(t, ResultLevelValues{ParentID: String("")}.ClearsParent())
	assert.False(t, ResultLevelValues{}.ClearsParent())
	assert.Equal(t, "Alpha", ResultLevelValues{TopLevelMenuName: String("Alpha")}.MenuName())
	assert.Empty(t, ResultLevelValues{}.MenuName())
}

func TestResultLevelValuesClone(t *testing.T) {
	vals := ResultLevelValues{Name: String("n"), Sequence: Int(3), TopLevelMenu: Bool(true)}
	cp := vals.Clone()
	*cp.Name = "changed"
	*cp.Sequence = 9
	*cp.TopLevelMenu = false
	assert.Equal(t, "n", *vals.Name)
	assert.Equal(t, 3, *vals.Sequence)
	assert.True(t, *vals.TopLevelMenu)
	assert.Nil(t, cp.ParentID)
}

func TestOwnershipRoundTrip(t *testing.T) {
	level := ResultLevel{TopLevelMenu: true, TopLevelMenuName: "Alpha", TopLevelMenuID: "m1"}
	var heir ResultLevel
	level.Ownership().Values().Apply(&heir)
	assert.Equal(t, level.Ownership(), heir.Ownership())
	assert.True(t, heir.IsRoot())
}

func TestRulesEngineAggregates(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "warns", res: Result{Violations: []Violation{{Rule: "warns", Severity: SeverityWarn}}}})
	engine.Register(staticRule{name: "blocks", res: Result{Violations: []Violation{{Rule: "blocks", Severity: SeverityBlock, Message: "nope"}}}})
	assert.Equal(t, []string{"warns", "blocks"}, engine.Rules())

	res, err := engine.Evaluate(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Violations, 2)
	assert.True(t, res.HasBlocking())
	assert.Equal(t, "transaction blocked by rules: nope", RuleViolationError{Result: res}.Error())

	engine.Register(staticRule{name: "broken", err: errors.New("boom")})
	_, err = engine.Evaluate(context.Background(), nil, nil)
	assert.EqualError(t, err, "boom")
}

func TestErrNotFound(t *testing.T) {
	err := error(ErrNotFound{Entity: EntityMenu, ID: "m9"})
	assert.EqualError(t, err, "menu m9 not found")
	var nf ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "m9", nf.ID)
}

func TestScopedRecordField(t *testing.T) {
	rec := ScopedRecord{Base: Base{ID: "r1"}, Kind: EntityTag, Name: "t", TopLevelMenuID: "m1"}
	got, ok := rec.Field("top_level_menu_id")
	require.True(t, ok)
	assert.Equal(t, "m1", got)
	_, ok = rec.Field("colour")
	assert.False(t, ok)
	assert.True(t, IsScoped(EntityTarget))
	assert.False(t, IsScoped(EntityMenu))
}

type staticRule struct {
	name string
	res  Result
	err  error
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(_ context.Context, _ RuleView, _ []Change) (Result, error) {
	return r.res, r.err
}
