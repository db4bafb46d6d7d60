package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func levelIndex(levels ...ResultLevel) LevelFinder {
	byID := make(map[string]ResultLevel, len(levels))
	for _, l := range levels {
		byID[l.ID] = l
	}
	return func(id string) (ResultLevel, bool) {
		l, ok := byID[id]
		return l, ok
	}
}

func TestLevelLookupFollowsReferences(t *testing.T) {
	root := ResultLevel{Base: Base{ID: "r"}, Name: "Goal", ChainRootID: "r", TopLevelMenu: true, TopLevelMenuID: "top"}
	mid := ResultLevel{Base: Base{ID: "m"}, Name: "Outcome", ParentID: "r", ChainRootID: "r"}
	leaf := ResultLevel{Base: Base{ID: "l"}, Name: "Output", ParentID: "m", ChainRootID: "r"}
	find := levelIndex(root, mid, leaf)

	assert.True(t, Filter{Eq("chain_root.top_level_menu_id", "top")}.Match(LevelLookup(leaf, find)))
	assert.True(t, Filter{Eq("parent_id.parent_id.name", "Goal")}.Match(LevelLookup(leaf, find)))
	assert.True(t, Filter{Eq("top_level_menu", "true")}.Match(LevelLookup(root, find)))
	assert.False(t, Filter{Eq("parent_id.name", "Goal")}.Match(LevelLookup(root, find)), "roots have no parent to follow")
	assert.False(t, Filter{Eq("chain_root.top_level_menu_id", "top")}.Match(LevelLookup(leaf, nil)))
	assert.False(t, Filter{Eq("menu_id.name", "x")}.Match(LevelLookup(leaf, find)))
}

func TestScopedLookupFollowsResultLevel(t *testing.T) {
	root := ResultLevel{Base: Base{ID: "r"}, ChainRootID: "r", TopLevelMenuID: "top"}
	child := ResultLevel{Base: Base{ID: "c"}, ParentID: "r", ChainRootID: "r"}
	find := levelIndex(root, child)

	onRoot := ScopedRecord{Kind: EntityTarget, Name: "t", ResultLevelID: "r"}
	onChild := ScopedRecord{Kind: EntityTarget, Name: "t", ResultLevelID: "c"}
	loose := ScopedRecord{Kind: EntityTarget, Name: "t"}

	byOwner := Filter{Eq("result_level_id.top_level_menu_id", "top")}
	assert.True(t, byOwner.Match(ScopedLookup(onRoot, find)))
	assert.False(t, byOwner.Match(ScopedLookup(onChild, find)))
	assert.False(t, byOwner.Match(ScopedLookup(loose, find)))
	assert.True(t, Filter{Eq("result_level_id.chain_root.top_level_menu_id", "top")}.Match(ScopedLookup(onChild, find)))
	assert.True(t, Filter{Eq("name", "t")}.Match(ScopedLookup(loose, nil)))
	assert.False(t, Filter{Eq("kind.name", "t")}.Match(ScopedLookup(onRoot, find)))
}
