package templates

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SeuMarco/program/internal/infra/persistence/memory"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installDefault(t *testing.T, store *memory.Store) *Registry {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	var registry *Registry
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		registry, err = Install(tx, catalog)
		return err
	})
	require.NoError(t, err)
	return registry
}

func TestDefaultCatalogInstall(t *testing.T) {
	store := memory.NewStore(nil)
	registry := installDefault(t, store)

	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, len(catalog.Menus)+len(catalog.Actions), registry.Len())
	assert.Len(t, store.ListMenus(), len(catalog.Menus))
	assert.Len(t, store.ListWindowActions(), len(catalog.Actions))

	configID, err := registry.Resolve(KeyConfigurationMenu)
	require.NoError(t, err)
	config, ok := store.GetMenu(configID)
	require.True(t, ok)
	require.Len(t, config.ChildIDs, 4)
	key, ok := registry.Key(config.ChildIDs[0])
	require.True(t, ok)
	assert.Equal(t, KeyConfigurationLevelMenu, key, "children follow sequence order")

	rootID, _ := registry.Resolve(KeyProgramMenu)
	root, _ := store.GetMenu(rootID)
	resultID, _ := registry.Resolve(KeyResultMenu)
	assert.Equal(t, resultID, root.ChildIDs[0])
}

func TestInstallIsIdempotent(t *testing.T) {
	store := memory.NewStore(nil)
	first := installDefault(t, store)
	second := installDefault(t, store)
	assert.Equal(t, first.Keys(), second.Keys())
	for _, key := range first.Keys() {
		a, _ := first.Resolve(key)
		b, _ := second.Resolve(key)
		assert.Equal(t, a, b, key)
	}
	catalog, _ := DefaultCatalog()
	assert.Len(t, store.ListMenus(), len(catalog.Menus))

	var discovered *Registry
	require.NoError(t, store.View(context.Background(), func(view domain.TransactionView) error {
		discovered = Discover(view)
		return nil
	}))
	assert.Equal(t, first.Keys(), discovered.Keys())
}

func TestRegistryJSONAndLookups(t *testing.T) {
	registry := NewRegistry(map[string]string{KeyProgramMenu: "m1"})
	data, err := json.Marshal(registry)
	require.NoError(t, err)

	var decoded Registry
	require.NoError(t, json.Unmarshal(data, &decoded))
	id, err := decoded.Resolve(KeyProgramMenu)
	require.NoError(t, err)
	assert.Equal(t, "m1", id)
	key, ok := decoded.Key("m1")
	assert.True(t, ok)
	assert.Equal(t, KeyProgramMenu, key)

	_, err = decoded.Resolve("program.missing")
	var unknown ErrUnknownKey
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "program.missing", unknown.Key)
}

func TestClonerCopiesSingleMenu(t *testing.T) {
	store := memory.NewStore(nil)
	registry := installDefault(t, store)
	cloner := NewCloner(registry)
	assert.Same(t, registry, cloner.Registry())

	var top domain.Menu
	var cloneID string
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		top, err = tx.CreateMenu(domain.Menu{Name: "Alpha"})
		if err != nil {
			return err
		}
		cloneID, err = cloner.Clone(tx, KeyConfigurationMenu, MenuOverrides{ParentID: domain.String(top.ID)})
		return err
	})
	require.NoError(t, err)

	clone, ok := store.GetMenu(cloneID)
	require.True(t, ok)
	assert.Equal(t, "Configuration", clone.Name)
	assert.Equal(t, 100, clone.Sequence)
	assert.Equal(t, top.ID, clone.ParentID)
	assert.Empty(t, clone.ExternalID)
	assert.Empty(t, clone.ChildIDs, "children are never copied implicitly")
}

func TestClonerMenuActionMergesDomainAndContext(t *testing.T) {
	store := memory.NewStore(nil)
	registry := installDefault(t, store)
	cloner := NewCloner(registry)

	var menuID string
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		menuID, err = cloner.CloneMenuAction(tx, KeyResultChainMenu, KeyResultTreeAction,
			MenuOverrides{Name: domain.String("Chains"), Sequence: domain.Int(5)},
			domain.Filter{domain.Eq("result_level_id.top_level_menu_id", "m1")},
			map[string]string{domain.ContextDefaultTopLevelMenuID: "m1"})
		return err
	})
	require.NoError(t, err)

	menu, ok := store.GetMenu(menuID)
	require.True(t, ok)
	assert.Equal(t, "Chains", menu.Name)
	assert.Equal(t, 5, menu.Sequence)

	tmplActionID, _ := registry.Resolve(KeyResultTreeAction)
	require.NotEqual(t, tmplActionID, menu.ActionID)
	var action, tmpl domain.WindowAction
	for _, a := range store.ListWindowActions() {
		switch a.ID {
		case menu.ActionID:
			action = a
		case tmplActionID:
			tmpl = a
		}
	}
	require.Len(t, action.Domain, 2)
	assert.Equal(t, "parent_id", action.Domain[0].Field)
	assert.Equal(t, "result_level_id.top_level_menu_id", action.Domain[1].Field)
	assert.Equal(t, "m1", action.Context[domain.ContextDefaultTopLevelMenuID])
	assert.Empty(t, action.ExternalID)
	assert.Len(t, tmpl.Domain, 1, "template action untouched")
	assert.Empty(t, tmpl.Context)
}

func TestClonerUnknownKey(t *testing.T) {
	store := memory.NewStore(nil)
	cloner := NewCloner(NewRegistry(nil))
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := cloner.Clone(tx, KeyResultMenu, MenuOverrides{})
		return err
	})
	var unknown ErrUnknownKey
	assert.ErrorAs(t, err, &unknown)
}

func TestCatalogValidation(t *testing.T) {
	cases := map[string]string{
		"missing name": `
menus:
  - key: program.menu_program
`,
		"parent order": `
actions:
  - {key: program.action_program_result_tree, name: A, model: result_level}
menus:
  - {key: program.menu_program_result, name: R, parent: program.menu_program}
  - {key: program.menu_program, name: P}
`,
		"unknown field": `
menus:
  - {key: program.menu_program, name: P, colour: red}
`,
		"missing required menu": `
actions:
  - {key: program.action_program_result_tree, name: A, model: result_level}
menus:
  - {key: program.menu_program, name: P}
`,
		"bad model": `
actions:
  - {key: program.action_program_result_tree, name: A, model: menu}
menus:
  - {key: program.menu_program, name: P}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o600))
	catalog, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, catalog.Menus)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
