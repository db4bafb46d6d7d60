package menus

import (
	"context"
	"testing"

	"github.com/SeuMarco/program/internal/infra/persistence/memory"
	"github.com/SeuMarco/program/internal/templates"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// generatedMenus is the size of one generated tree: the top-level menu, the
// result menu and its chain entry, the configuration menu and its four leaves.
const (
	generatedMenus   = 8
	generatedActions = 5
)

type fixture struct {
	store    *memory.Store
	registry *templates.Registry
	manager  *Manager
	metrics  *Metrics
	logs     *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(nil)
	catalog, err := templates.DefaultCatalog()
	require.NoError(t, err)
	var registry *templates.Registry
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		registry, err = templates.Install(tx, catalog)
		return err
	})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetrics(prometheus.NewRegistry())
	return &fixture{
		store:    store,
		registry: registry,
		manager:  NewManager(registry, WithLogger(zap.New(core)), WithMetrics(metrics)),
		metrics:  metrics,
		logs:     logs,
	}
}

func (f *fixture) run(t *testing.T, fn func(tx domain.Transaction)) {
	t.Helper()
	_, err := f.store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		fn(tx)
		return nil
	})
	require.NoError(t, err)
}

func (f *fixture) visibleMenu(t *testing.T, tx domain.Transaction, name string) string {
	t.Helper()
	menu, err := tx.CreateMenu(domain.Menu{Name: name})
	require.NoError(t, err)
	return menu.ID
}

func (f *fixture) create(t *testing.T, tx domain.Transaction, vals domain.ResultLevelValues) domain.ResultLevel {
	t.Helper()
	level, err := f.manager.Create(context.Background(), tx, vals)
	require.NoError(t, err)
	return level
}

func (f *fixture) owner(t *testing.T, tx domain.Transaction, name string) domain.ResultLevel {
	t.Helper()
	return f.create(t, tx, domain.ResultLevelValues{
		Name:             domain.String(name),
		MenuID:           domain.String(f.visibleMenu(t, tx, name)),
		TopLevelMenu:     domain.Bool(true),
		TopLevelMenuName: domain.String(name),
	})
}

func (f *fixture) child(t *testing.T, tx domain.Transaction, name, parentID string) domain.ResultLevel {
	t.Helper()
	return f.create(t, tx, domain.ResultLevelValues{
		Name:     domain.String(name),
		ParentID: domain.String(parentID),
		MenuID:   domain.String(f.visibleMenu(t, tx, name)),
	})
}

func (f *fixture) level(t *testing.T, id string) domain.ResultLevel {
	t.Helper()
	level, ok := f.store.GetResultLevel(id)
	require.True(t, ok, "result level %s", id)
	return level
}

func (f *fixture) menu(t *testing.T, id string) domain.Menu {
	t.Helper()
	menu, ok := f.store.GetMenu(id)
	require.True(t, ok, "menu %s", id)
	return menu
}

// owners counts owning nodes per chain root.
func owners(levels []domain.ResultLevel) map[string]int {
	out := make(map[string]int)
	for _, l := range levels {
		if l.TopLevelMenu {
			out[l.ChainRootID]++
		}
	}
	return out
}

func templateCounts(t *testing.T) (menus, actions int) {
	t.Helper()
	catalog, err := templates.DefaultCatalog()
	require.NoError(t, err)
	return len(catalog.Menus), len(catalog.Actions)
}
