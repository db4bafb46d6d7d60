// Package core exposes the transactional service used by the CLI: result-level
// lifecycle with top-level menu bookkeeping, per-level menus, scoped records
// and template installation.
package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SeuMarco/program/internal/menus"
	"github.com/SeuMarco/program/internal/templates"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Service runs every operation in a single store transaction.
type Service struct {
	store   domain.PersistentStore
	logger  *zap.Logger
	metrics *menus.Metrics

	mu       sync.RWMutex
	registry *templates.Registry
	manager  *menus.Manager
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLogger sets the service and manager logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the manager metrics sink.
func WithMetrics(metrics *menus.Metrics) ServiceOption {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// NewService constructs a service over store. Templates already installed in
// the store are discovered immediately.
func NewService(ctx context.Context, store domain.PersistentStore, opts ...ServiceOption) (*Service, error) {
	s := &Service{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	var registry *templates.Registry
	if err := store.View(ctx, func(view domain.TransactionView) error {
		registry = templates.Discover(view)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "discover templates")
	}
	s.setRegistry(registry)
	return s, nil
}

func (s *Service) setRegistry(registry *templates.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry
	s.manager = menus.NewManager(registry, menus.WithLogger(s.logger), menus.WithMetrics(s.metrics))
}

func (s *Service) currentManager() *menus.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager
}

// Store returns the underlying persistent store.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Registry returns the template registry currently in use.
func (s *Service) Registry() *templates.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// InstallTemplates installs the missing entries of catalog and switches the
// service to the resulting registry.
func (s *Service) InstallTemplates(ctx context.Context, catalog templates.Catalog) (*templates.Registry, domain.Result, error) {
	var registry *templates.Registry
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		registry, err = templates.Install(tx, catalog)
		return err
	})
	if err != nil {
		return nil, res, err
	}
	s.setRegistry(registry)
	s.logger.Info("templates installed", zap.Int("entries", registry.Len()))
	return registry, res, nil
}

// CreateResultLevel creates a level, building its menu tree when requested.
func (s *Service) CreateResultLevel(ctx context.Context, vals domain.ResultLevelValues) (domain.ResultLevel, domain.Result, error) {
	manager := s.currentManager()
	var created domain.ResultLevel
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = manager.Create(ctx, tx, vals)
		return err
	})
	if err != nil {
		return domain.ResultLevel{}, res, err
	}
	s.logger.Info("result level created",
		zap.String("id", created.ID),
		zap.Bool("top_level_menu", created.TopLevelMenu),
	)
	return created, res, nil
}

// WriteResultLevels applies vals to every level in ids.
func (s *Service) WriteResultLevels(ctx context.Context, ids []string, vals domain.ResultLevelValues) ([]domain.ResultLevel, domain.Result, error) {
	manager := s.currentManager()
	var written []domain.ResultLevel
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		written, err = manager.Write(ctx, tx, ids, vals)
		return err
	})
	if err != nil {
		return nil, res, err
	}
	s.logger.Info("result levels written", zap.Strings("ids", ids))
	return written, res, nil
}

// UnlinkResultLevels deletes the levels in ids, handing over or destroying
// their menu trees.
func (s *Service) UnlinkResultLevels(ctx context.Context, ids []string) (domain.Result, error) {
	manager := s.currentManager()
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return manager.Unlink(ctx, tx, ids)
	})
	if err != nil {
		return res, err
	}
	s.logger.Info("result levels unlinked", zap.Strings("ids", ids))
	return res, nil
}

// ResultLevel returns the level with id.
func (s *Service) ResultLevel(id string) (domain.ResultLevel, error) {
	level, ok := s.store.GetResultLevel(id)
	if !ok {
		return domain.ResultLevel{}, domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
	}
	return level, nil
}

// CreateMenu creates the visible menu of level levelID and assigns it. The
// menu starts under the template result menu when installed; the write then
// re-anchors it under the chain's generated tree if the chain owns one.
func (s *Service) CreateMenu(ctx context.Context, levelID, name string) (domain.Menu, domain.Result, error) {
	manager := s.currentManager()
	registry := s.Registry()
	var created domain.Menu
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindResultLevel(levelID); !ok {
			return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: levelID}
		}
		menu := domain.Menu{Name: name}
		if parentID, err := registry.Resolve(templates.KeyResultMenu); err == nil {
			menu.ParentID = parentID
		}
		menu, err := tx.CreateMenu(menu)
		if err != nil {
			return errors.Wrap(err, "create level menu")
		}
		if _, err := manager.Write(ctx, tx, []string{levelID}, domain.ResultLevelValues{MenuID: domain.String(menu.ID)}); err != nil {
			return err
		}
		created, _ = tx.FindMenu(menu.ID)
		return nil
	})
	if err != nil {
		return domain.Menu{}, res, err
	}
	return created, res, nil
}

// CreateScopedRecord creates record through the action actionID. The action
// model must match the record kind; its default_top_level_menu_id context
// value tags the record when the caller left the owner empty.
func (s *Service) CreateScopedRecord(ctx context.Context, actionID string, record domain.ScopedRecord) (domain.ScopedRecord, domain.Result, error) {
	var created domain.ScopedRecord
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		action, ok := tx.FindWindowAction(actionID)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityWindowAction, ID: actionID}
		}
		if record.Kind == "" {
			record.Kind = action.Model
		}
		if action.Model != record.Kind {
			return fmt.Errorf("action %s opens %s records, not %s", actionID, action.Model, record.Kind)
		}
		if record.TopLevelMenuID == "" {
			record.TopLevelMenuID = action.Context[domain.ContextDefaultTopLevelMenuID]
		}
		var err error
		created, err = tx.CreateScopedRecord(record)
		return err
	})
	if err != nil {
		return domain.ScopedRecord{}, res, err
	}
	return created, res, nil
}

// ScopedRecords lists records of kind matching filter, ordered by ID.
func (s *Service) ScopedRecords(kind domain.EntityType, filter domain.Filter) []domain.ScopedRecord {
	var out []domain.ScopedRecord
	for _, r := range s.store.ListScopedRecords(kind) {
		if filter.Match(domain.ScopedLookup(r, s.store.GetResultLevel)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResultLevels returns the levels matching filter, ordered by ID. Filters may
// follow chain_root and parent_id, as the generated level screens do.
func (s *Service) ResultLevels(filter domain.Filter) []domain.ResultLevel {
	var out []domain.ResultLevel
	for _, l := range s.store.ListResultLevels() {
		if filter.Match(domain.LevelLookup(l, s.store.GetResultLevel)) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MenuNode is a menu with its bound action and ordered children.
type MenuNode struct {
	Menu     domain.Menu          `json:"menu"`
	Action   *domain.WindowAction `json:"action,omitempty"`
	Children []MenuNode           `json:"children,omitempty"`
}

// Count returns the number of menus in the subtree rooted at n.
func (n MenuNode) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// MenuTree loads the menu subtree rooted at rootID.
func (s *Service) MenuTree(ctx context.Context, rootID string) (MenuNode, error) {
	var node MenuNode
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		var load func(id string, depth int) (MenuNode, error)
		load = func(id string, depth int) (MenuNode, error) {
			if depth > maxMenuDepth {
				return MenuNode{}, fmt.Errorf("menu %s nested deeper than %d", rootID, maxMenuDepth)
			}
			menu, ok := view.FindMenu(id)
			if !ok {
				return MenuNode{}, domain.ErrNotFound{Entity: domain.EntityMenu, ID: id}
			}
			n := MenuNode{Menu: menu}
			if menu.ActionID != "" {
				if action, ok := view.FindWindowAction(menu.ActionID); ok {
					n.Action = &action
				}
			}
			for _, childID := range menu.ChildIDs {
				child, err := load(childID, depth+1)
				if err != nil {
					return MenuNode{}, err
				}
				n.Children = append(n.Children, child)
			}
			return n, nil
		}
		var err error
		node, err = load(rootID, 0)
		return err
	})
	return node, err
}

const maxMenuDepth = 64
