// Package menus keeps generated top-level menu trees consistent with the
// result-level hierarchy. Every operation runs inside the caller's
// transaction; a returned error leaves partial writes for the transaction
// to discard.
package menus

import (
	"context"

	"github.com/SeuMarco/program/internal/templates"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Manager wraps result-level create, write and unlink with top-level menu
// bookkeeping.
type Manager struct {
	registry *templates.Registry
	cloner   *templates.Cloner
	logger   *zap.Logger
	metrics  *Metrics
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink. Defaults to unregistered collectors.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// NewManager builds a manager resolving template keys through registry.
func NewManager(registry *templates.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		cloner:   templates.NewCloner(registry),
		logger:   zap.NewNop(),
		metrics:  NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates vals, generates a menu tree when the new level asks for
// one, stores the level and anchors its visible menu.
func (m *Manager) Create(ctx context.Context, tx domain.Transaction, vals domain.ResultLevelValues) (domain.ResultLevel, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResultLevel{}, err
	}
	vals = vals.Clone()
	if err := m.validate(&vals, nil); err != nil {
		return domain.ResultLevel{}, err
	}
	var candidate string
	if vals.WantsTopLevelMenu() && (vals.TopLevelMenuID == nil || *vals.TopLevelMenuID == "") {
		var err error
		if candidate, err = m.build(tx, vals.MenuName(), &vals); err != nil {
			return domain.ResultLevel{}, err
		}
	}
	created, err := tx.CreateResultLevel(vals.NewResultLevel())
	if err != nil {
		return domain.ResultLevel{}, errors.Wrap(err, "create result level")
	}
	if err := m.relink(tx, created.ID, candidate, vals); err != nil {
		return domain.ResultLevel{}, err
	}
	level, _ := tx.FindResultLevel(created.ID)
	return level, nil
}

// Write applies vals to every level in ids. Levels enabling a top-level menu
// without an existing tree get a new one; a parent change bubbles ownership
// to the chain root.
func (m *Manager) Write(ctx context.Context, tx domain.Transaction, ids []string, vals domain.ResultLevelValues) ([]domain.ResultLevel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vals = vals.Clone()
	targets := make([]domain.ResultLevel, 0, len(ids))
	for _, id := range ids {
		level, ok := tx.FindResultLevel(id)
		if !ok {
			return nil, domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
		}
		targets = append(targets, level)
	}
	if err := m.validate(&vals, targets); err != nil {
		return nil, err
	}

	candidates := make([]string, len(ids))
	written := make([]domain.ResultLevelValues, len(ids))
	for i, id := range ids {
		current, ok := tx.FindResultLevel(id)
		if !ok {
			return nil, domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
		}
		tv := vals.Clone()
		if tv.WantsTopLevelMenu() && current.TopLevelMenuID == "" && tv.TopLevelMenuID == nil {
			name := tv.MenuName()
			if tv.TopLevelMenuName == nil {
				name = current.TopLevelMenuName
			}
			candidate, err := m.build(tx, name, &tv)
			if err != nil {
				return nil, err
			}
			candidates[i] = candidate
		}
		if _, err := tx.UpdateResultLevel(id, func(l *domain.ResultLevel) error {
			tv.Apply(l)
			return nil
		}); err != nil {
			return nil, errors.Wrapf(err, "write result level %s", id)
		}
		written[i] = tv
	}

	if vals.ParentID != nil {
		for _, id := range ids {
			if err := m.bubble(tx, id); err != nil {
				return nil, err
			}
		}
	}
	out := make([]domain.ResultLevel, 0, len(ids))
	for i, id := range ids {
		if err := m.relink(tx, id, candidates[i], written[i]); err != nil {
			return nil, err
		}
		level, _ := tx.FindResultLevel(id)
		out = append(out, level)
	}
	return out, nil
}

// Unlink deletes the levels in ids in order. A deleted owner hands its menu
// tree to its first remaining child, or destroys the tree when it has none.
// Each level is re-read right before deletion because earlier deletions in
// the batch detach children.
func (m *Manager) Unlink(ctx context.Context, tx domain.Transaction, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		level, ok := tx.FindResultLevel(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
		}
		captured := level.Ownership()
		children := level.ChildIDs
		if err := tx.DeleteResultLevel(id); err != nil {
			return errors.Wrapf(err, "unlink result level %s", id)
		}
		if !captured.TopLevelMenu && captured.TopLevelMenuID == "" {
			continue
		}
		if len(children) > 0 {
			heir := children[0]
			if err := m.retireDormant(tx, heir, captured.TopLevelMenuID); err != nil {
				return err
			}
			vals := captured.Values()
			vals.ParentID = domain.String("")
			if _, err := m.Write(ctx, tx, []string{heir}, vals); err != nil {
				return errors.Wrapf(err, "hand menu of %s to %s", id, heir)
			}
			m.metrics.OwnershipTransfers.WithLabelValues(reasonUnlink).Inc()
			m.logger.Debug("handed top-level menu to child",
				zap.String("from", id),
				zap.String("to", heir),
				zap.String("top_level_menu_id", captured.TopLevelMenuID),
			)
			continue
		}
		if captured.TopLevelMenuID != "" {
			if err := m.destroy(tx, captured.TopLevelMenuID); err != nil {
				return err
			}
		}
	}
	return nil
}

// retireDormant destroys a tree the heir kept from an earlier disable, unless
// it is the inherited one. The heir's own visible menu is lifted out of the
// tree first so it survives.
func (m *Manager) retireDormant(tx domain.Transaction, heirID, inherited string) error {
	heir, ok := tx.FindResultLevel(heirID)
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: heirID}
	}
	dormant := heir.TopLevelMenuID
	if dormant == "" || dormant == inherited {
		return nil
	}
	if heir.MenuID != "" {
		for _, menu := range tx.MenuDescendants(dormant) {
			if menu.ID != heir.MenuID {
				continue
			}
			if _, err := tx.UpdateMenu(heir.MenuID, func(menu *domain.Menu) error {
				menu.ParentID = ""
				return nil
			}); err != nil {
				return errors.Wrapf(err, "detach menu of %s", heirID)
			}
			break
		}
	}
	m.logger.Warn("heir holds a dormant top-level menu; destroying it before handover",
		zap.String("result_level_id", heirID),
		zap.String("dormant_top_level_menu_id", dormant),
		zap.String("inherited_top_level_menu_id", inherited),
	)
	return m.destroy(tx, dormant)
}
