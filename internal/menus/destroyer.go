package menus

import (
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// destroy removes the menu tree rooted at topID together with every scoped
// record tagged with it. Scoped records go first, then menus, then the
// actions no surviving menu still uses.
func (m *Manager) destroy(tx domain.Transaction, topID string) error {
	tree := tx.MenuDescendants(topID)
	inTree := make(map[string]struct{}, len(tree))
	for _, menu := range tree {
		inTree[menu.ID] = struct{}{}
	}
	sharedOutside := make(map[string]struct{})
	for _, menu := range tx.Snapshot().ListMenus() {
		if _, ok := inTree[menu.ID]; !ok && menu.ActionID != "" {
			sharedOutside[menu.ActionID] = struct{}{}
		}
	}
	var actionIDs []string
	seen := make(map[string]struct{})
	for _, menu := range tree {
		if menu.ActionID == "" {
			continue
		}
		if _, dup := seen[menu.ActionID]; dup {
			continue
		}
		seen[menu.ActionID] = struct{}{}
		if _, shared := sharedOutside[menu.ActionID]; shared {
			continue
		}
		if _, template := m.registry.Key(menu.ActionID); template {
			continue
		}
		actionIDs = append(actionIDs, menu.ActionID)
	}

	scoped := 0
	byOwner := domain.Filter{domain.Eq("top_level_menu_id", topID)}
	for _, kind := range domain.ScopedKinds {
		for _, rec := range tx.SearchScopedRecords(kind, byOwner) {
			if err := tx.DeleteScopedRecord(kind, rec.ID); err != nil {
				return errors.Wrapf(err, "delete %s %s", kind, rec.ID)
			}
			scoped++
		}
	}
	for i := len(tree) - 1; i >= 0; i-- {
		if err := tx.DeleteMenu(tree[i].ID); err != nil {
			return errors.Wrapf(err, "delete menu %s", tree[i].ID)
		}
	}
	for _, id := range actionIDs {
		if err := tx.DeleteWindowAction(id); err != nil {
			return errors.Wrapf(err, "delete action %s", id)
		}
	}

	m.metrics.MenusDestroyed.Inc()
	m.logger.Debug("destroyed top-level menu tree",
		zap.String("top_level_menu_id", topID),
		zap.Int("menus", len(tree)),
		zap.Int("actions", len(actionIDs)),
		zap.Int("scoped_records", scoped),
	)
	return nil
}
