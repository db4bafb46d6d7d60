package menus

import (
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// relink re-parents the node's visible menu under candidate. Non-root nodes
// in a chain whose root owns a top-level menu are anchored under that menu's
// first child instead. Roots keep their menu unless a candidate is given or
// the write enables a top-level menu.
func (m *Manager) relink(tx domain.Transaction, id, candidate string, vals domain.ResultLevelValues) error {
	level, ok := tx.FindResultLevel(id)
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
	}
	if !level.IsRoot() {
		if anchor := m.chainAnchor(tx, level); anchor != "" {
			candidate = anchor
		}
	}
	if candidate == "" && !vals.WantsTopLevelMenu() {
		return nil
	}
	if level.MenuID == "" {
		return nil
	}
	if _, err := tx.UpdateMenu(level.MenuID, func(menu *domain.Menu) error {
		menu.ParentID = candidate
		return nil
	}); err != nil {
		return errors.Wrapf(err, "relink menu of %s", id)
	}
	m.logger.Debug("relinked result level menu",
		zap.String("result_level_id", id),
		zap.String("menu_id", level.MenuID),
		zap.String("parent_menu_id", candidate),
	)
	return nil
}

// chainAnchor returns the first child of the chain root's top-level menu, or
// "" when the root owns none.
func (m *Manager) chainAnchor(tx domain.Transaction, level domain.ResultLevel) string {
	root, ok := tx.FindResultLevel(level.ChainRootID)
	if !ok || !root.TopLevelMenu || root.TopLevelMenuID == "" {
		return ""
	}
	top, ok := tx.FindMenu(root.TopLevelMenuID)
	if !ok || len(top.ChildIDs) == 0 {
		return ""
	}
	return top.ChildIDs[0]
}
