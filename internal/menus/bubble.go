package menus

import (
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// bubble moves top-level menu ownership from a non-root node to its chain
// root. When the root already owns a menu the node's ownership is dropped.
func (m *Manager) bubble(tx domain.Transaction, id string) error {
	level, ok := tx.FindResultLevel(id)
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
	}
	if level.IsRoot() || !level.TopLevelMenu {
		return nil
	}
	captured := level.Ownership()
	if _, err := tx.UpdateResultLevel(id, func(l *domain.ResultLevel) error {
		l.TopLevelMenu = false
		l.TopLevelMenuName = ""
		l.TopLevelMenuID = ""
		return nil
	}); err != nil {
		return errors.Wrapf(err, "clear ownership on %s", id)
	}

	root, ok := tx.FindResultLevel(level.ChainRootID)
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: level.ChainRootID}
	}
	if root.TopLevelMenu {
		m.metrics.OwnershipDropped.Inc()
		m.logger.Warn("chain root already owns a top-level menu; dropping bubbled ownership",
			zap.String("result_level_id", id),
			zap.String("chain_root_id", root.ID),
			zap.String("dropped_top_level_menu_id", captured.TopLevelMenuID),
			zap.String("root_top_level_menu_id", root.TopLevelMenuID),
		)
		return nil
	}
	vals := captured.Values()
	if _, err := tx.UpdateResultLevel(root.ID, func(l *domain.ResultLevel) error {
		vals.Apply(l)
		return nil
	}); err != nil {
		return errors.Wrapf(err, "transfer ownership to %s", root.ID)
	}
	m.metrics.OwnershipTransfers.WithLabelValues(reasonBubble).Inc()
	m.logger.Debug("bubbled top-level menu ownership",
		zap.String("from", id),
		zap.String("to", root.ID),
		zap.String("top_level_menu_id", captured.TopLevelMenuID),
	)
	return nil
}
