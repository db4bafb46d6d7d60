package menus

import (
	"github.com/SeuMarco/program/internal/templates"
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ownerDomain restricts a cloned action to records of the chain owning
// topID. The field path depends on which template entry is cloned.
func ownerDomain(menuRef, topID string) domain.Filter {
	switch menuRef {
	case templates.KeyResultChainMenu:
		return domain.Filter{domain.Eq("result_level_id.top_level_menu_id", topID)}
	case templates.KeyConfigurationLevelMenu:
		return domain.Filter{domain.Eq("chain_root.top_level_menu_id", topID)}
	}
	return domain.Filter{domain.Eq("top_level_menu_id", topID)}
}

// ownerContext tags records created through a configuration leaf with
// topID. Result chain and level screens get no defaults.
func ownerContext(menuRef, topID string) map[string]string {
	switch menuRef {
	case templates.KeyResultChainMenu, templates.KeyConfigurationLevelMenu:
		return nil
	}
	return map[string]string{domain.ContextDefaultTopLevelMenuID: topID}
}

// build generates a top-level menu named name with the result and
// configuration subtrees cloned below it. It stores the new menu ID in
// vals.TopLevelMenuID and returns the cloned result menu, which becomes the
// parent candidate for the owner's visible menu.
func (m *Manager) build(tx domain.Transaction, name string, vals *domain.ResultLevelValues) (string, error) {
	programMenu, err := m.registry.Menu(tx, templates.KeyProgramMenu)
	if err != nil {
		return "", errors.Wrap(err, "build menu tree")
	}
	top, err := tx.CreateMenu(domain.Menu{Name: name, Sequence: programMenu.Sequence})
	if err != nil {
		return "", errors.Wrap(err, "create top-level menu")
	}
	vals.TopLevelMenuID = domain.String(top.ID)
	underTop := templates.MenuOverrides{ParentID: domain.String(top.ID)}

	resultID, err := m.cloner.Clone(tx, templates.KeyResultMenu, underTop)
	if err != nil {
		return "", err
	}
	if _, err := m.cloner.CloneMenuAction(tx,
		templates.KeyResultChainMenu, templates.KeyResultTreeAction,
		templates.MenuOverrides{ParentID: domain.String(resultID)},
		ownerDomain(templates.KeyResultChainMenu, top.ID), nil,
	); err != nil {
		return "", err
	}

	configID, err := m.cloner.Clone(tx, templates.KeyConfigurationMenu, underTop)
	if err != nil {
		return "", err
	}
	configTemplate, err := m.registry.Menu(tx, templates.KeyConfigurationMenu)
	if err != nil {
		return "", errors.Wrap(err, "build menu tree")
	}
	for _, childID := range configTemplate.ChildIDs {
		child, _ := tx.FindMenu(childID)
		menuRef, ok := m.registry.Key(child.ID)
		if !ok {
			return "", errors.Errorf("configuration entry %s is not a template menu", child.ID)
		}
		actionRef, ok := m.registry.Key(child.ActionID)
		if !ok {
			return "", errors.Errorf("configuration entry %s has no template action", menuRef)
		}
		if _, err := m.cloner.CloneMenuAction(tx, menuRef, actionRef,
			templates.MenuOverrides{ParentID: domain.String(configID)},
			ownerDomain(menuRef, top.ID), ownerContext(menuRef, top.ID),
		); err != nil {
			return "", err
		}
	}

	m.metrics.MenusBuilt.Inc()
	m.logger.Debug("built top-level menu tree",
		zap.String("top_level_menu_id", top.ID),
		zap.String("name", name),
		zap.Int("configuration_entries", len(configTemplate.ChildIDs)),
	)
	return resultID, nil
}
