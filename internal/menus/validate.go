package menus

import "github.com/SeuMarco/program/pkg/domain"

// validate normalises vals in place and rejects writes that would break
// single-owner placement. targets holds the records of an update and is nil
// on create.
func (m *Manager) validate(vals *domain.ResultLevelValues, targets []domain.ResultLevel) error {
	if vals.TopLevelMenu != nil && !*vals.TopLevelMenu {
		vals.TopLevelMenuName = domain.String("")
	}
	if !vals.WantsTopLevelMenu() {
		return nil
	}
	if vals.MenuName() == "" {
		if vals.TopLevelMenuName != nil || targets == nil {
			return m.reject(MissingMenuNameError{})
		}
		for _, t := range targets {
			if t.TopLevelMenuName == "" {
				return m.reject(MissingMenuNameError{LevelID: t.ID})
			}
		}
	}
	if vals.SetsParent() {
		return m.reject(InvalidTopLevelPlacementError{})
	}
	for _, t := range targets {
		if t.Depth > 1 && !vals.ClearsParent() {
			return m.reject(InvalidTopLevelPlacementError{LevelID: t.ID})
		}
	}
	return nil
}
