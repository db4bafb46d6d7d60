package templates

import (
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
)

// MenuOverrides replaces fields of a cloned menu. Nil fields keep the
// template value.
type MenuOverrides struct {
	Name     *string
	Sequence *int
	ParentID *string
}

func (o MenuOverrides) apply(m *domain.Menu) {
	if o.Name != nil {
		m.Name = *o.Name
	}
	if o.Sequence != nil {
		m.Sequence = *o.Sequence
	}
	if o.ParentID != nil {
		m.ParentID = *o.ParentID
	}
}

// Cloner copies template menus and actions addressed by key.
type Cloner struct {
	registry *Registry
}

// NewCloner returns a cloner resolving keys through registry.
func NewCloner(registry *Registry) *Cloner {
	return &Cloner{registry: registry}
}

// Registry returns the registry used for key resolution.
func (c *Cloner) Registry() *Registry { return c.registry }

// Clone copies the single menu registered under ref. Child menus are not
// copied; the clone keeps the template's action binding.
func (c *Cloner) Clone(tx domain.Transaction, ref string, overrides MenuOverrides) (string, error) {
	tmpl, err := c.registry.Menu(tx, ref)
	if err != nil {
		return "", errors.Wrapf(err, "clone %s", ref)
	}
	created, err := tx.CreateMenu(cloneMenu(tmpl, overrides))
	if err != nil {
		return "", errors.Wrapf(err, "clone %s", ref)
	}
	return created.ID, nil
}

// CloneMenuAction copies the action registered under actionRef with
// extraDomain appended to its domain and extraContext merged over its
// context, then copies the menu registered under menuRef bound to the new
// action. It returns the new menu ID.
func (c *Cloner) CloneMenuAction(tx domain.Transaction, menuRef, actionRef string, overrides MenuOverrides, extraDomain domain.Filter, extraContext map[string]string) (string, error) {
	tmplMenu, err := c.registry.Menu(tx, menuRef)
	if err != nil {
		return "", errors.Wrapf(err, "clone %s", menuRef)
	}
	actionID, err := c.registry.Resolve(actionRef)
	if err != nil {
		return "", errors.Wrapf(err, "clone %s", actionRef)
	}
	tmplAction, ok := tx.FindWindowAction(actionID)
	if !ok {
		return "", errors.Wrapf(domain.ErrNotFound{Entity: domain.EntityWindowAction, ID: actionID}, "clone %s", actionRef)
	}

	action := tmplAction
	action.ID = ""
	action.ExternalID = ""
	action.Domain = tmplAction.Domain.And(extraDomain...)
	action.Context = copyContext(tmplAction.Context)
	for k, v := range extraContext {
		if action.Context == nil {
			action.Context = make(map[string]string, len(extraContext))
		}
		action.Context[k] = v
	}
	newAction, err := tx.CreateWindowAction(action)
	if err != nil {
		return "", errors.Wrapf(err, "clone %s", actionRef)
	}

	menu := cloneMenu(tmplMenu, overrides)
	menu.ActionID = newAction.ID
	created, err := tx.CreateMenu(menu)
	if err != nil {
		return "", errors.Wrapf(err, "clone %s", menuRef)
	}
	return created.ID, nil
}

func cloneMenu(tmpl domain.Menu, overrides MenuOverrides) domain.Menu {
	menu := domain.Menu{
		Name:     tmpl.Name,
		Sequence: tmpl.Sequence,
		ParentID: tmpl.ParentID,
		ActionID: tmpl.ActionID,
	}
	overrides.apply(&menu)
	return menu
}
