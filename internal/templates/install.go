package templates

import (
	"github.com/SeuMarco/program/pkg/domain"

	"github.com/pkg/errors"
)

// Install creates every catalog entry that is not yet present in tx and
// returns the registry covering the whole catalog. Entries already installed
// are matched by external ID and left untouched.
func Install(tx domain.Transaction, catalog Catalog) (*Registry, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	existing := Discover(tx.Snapshot())
	entries := make(map[string]string, len(catalog.Actions)+len(catalog.Menus))
	for _, key := range existing.Keys() {
		id, _ := existing.Resolve(key)
		entries[key] = id
	}

	for _, a := range catalog.Actions {
		if _, ok := entries[a.Key]; ok {
			continue
		}
		created, err := tx.CreateWindowAction(domain.WindowAction{
			ExternalID: a.Key,
			Name:       a.Name,
			Model:      a.Model,
			ViewMode:   a.ViewMode,
			Domain:     a.Domain.Clone(),
			Context:    copyContext(a.Context),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "install action %s", a.Key)
		}
		entries[a.Key] = created.ID
	}
	for _, m := range catalog.Menus {
		if _, ok := entries[m.Key]; ok {
			continue
		}
		menu := domain.Menu{ExternalID: m.Key, Name: m.Name, Sequence: m.Sequence}
		if m.Parent != "" {
			menu.ParentID = entries[m.Parent]
		}
		if m.Action != "" {
			menu.ActionID = entries[m.Action]
		}
		created, err := tx.CreateMenu(menu)
		if err != nil {
			return nil, errors.Wrapf(err, "install menu %s", m.Key)
		}
		entries[m.Key] = created.ID
	}
	return NewRegistry(entries), nil
}

func copyContext(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
