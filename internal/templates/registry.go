package templates

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/SeuMarco/program/pkg/domain"
)

// Registry maps template keys to record IDs and back. It is built once and
// read-only afterwards.
type Registry struct {
	ids  map[string]string
	keys map[string]string
}

// NewRegistry builds a registry from key to ID pairs.
func NewRegistry(entries map[string]string) *Registry {
	r := &Registry{
		ids:  make(map[string]string, len(entries)),
		keys: make(map[string]string, len(entries)),
	}
	for key, id := range entries {
		r.ids[key] = id
		r.keys[id] = key
	}
	return r
}

// Discover rebuilds the registry from records carrying an external ID.
func Discover(view domain.RuleView) *Registry {
	entries := make(map[string]string)
	for _, a := range view.ListWindowActions() {
		if a.ExternalID != "" {
			entries[a.ExternalID] = a.ID
		}
	}
	for _, m := range view.ListMenus() {
		if m.ExternalID != "" {
			entries[m.ExternalID] = m.ID
		}
	}
	return NewRegistry(entries)
}

// ErrUnknownKey is returned when a key has no registered record.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return fmt.Sprintf("template %q is not installed", e.Key)
}

// Resolve returns the record ID registered under key.
func (r *Registry) Resolve(key string) (string, error) {
	id, ok := r.ids[key]
	if !ok {
		return "", ErrUnknownKey{Key: key}
	}
	return id, nil
}

// Key returns the template key of id, if id is a template record.
func (r *Registry) Key(id string) (string, bool) {
	key, ok := r.keys[id]
	return key, ok
}

// Keys lists registered keys in lexical order.
func (r *Registry) Keys() []string {
	out := make([]string, 0, len(r.ids))
	for key := range r.ids {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of registered keys.
func (r *Registry) Len() int { return len(r.ids) }

// Menu resolves key and loads the menu within tx.
func (r *Registry) Menu(tx domain.Transaction, key string) (domain.Menu, error) {
	id, err := r.Resolve(key)
	if err != nil {
		return domain.Menu{}, err
	}
	menu, ok := tx.FindMenu(id)
	if !ok {
		return domain.Menu{}, domain.ErrNotFound{Entity: domain.EntityMenu, ID: id}
	}
	return menu, nil
}

// MarshalJSON encodes the key to ID mapping.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ids)
}

// UnmarshalJSON decodes a key to ID mapping.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*r = *NewRegistry(entries)
	return nil
}
