// Package templates installs the reference menu/action trees and clones them
// on demand. Template records are addressed by stable symbolic keys through a
// Registry built once at startup.
package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/SeuMarco/program/pkg/domain"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Well-known template keys referenced by the menu manager.
const (
	KeyProgramMenu            = "program.menu_program"
	KeyResultMenu             = "program.menu_program_result"
	KeyResultChainMenu        = "program.menu_program_result_chain"
	KeyResultTreeAction       = "program.action_program_result_tree"
	KeyConfigurationMenu      = "program.menu_program_configuration"
	KeyConfigurationLevelMenu = "program.menu_program_configuration_level"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// ActionTemplate describes a reference window action.
type ActionTemplate struct {
	Key      string            `yaml:"key" validate:"required"`
	Name     string            `yaml:"name" validate:"required"`
	Model    domain.EntityType `yaml:"model" validate:"required,oneof=result_level intervention tag target"`
	ViewMode string            `yaml:"view_mode"`
	Domain   domain.Filter     `yaml:"domain"`
	Context  map[string]string `yaml:"context"`
}

// MenuTemplate describes a reference menu. Parent and Action hold keys of
// entries declared earlier in the catalog.
type MenuTemplate struct {
	Key      string `yaml:"key" validate:"required"`
	Name     string `yaml:"name" validate:"required"`
	Sequence int    `yaml:"sequence"`
	Parent   string `yaml:"parent"`
	Action   string `yaml:"action"`
}

// Catalog lists the reference records to install.
type Catalog struct {
	Actions []ActionTemplate `yaml:"actions" validate:"dive"`
	Menus   []MenuTemplate   `yaml:"menus" validate:"required,dive"`
}

// DefaultCatalog returns the embedded reference catalog.
func DefaultCatalog() (Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalogFile reads a catalog from path.
func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied catalog path
	if err != nil {
		return Catalog{}, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()
	return LoadCatalog(f)
}

// LoadCatalog decodes and validates a YAML catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil {
		return Catalog{}, errors.Wrap(err, "decode catalog")
	}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

// Validate checks field constraints, key uniqueness and that every parent or
// action reference points at an earlier entry.
func (c Catalog) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.Wrap(err, "invalid catalog")
	}
	seen := make(map[string]bool, len(c.Actions)+len(c.Menus))
	actions := make(map[string]bool, len(c.Actions))
	for _, a := range c.Actions {
		if seen[a.Key] {
			return fmt.Errorf("duplicate template key %q", a.Key)
		}
		seen[a.Key] = true
		actions[a.Key] = true
	}
	menus := make(map[string]bool, len(c.Menus))
	for _, m := range c.Menus {
		if seen[m.Key] {
			return fmt.Errorf("duplicate template key %q", m.Key)
		}
		seen[m.Key] = true
		if m.Parent != "" && !menus[m.Parent] {
			return fmt.Errorf("menu %q: parent %q must be declared before it", m.Key, m.Parent)
		}
		if m.Action != "" && !actions[m.Action] {
			return fmt.Errorf("menu %q: unknown action %q", m.Key, m.Action)
		}
		menus[m.Key] = true
	}
	for _, required := range []string{KeyProgramMenu, KeyResultMenu, KeyResultChainMenu, KeyConfigurationMenu} {
		if !menus[required] {
			return fmt.Errorf("catalog is missing menu %q", required)
		}
	}
	if !actions[KeyResultTreeAction] {
		return fmt.Errorf("catalog is missing action %q", KeyResultTreeAction)
	}
	return nil
}
