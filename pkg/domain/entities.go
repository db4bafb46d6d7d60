// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by the result-level menu manager.
package domain

import (
	"fmt"
	"strconv"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityResultLevel identifies a node of a results chain.
	EntityResultLevel EntityType = "result_level"
	// EntityMenu identifies a navigation menu entry.
	EntityMenu EntityType = "menu"
	// EntityWindowAction identifies a window action bound to a menu.
	EntityWindowAction EntityType = "window_action"
	// EntityIntervention identifies an intervention scoped to a top-level menu.
	EntityIntervention EntityType = "intervention"
	// EntityTag identifies a tag scoped to a top-level menu.
	EntityTag EntityType = "tag"
	// EntityTarget identifies a target scoped to a top-level menu.
	EntityTarget EntityType = "target"
)

// ScopedKinds lists the record kinds that carry a top_level_menu_id and are
// removed together with the generated menu tree that owns them.
var ScopedKinds = []EntityType{EntityIntervention, EntityTag, EntityTarget}

// IsScoped reports whether kind is one of ScopedKinds.
func IsScoped(kind EntityType) bool {
	for _, k := range ScopedKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResultLevel is a node in a results chain. Depth, ChainRootID and ChildIDs
// are computed by the store on every read and never persisted.
type ResultLevel struct {
	Base
	Name             string `json:"name" validate:"required"`
	Sequence         int    `json:"sequence"`
	ParentID         string `json:"parent_id,omitempty"`
	MenuID           string `json:"menu_id,omitempty"`
	TopLevelMenu     bool   `json:"top_level_menu"`
	TopLevelMenuName string `json:"top_level_menu_name,omitempty"`
	TopLevelMenuID   string `json:"top_level_menu_id,omitempty"`

	Depth       int      `json:"-"`
	ChainRootID string   `json:"-"`
	ChildIDs    []string `json:"-"`
}

// IsRoot reports whether the level has no parent.
func (l ResultLevel) IsRoot() bool { return l.ParentID == "" }

// Field resolves a level field by its storage name for filter matching.
func (l ResultLevel) Field(name string) (string, bool) {
	switch name {
	case "id":
		return l.ID, true
	case "name":
		return l.Name, true
	case "parent_id":
		return l.ParentID, true
	case "menu_id":
		return l.MenuID, true
	case "chain_root_id":
		return l.ChainRootID, true
	case "top_level_menu":
		return strconv.FormatBool(l.TopLevelMenu), true
	case "top_level_menu_name":
		return l.TopLevelMenuName, true
	case "top_level_menu_id":
		return l.TopLevelMenuID, true
	}
	return "", false
}

// Ownership returns the top-level menu triple carried by the level.
func (l ResultLevel) Ownership() Ownership {
	return Ownership{
		TopLevelMenu:     l.TopLevelMenu,
		TopLevelMenuName: l.TopLevelMenuName,
		TopLevelMenuID:   l.TopLevelMenuID,
	}
}

// Ownership is the (top_level_menu, top_level_menu_name, top_level_menu_id)
// triple that moves between levels when a chain root changes.
type Ownership struct {
	TopLevelMenu     bool
	TopLevelMenuName string
	TopLevelMenuID   string
}

// Values converts the triple into a write payload.
func (o Ownership) Values() ResultLevelValues {
	return ResultLevelValues{
		TopLevelMenu:     Bool(o.TopLevelMenu),
		TopLevelMenuName: String(o.TopLevelMenuName),
		TopLevelMenuID:   String(o.TopLevelMenuID),
	}
}

// Menu is a navigation entry. Menus form a tree through ParentID. ExternalID
// is the symbolic key of a template menu and stays empty on clones.
type Menu struct {
	Base
	ExternalID string   `json:"external_id,omitempty"`
	Name       string   `json:"name" validate:"required"`
	Sequence   int      `json:"sequence"`
	ParentID   string   `json:"parent_id,omitempty"`
	ActionID   string   `json:"action_id,omitempty"`
	ChildIDs   []string `json:"-"`
}

// WindowAction opens a list/tree view over Model restricted by Domain. Context
// carries default values applied to records created through the action.
type WindowAction struct {
	Base
	ExternalID string            `json:"external_id,omitempty"`
	Name       string            `json:"name" validate:"required"`
	Model      EntityType        `json:"model" validate:"required"`
	ViewMode   string            `json:"view_mode,omitempty"`
	Domain     Filter            `json:"domain,omitempty"`
	Context    map[string]string `json:"context,omitempty"`
}

// ContextDefaultTopLevelMenuID is the action context key that tags records
// created through a generated configuration screen with their owner menu.
const ContextDefaultTopLevelMenuID = "default_top_level_menu_id"

// ScopedRecord covers interventions, tags and targets. Only the fields needed
// for scoping and deletion are modelled.
type ScopedRecord struct {
	Base
	Kind           EntityType `json:"kind" validate:"required,oneof=intervention tag target"`
	Name           string     `json:"name" validate:"required"`
	ResultLevelID  string     `json:"result_level_id,omitempty"`
	TopLevelMenuID string     `json:"top_level_menu_id,omitempty"`
}

// Field resolves a record field by its storage name for filter matching.
func (r ScopedRecord) Field(name string) (string, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "name":
		return r.Name, true
	case "kind":
		return string(r.Kind), true
	case "result_level_id":
		return r.ResultLevelID, true
	case "top_level_menu_id":
		return r.TopLevelMenuID, true
	}
	return "", false
}

// Change describes a mutation captured within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action enumerates change operations.
type Action string

// Supported change actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a rule outcome.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from rule evaluation.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any violation blocks commit.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("transaction blocked by rules: %s", v.Message)
		}
	}
	return "transaction blocked by rules"
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
