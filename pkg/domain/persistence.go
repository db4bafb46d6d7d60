package domain

import "context"

// Transaction exposes the record operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateResultLevel(ResultLevel) (ResultLevel, error)
	UpdateResultLevel(id string, mutator func(*ResultLevel) error) (ResultLevel, error)
	DeleteResultLevel(id string) error
	FindResultLevel(id string) (ResultLevel, bool)
	CreateMenu(Menu) (Menu, error)
	UpdateMenu(id string, mutator func(*Menu) error) (Menu, error)
	DeleteMenu(id string) error
	FindMenu(id string) (Menu, bool)
	MenuDescendants(id string) []Menu
	CreateWindowAction(WindowAction) (WindowAction, error)
	DeleteWindowAction(id string) error
	FindWindowAction(id string) (WindowAction, bool)
	CreateScopedRecord(ScopedRecord) (ScopedRecord, error)
	DeleteScopedRecord(kind EntityType, id string) error
	SearchScopedRecords(kind EntityType, filter Filter) []ScopedRecord
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetResultLevel(id string) (ResultLevel, bool)
	ListResultLevels() []ResultLevel
	GetMenu(id string) (Menu, bool)
	ListMenus() []Menu
	ListWindowActions() []WindowAction
	ListScopedRecords(kind EntityType) []ScopedRecord
	RulesEngine() *RulesEngine
}
