// Package memory provides an in-memory implementation of the persistence
// store used for tests, ephemeral environments, and as the transactional core
// of the snapshotting sqlite and postgres stores.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SeuMarco/program/pkg/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// ResultLevel aliases domain.ResultLevel for in-memory persistence operations.
	ResultLevel = domain.ResultLevel
	// Menu aliases domain.Menu.
	Menu = domain.Menu
	// WindowAction aliases domain.WindowAction.
	WindowAction = domain.WindowAction
	// ScopedRecord aliases domain.ScopedRecord.
	ScopedRecord = domain.ScopedRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// maxDepth bounds parent walks; the write guards reject cycles so this only
// protects against corrupted snapshots.
const maxDepth = 1 << 12

type memoryState struct {
	levels  map[string]ResultLevel
	menus   map[string]Menu
	actions map[string]WindowAction
	scoped  map[domain.EntityType]map[string]ScopedRecord
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	ResultLevels  map[string]ResultLevel  `json:"result_levels"`
	Menus         map[string]Menu         `json:"menus"`
	WindowActions map[string]WindowAction `json:"window_actions"`
	Interventions map[string]ScopedRecord `json:"interventions"`
	Tags          map[string]ScopedRecord `json:"tags"`
	Targets       map[string]ScopedRecord `json:"targets"`
}

// SnapshotBuckets names the persisted buckets in write order.
var SnapshotBuckets = []string{"result_levels", "menus", "window_actions", "interventions", "tags", "targets"}

// Buckets maps each bucket name to the snapshot field it encodes from and
// decodes into.
func (s *Snapshot) Buckets() map[string]any {
	return map[string]any{
		"result_levels":  &s.ResultLevels,
		"menus":          &s.Menus,
		"window_actions": &s.WindowActions,
		"interventions":  &s.Interventions,
		"tags":           &s.Tags,
		"targets":        &s.Targets,
	}
}

func newMemoryState() memoryState {
	scoped := make(map[domain.EntityType]map[string]ScopedRecord, len(domain.ScopedKinds))
	for _, kind := range domain.ScopedKinds {
		scoped[kind] = make(map[string]ScopedRecord)
	}
	return memoryState{
		levels:  make(map[string]ResultLevel),
		menus:   make(map[string]Menu),
		actions: make(map[string]WindowAction),
		scoped:  scoped,
	}
}

func (s Snapshot) scopedBucket(kind domain.EntityType) map[string]ScopedRecord {
	switch kind {
	case domain.EntityIntervention:
		return s.Interventions
	case domain.EntityTag:
		return s.Tags
	case domain.EntityTarget:
		return s.Targets
	}
	return nil
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		ResultLevels:  make(map[string]ResultLevel, len(state.levels)),
		Menus:         make(map[string]Menu, len(state.menus)),
		WindowActions: make(map[string]WindowAction, len(state.actions)),
		Interventions: make(map[string]ScopedRecord, len(state.scoped[domain.EntityIntervention])),
		Tags:          make(map[string]ScopedRecord, len(state.scoped[domain.EntityTag])),
		Targets:       make(map[string]ScopedRecord, len(state.scoped[domain.EntityTarget])),
	}
	for k, v := range state.levels {
		s.ResultLevels[k] = cloneLevel(v)
	}
	for k, v := range state.menus {
		s.Menus[k] = cloneMenu(v)
	}
	for k, v := range state.actions {
		s.WindowActions[k] = cloneAction(v)
	}
	for _, kind := range domain.ScopedKinds {
		bucket := s.scopedBucket(kind)
		for k, v := range state.scoped[kind] {
			bucket[k] = v
		}
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.ResultLevels {
		state.levels[k] = cloneLevel(v)
	}
	for k, v := range s.Menus {
		state.menus[k] = cloneMenu(v)
	}
	for k, v := range s.WindowActions {
		state.actions[k] = cloneAction(v)
	}
	for _, kind := range domain.ScopedKinds {
		for k, v := range s.scopedBucket(kind) {
			v.Kind = kind
			state.scoped[kind][k] = v
		}
	}
	return state
}

// migrateSnapshot fills missing buckets and drops references to records that
// no longer exist so an imported snapshot satisfies the write guards.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.ResultLevels == nil {
		snapshot.ResultLevels = map[string]ResultLevel{}
	}
	if snapshot.Menus == nil {
		snapshot.Menus = map[string]Menu{}
	}
	if snapshot.WindowActions == nil {
		snapshot.WindowActions = map[string]WindowAction{}
	}
	if snapshot.Interventions == nil {
		snapshot.Interventions = map[string]ScopedRecord{}
	}
	if snapshot.Tags == nil {
		snapshot.Tags = map[string]ScopedRecord{}
	}
	if snapshot.Targets == nil {
		snapshot.Targets = map[string]ScopedRecord{}
	}

	menuExists := func(id string) bool {
		_, ok := snapshot.Menus[id]
		return ok
	}
	levelExists := func(id string) bool {
		_, ok := snapshot.ResultLevels[id]
		return ok
	}

	for id, menu := range snapshot.Menus {
		if menu.ParentID != "" && !menuExists(menu.ParentID) {
			menu.ParentID = ""
		}
		if _, ok := snapshot.WindowActions[menu.ActionID]; menu.ActionID != "" && !ok {
			menu.ActionID = ""
		}
		snapshot.Menus[id] = menu
	}

	for id, level := range snapshot.ResultLevels {
		if level.ParentID != "" && !levelExists(level.ParentID) {
			level.ParentID = ""
		}
		if level.MenuID != "" && !menuExists(level.MenuID) {
			level.MenuID = ""
		}
		if level.TopLevelMenuID != "" && !menuExists(level.TopLevelMenuID) {
			level.TopLevelMenuID = ""
		}
		snapshot.ResultLevels[id] = level
	}

	for _, bucket := range []map[string]ScopedRecord{snapshot.Interventions, snapshot.Tags, snapshot.Targets} {
		for id, rec := range bucket {
			if rec.ResultLevelID != "" && !levelExists(rec.ResultLevelID) {
				rec.ResultLevelID = ""
			}
			if rec.TopLevelMenuID != "" && !menuExists(rec.TopLevelMenuID) {
				rec.TopLevelMenuID = ""
			}
			bucket[id] = rec
		}
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.levels {
		cloned.levels[k] = cloneLevel(v)
	}
	for k, v := range s.menus {
		cloned.menus[k] = cloneMenu(v)
	}
	for k, v := range s.actions {
		cloned.actions[k] = cloneAction(v)
	}
	for kind, bucket := range s.scoped {
		for k, v := range bucket {
			cloned.scoped[kind][k] = v
		}
	}
	return cloned
}

func cloneLevel(l ResultLevel) ResultLevel {
	cp := l
	cp.ChildIDs = append([]string(nil), l.ChildIDs...)
	return cp
}

func cloneMenu(m Menu) Menu {
	cp := m
	cp.ChildIDs = append([]string(nil), m.ChildIDs...)
	return cp
}

func cloneAction(a WindowAction) WindowAction {
	cp := a
	cp.Domain = a.Domain.Clone()
	if a.Context != nil {
		cp.Context = make(map[string]string, len(a.Context))
		for k, v := range a.Context {
			cp.Context[k] = v
		}
	}
	return cp
}

// stripLevel drops computed fields before a level is stored.
func stripLevel(l ResultLevel) ResultLevel {
	l.Depth = 0
	l.ChainRootID = ""
	l.ChildIDs = nil
	return l
}

func stripMenu(m Menu) Menu {
	m.ChildIDs = nil
	return m
}

func levelChildIDs(state *memoryState, id string) []string {
	var children []ResultLevel
	for _, level := range state.levels {
		if level.ParentID == id {
			children = append(children, level)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].Sequence != children[j].Sequence {
			return children[i].Sequence < children[j].Sequence
		}
		return children[i].ID < children[j].ID
	})
	ids := make([]string, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids
}

func decorateLevel(state *memoryState, level ResultLevel) ResultLevel {
	depth := 1
	root := level.ID
	parentID := level.ParentID
	for parentID != "" && depth < maxDepth {
		parent, ok := state.levels[parentID]
		if !ok {
			break
		}
		depth++
		root = parent.ID
		parentID = parent.ParentID
	}
	level.Depth = depth
	level.ChainRootID = root
	level.ChildIDs = levelChildIDs(state, level.ID)
	return level
}

func menuChildIDs(state *memoryState, id string) []string {
	var children []Menu
	for _, menu := range state.menus {
		if menu.ParentID == id {
			children = append(children, menu)
		}
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].Sequence != children[j].Sequence {
			return children[i].Sequence < children[j].Sequence
		}
		return children[i].ID < children[j].ID
	})
	ids := make([]string, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids
}

func decorateMenu(state *memoryState, menu Menu) Menu {
	menu.ChildIDs = menuChildIDs(state, menu.ID)
	return menu
}

// levelAncestorOf reports whether candidate is id or one of id's ancestors.
func levelAncestorOf(state *memoryState, candidate, id string) bool {
	for steps := 0; id != "" && steps < maxDepth; steps++ {
		if id == candidate {
			return true
		}
		id = state.levels[id].ParentID
	}
	return false
}

func menuAncestorOf(state *memoryState, candidate, id string) bool {
	for steps := 0; id != "" && steps < maxDepth; steps++ {
		if id == candidate {
			return true
		}
		id = state.menus[id].ParentID
	}
	return false
}

// Store provides an in-memory transactional store for the result-level domain.
type Store struct {
	mu       sync.RWMutex
	state    memoryState
	engine   *RulesEngine
	nowFn    func() time.Time
	validate *validator.Validate
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:    newMemoryState(),
		engine:   engine,
		nowFn:    func() time.Time { return time.Now().UTC() },
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// newID returns a time-ordered identifier so ID order follows creation order.
func (s *Store) newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// Restore replaces the store state with snapshot after the rules engine has
// accepted it. A blocking violation leaves the current state in place.
func (s *Store) Restore(ctx context.Context, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state := memoryStateFromSnapshot(migrateSnapshot(snapshot))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, newTransactionView(&state), nil)
		if err != nil {
			return err
		}
		if res.HasBlocking() {
			return domain.RuleViolationError{Result: res}
		}
	}
	s.state = state
	return nil
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider, mainly for deterministic tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListResultLevels returns all result levels ordered by ID.
func (v transactionView) ListResultLevels() []ResultLevel {
	return listLevels(v.state)
}

// FindResultLevel retrieves a decorated result level by ID.
func (v transactionView) FindResultLevel(id string) (ResultLevel, bool) {
	return findLevel(v.state, id)
}

// ListMenus returns all menus ordered by ID.
func (v transactionView) ListMenus() []Menu {
	return listMenus(v.state)
}

// FindMenu retrieves a decorated menu by ID.
func (v transactionView) FindMenu(id string) (Menu, bool) {
	return findMenu(v.state, id)
}

// ListWindowActions returns all window actions ordered by ID.
func (v transactionView) ListWindowActions() []WindowAction {
	return listActions(v.state)
}

// FindWindowAction retrieves a window action by ID.
func (v transactionView) FindWindowAction(id string) (WindowAction, bool) {
	a, ok := v.state.actions[id]
	if !ok {
		return WindowAction{}, false
	}
	return cloneAction(a), true
}

// ListScopedRecords returns all records of kind ordered by ID.
func (v transactionView) ListScopedRecords(kind domain.EntityType) []ScopedRecord {
	return listScoped(v.state, kind, nil)
}

func listLevels(state *memoryState) []ResultLevel {
	out := make([]ResultLevel, 0, len(state.levels))
	for _, l := range state.levels {
		out = append(out, cloneLevel(decorateLevel(state, l)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func findLevel(state *memoryState, id string) (ResultLevel, bool) {
	l, ok := state.levels[id]
	if !ok {
		return ResultLevel{}, false
	}
	return cloneLevel(decorateLevel(state, l)), true
}

func listMenus(state *memoryState) []Menu {
	out := make([]Menu, 0, len(state.menus))
	for _, m := range state.menus {
		out = append(out, cloneMenu(decorateMenu(state, m)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func findMenu(state *memoryState, id string) (Menu, bool) {
	m, ok := state.menus[id]
	if !ok {
		return Menu{}, false
	}
	return cloneMenu(decorateMenu(state, m)), true
}

func listActions(state *memoryState) []WindowAction {
	out := make([]WindowAction, 0, len(state.actions))
	for _, a := range state.actions {
		out = append(out, cloneAction(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listScoped(state *memoryState, kind domain.EntityType, filter domain.Filter) []ScopedRecord {
	bucket := state.scoped[kind]
	out := make([]ScopedRecord, 0, len(bucket))
	find := func(id string) (ResultLevel, bool) { return findLevel(state, id) }
	for _, rec := range bucket {
		if filter.Match(domain.ScopedLookup(rec, find)) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) checkLevelRefs(l ResultLevel) error {
	if err := tx.store.validate.Struct(l); err != nil {
		return fmt.Errorf("invalid result level: %w", err)
	}
	if l.ParentID != "" {
		if _, ok := tx.state.levels[l.ParentID]; !ok {
			return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: l.ParentID}
		}
	}
	if l.MenuID != "" {
		if _, ok := tx.state.menus[l.MenuID]; !ok {
			return domain.ErrNotFound{Entity: domain.EntityMenu, ID: l.MenuID}
		}
	}
	if l.TopLevelMenuID != "" {
		if _, ok := tx.state.menus[l.TopLevelMenuID]; !ok {
			return domain.ErrNotFound{Entity: domain.EntityMenu, ID: l.TopLevelMenuID}
		}
	}
	return nil
}

// FindResultLevel exposes result level lookup within the transaction scope.
func (tx *transaction) FindResultLevel(id string) (ResultLevel, bool) {
	return findLevel(&tx.state, id)
}

// CreateResultLevel stores a new result level within the transaction.
func (tx *transaction) CreateResultLevel(l ResultLevel) (ResultLevel, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.levels[l.ID]; exists {
		return ResultLevel{}, fmt.Errorf("result level %q already exists", l.ID)
	}
	if l.ParentID == l.ID {
		return ResultLevel{}, fmt.Errorf("result level %q cannot be its own parent", l.ID)
	}
	if err := tx.checkLevelRefs(l); err != nil {
		return ResultLevel{}, err
	}
	l = stripLevel(l)
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.levels[l.ID] = cloneLevel(l)
	created, _ := findLevel(&tx.state, l.ID)
	tx.recordChange(Change{Entity: domain.EntityResultLevel, Action: domain.ActionCreate, After: created})
	return created, nil
}

// UpdateResultLevel mutates a result level using the provided mutator function.
func (tx *transaction) UpdateResultLevel(id string, mutator func(*ResultLevel) error) (ResultLevel, error) {
	current, ok := tx.state.levels[id]
	if !ok {
		return ResultLevel{}, domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
	}
	before, _ := findLevel(&tx.state, id)
	if err := mutator(&current); err != nil {
		return ResultLevel{}, err
	}
	current.ID = id
	if current.ParentID != "" && levelAncestorOf(&tx.state, id, current.ParentID) {
		return ResultLevel{}, fmt.Errorf("result level %q cannot be placed under its own descendant %q", id, current.ParentID)
	}
	if err := tx.checkLevelRefs(current); err != nil {
		return ResultLevel{}, err
	}
	current = stripLevel(current)
	current.UpdatedAt = tx.now
	tx.state.levels[id] = cloneLevel(current)
	updated, _ := findLevel(&tx.state, id)
	tx.recordChange(Change{Entity: domain.EntityResultLevel, Action: domain.ActionUpdate, Before: before, After: updated})
	return updated, nil
}

// DeleteResultLevel removes a result level. Children survive with their
// parent cleared and scoped records lose their level reference.
func (tx *transaction) DeleteResultLevel(id string) error {
	current, ok := tx.state.levels[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: id}
	}
	before, _ := findLevel(&tx.state, id)
	for _, childID := range levelChildIDs(&tx.state, id) {
		if _, err := tx.UpdateResultLevel(childID, func(child *ResultLevel) error {
			child.ParentID = ""
			return nil
		}); err != nil {
			return fmt.Errorf("detach child %q: %w", childID, err)
		}
	}
	for kind, bucket := range tx.state.scoped {
		for recID, rec := range bucket {
			if rec.ResultLevelID == id {
				rec.ResultLevelID = ""
				rec.UpdatedAt = tx.now
				tx.state.scoped[kind][recID] = rec
			}
		}
	}
	delete(tx.state.levels, current.ID)
	tx.recordChange(Change{Entity: domain.EntityResultLevel, Action: domain.ActionDelete, Before: before})
	return nil
}

func (tx *transaction) checkMenuRefs(m Menu) error {
	if err := tx.store.validate.Struct(m); err != nil {
		return fmt.Errorf("invalid menu: %w", err)
	}
	if m.ParentID != "" {
		if _, ok := tx.state.menus[m.ParentID]; !ok {
			return domain.ErrNotFound{Entity: domain.EntityMenu, ID: m.ParentID}
		}
	}
	if m.ActionID != "" {
		if _, ok := tx.state.actions[m.ActionID]; !ok {
			return domain.ErrNotFound{Entity: domain.EntityWindowAction, ID: m.ActionID}
		}
	}
	return nil
}

// FindMenu exposes menu lookup within the transaction scope.
func (tx *transaction) FindMenu(id string) (Menu, bool) {
	return findMenu(&tx.state, id)
}

// CreateMenu stores a menu record.
func (tx *transaction) CreateMenu(m Menu) (Menu, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.menus[m.ID]; exists {
		return Menu{}, fmt.Errorf("menu %q already exists", m.ID)
	}
	if m.ParentID == m.ID {
		return Menu{}, fmt.Errorf("menu %q cannot be its own parent", m.ID)
	}
	if err := tx.checkMenuRefs(m); err != nil {
		return Menu{}, err
	}
	m = stripMenu(m)
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.menus[m.ID] = cloneMenu(m)
	created, _ := findMenu(&tx.state, m.ID)
	tx.recordChange(Change{Entity: domain.EntityMenu, Action: domain.ActionCreate, After: created})
	return created, nil
}

// UpdateMenu mutates an existing menu.
func (tx *transaction) UpdateMenu(id string, mutator func(*Menu) error) (Menu, error) {
	current, ok := tx.state.menus[id]
	if !ok {
		return Menu{}, domain.ErrNotFound{Entity: domain.EntityMenu, ID: id}
	}
	before, _ := findMenu(&tx.state, id)
	if err := mutator(&current); err != nil {
		return Menu{}, err
	}
	current.ID = id
	if current.ParentID != "" && menuAncestorOf(&tx.state, id, current.ParentID) {
		return Menu{}, fmt.Errorf("menu %q cannot be placed under its own descendant %q", id, current.ParentID)
	}
	if err := tx.checkMenuRefs(current); err != nil {
		return Menu{}, err
	}
	current = stripMenu(current)
	current.UpdatedAt = tx.now
	tx.state.menus[id] = cloneMenu(current)
	updated, _ := findMenu(&tx.state, id)
	tx.recordChange(Change{Entity: domain.EntityMenu, Action: domain.ActionUpdate, Before: before, After: updated})
	return updated, nil
}

// DeleteMenu removes a menu. Remaining children are detached and references
// held by result levels or scoped records are cleared.
func (tx *transaction) DeleteMenu(id string) error {
	if _, ok := tx.state.menus[id]; !ok {
		return domain.ErrNotFound{Entity: domain.EntityMenu, ID: id}
	}
	before, _ := findMenu(&tx.state, id)
	for _, childID := range menuChildIDs(&tx.state, id) {
		child := tx.state.menus[childID]
		child.ParentID = ""
		child.UpdatedAt = tx.now
		tx.state.menus[childID] = child
	}
	for levelID, level := range tx.state.levels {
		if level.MenuID != id && level.TopLevelMenuID != id {
			continue
		}
		if _, err := tx.UpdateResultLevel(levelID, func(l *ResultLevel) error {
			if l.MenuID == id {
				l.MenuID = ""
			}
			if l.TopLevelMenuID == id {
				l.TopLevelMenuID = ""
			}
			return nil
		}); err != nil {
			return fmt.Errorf("clear menu reference on %q: %w", levelID, err)
		}
	}
	for kind, bucket := range tx.state.scoped {
		for recID, rec := range bucket {
			if rec.TopLevelMenuID == id {
				rec.TopLevelMenuID = ""
				rec.UpdatedAt = tx.now
				tx.state.scoped[kind][recID] = rec
			}
		}
	}
	delete(tx.state.menus, id)
	tx.recordChange(Change{Entity: domain.EntityMenu, Action: domain.ActionDelete, Before: before})
	return nil
}

// MenuDescendants returns the menu and every menu below it, parents before
// children. An unknown id yields nil.
func (tx *transaction) MenuDescendants(id string) []Menu {
	if _, ok := tx.state.menus[id]; !ok {
		return nil
	}
	var out []Menu
	queue := []string{id}
	seen := map[string]struct{}{}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, dup := seen[next]; dup {
			continue
		}
		seen[next] = struct{}{}
		menu, _ := findMenu(&tx.state, next)
		out = append(out, menu)
		queue = append(queue, menu.ChildIDs...)
	}
	return out
}

// FindWindowAction exposes action lookup within the transaction scope.
func (tx *transaction) FindWindowAction(id string) (WindowAction, bool) {
	a, ok := tx.state.actions[id]
	if !ok {
		return WindowAction{}, false
	}
	return cloneAction(a), true
}

// CreateWindowAction stores a window action.
func (tx *transaction) CreateWindowAction(a WindowAction) (WindowAction, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.actions[a.ID]; exists {
		return WindowAction{}, fmt.Errorf("window action %q already exists", a.ID)
	}
	if err := tx.store.validate.Struct(a); err != nil {
		return WindowAction{}, fmt.Errorf("invalid window action: %w", err)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.actions[a.ID] = cloneAction(a)
	tx.recordChange(Change{Entity: domain.EntityWindowAction, Action: domain.ActionCreate, After: cloneAction(a)})
	return cloneAction(a), nil
}

// DeleteWindowAction removes an action no live menu points at.
func (tx *transaction) DeleteWindowAction(id string) error {
	current, ok := tx.state.actions[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityWindowAction, ID: id}
	}
	for _, menu := range tx.state.menus {
		if menu.ActionID == id {
			return fmt.Errorf("window action %q still referenced by menu %q", id, menu.ID)
		}
	}
	delete(tx.state.actions, id)
	tx.recordChange(Change{Entity: domain.EntityWindowAction, Action: domain.ActionDelete, Before: cloneAction(current)})
	return nil
}

var errUnscopedKind = errors.New("kind is not scoped by top_level_menu_id")

// CreateScopedRecord stores an intervention, tag or target.
func (tx *transaction) CreateScopedRecord(r ScopedRecord) (ScopedRecord, error) {
	if !domain.IsScoped(r.Kind) {
		return ScopedRecord{}, fmt.Errorf("create %s: %w", r.Kind, errUnscopedKind)
	}
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.scoped[r.Kind][r.ID]; exists {
		return ScopedRecord{}, fmt.Errorf("%s %q already exists", r.Kind, r.ID)
	}
	if err := tx.store.validate.Struct(r); err != nil {
		return ScopedRecord{}, fmt.Errorf("invalid %s: %w", r.Kind, err)
	}
	if r.ResultLevelID != "" {
		if _, ok := tx.state.levels[r.ResultLevelID]; !ok {
			return ScopedRecord{}, domain.ErrNotFound{Entity: domain.EntityResultLevel, ID: r.ResultLevelID}
		}
	}
	if r.TopLevelMenuID != "" {
		if _, ok := tx.state.menus[r.TopLevelMenuID]; !ok {
			return ScopedRecord{}, domain.ErrNotFound{Entity: domain.EntityMenu, ID: r.TopLevelMenuID}
		}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.scoped[r.Kind][r.ID] = r
	tx.recordChange(Change{Entity: r.Kind, Action: domain.ActionCreate, After: r})
	return r, nil
}

// DeleteScopedRecord removes a scoped record of kind.
func (tx *transaction) DeleteScopedRecord(kind domain.EntityType, id string) error {
	if !domain.IsScoped(kind) {
		return fmt.Errorf("delete %s: %w", kind, errUnscopedKind)
	}
	current, ok := tx.state.scoped[kind][id]
	if !ok {
		return domain.ErrNotFound{Entity: kind, ID: id}
	}
	delete(tx.state.scoped[kind], id)
	tx.recordChange(Change{Entity: kind, Action: domain.ActionDelete, Before: current})
	return nil
}

// SearchScopedRecords returns records of kind matching filter.
func (tx *transaction) SearchScopedRecords(kind domain.EntityType, filter domain.Filter) []ScopedRecord {
	return listScoped(&tx.state, kind, filter)
}

// Read helpers ---------------------------------------------------------------

// GetResultLevel retrieves a result level by ID from committed state.
func (s *Store) GetResultLevel(id string) (ResultLevel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findLevel(&s.state, id)
}

// ListResultLevels returns all result levels from committed state.
func (s *Store) ListResultLevels() []ResultLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listLevels(&s.state)
}

// GetMenu retrieves a menu by ID.
func (s *Store) GetMenu(id string) (Menu, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findMenu(&s.state, id)
}

// ListMenus returns all menus.
func (s *Store) ListMenus() []Menu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listMenus(&s.state)
}

// ListWindowActions returns all window actions.
func (s *Store) ListWindowActions() []WindowAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActions(&s.state)
}

// ListScopedRecords returns all records of kind.
func (s *Store) ListScopedRecords(kind domain.EntityType) []ScopedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listScoped(&s.state, kind, nil)
}
