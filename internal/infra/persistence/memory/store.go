// Package memory provides the in-memory transactional store backing the fish
// and participant registries. Durable backends wrap this store and snapshot
// its state after each committed transaction.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"fishynet/pkg/domain"
)

type memoryState struct {
	fish       map[string]domain.Fish
	fishers    map[string]domain.Fisher
	buyers     map[string]domain.Buyer
	regulators map[string]domain.Regulator
	// measurements holds the append-only history per fish in insertion order.
	measurements map[string][]domain.Measurement
	// latest indexes the current measurement per (fish, type) for O(1) lookup.
	latest map[string]map[domain.MeasurementType]domain.Measurement
	seq    uint64
}

func newMemoryState() memoryState {
	return memoryState{
		fish:         make(map[string]domain.Fish),
		fishers:      make(map[string]domain.Fisher),
		buyers:       make(map[string]domain.Buyer),
		regulators:   make(map[string]domain.Regulator),
		measurements: make(map[string][]domain.Measurement),
		latest:       make(map[string]map[domain.MeasurementType]domain.Measurement),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	cloned.seq = s.seq
	for k, v := range s.fish {
		cloned.fish[k] = cloneFish(v)
	}
	for k, v := range s.fishers {
		cloned.fishers[k] = v
	}
	for k, v := range s.buyers {
		cloned.buyers[k] = v
	}
	for k, v := range s.regulators {
		cloned.regulators[k] = v
	}
	for k, v := range s.measurements {
		cloned.measurements[k] = append([]domain.Measurement(nil), v...)
	}
	for fishID, byType := range s.latest {
		idx := make(map[domain.MeasurementType]domain.Measurement, len(byType))
		for typ, m := range byType {
			idx[typ] = m
		}
		cloned.latest[fishID] = idx
	}
	return cloned
}

func cloneFish(f domain.Fish) domain.Fish {
	cp := f
	if f.Latitude != nil {
		lat := *f.Latitude
		cp.Latitude = &lat
	}
	if f.Longitude != nil {
		lon := *f.Longitude
		cp.Longitude = &lon
	}
	return cp
}

// Store provides an in-memory transactional store for the fish registries.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the time provider; used by tests for deterministic
// timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// RulesEngine exposes the configured engine for integration points.
func (s *Store) RulesEngine() *domain.RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	state   memoryState
	changes []domain.Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) domain.TransactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Two concurrent invocations serialize on the store lock: the second observes
// the first's committed state or, when the first aborts, the untouched state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
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
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() domain.TransactionView {
	return newTransactionView(&tx.state)
}

// AddFish stores a new fish within the transaction.
func (tx *transaction) AddFish(f domain.Fish) (domain.Fish, error) {
	if f.ID == "" {
		return domain.Fish{}, fmt.Errorf("fish id required")
	}
	if _, exists := tx.state.fish[f.ID]; exists {
		return domain.Fish{}, fmt.Errorf("fish %s: %w", f.ID, domain.ErrDuplicateAsset)
	}
	f.CreatedAt = tx.now
	f.UpdatedAt = tx.now
	tx.state.fish[f.ID] = cloneFish(f)
	tx.recordChange(domain.Change{Entity: domain.EntityFish, Action: domain.ActionCreate, After: cloneFish(f)})
	return cloneFish(f), nil
}

// UpdateFish mutates a fish using the provided mutator function.
func (tx *transaction) UpdateFish(id string, mutator func(*domain.Fish) error) (domain.Fish, error) {
	current, ok := tx.state.fish[id]
	if !ok {
		return domain.Fish{}, domain.NotFoundError{Entity: domain.EntityFish, ID: id}
	}
	before := cloneFish(current)
	if err := mutator(&current); err != nil {
		return domain.Fish{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.fish[id] = cloneFish(current)
	tx.recordChange(domain.Change{Entity: domain.EntityFish, Action: domain.ActionUpdate, Before: before, After: cloneFish(current)})
	return cloneFish(current), nil
}

// FindFish retrieves a fish by ID from the transaction state.
func (tx *transaction) FindFish(id string) (domain.Fish, bool) {
	f, ok := tx.state.fish[id]
	if !ok {
		return domain.Fish{}, false
	}
	return cloneFish(f), true
}

// AddFisher stores a new fisher within the transaction.
func (tx *transaction) AddFisher(f domain.Fisher) (domain.Fisher, error) {
	if f.ID == "" {
		f.ID = newID()
	}
	if _, exists := tx.state.fishers[f.ID]; exists {
		return domain.Fisher{}, fmt.Errorf("fisher %s: %w", f.ID, domain.ErrDuplicateAsset)
	}
	f.CreatedAt = tx.now
	f.UpdatedAt = tx.now
	tx.state.fishers[f.ID] = f
	tx.recordChange(domain.Change{Entity: domain.EntityFisher, Action: domain.ActionCreate, After: f})
	return f, nil
}

// UpdateFisher mutates a fisher using the provided mutator function.
func (tx *transaction) UpdateFisher(id string, mutator func(*domain.Fisher) error) (domain.Fisher, error) {
	current, ok := tx.state.fishers[id]
	if !ok {
		return domain.Fisher{}, domain.NotFoundError{Entity: domain.EntityFisher, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Fisher{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.fishers[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityFisher, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// FindFisher retrieves a fisher by ID from the transaction state.
func (tx *transaction) FindFisher(id string) (domain.Fisher, bool) {
	f, ok := tx.state.fishers[id]
	return f, ok
}

// AddBuyer stores a new buyer within the transaction.
func (tx *transaction) AddBuyer(b domain.Buyer) (domain.Buyer, error) {
	if b.ID == "" {
		b.ID = newID()
	}
	if _, exists := tx.state.buyers[b.ID]; exists {
		return domain.Buyer{}, fmt.Errorf("buyer %s: %w", b.ID, domain.ErrDuplicateAsset)
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.buyers[b.ID] = b
	tx.recordChange(domain.Change{Entity: domain.EntityBuyer, Action: domain.ActionCreate, After: b})
	return b, nil
}

// UpdateBuyer mutates a buyer using the provided mutator function.
func (tx *transaction) UpdateBuyer(id string, mutator func(*domain.Buyer) error) (domain.Buyer, error) {
	current, ok := tx.state.buyers[id]
	if !ok {
		return domain.Buyer{}, domain.NotFoundError{Entity: domain.EntityBuyer, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Buyer{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.buyers[id] = current
	tx.recordChange(domain.Change{Entity: domain.EntityBuyer, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// FindBuyer retrieves a buyer by ID from the transaction state.
func (tx *transaction) FindBuyer(id string) (domain.Buyer, bool) {
	b, ok := tx.state.buyers[id]
	return b, ok
}

// AddRegulator stores a new regulator within the transaction.
func (tx *transaction) AddRegulator(r domain.Regulator) (domain.Regulator, error) {
	if r.ID == "" {
		r.ID = newID()
	}
	if _, exists := tx.state.regulators[r.ID]; exists {
		return domain.Regulator{}, fmt.Errorf("regulator %s: %w", r.ID, domain.ErrDuplicateAsset)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.regulators[r.ID] = r
	tx.recordChange(domain.Change{Entity: domain.EntityRegulator, Action: domain.ActionCreate, After: r})
	return r, nil
}

// FindRegulator retrieves a regulator by ID from the transaction state.
func (tx *transaction) FindRegulator(id string) (domain.Regulator, bool) {
	r, ok := tx.state.regulators[id]
	return r, ok
}

// RecordMeasurement appends an immutable observation and refreshes the latest
// index for its (fish, type) pair.
func (tx *transaction) RecordMeasurement(m domain.Measurement) (domain.Measurement, error) {
	if m.FishID == "" {
		return domain.Measurement{}, fmt.Errorf("measurement fish id required")
	}
	if m.Type == "" {
		return domain.Measurement{}, fmt.Errorf("measurement type required")
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = tx.now
	}
	tx.state.seq++
	m.Seq = tx.state.seq
	tx.state.measurements[m.FishID] = append(tx.state.measurements[m.FishID], m)
	indexLatest(&tx.state, m)
	tx.recordChange(domain.Change{Entity: domain.EntityMeasurement, Action: domain.ActionAppend, After: m})
	return m, nil
}

// LatestMeasurement resolves the current value of a type for a fish within
// the transaction state.
func (tx *transaction) LatestMeasurement(fishID string, typ domain.MeasurementType) (domain.Measurement, bool) {
	return latestFrom(&tx.state, fishID, typ)
}

func indexLatest(state *memoryState, m domain.Measurement) {
	byType, ok := state.latest[m.FishID]
	if !ok {
		byType = make(map[domain.MeasurementType]domain.Measurement)
		state.latest[m.FishID] = byType
	}
	current, ok := byType[m.Type]
	if !ok || supersedes(m, current) {
		byType[m.Type] = m
	}
}

// supersedes reports whether a replaces b as the current measurement: higher
// timestamp wins, equal timestamps fall back to append order.
func supersedes(a, b domain.Measurement) bool {
	if a.Timestamp.After(b.Timestamp) {
		return true
	}
	if a.Timestamp.Equal(b.Timestamp) {
		return a.Seq >= b.Seq
	}
	return false
}

func latestFrom(state *memoryState, fishID string, typ domain.MeasurementType) (domain.Measurement, bool) {
	byType, ok := state.latest[fishID]
	if !ok {
		return domain.Measurement{}, false
	}
	m, ok := byType[typ]
	return m, ok
}

// ListFish returns all fish within the view snapshot.
func (v transactionView) ListFish() []domain.Fish {
	out := make([]domain.Fish, 0, len(v.state.fish))
	for _, f := range v.state.fish {
		out = append(out, cloneFish(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindFish retrieves a fish by ID from the snapshot.
func (v transactionView) FindFish(id string) (domain.Fish, bool) {
	f, ok := v.state.fish[id]
	if !ok {
		return domain.Fish{}, false
	}
	return cloneFish(f), true
}

// FindFisher retrieves a fisher by ID from the snapshot.
func (v transactionView) FindFisher(id string) (domain.Fisher, bool) {
	f, ok := v.state.fishers[id]
	return f, ok
}

// FindBuyer retrieves a buyer by ID from the snapshot.
func (v transactionView) FindBuyer(id string) (domain.Buyer, bool) {
	b, ok := v.state.buyers[id]
	return b, ok
}

// FindRegulator retrieves a regulator by ID from the snapshot.
func (v transactionView) FindRegulator(id string) (domain.Regulator, bool) {
	r, ok := v.state.regulators[id]
	return r, ok
}

// ListMeasurements returns the full observation history for a fish in append
// order.
func (v transactionView) ListMeasurements(fishID string) []domain.Measurement {
	return append([]domain.Measurement(nil), v.state.measurements[fishID]...)
}

// LatestMeasurement resolves the current value of a type for a fish.
func (v transactionView) LatestMeasurement(fishID string, typ domain.MeasurementType) (domain.Measurement, bool) {
	return latestFrom(v.state, fishID, typ)
}

// GetFish returns a fish by ID from the committed state.
func (s *Store) GetFish(id string) (domain.Fish, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.state.fish[id]
	if !ok {
		return domain.Fish{}, false
	}
	return cloneFish(f), true
}

// ListFish returns all committed fish sorted by ID.
func (s *Store) ListFish() []domain.Fish {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Fish, 0, len(s.state.fish))
	for _, f := range s.state.fish {
		out = append(out, cloneFish(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetFisher returns a fisher by ID from the committed state.
func (s *Store) GetFisher(id string) (domain.Fisher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.state.fishers[id]
	return f, ok
}

// ListFishers returns all committed fishers sorted by ID.
func (s *Store) ListFishers() []domain.Fisher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Fisher, 0, len(s.state.fishers))
	for _, f := range s.state.fishers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetBuyer returns a buyer by ID from the committed state.
func (s *Store) GetBuyer(id string) (domain.Buyer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.buyers[id]
	return b, ok
}

// ListBuyers returns all committed buyers sorted by ID.
func (s *Store) ListBuyers() []domain.Buyer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Buyer, 0, len(s.state.buyers))
	for _, b := range s.state.buyers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetRegulator returns a regulator by ID from the committed state.
func (s *Store) GetRegulator(id string) (domain.Regulator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.regulators[id]
	return r, ok
}

// ListRegulators returns all committed regulators sorted by ID.
func (s *Store) ListRegulators() []domain.Regulator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Regulator, 0, len(s.state.regulators))
	for _, r := range s.state.regulators {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListMeasurements returns the committed observation history for a fish.
func (s *Store) ListMeasurements(fishID string) []domain.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Measurement(nil), s.state.measurements[fishID]...)
}

// LatestMeasurement resolves the current committed value of a type for a fish.
func (s *Store) LatestMeasurement(fishID string, typ domain.MeasurementType) (domain.Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestFrom(&s.state, fishID, typ)
}
