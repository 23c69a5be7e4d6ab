package vanish

import (
	"fmt"
	"sync"
)

// Registry is the single source of truth for record lifecycle state: an
// in-memory map from id to Record, guarded for concurrent uploads, completion
// callbacks, status polls and cleanup timers. Nothing is persisted; a process
// restart loses every record.
//
// Reads return copies and writes go through Update's closure, so a reader
// never observes a half-applied field group (state without the matching
// timestamp).
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	refs    map[string]int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*Record),
		refs:    make(map[string]int),
	}
}

// Add inserts a new record. The id must not already be present.
func (r *Registry) Add(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("add record: %w: id cannot be empty", ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("add record %s: %w: id already registered", rec.ID, ErrInvalidInput)
	}
	r.records[rec.ID] = &rec
	return nil
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Update applies mutate to the record under the write lock so multi-field
// changes land atomically. Records in a terminal state never return to
// pending; such an update is rejected.
func (r *Registry) Update(id string, mutate func(*Record)) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}

	before := rec.State
	mutate(rec)
	if before.IsTerminal() && rec.State == StatePending {
		rec.State = before
	}
	return *rec, true
}

// Acquire looks up id and takes an advisory reference on the record so a
// concurrently firing cleanup will not tear storage out from under an open
// download stream. Callers must pair it with Release.
func (r *Registry) Acquire(id string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	r.refs[id]++
	return *rec, true
}

// Release drops a reference taken by Acquire.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := r.refs[id]; n > 1 {
		r.refs[id] = n - 1
	} else {
		delete(r.refs, id)
	}
}

// RemoveIfIdle removes the record unless a download currently holds a
// reference. It returns the removed record, whether removal happened, and
// whether the record is busy. A missing id reports (false, false): removal is
// idempotent.
func (r *Registry) RemoveIfIdle(id string) (Record, bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false, false
	}
	if r.refs[id] > 0 {
		return Record{}, false, true
	}
	delete(r.records, id)
	return *rec, true, false
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
