package document

import (
	"fmt"
	"sync"
)

// DuplicateError is returned when a record with the same name is already
// in the store. Re-uploads are rejected, never silently overwritten.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("document %q is already in the store", e.Name)
}

// Store holds all ingested records for a session, keyed by filename.
// Iteration order is upload order so that context assembly is stable
// across turns.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
	order   []string
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*Record),
	}
}

// Put inserts a record whole. A duplicate name is rejected with
// *DuplicateError and leaves the existing record untouched.
func (s *Store) Put(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.Name]; exists {
		return &DuplicateError{Name: rec.Name}
	}
	s.records[rec.Name] = rec
	s.order = append(s.order, rec.Name)
	return nil
}

// Get returns the record for a name, or nil if absent.
func (s *Store) Get(name string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[name]
}

// Has reports whether a record with this name exists.
func (s *Store) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[name]
	return ok
}

// All returns the records in upload order.
func (s *Store) All() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.records[name])
	}
	return out
}

// Remove deletes a record by name. Removing an absent name reports false
// and changes nothing.
func (s *Store) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[name]; !ok {
		return false
	}
	delete(s.records, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the store (session reset).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*Record)
	s.order = nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
