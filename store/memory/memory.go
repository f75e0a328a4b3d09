// Package memory provides a map-backed store, used by the demo binary and
// as a test double for the persistence collaborator.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/compoundapi/compound/resource"
	"github.com/compoundapi/compound/store"
)

// Row is the in-memory row implementation
type Row struct {
	id       string
	typeName string
	attrs    map[string]any
}

// ResourceID implements resource.Row
func (r *Row) ResourceID() string { return r.id }

// Attrs returns the row's attribute payload. The conventional read projection
// for memory-backed types:
//
//	resource.NewType("post", memory.Attributes)
func (r *Row) Attrs() map[string]any { return r.attrs }

// Attributes is the read projection for memory rows
func Attributes(row resource.Row) any {
	return row.(*Row).attrs
}

// linkKey identifies one relationship slot on one row
type linkKey struct {
	typeName string
	id       string
	rel      string
}

// DB holds rows and relationship links for every resource type. One DB backs
// all the per-type Store views handed to the router.
type DB struct {
	mu     sync.RWMutex
	tables map[string]map[string]*Row // type name -> id -> row
	order  map[string][]string        // type name -> insertion order
	links  map[linkKey][]string       // relationship slot -> related ids
}

// NewDB creates an empty database
func NewDB() *DB {
	return &DB{
		tables: make(map[string]map[string]*Row),
		order:  make(map[string][]string),
		links:  make(map[linkKey][]string),
	}
}

// Put inserts or replaces a row with a known id. Intended for seeding.
func (db *DB) Put(t *resource.Type, id string, attrs map[string]any) *Row {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.put(t.Name(), id, attrs)
}

func (db *DB) put(typeName, id string, attrs map[string]any) *Row {
	table, ok := db.tables[typeName]
	if !ok {
		table = make(map[string]*Row)
		db.tables[typeName] = table
	}
	if _, exists := table[id]; !exists {
		db.order[typeName] = append(db.order[typeName], id)
	}

	row := &Row{id: id, typeName: typeName, attrs: attrs}
	table[id] = row
	return row
}

// Link records that the relationship rel on the row (t, id) points at the
// given target ids. Replaces any previous links for that slot.
func (db *DB) Link(t *resource.Type, id, rel string, targetIDs ...string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.links[linkKey{typeName: t.Name(), id: id, rel: rel}] = targetIDs
}

// Related implements jsonapi.Source for every type in the DB. Dangling links
// (target row deleted) resolve to nothing.
func (db *DB) Related(_ context.Context, row resource.Row, rel *resource.Relationship) ([]resource.Row, error) {
	memRow, ok := row.(*Row)
	if !ok {
		return nil, nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	ids := db.links[linkKey{typeName: memRow.typeName, id: memRow.id, rel: rel.Name}]
	if len(ids) == 0 {
		return nil, nil
	}
	if rel.Kind == resource.ToOne {
		ids = ids[:1]
	}

	targets := db.tables[rel.Target.Name()]
	related := make([]resource.Row, 0, len(ids))
	for _, id := range ids {
		if target, ok := targets[id]; ok {
			related = append(related, target)
		}
	}
	return related, nil
}

// Store returns the store.Store view for one resource type
func (db *DB) Store(t *resource.Type) *Store {
	return &Store{db: db, typeName: t.Name()}
}

// Store is a per-type view over a DB, implementing store.Store and
// jsonapi.Source.
type Store struct {
	db       *DB
	typeName string
}

// Retrieve returns the row with the given id
func (s *Store) Retrieve(_ context.Context, id string) (resource.Row, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	row, ok := s.db.tables[s.typeName][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return row, nil
}

// List returns all rows in insertion order
func (s *Store) List(_ context.Context) ([]resource.Row, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	table := s.db.tables[s.typeName]
	rows := make([]resource.Row, 0, len(table))
	for _, id := range s.db.order[s.typeName] {
		if row, ok := table[id]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Create inserts a row under a generated id
func (s *Store) Create(_ context.Context, attrs map[string]any) (resource.Row, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if attrs == nil {
		attrs = map[string]any{}
	}
	return s.db.put(s.typeName, uuid.NewString(), attrs), nil
}

// Update merges attrs into an existing row
func (s *Store) Update(_ context.Context, id string, attrs map[string]any) (resource.Row, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	row, ok := s.db.tables[s.typeName][id]
	if !ok {
		return nil, store.ErrNotFound
	}

	merged := make(map[string]any, len(row.attrs)+len(attrs))
	for k, v := range row.attrs {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}
	row.attrs = merged
	return row, nil
}

// Delete removes a row and its outgoing links
func (s *Store) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	table := s.db.tables[s.typeName]
	if _, ok := table[id]; !ok {
		return store.ErrNotFound
	}
	delete(table, id)

	for key := range s.db.links {
		if key.typeName == s.typeName && key.id == id {
			delete(s.db.links, key)
		}
	}
	return nil
}

// Related implements jsonapi.Source by delegating to the backing DB
func (s *Store) Related(ctx context.Context, row resource.Row, rel *resource.Relationship) ([]resource.Row, error) {
	return s.db.Related(ctx, row, rel)
}
