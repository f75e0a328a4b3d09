package jsonapi

import (
	"context"
	"fmt"

	"github.com/compoundapi/compound/include"
	"github.com/compoundapi/compound/resource"
)

// Source resolves one relationship hop against a row. It is supplied by the
// persistence layer and must be repeatable per row/relationship without side
// effects on the row; how the related rows are fetched (eagerly, lazily, in
// batches) is entirely its business.
type Source interface {
	Related(ctx context.Context, row resource.Row, rel *resource.Relationship) ([]resource.Row, error)
}

// Resolver walks requested inclusion paths over fetched rows and collects
// the related objects into a deduplicated included set.
type Resolver struct {
	source Source
}

// NewResolver creates a resolver backed by the given source
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve resolves every inclusion path for every primary row and returns
// the included objects in first-discovered order, at most one per
// (type, id) key.
//
// A path segment that names no relationship on the current type contributes
// nothing; it is not an error. Recursion depth is bounded by the path length,
// so cyclic schemas cannot cause unbounded traversal here.
func (r *Resolver) Resolve(ctx context.Context, primary Primary, t *resource.Type, paths []include.Path) ([]ResourceObject, error) {
	set := newIncludedSet()

	for _, row := range primary.Rows() {
		for _, path := range paths {
			if err := r.resolvePath(ctx, row, t, path, set); err != nil {
				return nil, fmt.Errorf("resolving include %s: %w", path, err)
			}
		}
	}

	return set.objects(), nil
}

// resolvePath resolves one path from one row, adding every related object
// discovered at every hop to the shared set.
func (r *Resolver) resolvePath(ctx context.Context, row resource.Row, t *resource.Type, path include.Path, set *includedSet) error {
	if len(path) == 0 {
		return nil
	}

	rel, ok := t.Relationship(path[0])
	if !ok {
		// Undeclared relationship names resolve to zero related objects
		return nil
	}

	related, err := r.source.Related(ctx, row, rel)
	if err != nil {
		return err
	}

	rest := path[1:]
	for _, relatedRow := range related {
		set.add(rel.Target, relatedRow)

		if len(rest) > 0 {
			if err := r.resolvePath(ctx, relatedRow, rel.Target, rest, set); err != nil {
				return err
			}
		}
	}

	return nil
}

// includedKey is the dedup identity of an included object
type includedKey struct {
	typeName string
	id       string
}

// includedSet deduplicates included objects by (type, id). First write wins:
// attribute payloads are not expected to differ across discovery paths for
// the same id. Insertion order is preserved.
type includedSet struct {
	seen  map[includedKey]bool
	order []ResourceObject
}

func newIncludedSet() *includedSet {
	return &includedSet{seen: make(map[includedKey]bool)}
}

func (s *includedSet) add(t *resource.Type, row resource.Row) {
	key := includedKey{typeName: t.Name(), id: row.ResourceID()}
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.order = append(s.order, ResourceObject{
		ID:         row.ResourceID(),
		Type:       t.Name(),
		Attributes: t.Attributes(row),
	})
}

func (s *includedSet) objects() []ResourceObject {
	if s.order == nil {
		return []ResourceObject{}
	}
	return s.order
}
