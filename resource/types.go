// Package resource defines resource types, their relationship graph, and the
// registry that holds them for the lifetime of the process.
package resource

// Row is an opaque domain object supplied by the persistence layer. The
// framework only ever reads its identity; attribute extraction goes through
// the owning Type's projection.
type Row interface {
	ResourceID() string
}

// RelationshipKind distinguishes to-one from to-many relationships
type RelationshipKind int

const (
	// ToOne yields at most one related row per owning row
	ToOne RelationshipKind = iota
	// ToMany yields zero or more related rows per owning row
	ToMany
)

// String returns the string representation of RelationshipKind
func (k RelationshipKind) String() string {
	switch k {
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	default:
		return "unknown"
	}
}

// Relationship declares a named link from one resource type to another.
// Cycles between types are legal; traversal code is responsible for
// terminating on them.
type Relationship struct {
	Name   string
	Target *Type
	Kind   RelationshipKind
}

// AttributesFunc is the read projection for a resource type: it serializes a
// row into the attributes payload placed under "attributes" on the wire.
type AttributesFunc func(Row) any

// Type describes one resource schema: its registered name (used as the
// JSON:API "type" discriminator), its read projection, and its directly
// declared relationships.
type Type struct {
	name          string
	attributes    AttributesFunc
	relationships map[string]*Relationship

	// Declaration order, so traversals are deterministic. Go maps iterate in
	// random order; closure output must be first-discovered stable.
	order []string
}

// NewType creates a resource type with the given registered name and read
// projection. Relationships are declared afterwards with Relate, before the
// owning registry is frozen.
func NewType(name string, attributes AttributesFunc) *Type {
	return &Type{
		name:          name,
		attributes:    attributes,
		relationships: make(map[string]*Relationship),
	}
}

// Name returns the registered resource name
func (t *Type) Name() string {
	return t.name
}

// Attributes serializes a row through the type's read projection
func (t *Type) Attributes(row Row) any {
	if t.attributes == nil {
		return nil
	}
	return t.attributes(row)
}

// Relate declares a relationship from this type to target. Declaring the same
// name twice replaces the earlier descriptor.
func (t *Type) Relate(name string, target *Type, kind RelationshipKind) *Type {
	if _, exists := t.relationships[name]; !exists {
		t.order = append(t.order, name)
	}
	t.relationships[name] = &Relationship{
		Name:   name,
		Target: target,
		Kind:   kind,
	}
	return t
}

// Relationship returns the descriptor declared under name, or false when the
// type declares no such relationship.
func (t *Type) Relationship(name string) (*Relationship, bool) {
	rel, ok := t.relationships[name]
	return rel, ok
}

// Relationships returns the directly declared relationship map. It is not
// transitive; an empty map is a valid leaf resource.
func (t *Type) Relationships() map[string]*Relationship {
	return t.relationships
}

// Declared returns the directly declared relationships in declaration order
func (t *Type) Declared() []*Relationship {
	rels := make([]*Relationship, 0, len(t.order))
	for _, name := range t.order {
		rels = append(rels, t.relationships[name])
	}
	return rels
}
