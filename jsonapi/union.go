package jsonapi

import (
	"fmt"

	"github.com/compoundapi/compound/resource"
)

// Union is the discriminated-union shape of a route's included section: the
// fixed, ordered set of resource types that could ever appear there, for any
// combination of inclusions a client might request. It is computed once from
// the schema closure at route registration and is read-only afterwards.
type Union struct {
	order   []string
	allowed map[string]*resource.Type
}

// UnionFor computes the included union for routes serving the given root
// type, by taking the closure over every declared relationship edge.
func UnionFor(root *resource.Type) *Union {
	closure := resource.Closure(root)

	u := &Union{
		order:   make([]string, 0, len(closure)),
		allowed: make(map[string]*resource.Type, len(closure)),
	}
	for _, t := range closure {
		u.order = append(u.order, t.Name())
		u.allowed[t.Name()] = t
	}
	return u
}

// Allows reports whether the given resource type name is a member of the
// union.
func (u *Union) Allows(typeName string) bool {
	_, ok := u.allowed[typeName]
	return ok
}

// TypeNames returns the member type names in closure (first-discovered)
// order.
func (u *Union) TypeNames() []string {
	names := make([]string, len(u.order))
	copy(names, u.order)
	return names
}

// Check validates that every included entry of a document carries a type
// admissible under the union. The resolver can only produce admissible
// entries by construction; Check exists for route-time validation of
// documents assembled elsewhere.
func (u *Union) Check(doc *Document) error {
	for _, obj := range doc.Included {
		if !u.Allows(obj.Type) {
			return fmt.Errorf("included object %s/%s: type %s is not reachable from the primary resource",
				obj.Type, obj.ID, obj.Type)
		}
	}
	return nil
}
