package resource

// Closure computes the full set of distinct resource types reachable from
// root by following every declared relationship edge, in first-discovered
// order. The root itself is not part of the result unless it is reachable
// from one of its own relationships.
//
// The result is independent of what any particular request includes: it is a
// superset computed once at route registration, used to declare a fixed
// union shape for the "included" section. A visited set guarantees
// termination on cyclic graphs, including self-references.
func Closure(root *Type) []*Type {
	visited := make(map[*Type]bool)
	var result []*Type

	var walk func(t *Type)
	walk = func(t *Type) {
		for _, rel := range t.Declared() {
			target := rel.Target
			if target == nil || visited[target] {
				continue
			}
			visited[target] = true
			result = append(result, target)
			walk(target)
		}
	}

	walk(root)
	return result
}
