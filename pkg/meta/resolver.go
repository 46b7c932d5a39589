package meta

// Resolve orders entity types so that every type referenced through a
// reference attribute appears before its referrer. Edges to entity types
// outside the input set and self-references impose no ordering. The result
// is deterministic: ties break on input position.
//
// Returns a *CycleError naming the remaining entity types when the reference
// graph (self-loops excluded) contains a cycle.
func Resolve(entityTypes []*EntityType) ([]*EntityType, error) {
	index := make(map[string]int, len(entityTypes))
	for i, e := range entityTypes {
		index[e.FullName] = i
	}

	// In-degree counts only edges inside the set.
	indegree := make([]int, len(entityTypes))
	dependents := make(map[string][]int, len(entityTypes))
	for i, e := range entityTypes {
		for _, ref := range e.ReferencedEntities() {
			if _, ok := index[ref]; !ok {
				continue
			}
			indegree[i]++
			dependents[ref] = append(dependents[ref], i)
		}
	}

	ordered := make([]*EntityType, 0, len(entityTypes))
	done := make([]bool, len(entityTypes))
	for len(ordered) < len(entityTypes) {
		progressed := false
		for i, e := range entityTypes {
			if done[i] || indegree[i] != 0 {
				continue
			}
			done[i] = true
			progressed = true
			ordered = append(ordered, e)
			for _, dep := range dependents[e.FullName] {
				indegree[dep]--
			}
		}
		if !progressed {
			var members []string
			for i, e := range entityTypes {
				if !done[i] {
					members = append(members, e.FullName)
				}
			}
			return nil, &CycleError{Members: members}
		}
	}
	return ordered, nil
}

// Reverse returns a new slice with the entity types in opposite order. Used
// for deletion, where dependents must go before the types they reference.
func Reverse(entityTypes []*EntityType) []*EntityType {
	out := make([]*EntityType, len(entityTypes))
	for i, e := range entityTypes {
		out[len(entityTypes)-1-i] = e
	}
	return out
}
