package setutil

type Set[T comparable] map[T]struct{}

func NewSet[T comparable]() Set[T] {
	return make(Set[T])
}

func (s Set[T]) Add(item T) {
	// a lightweight way to represent a placeholder or a signal in Go,
	// leveraging the fact that it consumes no memory.
	s[item] = struct{}{}
}

func (s Set[T]) Contains(item T) bool {
	// optional second return value when getting a value from a map
	// indicates if the key was present in the map
	_, exists := s[item]
	return exists
}

func (s Set[T]) Size() int {
	return len(s)
}

// Items returns the members of the set in no particular order.
func (s Set[T]) Items() []T {
	items := make([]T, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	return items
}

// Clone returns an independent copy of the set.
func (s Set[T]) Clone() Set[T] {
	clone := make(Set[T], len(s))
	for item := range s {
		clone[item] = struct{}{}
	}
	return clone
}
