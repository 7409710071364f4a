package inbound

// Set is a string set that remembers insertion order.
type Set struct {
	values []string
	index  map[string]struct{}
}

// NewSet creates a Set holding values.
func NewSet(values ...string) *Set {
	s := &Set{index: make(map[string]struct{})}
	s.AddAll(values)
	return s
}

// Add inserts v and reports whether it was new.
func (s *Set) Add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// AddAll inserts each value in order.
func (s *Set) AddAll(values []string) {
	for _, v := range values {
		s.Add(v)
	}
}

// Contains reports whether v is in the set.
func (s *Set) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of values.
func (s *Set) Len() int {
	return len(s.values)
}

// Values returns a copy of the values in insertion order.
func (s *Set) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Difference returns the values of s that are not in other, in order.
func (s *Set) Difference(other *Set) []string {
	var out []string
	for _, v := range s.values {
		if !other.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}
