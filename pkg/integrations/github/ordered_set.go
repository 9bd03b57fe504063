package github

// orderedSet keeps insertion order, which map iteration would scramble.
type orderedSet struct {
	limit int
	seen  map[string]bool
	items []string
}

func newOrderedSet(limit int) *orderedSet {
	return &orderedSet{limit: limit, seen: map[string]bool{}}
}

func (s *orderedSet) add(item string) {
	if s.seen[item] || len(s.items) >= s.limit {
		return
	}
	s.seen[item] = true
	s.items = append(s.items, item)
}

func (s *orderedSet) values() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}
