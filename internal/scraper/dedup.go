package scraper

// SeenKeys is the set of review keys accepted during one scrape.
type SeenKeys struct {
	keys map[string]struct{}
}

func NewSeenKeys() *SeenKeys {
	return &SeenKeys{keys: make(map[string]struct{})}
}

// Add inserts key and reports whether it was new.
func (s *SeenKeys) Add(key string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *SeenKeys) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *SeenKeys) Len() int {
	return len(s.keys)
}
