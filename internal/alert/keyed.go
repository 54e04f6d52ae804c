package alert

// keyedStore is an insertion-ordered map from dedup key to Alert with
// first-wins semantics: once a key is present, later Puts for the same
// key are discarded. A cached alert therefore keeps its original fields
// even when a fresh copy of the same story reappears in a refresh.
type keyedStore struct {
	order []string
	byKey map[string]Alert
}

func newKeyedStore() *keyedStore {
	return &keyedStore{byKey: make(map[string]Alert)}
}

// Put inserts the alert unless its key is already present. Reports
// whether the alert was inserted.
func (s *keyedStore) Put(a Alert) bool {
	k := a.Key()
	if _, exists := s.byKey[k]; exists {
		return false
	}
	s.byKey[k] = a
	s.order = append(s.order, k)
	return true
}

// All returns the stored alerts in insertion order.
func (s *keyedStore) All() []Alert {
	out := make([]Alert, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}
	return out
}
