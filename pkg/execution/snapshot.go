package execution

// Snapshot is a read-only copy of a session's tree
type Snapshot struct {
	Roots   []ID     `json:"roots"`
	Records []Record `json:"records"`
}

// Empty reports whether nothing was recorded
func (s Snapshot) Empty() bool {
	return len(s.Roots) == 0
}

// Get returns the record with the given ID
func (s Snapshot) Get(id ID) (*Record, bool) {
	if id < 0 || int(id) >= len(s.Records) {
		return nil, false
	}
	return &s.Records[id], true
}

// RootRecords returns root records in entry order
func (s Snapshot) RootRecords() []*Record {
	out := make([]*Record, 0, len(s.Roots))
	for _, id := range s.Roots {
		if rec, ok := s.Get(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Children returns the children of id in call order
func (s Snapshot) Children(id ID) []*Record {
	rec, ok := s.Get(id)
	if !ok {
		return nil
	}
	out := make([]*Record, 0, len(rec.Children))
	for _, cid := range rec.Children {
		if child, ok := s.Get(cid); ok {
			out = append(out, child)
		}
	}
	return out
}

// Find returns the first record with the given name in depth-first order
func (s Snapshot) Find(name string) (*Record, bool) {
	var found *Record
	s.Walk(func(rec *Record, _ int) bool {
		if rec.Name == name {
			found = rec
			return false
		}
		return true
	})
	return found, found != nil
}

// Walk visits records depth-first, children in recorded order.
// depth is the tree depth (0 for roots). Returning false stops the walk.
func (s Snapshot) Walk(fn func(rec *Record, depth int) bool) {
	for _, id := range s.Roots {
		if !s.walk(id, 0, fn) {
			return
		}
	}
}

func (s Snapshot) walk(id ID, depth int, fn func(rec *Record, depth int) bool) bool {
	rec, ok := s.Get(id)
	if !ok {
		return true
	}
	if !fn(rec, depth) {
		return false
	}
	for _, cid := range rec.Children {
		if !s.walk(cid, depth+1, fn) {
			return false
		}
	}
	return true
}
