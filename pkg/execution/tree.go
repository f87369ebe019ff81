package execution

import (
	"time"
)

// CloseInfo carries everything known when an invocation finishes
type CloseInfo struct {
	EndTime     time.Time
	MemoryDelta *int64
	Err         error
	Panicked    bool
}

// Tree is the arena of records for one tracking session.
// Tree is not safe for concurrent use; the tracker serializes access.
type Tree struct {
	records []*Record
	roots   []ID
}

// NewTree creates an empty arena
func NewTree() *Tree {
	return &Tree{
		records: make([]*Record, 0, 64),
		roots:   make([]ID, 0, 8),
	}
}

// Open creates a fresh record and links it under parent, or into the
// root list when parent is NoParent or unknown.
func (t *Tree) Open(name string, level int, parent ID, start time.Time, threshold time.Duration) ID {
	id := ID(len(t.records))
	rec := &Record{
		ID:        id,
		Name:      name,
		StartTime: start,
		Threshold: threshold,
		Level:     level,
		Parent:    NoParent,
	}
	t.records = append(t.records, rec)

	if p := t.get(parent); p != nil {
		rec.Parent = parent
		p.Children = append(p.Children, id)
	} else {
		t.roots = append(t.roots, id)
	}
	return id
}

// MarkAsync flags an open record as awaiting a future
func (t *Tree) MarkAsync(id ID) {
	if rec := t.get(id); rec != nil && !rec.Closed {
		rec.Async = true
	}
}

// Close finishes a record. Only the first Close takes effect.
// It returns a copy of the closed record and false if id was unknown or
// already closed.
func (t *Tree) Close(id ID, info CloseInfo) (Record, bool) {
	rec := t.get(id)
	if rec == nil || rec.Closed {
		return Record{}, false
	}

	rec.EndTime = info.EndTime
	rec.Duration = info.EndTime.Sub(rec.StartTime)
	if rec.Duration < 0 {
		rec.Duration = 0
	}
	rec.IsSlow = rec.Duration > rec.Threshold
	rec.MemoryDelta = info.MemoryDelta
	rec.Err = info.Err
	rec.Panicked = info.Panicked
	rec.Closed = true

	return rec.clone(), true
}

// AddClosed files an already finished invocation as a root record
func (t *Tree) AddClosed(name string, start time.Time, threshold time.Duration, info CloseInfo) Record {
	id := t.Open(name, 0, NoParent, start, threshold)
	rec, _ := t.Close(id, info)
	return rec
}

// Get returns a copy of the record
func (t *Tree) Get(id ID) (Record, bool) {
	rec := t.get(id)
	if rec == nil {
		return Record{}, false
	}
	return rec.clone(), true
}

// Contains reports whether id belongs to this arena
func (t *Tree) Contains(id ID) bool {
	return t.get(id) != nil
}

// IsOpen reports whether id names a record that has not been closed
func (t *Tree) IsOpen(id ID) bool {
	rec := t.get(id)
	return rec != nil && !rec.Closed
}

// NearestOpen returns id, or its closest ancestor, that is still open
func (t *Tree) NearestOpen(id ID) ID {
	for rec := t.get(id); rec != nil; rec = t.get(rec.Parent) {
		if !rec.Closed {
			return rec.ID
		}
	}
	return NoParent
}

// Roots returns root IDs in entry order
func (t *Tree) Roots() []ID {
	out := make([]ID, len(t.roots))
	copy(out, t.roots)
	return out
}

// Len returns the number of records
func (t *Tree) Len() int {
	return len(t.records)
}

// OpenCount returns how many records have not been closed yet
func (t *Tree) OpenCount() int {
	n := 0
	for _, rec := range t.records {
		if !rec.Closed {
			n++
		}
	}
	return n
}

// Reset drops every record
func (t *Tree) Reset() {
	t.records = make([]*Record, 0, 64)
	t.roots = make([]ID, 0, 8)
}

// Snapshot returns an immutable deep copy of the arena
func (t *Tree) Snapshot() Snapshot {
	snap := Snapshot{
		Roots:   t.Roots(),
		Records: make([]Record, len(t.records)),
	}
	for i, rec := range t.records {
		snap.Records[i] = rec.clone()
	}
	return snap
}

func (t *Tree) get(id ID) *Record {
	if id < 0 || int(id) >= len(t.records) {
		return nil
	}
	return t.records[id]
}
