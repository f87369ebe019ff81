// Package callstack keeps the ordered list of labels that are currently
// executing. It is plain bookkeeping with no timing and no locking; the
// owner serializes access.
package callstack

// Token identifies one pushed entry
type Token uint64

// Stack is an ordered sequence of active call labels
type Stack struct {
	labels []string
	tokens []Token
	next   Token
}

// New creates an empty stack
func New() *Stack {
	return &Stack{
		labels: make([]string, 0, 16),
		tokens: make([]Token, 0, 16),
	}
}

// Push appends a label and returns the new depth (1-based) together
// with the token that Remove takes
func (s *Stack) Push(label string) (int, Token) {
	s.next++
	s.labels = append(s.labels, label)
	s.tokens = append(s.tokens, s.next)
	return len(s.labels), s.next
}

// Remove deletes the entry pushed with tok, wherever it sits, and
// returns its label. Entries above it keep their order. An unknown or
// already removed token returns ("", false).
func (s *Stack) Remove(tok Token) (string, bool) {
	for i := len(s.tokens) - 1; i >= 0; i-- {
		if s.tokens[i] != tok {
			continue
		}
		label := s.labels[i]
		s.labels = append(s.labels[:i], s.labels[i+1:]...)
		s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
		return label, true
	}
	return "", false
}

// Pop removes and returns the most recent label.
// An empty stack returns ("", false).
func (s *Stack) Pop() (string, bool) {
	if len(s.labels) == 0 {
		return "", false
	}
	last := s.labels[len(s.labels)-1]
	s.labels[len(s.labels)-1] = ""
	s.labels = s.labels[:len(s.labels)-1]
	s.tokens = s.tokens[:len(s.tokens)-1]
	return last, true
}

// Current returns the most recent label
func (s *Stack) Current() (string, bool) {
	if len(s.labels) == 0 {
		return "", false
	}
	return s.labels[len(s.labels)-1], true
}

// Parent returns the second-to-last label
func (s *Stack) Parent() (string, bool) {
	if len(s.labels) < 2 {
		return "", false
	}
	return s.labels[len(s.labels)-2], true
}

// Snapshot returns a copy of the labels, oldest first
func (s *Stack) Snapshot() []string {
	out := make([]string, len(s.labels))
	copy(out, s.labels)
	return out
}

// Depth returns the number of active labels
func (s *Stack) Depth() int {
	return len(s.labels)
}

// Clear drops all labels
func (s *Stack) Clear() {
	s.labels = s.labels[:0]
	s.tokens = s.tokens[:0]
}
