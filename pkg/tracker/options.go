package tracker

import "time"

// Option overrides tracker defaults for one call or one wrapper
type Option func(*callOptions)

type callOptions struct {
	label        string
	threshold    time.Duration
	hasThreshold bool
	memory       *bool
	nesting      *bool
	silent       *bool
	contextOnly  bool
	prefix       string
}

// WithLabel sets an explicit label; it wins over name introspection
func WithLabel(label string) Option {
	return func(o *callOptions) { o.label = label }
}

// WithThreshold overrides the slow threshold
func WithThreshold(d time.Duration) Option {
	return func(o *callOptions) {
		o.threshold = d
		o.hasThreshold = true
	}
}

// WithMemory turns heap-delta sampling on or off
func WithMemory(enabled bool) Option {
	return func(o *callOptions) { o.memory = &enabled }
}

// WithNesting controls whether the call becomes a child of the current
// record or a new root. Timing and memory are unaffected.
func WithNesting(enabled bool) Option {
	return func(o *callOptions) { o.nesting = &enabled }
}

// WithContextParent makes the call nest only under a tracked call carried
// by its context. Without one it becomes a root instead of attaching to
// whatever call is current on another goroutine.
func WithContextParent() Option {
	return func(o *callOptions) { o.contextOnly = true }
}

// WithSilent suppresses the automatic flow chart after a top-level call
func WithSilent(silent bool) Option {
	return func(o *callOptions) { o.silent = &silent }
}

// WithPrefix sets the label prefix used by RegisterModule
func WithPrefix(prefix string) Option {
	return func(o *callOptions) { o.prefix = prefix }
}

func collect(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// settings is the fully resolved per-call configuration
type settings struct {
	label       string
	threshold   time.Duration
	memory      bool
	nesting     bool
	contextOnly bool
	silent      bool
}

func (t *Tracker) resolve(o callOptions, fn any) settings {
	s := settings{
		label:     o.label,
		threshold: t.cfg.DefaultThreshold,
		memory:    t.cfg.TrackMemory && t.cfg.Mode != ModePerformance,
		nesting:   t.cfg.EnableNestedTracking,
		silent:    t.cfg.Silent || t.cfg.Mode == ModePerformance,
	}
	s.contextOnly = o.contextOnly
	if s.label == "" && fn != nil {
		s.label = t.cfg.NameResolver(fn)
	}
	if s.label == "" {
		s.label = Anonymous
	}
	if o.hasThreshold && o.threshold >= 0 {
		s.threshold = o.threshold
	}
	if o.memory != nil {
		s.memory = *o.memory
	}
	if o.nesting != nil {
		s.nesting = *o.nesting
	}
	if o.silent != nil {
		s.silent = *o.silent
	}
	return s
}
