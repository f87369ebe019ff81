package tracker

import (
	"context"
)

// Track runs fn as a tracked call and returns exactly what fn returns.
// A panic in fn closes the record as panicked and keeps propagating.
func Track[T any](ctx context.Context, t *Tracker, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if t == nil {
		return zero, invalidArgument("track", "", "tracker is nil")
	}
	if fn == nil {
		return zero, invalidArgument("track", collect(opts).label, "fn is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !t.sampled() {
		t.skip()
		return fn(ctx)
	}

	s := t.resolve(collect(opts), fn)
	f, fctx := t.enter(ctx, s)

	panicked := true
	defer func() {
		if panicked {
			t.exit(f, nil, true)
		}
	}()
	v, err := fn(fctx)
	panicked = false
	t.exit(f, err, false)
	return v, err
}

// Run tracks a call that produces no value
func (t *Tracker) Run(ctx context.Context, fn func(context.Context) error, opts ...Option) error {
	if t == nil {
		return invalidArgument("track", "", "tracker is nil")
	}
	if fn == nil {
		return invalidArgument("track", collect(opts).label, "fn is nil")
	}
	// name the call after fn, not the adapter closure
	opts = t.pinLabel(fn, opts)
	_, err := Track(ctx, t, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)
	return err
}

// TrackAsync tracks a call that returns a future. The call stays on the
// stack until the future settles; the returned future settles with the
// same outcome after the record is closed.
func TrackAsync[T any](ctx context.Context, t *Tracker, fn func(context.Context) *Future[T], opts ...Option) (*Future[T], error) {
	if t == nil {
		return nil, invalidArgument("track_async", "", "tracker is nil")
	}
	if fn == nil {
		return nil, invalidArgument("track_async", collect(opts).label, "fn is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if !t.sampled() {
		t.skip()
		fut := fn(ctx)
		if fut == nil {
			return nil, invalidArgument("track_async", t.resolve(collect(opts), fn).label, "fn returned a nil future")
		}
		return fut, nil
	}

	s := t.resolve(collect(opts), fn)
	f, fctx := t.enter(ctx, s)

	panicked := true
	defer func() {
		if panicked {
			t.exit(f, nil, true)
		}
	}()
	fut := fn(fctx)
	panicked = false

	if fut == nil {
		err := invalidArgument("track_async", s.label, "fn returned a nil future")
		t.exit(f, err, false)
		return nil, err
	}
	t.detach(f)
	return fut.then(func(err error) { t.exit(f, err, false) }), nil
}

// Wrap returns a tracked version of fn. Every invocation of the result is
// tracked with the given options.
func Wrap[T any](t *Tracker, fn func(context.Context) (T, error), opts ...Option) (func(context.Context) (T, error), error) {
	if t == nil {
		return nil, invalidArgument("wrap", "", "tracker is nil")
	}
	if fn == nil {
		return nil, invalidArgument("wrap", collect(opts).label, "fn is nil")
	}
	opts = t.pinLabel(fn, opts)
	return func(ctx context.Context) (T, error) {
		return Track(ctx, t, fn, opts...)
	}, nil
}

// WrapAsync is Wrap for future-returning callables
func WrapAsync[T any](t *Tracker, fn func(context.Context) *Future[T], opts ...Option) (func(context.Context) (*Future[T], error), error) {
	if t == nil {
		return nil, invalidArgument("wrap_async", "", "tracker is nil")
	}
	if fn == nil {
		return nil, invalidArgument("wrap_async", collect(opts).label, "fn is nil")
	}
	opts = t.pinLabel(fn, opts)
	return func(ctx context.Context) (*Future[T], error) {
		return TrackAsync(ctx, t, fn, opts...)
	}, nil
}

func (t *Tracker) labelOf(fn any) string {
	if label := t.cfg.NameResolver(fn); label != "" {
		return label
	}
	return Anonymous
}

// pinLabel resolves the label once, at wrap time
func (t *Tracker) pinLabel(fn any, opts []Option) []Option {
	if collect(opts).label != "" {
		return opts
	}
	pinned := make([]Option, 0, len(opts)+1)
	pinned = append(pinned, opts...)
	return append(pinned, WithLabel(t.labelOf(fn)))
}
