package tracker

import (
	"context"
	"sync"
)

// Future is a value that settles later, once, with a result or an error.
// A tracked async call returns a Future that settles only after its
// record has been closed.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// NewFuture returns a pending future and the function that settles it.
// Only the first settle call counts.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.settle
}

// Go runs fn on a new goroutine and settles the future with its result.
// A panic in fn is not recovered.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, settle := NewFuture[T]()
	go func() {
		settle(fn())
	}()
	return f
}

// Resolved returns a future already settled with v
func Resolved[T any](v T) *Future[T] {
	f, settle := NewFuture[T]()
	settle(v, nil)
	return f
}

// Rejected returns a future already settled with err
func Rejected[T any](err error) *Future[T] {
	f, settle := NewFuture[T]()
	var zero T
	settle(zero, err)
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future settles
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has a result
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result blocks until the future settles
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// Await blocks until the future settles or ctx is done. Giving up on
// the wait does not cancel the underlying work.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// then returns a future that settles with f's outcome after hook ran
func (f *Future[T]) then(hook func(err error)) *Future[T] {
	next, settle := NewFuture[T]()
	go func() {
		<-f.done
		hook(f.err)
		settle(f.value, f.err)
	}()
	return next
}

// observe lets reflective wrappers treat any *Future[T] alike
func (f *Future[T]) observe(hook func(err error)) any {
	return f.then(hook)
}

// pending is satisfied by every *Future[T]
type pending interface {
	observe(hook func(err error)) any
}
