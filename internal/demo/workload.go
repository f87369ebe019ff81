// Package demo is a small instrumented workload used by the CLI to show
// what a tracked program looks like.
package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psantana5/flowtrace/pkg/tracker"
)

// ErrCardDeclined is the failure the workload provokes on purpose
var ErrCardDeclined = errors.New("card declined")

// Cache is the module the workload registers with the tracker
type Cache struct {
	Get func(key string) (string, bool)
	Set func(key, value string)
}

func newCache() Cache {
	data := make(map[string]string)
	return Cache{
		Get: func(key string) (string, bool) {
			v, ok := data[key]
			return v, ok
		},
		Set: func(key, value string) { data[key] = value },
	}
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives every kind of tracked call once: nested sync calls with a
// slow leaf, a failing call, two interleaved async calls, recursion, a
// registered module and a manual timer.
func Run(ctx context.Context, tr *tracker.Tracker) error {
	timer := tr.StartTimer("demo")

	if err := tr.Run(ctx, func(ctx context.Context) error {
		return handleRequest(ctx, tr)
	}, tracker.WithLabel("handleRequest")); err != nil {
		return err
	}

	err := tr.Run(ctx, func(ctx context.Context) error {
		if err := pause(ctx, 2*time.Millisecond); err != nil {
			return err
		}
		return ErrCardDeclined
	}, tracker.WithLabel("chargeCard"))
	if !errors.Is(err, ErrCardDeclined) {
		return fmt.Errorf("unexpected charge outcome: %v", err)
	}

	if err := fetchConcurrently(ctx, tr); err != nil {
		return err
	}

	if _, err := factorial(ctx, tr, 4); err != nil {
		return err
	}

	if err := useCache(ctx, tr); err != nil {
		return err
	}

	_, err = tr.EndTimer(timer)
	return err
}

func handleRequest(ctx context.Context, tr *tracker.Tracker) error {
	if err := tr.Run(ctx, func(ctx context.Context) error {
		return pause(ctx, 5*time.Millisecond)
	}, tracker.WithLabel("authenticate")); err != nil {
		return err
	}

	_, err := tracker.Track(ctx, tr, func(ctx context.Context) ([]string, error) {
		return tracker.Track(ctx, tr, func(ctx context.Context) ([]string, error) {
			if err := pause(ctx, 120*time.Millisecond); err != nil {
				return nil, err
			}
			return []string{"alice", "bob"}, nil
		}, tracker.WithLabel("queryDatabase"))
	}, tracker.WithLabel("loadProfile"))
	return err
}

func fetchConcurrently(ctx context.Context, tr *tracker.Tracker) error {
	fetch := func(label string, d time.Duration, value int) (*tracker.Future[int], error) {
		return tracker.TrackAsync(ctx, tr, func(ctx context.Context) *tracker.Future[int] {
			return tracker.Go(func() (int, error) {
				if err := pause(ctx, d); err != nil {
					return 0, err
				}
				return value, nil
			})
		}, tracker.WithLabel(label))
	}

	inventory, err := fetch("fetchInventory", 30*time.Millisecond, 12)
	if err != nil {
		return err
	}
	pricing, err := fetch("fetchPricing", 10*time.Millisecond, 995)
	if err != nil {
		return err
	}

	if _, err := pricing.Await(ctx); err != nil {
		return err
	}
	_, err = inventory.Await(ctx)
	return err
}

func factorial(ctx context.Context, tr *tracker.Tracker, n int) (int, error) {
	return tracker.Track(ctx, tr, func(ctx context.Context) (int, error) {
		if n <= 1 {
			return 1, nil
		}
		v, err := factorial(ctx, tr, n-1)
		return n * v, err
	}, tracker.WithLabel("factorial"))
}

func useCache(ctx context.Context, tr *tracker.Tracker) error {
	m, err := tr.RegisterModule(newCache(), tracker.WithPrefix("cache."))
	if err != nil {
		return err
	}
	cache := m.(Cache)

	return tr.Run(ctx, func(ctx context.Context) error {
		cache.Set("greeting", "hello")
		if _, ok := cache.Get("greeting"); !ok {
			return errors.New("cache lost a key")
		}
		return nil
	}, tracker.WithLabel("warmCache"))
}
