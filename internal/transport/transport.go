// Package transport coordinates the lifecycle of long-running
// components (the watch loop, the ops HTTP server, cache eviction)
// using an errgroup.
package transport

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// stopTimeout bounds the Stop call of each listener.
const stopTimeout = 15 * time.Second

// Listener is a long-running component. Start blocks until the
// component is done or ctx is cancelled; Stop releases it.
type Listener interface {
	Start(context.Context) error
	Stop(context.Context) error
}

// ListenerFunc runs a blocking function as a Listener with a no-op
// Stop. The function must return once ctx is cancelled.
type ListenerFunc func(context.Context) error

func (f ListenerFunc) Start(ctx context.Context) error { return f(ctx) }
func (f ListenerFunc) Stop(context.Context) error      { return nil }

// Serve starts every listener and returns once all of them are done.
// The first listener to return, successfully or not, cancels the
// others; cancelling ctx does the same. Stop is then called on each
// listener in turn, each with its own stopTimeout. The first error of
// a Start or of the Stop pass is returned.
func Serve(ctx context.Context, lis ...Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	for _, li := range lis {
		eg.Go(func() error {
			defer cancel()
			return li.Start(egCtx)
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()

		var errs []error
		for _, li := range lis {
			stopCtx, stop := context.WithTimeout(context.Background(), stopTimeout)
			if err := li.Stop(stopCtx); err != nil {
				errs = append(errs, err)
			}
			stop()
		}
		return errors.Join(errs...)
	})

	return eg.Wait()
}
