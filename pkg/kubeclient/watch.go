package kubeclient

import (
	"context"
	"errors"
	"iter"
)

// EventType tags a WatchEvent.
type EventType string

const (
	EventAdded    EventType = "ADDED"
	EventModified EventType = "MODIFIED"
	EventDeleted  EventType = "DELETED"
	EventBookmark EventType = "BOOKMARK"
	// EventReset is synthesized by the client, never received from the
	// server. It tells the consumer that its view of the collection is
	// unknown and must be rebuilt from the events that follow.
	EventReset EventType = "RESET"
)

// WatchEvent is one element of a watch stream. Object is set for Added,
// Modified and Deleted. ResourceVersion is the cursor after the event and
// is empty for Reset.
type WatchEvent[T any] struct {
	Type            EventType
	Object          *T
	ResourceVersion string
}

// IsControl reports whether the event is a protocol signal rather than
// collection data.
func (e WatchEvent[T]) IsControl() bool {
	return e.Type == EventReset
}

// DefaultMaxRetries bounds consecutive failed reconnects of Watch.
const DefaultMaxRetries = 5

// WatchOptions configure Watch and WatchForever.
type WatchOptions struct {
	// ResourceVersion is the cursor to resume from. Empty starts with the
	// current state of the collection. WatchForever ignores it.
	ResourceVersion string
	LabelSelector   string
	FieldSelector   string

	Backoff Backoff

	// MaxRetries is the number of consecutive reconnects without progress
	// after which Watch gives up with a TransportFailure. Zero means
	// DefaultMaxRetries, negative means unlimited. WatchForever ignores it.
	MaxRetries int

	// OnStateChange, if set, is called synchronously on every session
	// state transition.
	OnStateChange func(SessionState)
}

func (o WatchOptions) maxRetries() int {
	if o.MaxRetries == 0 {
		return DefaultMaxRetries
	}
	return o.MaxRetries
}

// errStopped marks a session that ended because the consumer stopped
// pulling events.
var errStopped = errors.New("watch stopped by consumer")

// Watch streams changes starting at opts.ResourceVersion. Disconnects
// resume from the last cursor seen. An invalidated cursor yields one
// Reset event and the stream restarts without a cursor. The sequence
// ends when ctx is cancelled, the consumer stops, or after yielding a
// terminal error, a decode failure, or a TransportFailure once
// opts.MaxRetries is exhausted. Watch and WatchForever on a subresource
// yield a single Invalid error.
func (c *Client[T]) Watch(ctx context.Context, opts WatchOptions) iter.Seq2[WatchEvent[T], error] {
	return func(yield func(WatchEvent[T], error) bool) {
		if err := unsupportedOnSubresource(c.resource, "watch"); err != nil {
			yield(WatchEvent[T]{}, err)
			return
		}

		err := newSession(c, opts).run(ctx, yield)
		if err != nil && !errors.Is(err, errStopped) {
			yield(WatchEvent[T]{}, err)
		}
	}
}

// WatchForever streams changes indefinitely. It yields a Reset before
// the first event, retries transport failures without limit and treats
// invalidation as routine. A decode failure is yielded as an error; if
// the consumer keeps pulling, the stream restarts with a Reset and a
// full resync, immediately if the failed session had delivered events.
// Only terminal errors and cancellation of ctx end it.
func (c *Client[T]) WatchForever(ctx context.Context, opts WatchOptions) iter.Seq2[WatchEvent[T], error] {
	opts.ResourceVersion = ""
	opts.MaxRetries = -1

	return func(yield func(WatchEvent[T], error) bool) {
		if err := unsupportedOnSubresource(c.resource, "watch"); err != nil {
			yield(WatchEvent[T]{}, err)
			return
		}

		restart := newBackoff(opts.Backoff)
		for {
			if !yield(WatchEvent[T]{Type: EventReset}, nil) {
				return
			}

			sess := newSession(c, opts)
			err := sess.run(ctx, yield)
			switch {
			case err == nil, errors.Is(err, errStopped):
				return
			case IsTerminal(err):
				yield(WatchEvent[T]{}, err)
				return
			}

			if !yield(WatchEvent[T]{}, err) {
				return
			}
			if sess.delivered {
				restart.Reset()
			}
			if !sleepCtx(ctx, restart.Next()) {
				return
			}
		}
	}
}
