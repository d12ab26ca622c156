package kubeclient

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/watch"
)

// SessionState is the state of a watch session.
type SessionState int

const (
	SessionConnecting SessionState = iota
	SessionStreaming
	SessionDisconnected
	SessionInvalidated
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionConnecting:
		return "Connecting"
	case SessionStreaming:
		return "Streaming"
	case SessionDisconnected:
		return "Disconnected"
	case SessionInvalidated:
		return "Invalidated"
	case SessionClosed:
		return "Closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// session drives one Watch call:
//
//	Connecting -> Streaming -> Disconnected -> Connecting (resume from cursor)
//	                        -> Invalidated  -> Connecting (Reset, no cursor)
//
// Closed is entered when ctx is done, the consumer stops, or a terminal
// error ends the session.
type session[T any] struct {
	client *Client[T]
	opts   WatchOptions

	state    SessionState
	cursor   string
	progress bool
	// delivered is set once any event reached the consumer.
	delivered bool
	failures  int
	lastErr   error
	backoff   *backoff

	log     *slog.Logger
	metrics *watchMetrics
	attrs   metric.MeasurementOption
}

func newSession[T any](c *Client[T], opts WatchOptions) *session[T] {
	s := &session[T]{
		client:  c,
		opts:    opts,
		state:   SessionConnecting,
		cursor:  opts.ResourceVersion,
		backoff: newBackoff(opts.Backoff),
		metrics: instruments(),
		attrs:   metric.WithAttributes(attribute.String("resource", c.resource.String())),
		log: slog.Default().With(
			"component", "watch",
			"session", uuid.NewString(),
			"resource", c.resource.String(),
			"cluster", c.cluster,
		),
	}
	if opts.OnStateChange != nil {
		opts.OnStateChange(s.state)
	}
	return s
}

func (s *session[T]) transition(next SessionState) {
	if s.state == next {
		return
	}
	s.log.Debug("watch state change", "from", s.state, "to", next, "cursor", s.cursor)
	s.state = next
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(next)
	}
}

// run returns nil when ctx is done, errStopped when the consumer stopped
// and any other error when the session failed.
func (s *session[T]) run(ctx context.Context, yield func(WatchEvent[T], error) bool) error {
	defer s.transition(SessionClosed)

	for ctx.Err() == nil {
		switch s.state {
		case SessionConnecting:
			s.progress = false
			w, err := s.client.transport.Watch(ctx, s.client.Request(), s.listOptions())
			if err != nil {
				if err := s.fail(err); err != nil {
					return err
				}
				continue
			}
			s.transition(SessionStreaming)
			if err := s.stream(ctx, w, yield); err != nil {
				return err
			}

		case SessionDisconnected:
			if s.progress {
				s.failures = 0
				s.backoff.Reset()
			} else if s.lastErr != nil {
				s.failures++
				if limit := s.opts.maxRetries(); limit >= 0 && s.failures > limit {
					return &DomainError{
						Code:    ErrorCodeTransportFailure,
						Message: fmt.Sprintf("watch %s: giving up after %d reconnect attempts", s.client.resource, limit),
						Cause:   s.lastErr,
					}
				}
			}
			s.log.Debug("watch disconnected, resuming", "cursor", s.cursor, "failures", s.failures, "error", s.lastErr)
			s.metrics.reconnects.Add(ctx, 1, s.attrs)
			if !sleepCtx(ctx, s.backoff.Next()) {
				return nil
			}
			s.transition(SessionConnecting)

		case SessionInvalidated:
			s.log.Info("watch cursor invalidated, resyncing", "cursor", s.cursor)
			s.cursor = ""
			s.metrics.resets.Add(ctx, 1, s.attrs)
			if !yield(WatchEvent[T]{Type: EventReset}, nil) {
				return errStopped
			}
			if s.progress {
				s.backoff.Reset()
			}
			if !sleepCtx(ctx, s.backoff.Next()) {
				return nil
			}
			s.transition(SessionConnecting)

		default:
			return nil
		}
	}
	return nil
}

// fail moves the session to Invalidated or Disconnected, or returns err
// when it is terminal.
func (s *session[T]) fail(err error) error {
	err = WrapError(err)
	switch {
	case IsInvalidated(err):
		s.lastErr = err
		s.transition(SessionInvalidated)
		return nil
	case IsTerminal(err):
		s.log.Warn("watch failed", "error", err)
		return err
	default:
		s.lastErr = err
		s.transition(SessionDisconnected)
		return nil
	}
}

// stream forwards events from w until it ends. The watch is stopped on
// every return path.
func (s *session[T]) stream(ctx context.Context, w watch.Interface, yield func(WatchEvent[T], error) bool) error {
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.ResultChan():
			if !ok {
				s.lastErr = nil
				s.transition(SessionDisconnected)
				return nil
			}

			switch event.Type {
			case watch.Added, watch.Modified, watch.Deleted:
				obj, rv, err := s.decode(event.Object)
				if err != nil {
					s.log.Warn("watch decode failed", "type", event.Type, "error", err)
					return err
				}
				s.cursor = rv
				s.progress = true
				s.metrics.events.Add(ctx, 1, s.attrs)
				s.delivered = true
				if !yield(WatchEvent[T]{Type: EventType(event.Type), Object: obj, ResourceVersion: rv}, nil) {
					return errStopped
				}

			case watch.Bookmark:
				accessor, err := meta.Accessor(event.Object)
				if err != nil {
					return decodeError(err, "decode bookmark for %s", s.client.resource)
				}
				s.cursor = accessor.GetResourceVersion()
				s.progress = true
				s.delivered = true
				if !yield(WatchEvent[T]{Type: EventBookmark, ResourceVersion: s.cursor}, nil) {
					return errStopped
				}

			case watch.Error:
				return s.fail(apierrors.FromObject(event.Object))

			default:
				return decodeError(nil, "unknown watch event type %q for %s", event.Type, s.client.resource)
			}
		}
	}
}

func (s *session[T]) decode(obj runtime.Object) (*T, string, error) {
	u, ok := obj.(*unstructured.Unstructured)
	if !ok {
		content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
		if err != nil {
			return nil, "", decodeError(err, "unexpected watch object %T", obj)
		}
		u = &unstructured.Unstructured{Object: content}
	}

	out, err := s.client.decode(u)
	if err != nil {
		return nil, "", err
	}
	return out, u.GetResourceVersion(), nil
}

func (s *session[T]) listOptions() metav1.ListOptions {
	return metav1.ListOptions{
		LabelSelector:       s.opts.LabelSelector,
		FieldSelector:       s.opts.FieldSelector,
		Watch:               true,
		AllowWatchBookmarks: true,
		ResourceVersion:     s.cursor,
	}
}
