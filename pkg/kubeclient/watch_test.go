package kubeclient

import (
	"context"
	"errors"
	"iter"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/watch"
)

var fastBackoff = Backoff{Base: time.Millisecond, Max: 2 * time.Millisecond}

func added(name, rv string) watch.Event {
	return watch.Event{Type: watch.Added, Object: deployment(name, rv)}
}

func streamOf(events ...watch.Event) watchStep {
	return watchStep{watch: newScriptedWatch(events...)}
}

func forbidden() error {
	return apierrors.NewForbidden(deploymentsGR, "", errors.New("access revoked"))
}

// drain pulls every element of seq, splitting events and errors.
func drain(seq iter.Seq2[WatchEvent[appsv1.Deployment], error]) ([]WatchEvent[appsv1.Deployment], []error) {
	var (
		events []WatchEvent[appsv1.Deployment]
		errs   []error
	)
	for event, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, event)
	}
	return events, errs
}

func types(events []WatchEvent[appsv1.Deployment]) []EventType {
	out := make([]EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

var _ = Describe("Watch", func() {
	var (
		ft     *fakeTransport
		client *Client[appsv1.Deployment]
		ctx    context.Context
	)

	BeforeEach(func() {
		ft = &fakeTransport{exhausted: forbidden()}
		client = New[appsv1.Deployment](ft, "dev", "kubegen-test", testResource).Namespace("default")
		ctx = context.Background()
	})

	Context("when the stream disconnects", func() {
		It("resumes from the last cursor without a reset", func() {
			ft.steps = []watchStep{
				streamOf(added("a", "1"), added("b", "2")),
				streamOf(added("c", "3")),
			}

			events, errs := drain(client.Watch(ctx, WatchOptions{Backoff: fastBackoff}))

			Expect(types(events)).To(Equal([]EventType{EventAdded, EventAdded, EventAdded}))
			Expect(events[2].Object.Name).To(Equal("c"))
			Expect(ft.watchCursors()).To(Equal([]string{"", "2", "3"}))
			Expect(errs).To(HaveLen(1))
			Expect(CodeOf(errs[0])).To(Equal(ErrorCodeForbidden))
		})

		It("asks for bookmarks and advances the cursor on them", func() {
			ft.steps = []watchStep{
				streamOf(watch.Event{Type: watch.Bookmark, Object: bookmark("9")}),
			}

			events, _ := drain(client.Watch(ctx, WatchOptions{Backoff: fastBackoff}))

			Expect(events).To(HaveLen(1))
			Expect(events[0].Type).To(Equal(EventBookmark))
			Expect(events[0].ResourceVersion).To(Equal("9"))
			Expect(ft.watchCursors()).To(Equal([]string{"", "9"}))
			Expect(ft.watchCalls[0].AllowWatchBookmarks).To(BeTrue())
		})

		It("reports every state transition", func() {
			ft.steps = []watchStep{streamOf(added("a", "1"))}
			var states []SessionState

			drain(client.Watch(ctx, WatchOptions{
				Backoff:       fastBackoff,
				OnStateChange: func(s SessionState) { states = append(states, s) },
			}))

			Expect(states).To(Equal([]SessionState{
				SessionConnecting, SessionStreaming, SessionDisconnected, SessionConnecting, SessionClosed,
			}))
		})
	})

	Context("when the cursor is invalidated", func() {
		It("emits one reset from an error event and restarts without a cursor", func() {
			ft.steps = []watchStep{
				streamOf(added("a", "4"), goneEvent()),
				streamOf(added("b", "5")),
			}

			events, _ := drain(client.Watch(ctx, WatchOptions{ResourceVersion: "1", Backoff: fastBackoff}))

			Expect(types(events)).To(Equal([]EventType{EventAdded, EventReset, EventAdded}))
			Expect(events[2].Object.Name).To(Equal("b"))
			Expect(ft.watchCursors()).To(Equal([]string{"1", "", "5"}))
		})

		It("emits one reset when the watch request itself is rejected as expired", func() {
			ft.steps = []watchStep{
				{err: apierrors.NewResourceExpired("too old resource version: 3")},
				streamOf(added("b", "7")),
			}

			events, _ := drain(client.Watch(ctx, WatchOptions{ResourceVersion: "3", Backoff: fastBackoff}))

			Expect(types(events)).To(Equal([]EventType{EventReset, EventAdded}))
			Expect(ft.watchCursors()).To(Equal([]string{"3", "", "7"}))
		})
	})

	Context("when the session fails", func() {
		It("treats a decode failure as fatal", func() {
			bad := deployment("broken", "2")
			bad.Object["spec"] = "not-an-object"
			ft.steps = []watchStep{
				streamOf(added("a", "1"), watch.Event{Type: watch.Modified, Object: bad}),
				streamOf(added("never", "3")),
			}

			events, errs := drain(client.Watch(ctx, WatchOptions{Backoff: fastBackoff}))

			Expect(events).To(HaveLen(1))
			Expect(errs).To(HaveLen(1))
			Expect(IsDecodeFailure(errs[0])).To(BeTrue())
			Expect(ft.watchCalls).To(HaveLen(1))
		})

		It("gives up with a transport failure after MaxRetries", func() {
			ft.exhausted = errors.New("connection refused")

			events, errs := drain(client.Watch(ctx, WatchOptions{Backoff: fastBackoff, MaxRetries: 2}))

			Expect(events).To(BeEmpty())
			Expect(errs).To(HaveLen(1))
			Expect(IsTransportFailure(errs[0])).To(BeTrue())
			Expect(ft.watchCalls).To(HaveLen(3))
		})

		It("does not count clean disconnects with progress against the retry budget", func() {
			ft.steps = []watchStep{
				{err: errors.New("connection reset")},
				streamOf(added("a", "1")),
				{err: errors.New("connection reset")},
				streamOf(added("b", "2")),
			}

			events, errs := drain(client.Watch(ctx, WatchOptions{Backoff: fastBackoff, MaxRetries: 1}))

			Expect(events).To(HaveLen(2))
			Expect(CodeOf(errs[0])).To(Equal(ErrorCodeForbidden))
		})
	})

	Context("when the consumer goes away", func() {
		It("stops the underlying watch on break", func() {
			sw := newScriptedWatch(added("a", "1"), added("b", "2"))
			ft.steps = []watchStep{{watch: sw}}

			for range client.Watch(ctx, WatchOptions{Backoff: fastBackoff}) {
				break
			}

			Expect(sw.stopped()).To(BeTrue())
			Expect(ft.watchCalls).To(HaveLen(1))
		})

		It("stops the underlying watch on cancellation", func() {
			fw := watch.NewFake()
			ft.steps = []watchStep{{watch: fw}}
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			go fw.Add(deployment("a", "1"))

			var got []WatchEvent[appsv1.Deployment]
			for event, err := range client.Watch(cctx, WatchOptions{Backoff: fastBackoff}) {
				Expect(err).NotTo(HaveOccurred())
				got = append(got, event)
				cancel()
			}

			Expect(got).To(HaveLen(1))
			Expect(fw.IsStopped()).To(BeTrue())
		})
	})
})

var _ = Describe("WatchForever", func() {
	var (
		ft     *fakeTransport
		client *Client[appsv1.Deployment]
	)

	BeforeEach(func() {
		ft = &fakeTransport{exhausted: forbidden()}
		client = New[appsv1.Deployment](ft, "dev", "kubegen-test", testResource).Namespace("default")
	})

	It("starts with a reset and survives repeated invalidation", func() {
		ft.steps = []watchStep{
			streamOf(added("a", "1"), goneEvent()),
			streamOf(goneEvent()),
			streamOf(added("b", "2"), goneEvent()),
		}

		events, errs := drain(client.WatchForever(context.Background(), WatchOptions{
			ResourceVersion: "ignored",
			Backoff:         fastBackoff,
		}))

		Expect(types(events)).To(Equal([]EventType{
			EventReset, EventAdded, EventReset, EventReset, EventAdded, EventReset,
		}))
		Expect(ft.watchCursors()[0]).To(BeEmpty())
		Expect(errs).To(HaveLen(1))
		Expect(CodeOf(errs[0])).To(Equal(ErrorCodeForbidden))
	})

	It("retries transport failures without limit", func() {
		steps := make([]watchStep, 0, 20)
		for range 20 {
			steps = append(steps, watchStep{err: errors.New("connection refused")})
		}
		ft.steps = steps

		_, errs := drain(client.WatchForever(context.Background(), WatchOptions{Backoff: fastBackoff}))

		Expect(errs).To(HaveLen(1))
		Expect(CodeOf(errs[0])).To(Equal(ErrorCodeForbidden))
		Expect(ft.watchCalls).To(HaveLen(21))
	})

	It("resyncs after a decode failure when the consumer keeps pulling", func() {
		bad := deployment("broken", "2")
		bad.Object["spec"] = "not-an-object"
		ft.steps = []watchStep{
			streamOf(watch.Event{Type: watch.Added, Object: bad}),
			streamOf(added("a", "3")),
		}

		var (
			kinds []EventType
			errs  []error
		)
		for event, err := range client.WatchForever(context.Background(), WatchOptions{Backoff: fastBackoff}) {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			kinds = append(kinds, event.Type)
		}

		Expect(errs).To(HaveLen(2))
		Expect(IsDecodeFailure(errs[0])).To(BeTrue())
		Expect(CodeOf(errs[1])).To(Equal(ErrorCodeForbidden))
		Expect(kinds).To(Equal([]EventType{EventReset, EventReset, EventAdded}))
		Expect(ft.watchCursors()).To(Equal([]string{"", "", "3"}))
	})

	It("restarts without delay after a session that delivered events", func() {
		bad := func(rv string) watch.Event {
			obj := deployment("broken", rv)
			obj.Object["spec"] = "not-an-object"
			return watch.Event{Type: watch.Added, Object: obj}
		}
		ft.steps = []watchStep{
			streamOf(added("a", "1"), bad("2")),
			streamOf(added("b", "3"), bad("4")),
		}

		// A slow backoff would block the second restart well past the
		// deadline unless it is reset by the delivered events.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slow := Backoff{Base: time.Hour, Max: time.Hour}

		var (
			kinds []EventType
			errs  []error
		)
		for event, err := range client.WatchForever(ctx, WatchOptions{Backoff: slow}) {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			kinds = append(kinds, event.Type)
		}

		Expect(ctx.Err()).NotTo(HaveOccurred())
		Expect(errs).To(HaveLen(3))
		Expect(IsDecodeFailure(errs[0])).To(BeTrue())
		Expect(IsDecodeFailure(errs[1])).To(BeTrue())
		Expect(CodeOf(errs[2])).To(Equal(ErrorCodeForbidden))
		Expect(kinds).To(Equal([]EventType{EventReset, EventAdded, EventReset, EventAdded, EventReset}))
	})
})

var _ = Describe("Subresource clients", func() {
	var (
		ft     *fakeTransport
		client *Client[appsv1.Deployment]
	)

	BeforeEach(func() {
		ft = &fakeTransport{exhausted: forbidden()}
		scale := testResource
		scale.Subresource = "scale"
		client = New[appsv1.Deployment](ft, "dev", "kubegen-test", scale).Namespace("default")
	})

	It("rejects Watch without contacting the server", func() {
		var errs []error
		for _, err := range client.Watch(context.Background(), WatchOptions{}) {
			errs = append(errs, err)
		}
		Expect(errs).To(HaveLen(1))
		Expect(CodeOf(errs[0])).To(Equal(ErrorCodeInvalid))
		Expect(ft.watchCalls).To(BeEmpty())
	})

	It("rejects WatchForever before the leading reset", func() {
		var (
			kinds []EventType
			errs  []error
		)
		for event, err := range client.WatchForever(context.Background(), WatchOptions{}) {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			kinds = append(kinds, event.Type)
		}
		Expect(kinds).To(BeEmpty())
		Expect(errs).To(HaveLen(1))
		Expect(CodeOf(errs[0])).To(Equal(ErrorCodeInvalid))
		Expect(ft.watchCalls).To(BeEmpty())
	})
})
