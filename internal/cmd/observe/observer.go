// Package observe implements the list and watch command runtimes. Both
// print objects of one collection as a stream of YAML documents.
package observe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"

	"github.com/otterscale/kubegen/internal/core"
	"github.com/otterscale/kubegen/internal/transport"
	"github.com/otterscale/kubegen/internal/transport/http"
	"github.com/otterscale/kubegen/pkg/kubeclient"
)

// HealthService is the gRPC health service name that follows the
// watch session: SERVING while events stream.
const HealthService = "kubegen.watch"

// cacheEvictionInterval is the interval at which the discovery cache
// evictor removes expired entries.
const cacheEvictionInterval = 5 * time.Minute

// Config holds the runtime parameters of list and watch.
type Config struct {
	Cluster   string
	Selection core.Selection

	// Watch only.
	MetricsAddress  string
	Forever         bool
	ResourceVersion string
	MaxRetries      int
	Backoff         kubeclient.Backoff
}

// Observer prints the objects and changes of a collection.
type Observer struct {
	resources *core.ResourceUseCase
	evictor   core.CacheEvictor
	log       *slog.Logger
}

func NewObserver(resources *core.ResourceUseCase, evictor core.CacheEvictor) *Observer {
	return &Observer{
		resources: resources,
		evictor:   evictor,
		log:       slog.Default().With("component", "observer"),
	}
}

// List writes every object of the selection to out.
func (o *Observer) List(ctx context.Context, cfg Config, out io.Writer) error {
	count := 0
	for obj, err := range o.resources.List(ctx, cfg.Cluster, cfg.Selection) {
		if err != nil {
			return err
		}
		if err := writeDocument(out, obj.Object); err != nil {
			return err
		}
		count++
	}
	o.log.Debug("list finished", "resource", cfg.Selection.Resource, "count", count)
	return nil
}

// Watch writes the changes of the selection to out until ctx is
// cancelled or the watch ends. When cfg.MetricsAddress is set, metrics
// and health are served on it for as long as the watch runs.
func (o *Observer) Watch(ctx context.Context, cfg Config, out io.Writer) error {
	ops := http.NewOps(HealthService)

	listeners := []transport.Listener{
		transport.ListenerFunc(func(ctx context.Context) error {
			return o.watch(ctx, cfg, out, ops)
		}),
		transport.ListenerFunc(func(ctx context.Context) error {
			o.evictor.StartEvictionLoop(ctx, cacheEvictionInterval)
			return nil
		}),
	}

	if cfg.MetricsAddress != "" {
		srv, err := http.NewServer(
			http.WithAddress(cfg.MetricsAddress),
			http.WithMount(ops.Mount),
		)
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}
		listeners = append(listeners, srv)
	}

	return transport.Serve(ctx, listeners...)
}

func (o *Observer) watch(ctx context.Context, cfg Config, out io.Writer, ops *http.Ops) error {
	log := o.log.With("session", uuid.NewString(), "resource", cfg.Selection.Resource)

	req := core.WatchRequest{
		Forever: cfg.Forever,
		Options: kubeclient.WatchOptions{
			ResourceVersion: cfg.ResourceVersion,
			MaxRetries:      cfg.MaxRetries,
			Backoff:         cfg.Backoff,
			OnStateChange: func(state kubeclient.SessionState) {
				log.Debug("watch state changed", "state", state)
				ops.SetServing(HealthService, state == kubeclient.SessionStreaming)
			},
		},
	}

	for event, err := range o.resources.Watch(ctx, cfg.Cluster, cfg.Selection, req) {
		if err != nil {
			if !cfg.Forever || kubeclient.IsTerminal(err) {
				return err
			}
			// WatchForever resyncs after a decode failure.
			log.Warn("watch error, resyncing", "error", err)
			continue
		}
		if err := writeDocument(out, eventDocument(event)); err != nil {
			return err
		}
	}

	ops.SetServing(HealthService, false)
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func eventDocument(event kubeclient.WatchEvent[unstructured.Unstructured]) map[string]any {
	doc := map[string]any{"type": string(event.Type)}
	if event.ResourceVersion != "" {
		doc["resourceVersion"] = event.ResourceVersion
	}
	if event.Object != nil {
		doc["object"] = event.Object.Object
	}
	return doc
}

func writeDocument(out io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if _, err := fmt.Fprintf(out, "---\n%s", data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
