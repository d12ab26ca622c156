package kubeclient

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/otterscale/kubegen/pkg/kubeclient"

type watchMetrics struct {
	events     metric.Int64Counter
	reconnects metric.Int64Counter
	resets     metric.Int64Counter
}

// instruments are created against the global MeterProvider, so a provider
// installed later by the binary still receives the measurements.
var instruments = sync.OnceValue(func() *watchMetrics {
	meter := otel.Meter(instrumentationName)
	return &watchMetrics{
		events:     counter(meter, "kubeclient.watch.events", "Watch events delivered to consumers"),
		reconnects: counter(meter, "kubeclient.watch.reconnects", "Watch reconnect attempts"),
		resets:     counter(meter, "kubeclient.watch.resets", "Reset events emitted after cursor invalidation"),
	}
})

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		slog.Warn("failed to create counter", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}
