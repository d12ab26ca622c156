package http

import (
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"connectrpc.com/otelconnect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Ops serves the operational endpoints of a long-running command:
// gRPC health checking, reflection and Prometheus metrics. Every
// service starts NOT_SERVING until SetServing reports otherwise.
type Ops struct {
	services []string
	checker  *grpchealth.StaticChecker
	registry *prometheus.Registry
}

// NewOps returns an Ops reporting health for services.
func NewOps(services ...string) *Ops {
	checker := grpchealth.NewStaticChecker(services...)
	for _, service := range services {
		checker.SetStatus(service, grpchealth.StatusNotServing)
	}
	checker.SetStatus("", grpchealth.StatusNotServing)

	return &Ops{
		services: services,
		checker:  checker,
		registry: prometheus.NewRegistry(),
	}
}

// SetServing updates the health of service and of the server as a
// whole.
func (o *Ops) SetServing(service string, serving bool) {
	status := grpchealth.StatusNotServing
	if serving {
		status = grpchealth.StatusServing
	}
	o.checker.SetStatus(service, status)
	o.checker.SetStatus("", status)
}

// Mount registers the health, reflection and metrics handlers and
// installs the global OpenTelemetry MeterProvider feeding /metrics.
// It is a MountFunc.
func (o *Ops) Mount(mux *http.ServeMux) error {
	otelInterceptor, err := otelconnect.NewInterceptor()
	if err != nil {
		return err
	}
	interceptors := connect.WithInterceptors(otelInterceptor)

	// gRPC Reflection
	reflector := grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName)
	mux.Handle(grpcreflect.NewHandlerV1(reflector, interceptors))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector, interceptors))

	// gRPC Health Check
	mux.Handle(grpchealth.NewHandler(o.checker, interceptors))

	// Prometheus Metrics
	exporter, err := otelprom.New(otelprom.WithRegisterer(o.registry))
	if err != nil {
		return err
	}
	otel.SetMeterProvider(metric.NewMeterProvider(metric.WithReader(exporter)))
	mux.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))

	return nil
}
