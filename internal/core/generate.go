package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// SpecSource produces the resource specs of a generation run.
type SpecSource interface {
	Specs(ctx context.Context) ([]ResourceActionSpec, error)
}

// Emitter renders one spec to its client module.
type Emitter interface {
	// Target returns the path spec is written to. It is a pure
	// function of the spec.
	Target(spec ResourceActionSpec) string
	// Emit renders spec and replaces the file at Target(spec).
	Emit(ctx context.Context, spec ResourceActionSpec) error
}

// GenerateReport lists the outcome of every resource of a run, in spec
// name order.
type GenerateReport struct {
	Written []string
	Failed  []*GenerationError
}

// Err joins every failure of the run, or returns nil.
func (r *GenerateReport) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type GenerateUseCase struct {
	emitter Emitter
	log     *slog.Logger

	generated metric.Int64Counter
}

func NewGenerateUseCase(emitter Emitter) (*GenerateUseCase, error) {
	meter := otel.Meter("github.com/otterscale/kubegen/internal/core")
	generated, err := meter.Int64Counter("kubegen.generate.resources",
		metric.WithDescription("Resources processed by generation, by result"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerateUseCase{
		emitter:   emitter,
		log:       slog.Default().With("component", "generate"),
		generated: generated,
	}, nil
}

// Generate loads the specs of source and emits them. See GenerateSpecs.
func (uc *GenerateUseCase) Generate(ctx context.Context, source SpecSource, concurrency int) (*GenerateReport, error) {
	specs, err := source.Specs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load resource specs: %w", err)
	}
	return uc.GenerateSpecs(ctx, specs, concurrency)
}

// GenerateSpecs emits one client module per spec, running at most
// concurrency emitters at a time. A failing resource never stops the
// others: the report lists every written path and every failure, and
// the returned error joins the failures.
func (uc *GenerateUseCase) GenerateSpecs(ctx context.Context, specs []ResourceActionSpec, concurrency int) (*GenerateReport, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	specs = append([]ResourceActionSpec(nil), specs...)
	SortSpecs(specs)

	results := make([]*GenerationError, len(specs))
	targets := make([]string, len(specs))
	claimed := map[string][]int{}

	for i, spec := range specs {
		targets[i] = uc.emitter.Target(spec)
		if err := spec.Validate(); err != nil {
			results[i] = &GenerationError{Resource: spec.Name, Path: targets[i], Cause: err}
			continue
		}
		claimed[targets[i]] = append(claimed[targets[i]], i)
	}

	for target, owners := range claimed {
		if len(owners) < 2 {
			continue
		}
		for _, i := range owners {
			results[i] = &GenerationError{
				Resource: specs[i].Name,
				Path:     target,
				Cause:    fmt.Errorf("%d resources map to the same file", len(owners)),
			}
		}
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, spec := range specs {
		if results[i] != nil {
			continue
		}
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = uc.emitter.Emit(ctx, spec)
			}
			if err != nil {
				results[i] = &GenerationError{Resource: spec.Name, Path: targets[i], Cause: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &GenerateReport{}
	for i, spec := range specs {
		if failed := results[i]; failed != nil {
			uc.log.Warn("resource generation failed", "resource", spec.Name, "path", failed.Path, "error", failed.Cause)
			uc.generated.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
			report.Failed = append(report.Failed, failed)
			continue
		}
		uc.log.Debug("resource generated", "resource", spec.Name, "path", targets[i], "verbs", spec.Verbs, "scope", spec.Scope)
		uc.generated.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "ok")))
		report.Written = append(report.Written, targets[i])
	}

	return report, report.Err()
}
