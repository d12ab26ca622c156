// Package generate implements the generate command runtime: it loads
// resource specs from a manifest or from cluster discovery and renders
// one client module per spec.
package generate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otterscale/kubegen/internal/core"
	"github.com/otterscale/kubegen/internal/providers/kubernetes"
	"github.com/otterscale/kubegen/internal/providers/manifest"
)

// Config holds the runtime parameters of a generation run.
type Config struct {
	// SpecFile selects the manifest source. Discovery is used when it
	// is empty.
	SpecFile    string
	Concurrency int
}

// Generator runs GenerateUseCase against the configured spec source.
type Generator struct {
	generate  *core.GenerateUseCase
	manifest  *manifest.Source
	discovery *kubernetes.DiscoverySource
	log       *slog.Logger
}

func NewGenerator(generate *core.GenerateUseCase, manifest *manifest.Source, discovery *kubernetes.DiscoverySource) *Generator {
	return &Generator{
		generate:  generate,
		manifest:  manifest,
		discovery: discovery,
		log:       slog.Default().With("component", "generator"),
	}
}

// Run generates every spec of the selected source. Failures of single
// resources are logged and joined into the returned error after all
// other resources were written.
func (g *Generator) Run(ctx context.Context, cfg Config) error {
	var source core.SpecSource = g.discovery
	name := "discovery"
	if cfg.SpecFile != "" {
		source, name = g.manifest, cfg.SpecFile
	}
	g.log.Info("generating clients", "source", name, "concurrency", cfg.Concurrency)

	report, err := g.generate.Generate(ctx, source, cfg.Concurrency)
	if report == nil {
		return err
	}

	g.log.Info("generation finished", "written", len(report.Written), "failed", len(report.Failed))
	if err != nil {
		return fmt.Errorf("%d of %d resources failed: %w",
			len(report.Failed), len(report.Written)+len(report.Failed), err)
	}
	return nil
}
