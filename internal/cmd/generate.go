package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otterscale/kubegen/internal/cmd/generate"
	"github.com/otterscale/kubegen/internal/config"
)

type GeneratorInjector func() (*generate.Generator, func(), error)

func NewGenerateCommand(conf *config.Config, newGenerator GeneratorInjector) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate typed clients from a resource manifest or from cluster discovery",
		Example: "kubegen generate --spec-file=resources.yaml --output-dir=generated\n" +
			"kubegen generate --context=dev --groups=apps,core",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(conf, cmd.Flags(), config.GenerateOptions)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, cleanup, err := newGenerator()
			if err != nil {
				return fmt.Errorf("failed to initialize generator: %w", err)
			}
			defer cleanup()

			return gen.Run(cmd.Context(), generate.Config{
				SpecFile:    conf.GenerateSpecFile(),
				Concurrency: conf.GenerateConcurrency(),
			})
		},
	}

	if err := registerFlags(cmd.Flags(), config.GenerateOptions); err != nil {
		return nil, err
	}
	return cmd, nil
}
