// Package cmd defines the Cobra subcommands (generate, list, watch)
// and their Wire provider sets. It bridges configuration, dependency
// injection, and the application runtimes.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/otterscale/kubegen/internal/config"
)

// NewRootCommand returns the root command with the flags shared by
// every subcommand.
func NewRootCommand(conf *config.Config, version string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "kubegen",
		Short:         "Generate typed Kubernetes clients and inspect the resources they serve",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlags(conf, cmd.Root().PersistentFlags(), config.GlobalOptions, config.KubeOptions); err != nil {
				return err
			}
			setupLogging(conf.Debug())
			return nil
		},
	}

	if err := registerFlags(cmd.PersistentFlags(), config.GlobalOptions, config.KubeOptions); err != nil {
		return nil, err
	}
	return cmd, nil
}

// setupLogging installs a text handler on stderr at Info level, or
// Debug when debug is set. Stdout is reserved for command output.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
