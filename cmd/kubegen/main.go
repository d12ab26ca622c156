// Package main is the entry point for the kubegen binary. It supports
// three subcommands:
//
//   - generate: renders typed client modules from a resource manifest
//     or from cluster discovery
//   - list:     prints every object of a collection, page by page
//   - watch:    streams the changes of a collection, serving metrics
//     and health while it runs
//
// wire.go declares the injectors; wire_gen.go holds their generated
// bodies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otterscale/kubegen/internal/cmd"
	"github.com/otterscale/kubegen/internal/cmd/generate"
	"github.com/otterscale/kubegen/internal/cmd/observe"
	"github.com/otterscale/kubegen/internal/config"
)

// version is overridden at link time with -X main.version=<tag>.
var version = "devel"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "kubegen:", err)
		os.Exit(1)
	}
}

// run builds the command tree and executes it with ctx, which is
// cancelled on SIGINT or SIGTERM.
func run(ctx context.Context) error {
	rootCmd, cleanup, err := wireCmd()
	if err != nil {
		return fmt.Errorf("build commands: %w", err)
	}
	defer cleanup()

	return rootCmd.ExecuteContext(ctx)
}

// newCmd returns the root command with generate, list and watch
// attached. Their dependencies are built by the
// injectors only once the flags of the running command are bound.
func newCmd(conf *config.Config) (*cobra.Command, error) {
	c, err := cmd.NewRootCommand(conf, version)
	if err != nil {
		return nil, err
	}

	generateCmd, err := cmd.NewGenerateCommand(conf, func() (*generate.Generator, func(), error) {
		return wireGenerator(conf)
	})
	if err != nil {
		return nil, err
	}

	newObserver := func() (*observe.Observer, func(), error) {
		return wireObserver(conf)
	}
	listCmd, err := cmd.NewListCommand(conf, newObserver)
	if err != nil {
		return nil, err
	}
	watchCmd, err := cmd.NewWatchCommand(conf, newObserver)
	if err != nil {
		return nil, err
	}

	c.AddCommand(generateCmd, listCmd, watchCmd)

	return c, nil
}
