//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/spf13/cobra"

	"github.com/otterscale/kubegen/internal/cmd"
	"github.com/otterscale/kubegen/internal/cmd/generate"
	"github.com/otterscale/kubegen/internal/cmd/observe"
	"github.com/otterscale/kubegen/internal/codegen"
	"github.com/otterscale/kubegen/internal/config"
	"github.com/otterscale/kubegen/internal/core"
	"github.com/otterscale/kubegen/internal/providers"
)

func wireCmd() (*cobra.Command, func(), error) {
	panic(wire.Build(newCmd, config.ProviderSet))
}

func wireGenerator(conf *config.Config) (*generate.Generator, func(), error) {
	panic(wire.Build(cmd.ProviderSet, core.ProviderSet, codegen.ProviderSet, providers.ProviderSet))
}

func wireObserver(conf *config.Config) (*observe.Observer, func(), error) {
	panic(wire.Build(cmd.ProviderSet, core.ProviderSet, providers.ProviderSet))
}
