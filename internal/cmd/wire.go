package cmd

import (
	"github.com/google/wire"

	"github.com/otterscale/kubegen/internal/cmd/generate"
	"github.com/otterscale/kubegen/internal/cmd/observe"
)

// ProviderSet is the Wire provider set for the CLI layer.
var ProviderSet = wire.NewSet(
	generate.NewGenerator,
	observe.NewObserver,
)
