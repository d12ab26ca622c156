package codegen

import (
	"github.com/google/wire"

	"github.com/otterscale/kubegen/internal/config"
	"github.com/otterscale/kubegen/internal/core"
)

// ProviderSet is the Wire provider set for the client module emitter.
var ProviderSet = wire.NewSet(
	NewConfiguredEmitter,
	wire.Bind(new(core.Emitter), new(*Emitter)),
)

// NewConfiguredEmitter writes below generate.output_dir and imports the
// runtime from generate.runtime_package.
func NewConfiguredEmitter(conf *config.Config) *Emitter {
	return NewEmitter(conf.GenerateOutputDir(), TemplateOptions{
		RuntimePackage: conf.GenerateRuntimePackage(),
	})
}
