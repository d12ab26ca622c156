package cmd

import (
	"github.com/spf13/pflag"

	"github.com/otterscale/kubegen/internal/config"
)

func registerFlags(fs *pflag.FlagSet, tables ...[]config.Option) error {
	for _, options := range tables {
		if err := config.RegisterFlags(fs, options); err != nil {
			return err
		}
	}
	return nil
}

// bindFlags binds at run time, so that keys shared by several commands
// follow the flags of the command actually running.
func bindFlags(conf *config.Config, fs *pflag.FlagSet, tables ...[]config.Option) error {
	for _, options := range tables {
		if err := conf.BindFlags(fs, options); err != nil {
			return err
		}
	}
	return nil
}
