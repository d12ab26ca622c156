package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otterscale/kubegen/internal/cmd/observe"
	"github.com/otterscale/kubegen/internal/config"
	"github.com/otterscale/kubegen/internal/core"
	"github.com/otterscale/kubegen/pkg/kubeclient"
)

type ObserverInjector func() (*observe.Observer, func(), error)

func NewListCommand(conf *config.Config, newObserver ObserverInjector) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "Print every object of a collection, fetched page by page",
		Example: "kubegen list --group=apps --resource=deployments --namespace=default --chunk-size=50",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(conf, cmd.Flags(), config.ResourceOptions)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			obs, cleanup, err := newObserver()
			if err != nil {
				return fmt.Errorf("failed to initialize observer: %w", err)
			}
			defer cleanup()

			return obs.List(cmd.Context(), observeConfig(conf), cmd.OutOrStdout())
		},
	}

	if err := registerFlags(cmd.Flags(), config.ResourceOptions); err != nil {
		return nil, err
	}
	return cmd, nil
}

func NewWatchCommand(conf *config.Config, newObserver ObserverInjector) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream the changes of a collection, surviving disconnects and resyncs",
		Example: "kubegen watch --group=apps --resource=deployments --metrics-address=:8299\n" +
			"kubegen watch --resource=pods --forever=false --resource-version=12345",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(conf, cmd.Flags(), config.ResourceOptions, config.WatchOptions)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			obs, cleanup, err := newObserver()
			if err != nil {
				return fmt.Errorf("failed to initialize observer: %w", err)
			}
			defer cleanup()

			return obs.Watch(cmd.Context(), observeConfig(conf), cmd.OutOrStdout())
		},
	}

	if err := registerFlags(cmd.Flags(), config.ResourceOptions, config.WatchOptions); err != nil {
		return nil, err
	}
	return cmd, nil
}

func observeConfig(conf *config.Config) observe.Config {
	return observe.Config{
		Selection: core.Selection{
			Group:         conf.ResourceGroup(),
			Version:       conf.ResourceVersion(),
			Resource:      conf.ResourceName(),
			Namespace:     conf.ResourceNamespace(),
			LabelSelector: conf.ResourceLabelSelector(),
			FieldSelector: conf.ResourceFieldSelector(),
			ChunkSize:     conf.ResourceChunkSize(),
		},
		MetricsAddress:  conf.WatchMetricsAddress(),
		Forever:         conf.WatchForever(),
		ResourceVersion: conf.WatchResourceVersion(),
		MaxRetries:      conf.WatchMaxRetries(),
		Backoff: kubeclient.Backoff{
			Base: conf.WatchBackoffBase(),
			Max:  conf.WatchBackoffMax(),
		},
	}
}
