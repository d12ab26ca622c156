package kubernetes

import (
	"context"

	"github.com/otterscale/kubegen/internal/core"
	"github.com/otterscale/kubegen/pkg/kubeclient"
)

// NewTransport returns the dynamic transport used by list and watch.
// Cursor-less watches stream their initial state on clusters that
// support WatchList.
func NewTransport(kubernetes *Kubernetes, discovery core.DiscoveryClient) *kubeclient.DynamicTransport {
	return kubeclient.NewDynamicTransport(kubernetes.ConfigFor,
		kubeclient.WithWatchList(WatchListGate(discovery)),
	)
}

// WatchListGate reports WatchList support from the server version.
func WatchListGate(discovery core.DiscoveryClient) kubeclient.WatchListGate {
	return func(ctx context.Context, cluster string) (bool, error) {
		info, err := discovery.ServerVersion(ctx, cluster)
		if err != nil {
			return false, err
		}
		return core.WatchListSupported(info)
	}
}
