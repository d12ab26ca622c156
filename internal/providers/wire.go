// Package providers aggregates the infrastructure adapters (cluster
// access, discovery caching, spec sources) into a single Wire
// provider set.
package providers

import (
	"github.com/google/wire"

	"github.com/otterscale/kubegen/internal/core"
	"github.com/otterscale/kubegen/internal/providers/cache"
	"github.com/otterscale/kubegen/internal/providers/kubernetes"
	"github.com/otterscale/kubegen/internal/providers/manifest"
	"github.com/otterscale/kubegen/pkg/kubeclient"
)

// ProviderSet is the Wire provider set for all external adapters.
var ProviderSet = wire.NewSet(
	kubernetes.New,
	kubernetes.NewDiscoveryClient,
	NewDiscoveryCache,
	wire.Bind(new(core.DiscoveryClient), new(*cache.DiscoveryCache)),
	wire.Bind(new(core.CacheEvictor), new(*cache.DiscoveryCache)),
	kubernetes.NewTransport,
	wire.Bind(new(kubeclient.Transport), new(*kubeclient.DynamicTransport)),
	kubernetes.NewDiscoverySource,
	manifest.NewSource,
)

// NewDiscoveryCache puts the TTL cache in front of the cluster's
// discovery client.
func NewDiscoveryCache(discovery *kubernetes.DiscoveryClient) *cache.DiscoveryCache {
	return cache.NewDiscoveryCache(discovery, cache.DefaultTTL)
}
