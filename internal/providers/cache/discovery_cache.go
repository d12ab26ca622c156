// Package cache provides TTL-based caching for Kubernetes discovery
// data. Generation resolves one schema per resource and every watch
// resync asks for the server version, so both are cached here.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/version"
	"k8s.io/kube-openapi/pkg/validation/spec"

	"github.com/otterscale/kubegen/internal/core"
)

// DefaultTTL is the default lifetime of cached schemas, server
// versions and resource lists.
const DefaultTTL = 10 * time.Minute

// DiscoveryCache wraps a core.DiscoveryClient with TTL caching and
// singleflight deduplication. LookupResource is passed through; the
// wrapped client already memoizes it per cluster.
type DiscoveryCache struct {
	discovery core.DiscoveryClient
	schemas   *ttlCache[*spec.Schema]
	versions  *ttlCache[*version.Info]
	resources *ttlCache[[]*metav1.APIResourceList]
	log       *slog.Logger
}

var (
	_ core.DiscoveryClient = (*DiscoveryCache)(nil)
	_ core.CacheEvictor    = (*DiscoveryCache)(nil)
)

// NewDiscoveryCache returns a DiscoveryCache that wraps discovery and
// caches results for ttl.
func NewDiscoveryCache(discovery core.DiscoveryClient, ttl time.Duration) *DiscoveryCache {
	return newDiscoveryCache(discovery, ttl, time.Now)
}

func newDiscoveryCache(discovery core.DiscoveryClient, ttl time.Duration, now func() time.Time) *DiscoveryCache {
	return &DiscoveryCache{
		discovery: discovery,
		schemas:   newTTLCache[*spec.Schema](ttl, now),
		versions:  newTTLCache[*version.Info](ttl, now),
		resources: newTTLCache[[]*metav1.APIResourceList](ttl, now),
		log:       slog.Default().With("component", "discovery-cache"),
	}
}

func (c *DiscoveryCache) LookupResource(ctx context.Context, cluster, group, version, resource string) (*metav1.APIResource, error) {
	return c.discovery.LookupResource(ctx, cluster, group, version, resource)
}

func (c *DiscoveryCache) ServerResources(ctx context.Context, cluster string) ([]*metav1.APIResourceList, error) {
	return c.resources.get(ctx, cluster, func(ctx context.Context) ([]*metav1.APIResourceList, error) {
		return c.discovery.ServerResources(ctx, cluster)
	})
}

// ResolveSchema fetches the OpenAPI schema for the given GVK.
func (c *DiscoveryCache) ResolveSchema(ctx context.Context, cluster, group, version, kind string) (*spec.Schema, error) {
	key := strings.Join([]string{cluster, group, version, kind}, "/")
	return c.schemas.get(ctx, key, func(ctx context.Context) (*spec.Schema, error) {
		return c.discovery.ResolveSchema(ctx, cluster, group, version, kind)
	})
}

func (c *DiscoveryCache) ServerVersion(ctx context.Context, cluster string) (*version.Info, error) {
	return c.versions.get(ctx, cluster, func(ctx context.Context) (*version.Info, error) {
		return c.discovery.ServerVersion(ctx, cluster)
	})
}

// StartEvictionLoop periodically removes expired cache entries. It
// blocks until ctx is cancelled.
func (c *DiscoveryCache) StartEvictionLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := c.evictExpired(); evicted > 0 {
				c.log.Info("evicted expired cache entries", "count", evicted)
			}
		}
	}
}

func (c *DiscoveryCache) evictExpired() int {
	return c.schemas.evictExpired() + c.versions.evictExpired() + c.resources.evictExpired()
}
