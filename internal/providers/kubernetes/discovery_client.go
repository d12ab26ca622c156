package kubernetes

import (
	"context"
	"errors"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/version"
	"k8s.io/apiserver/pkg/cel/openapi/resolver"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/kube-openapi/pkg/validation/spec"

	"github.com/otterscale/kubegen/internal/core"
	"github.com/otterscale/kubegen/pkg/kubeclient"
)

// DiscoveryClient implements core.DiscoveryClient with the discovery
// API of each cluster. Group and resource lists are memoized per
// cluster for the life of the process.
type DiscoveryClient struct {
	kubernetes *Kubernetes
	clients    sync.Map // map[string]discovery.CachedDiscoveryInterface, keyed by cluster name
}

func NewDiscoveryClient(kubernetes *Kubernetes) *DiscoveryClient {
	return &DiscoveryClient{
		kubernetes: kubernetes,
	}
}

var _ core.DiscoveryClient = (*DiscoveryClient)(nil)

// LookupResource returns the resource named resource under
// group/version, or a core.ErrResourceNotFound.
func (d *DiscoveryClient) LookupResource(_ context.Context, cluster, group, version, resource string) (*metav1.APIResource, error) {
	client, err := d.client(cluster)
	if err != nil {
		return nil, err
	}

	gv := schema.GroupVersion{Group: group, Version: version}
	notFound := &core.ErrResourceNotFound{Cluster: cluster, Resource: gv.String() + "/" + resource}

	resources, err := client.ServerResourcesForGroupVersion(gv.String())
	if apierrors.IsNotFound(err) || errors.Is(err, memory.ErrCacheNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, kubeclient.WrapError(err)
	}

	for i := range resources.APIResources {
		if resources.APIResources[i].Name == resource {
			return &resources.APIResources[i], nil
		}
	}
	return nil, notFound
}

// ServerResources returns the full list of API resources available on
// the target cluster. Groups that fail discovery are logged and left
// out.
func (d *DiscoveryClient) ServerResources(_ context.Context, cluster string) ([]*metav1.APIResourceList, error) {
	client, err := d.client(cluster)
	if err != nil {
		return nil, err
	}

	_, resources, err := client.ServerGroupsAndResources()
	if err != nil {
		if !discovery.IsGroupDiscoveryFailedError(err) {
			return nil, kubeclient.WrapError(err)
		}
		d.kubernetes.log.Warn("partial discovery", "cluster", cluster, "error", err)
	}
	return resources, nil
}

// ResolveSchema fetches the OpenAPI schema for the given GVK from the
// target cluster's discovery endpoint.
func (d *DiscoveryClient) ResolveSchema(_ context.Context, cluster, group, version, kind string) (*spec.Schema, error) {
	client, err := d.client(cluster)
	if err != nil {
		return nil, err
	}

	schemaResolver := &resolver.ClientDiscoveryResolver{
		Discovery: client,
	}
	gvk := schema.GroupVersionKind{
		Group:   group,
		Version: version,
		Kind:    kind,
	}
	resolved, err := schemaResolver.ResolveSchema(gvk)
	if err != nil {
		return nil, kubeclient.WrapError(err)
	}
	return resolved, nil
}

// ServerVersion returns the Kubernetes version of the target cluster.
func (d *DiscoveryClient) ServerVersion(_ context.Context, cluster string) (*version.Info, error) {
	client, err := d.client(cluster)
	if err != nil {
		return nil, err
	}
	info, err := client.ServerVersion()
	if err != nil {
		return nil, kubeclient.WrapError(err)
	}
	return info, nil
}

func (d *DiscoveryClient) client(cluster string) (discovery.CachedDiscoveryInterface, error) {
	if c, ok := d.clients.Load(cluster); ok {
		return c.(discovery.CachedDiscoveryInterface), nil
	}

	cfg, err := d.kubernetes.ConfigFor(cluster)
	if err != nil {
		return nil, err
	}
	dc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, kubeclient.WrapError(err)
	}

	actual, _ := d.clients.LoadOrStore(cluster, memory.NewMemCacheClient(dc))
	return actual.(discovery.CachedDiscoveryInterface), nil
}
