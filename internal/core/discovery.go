package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/version"
	"k8s.io/kube-openapi/pkg/validation/spec"

	"github.com/otterscale/kubegen/pkg/kubeclient"
)

// DiscoveryClient abstracts the discovery API of a cluster.
type DiscoveryClient interface {
	// LookupResource returns the APIResource served under
	// group/version with the given name, which may carry a subresource
	// suffix ("deployments/scale").
	LookupResource(ctx context.Context, cluster, group, version, resource string) (*metav1.APIResource, error)
	ServerResources(ctx context.Context, cluster string) ([]*metav1.APIResourceList, error)
	ResolveSchema(ctx context.Context, cluster, group, version, kind string) (*spec.Schema, error)
	ServerVersion(ctx context.Context, cluster string) (*version.Info, error)
}

// CacheEvictor is a discovery cache whose expired entries are dropped
// by a loop that runs until ctx is done.
type CacheEvictor interface {
	StartEvictionLoop(ctx context.Context, interval time.Duration)
}

// minWatchListVersion is the first Kubernetes release with WatchList
// streaming enabled by default (beta since 1.34).
// See https://kubernetes.io/docs/reference/using-api/api-concepts/#streaming-lists
var minWatchListVersion = semver.MustParse("v1.34.0")

// WatchListSupported reports whether a server of the given version
// streams the initial state of a watch.
func WatchListSupported(info *version.Info) (bool, error) {
	if info == nil {
		return false, nil
	}
	kubeVersion, err := semver.NewVersion(info.String())
	if err != nil {
		return false, fmt.Errorf("parse server version %q: %w", info.String(), err)
	}
	// Vendor builds ("v1.34.1-eks-...") carry a pre-release suffix that
	// would otherwise sort them below the upstream release.
	release := semver.New(kubeVersion.Major(), kubeVersion.Minor(), kubeVersion.Patch(), "", "")
	return release.GreaterThanEqual(minWatchListVersion), nil
}

// ResourceFromAPI builds the runtime descriptor of an APIResource
// listed under gv.
func ResourceFromAPI(gv schema.GroupVersion, r metav1.APIResource) kubeclient.Resource {
	name, sub, _ := strings.Cut(r.Name, "/")

	// Subresources may report the group and version of their own kind.
	kindGV := gv
	if r.Version != "" {
		kindGV = schema.GroupVersion{Group: r.Group, Version: r.Version}
	}

	return kubeclient.Resource{
		Group:       gv.Group,
		Version:     gv.Version,
		Resource:    name,
		Subresource: sub,
		APIVersion:  kindGV.String(),
		Kind:        r.Kind,
		Namespaced:  r.Namespaced,
	}
}
