package kubeclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
)

// ConfigResolver returns the REST config for a named cluster.
type ConfigResolver func(cluster string) (*rest.Config, error)

// WatchListGate reports whether a cluster supports streaming the initial
// state of a watch (sendInitialEvents).
type WatchListGate func(ctx context.Context, cluster string) (bool, error)

// DynamicTransport implements Transport with the client-go dynamic
// client. One dynamic client is built and cached per cluster.
type DynamicTransport struct {
	newClient func(cluster string) (dynamic.Interface, error)
	watchList WatchListGate
	clients   sync.Map // map[string]dynamic.Interface, keyed by cluster name
}

// DynamicOption customizes a DynamicTransport.
type DynamicOption func(*DynamicTransport)

// WithWatchList enables sendInitialEvents for cursor-less watches on
// clusters for which gate returns true.
func WithWatchList(gate WatchListGate) DynamicOption {
	return func(t *DynamicTransport) {
		t.watchList = gate
	}
}

// NewDynamicTransport returns a DynamicTransport resolving clusters
// through resolve.
func NewDynamicTransport(resolve ConfigResolver, opts ...DynamicOption) *DynamicTransport {
	t := &DynamicTransport{
		newClient: func(cluster string) (dynamic.Interface, error) {
			cfg, err := resolve(cluster)
			if err != nil {
				return nil, fmt.Errorf("resolve cluster %q: %w", cluster, err)
			}
			return dynamic.NewForConfig(cfg)
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDynamicTransportForClient returns a DynamicTransport that serves
// every cluster name with client.
func NewDynamicTransportForClient(client dynamic.Interface, opts ...DynamicOption) *DynamicTransport {
	t := &DynamicTransport{
		newClient: func(string) (dynamic.Interface, error) { return client, nil },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ Transport = (*DynamicTransport)(nil)

func (t *DynamicTransport) List(ctx context.Context, req Request, opts metav1.ListOptions) (*unstructured.UnstructuredList, error) {
	if err := unsupportedOnSubresource(req.Resource, "list"); err != nil {
		return nil, err
	}
	ri, err := t.resource(req)
	if err != nil {
		return nil, err
	}
	return ri.List(ctx, opts)
}

func (t *DynamicTransport) Get(ctx context.Context, req Request, name string, opts metav1.GetOptions) (*unstructured.Unstructured, error) {
	ri, err := t.resource(req)
	if err != nil {
		return nil, err
	}
	return ri.Get(ctx, name, opts, subresources(req)...)
}

func (t *DynamicTransport) Create(ctx context.Context, req Request, obj *unstructured.Unstructured, opts metav1.CreateOptions) (*unstructured.Unstructured, error) {
	ri, err := t.resource(req)
	if err != nil {
		return nil, err
	}
	return ri.Create(ctx, obj, opts, subresources(req)...)
}

func (t *DynamicTransport) Update(ctx context.Context, req Request, obj *unstructured.Unstructured, opts metav1.UpdateOptions) (*unstructured.Unstructured, error) {
	ri, err := t.resource(req)
	if err != nil {
		return nil, err
	}
	return ri.Update(ctx, obj, opts, subresources(req)...)
}

// Delete removes the object. The dynamic client does not expose the
// server's response body, so a success Status is synthesized.
func (t *DynamicTransport) Delete(ctx context.Context, req Request, name string, opts metav1.DeleteOptions) (*metav1.Status, error) {
	ri, err := t.resource(req)
	if err != nil {
		return nil, err
	}
	if err := ri.Delete(ctx, name, opts, subresources(req)...); err != nil {
		return nil, err
	}

	return &metav1.Status{
		Status: metav1.StatusSuccess,
		Code:   http.StatusOK,
		Details: &metav1.StatusDetails{
			Name:  name,
			Group: req.Resource.Group,
			Kind:  req.Resource.Resource,
		},
	}, nil
}

func (t *DynamicTransport) Watch(ctx context.Context, req Request, opts metav1.ListOptions) (watch.Interface, error) {
	if err := unsupportedOnSubresource(req.Resource, "watch"); err != nil {
		return nil, err
	}
	ri, err := t.resource(req)
	if err != nil {
		return nil, err
	}

	if opts.ResourceVersion == "" && t.watchList != nil {
		supported, err := t.watchList(ctx, req.Cluster)
		if err != nil {
			return nil, err
		}
		if supported {
			sendInitialEvents := true
			opts.SendInitialEvents = &sendInitialEvents
			opts.ResourceVersionMatch = metav1.ResourceVersionMatchNotOlderThan
			opts.AllowWatchBookmarks = true
		}
	}

	return ri.Watch(ctx, opts)
}

func (t *DynamicTransport) resource(req Request) (dynamic.ResourceInterface, error) {
	client, err := t.client(req.Cluster)
	if err != nil {
		return nil, err
	}

	nri := client.Resource(req.Resource.GroupVersionResource())
	if req.Resource.Namespaced && req.Namespace != "" {
		return nri.Namespace(req.Namespace), nil
	}
	return nri, nil
}

func (t *DynamicTransport) client(cluster string) (dynamic.Interface, error) {
	if c, ok := t.clients.Load(cluster); ok {
		return c.(dynamic.Interface), nil
	}

	client, err := t.newClient(cluster)
	if err != nil {
		return nil, err
	}

	actual, _ := t.clients.LoadOrStore(cluster, client)
	return actual.(dynamic.Interface), nil
}

func subresources(req Request) []string {
	if req.Resource.Subresource == "" {
		return nil
	}
	return []string{req.Resource.Subresource}
}
