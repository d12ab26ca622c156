package core

import (
	"context"
	"iter"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/otterscale/kubegen/pkg/kubeclient"
)

// FieldManager identifies kubegen as the writer of server-side changes.
const FieldManager = "kubegen"

// Selection names a collection and narrows it.
type Selection struct {
	Group         string
	Version       string
	Resource      string
	Namespace     string
	LabelSelector string
	FieldSelector string
	ChunkSize     int64
}

// WatchRequest configures ResourceUseCase.Watch.
type WatchRequest struct {
	// Forever selects WatchForever over a single resumable Watch.
	Forever bool
	Options kubeclient.WatchOptions
}

type ResourceUseCase struct {
	discovery DiscoveryClient
	transport kubeclient.Transport
}

func NewResourceUseCase(discovery DiscoveryClient, transport kubeclient.Transport) *ResourceUseCase {
	return &ResourceUseCase{
		discovery: discovery,
		transport: transport,
	}
}

// Resolve looks the resource up on the cluster and returns its runtime
// descriptor.
func (uc *ResourceUseCase) Resolve(ctx context.Context, cluster, group, version, resource string) (kubeclient.Resource, error) {
	if version == "" || resource == "" {
		return kubeclient.Resource{}, &ErrInvalidInput{Field: "resource", Message: "version and resource are required"}
	}

	api, err := uc.discovery.LookupResource(ctx, cluster, group, version, resource)
	if err != nil {
		return kubeclient.Resource{}, err
	}
	return ResourceFromAPI(schema.GroupVersion{Group: group, Version: version}, *api), nil
}

// Client returns an untyped client bound to the selected collection.
func (uc *ResourceUseCase) Client(ctx context.Context, cluster string, sel Selection) (*kubeclient.Client[unstructured.Unstructured], error) {
	res, err := uc.Resolve(ctx, cluster, sel.Group, sel.Version, sel.Resource)
	if err != nil {
		return nil, err
	}
	return kubeclient.New[unstructured.Unstructured](uc.transport, cluster, FieldManager, res).Namespace(sel.Namespace), nil
}

// List streams every object of the selection, stripped of server-side
// bookkeeping fields.
func (uc *ResourceUseCase) List(ctx context.Context, cluster string, sel Selection) iter.Seq2[*unstructured.Unstructured, error] {
	return func(yield func(*unstructured.Unstructured, error) bool) {
		client, err := uc.Client(ctx, cluster, sel)
		if err != nil {
			yield(nil, err)
			return
		}

		opts := kubeclient.ListOptions{
			LabelSelector: sel.LabelSelector,
			FieldSelector: sel.FieldSelector,
			ChunkSize:     sel.ChunkSize,
		}
		for obj, err := range client.List(ctx, opts) {
			if obj != nil {
				uc.cleanObject(obj)
			}
			if !yield(obj, err) {
				return
			}
		}
	}
}

// Watch streams the changes of the selection.
func (uc *ResourceUseCase) Watch(ctx context.Context, cluster string, sel Selection, req WatchRequest) iter.Seq2[kubeclient.WatchEvent[unstructured.Unstructured], error] {
	return func(yield func(kubeclient.WatchEvent[unstructured.Unstructured], error) bool) {
		client, err := uc.Client(ctx, cluster, sel)
		if err != nil {
			yield(kubeclient.WatchEvent[unstructured.Unstructured]{}, err)
			return
		}

		opts := req.Options
		opts.LabelSelector = sel.LabelSelector
		opts.FieldSelector = sel.FieldSelector

		events := client.Watch(ctx, opts)
		if req.Forever {
			events = client.WatchForever(ctx, opts)
		}
		for event, err := range events {
			if event.Object != nil {
				uc.cleanObject(event.Object)
			}
			if !yield(event, err) {
				return
			}
		}
	}
}

func (uc *ResourceUseCase) cleanObject(obj *unstructured.Unstructured) {
	unstructured.RemoveNestedField(obj.Object, "metadata", "managedFields")

	annotations := obj.GetAnnotations()
	if len(annotations) > 0 {
		if _, exists := annotations["kubectl.kubernetes.io/last-applied-configuration"]; exists {
			delete(annotations, "kubectl.kubernetes.io/last-applied-configuration")

			if len(annotations) == 0 {
				unstructured.RemoveNestedField(obj.Object, "metadata", "annotations")
			} else {
				obj.SetAnnotations(annotations)
			}
		}
	}
}
