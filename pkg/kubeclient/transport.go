package kubeclient

import (
	"context"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"
)

// Transport is the wire collaborator behind every Client. Errors are
// expected to carry an apimachinery status (apierrors.APIStatus) when the
// server answered; anything else is treated as a transport failure.
//
// Watch must return a stream that is released by Stop and whose result
// channel is closed on end-of-stream. Server-side failures, including
// "410 Gone" for an expired resourceVersion, arrive either as the error
// returned by Watch or as a watch.Error event carrying a metav1.Status.
type Transport interface {
	List(ctx context.Context, req Request, opts metav1.ListOptions) (*unstructured.UnstructuredList, error)
	Get(ctx context.Context, req Request, name string, opts metav1.GetOptions) (*unstructured.Unstructured, error)
	Create(ctx context.Context, req Request, obj *unstructured.Unstructured, opts metav1.CreateOptions) (*unstructured.Unstructured, error)
	Update(ctx context.Context, req Request, obj *unstructured.Unstructured, opts metav1.UpdateOptions) (*unstructured.Unstructured, error)
	Delete(ctx context.Context, req Request, name string, opts metav1.DeleteOptions) (*metav1.Status, error)
	Watch(ctx context.Context, req Request, opts metav1.ListOptions) (watch.Interface, error)
}
