package kubeclient

import (
	"context"
	"fmt"
	"iter"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// DefaultChunkSize is the page size used by List when none is given.
const DefaultChunkSize int64 = 10

// Client is the generic CRUD+watch client for a single Resource. A
// Client is immutable; Namespace returns a re-bound copy.
type Client[T any] struct {
	transport Transport
	cluster   string
	name      string
	resource  Resource
	namespace string
	codec     Codec[T]
}

// Option customizes a Client.
type Option[T any] func(*Client[T])

// WithCodec replaces the default unstructured converter.
func WithCodec[T any](codec Codec[T]) Option[T] {
	return func(c *Client[T]) {
		c.codec = codec
	}
}

// WithNamespace binds the client to a namespace at construction time.
func WithNamespace[T any](namespace string) Option[T] {
	return func(c *Client[T]) {
		c.namespace = namespace
	}
}

// New returns a Client bound to transport, cluster and resource. name
// identifies the caller and is sent as the field manager on writes.
func New[T any](transport Transport, cluster, name string, resource Resource, opts ...Option[T]) *Client[T] {
	c := &Client[T]{
		transport: transport,
		cluster:   cluster,
		name:      name,
		resource:  resource,
		codec:     DefaultCodec[T](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Namespace returns a copy of the client bound to namespace. An empty
// namespace addresses all namespaces. Cluster-scoped resources ignore it.
func (c *Client[T]) Namespace(namespace string) *Client[T] {
	cp := *c
	cp.namespace = namespace
	return &cp
}

// Resource returns the endpoint the client is bound to.
func (c *Client[T]) Resource() Resource {
	return c.resource
}

// Request returns the transport request target of this client.
func (c *Client[T]) Request() Request {
	req := Request{
		Cluster:  c.cluster,
		Resource: c.resource,
	}
	if c.resource.Namespaced {
		req.Namespace = c.namespace
	}
	return req
}

// ListOptions filter and page a List call.
type ListOptions struct {
	LabelSelector string
	FieldSelector string
	// ChunkSize is the number of items requested per page. Zero means
	// DefaultChunkSize.
	ChunkSize int64
}

// WriteOptions apply to Create and Replace.
type WriteOptions struct {
	DryRun bool
}

// DeleteOptions apply to Delete. Options is sent as-is except for the
// fields overridden by DryRun, GracePeriodSeconds and PropagationPolicy.
type DeleteOptions struct {
	Options            metav1.DeleteOptions
	DryRun             bool
	GracePeriodSeconds *int64
	PropagationPolicy  *metav1.DeletionPropagation
}

func (o DeleteOptions) toMeta() metav1.DeleteOptions {
	opts := *o.Options.DeepCopy()
	if o.DryRun {
		opts.DryRun = []string{metav1.DryRunAll}
	}
	if o.GracePeriodSeconds != nil {
		opts.GracePeriodSeconds = o.GracePeriodSeconds
	}
	if o.PropagationPolicy != nil {
		opts.PropagationPolicy = o.PropagationPolicy
	}
	return opts
}

// List returns a lazy sequence over every item of the collection. Pages
// of opts.ChunkSize items are fetched on demand by following the
// server's continue token. Each iteration starts a fresh listing. The
// sequence stops after yielding the first error. Subresources have no
// collection: List on one yields a single Invalid error.
func (c *Client[T]) List(ctx context.Context, opts ListOptions) iter.Seq2[*T, error] {
	limit := opts.ChunkSize
	if limit <= 0 {
		limit = DefaultChunkSize
	}

	return func(yield func(*T, error) bool) {
		if err := unsupportedOnSubresource(c.resource, "list"); err != nil {
			yield(nil, err)
			return
		}

		continueToken := ""
		for {
			list, err := c.transport.List(ctx, c.Request(), metav1.ListOptions{
				LabelSelector: opts.LabelSelector,
				FieldSelector: opts.FieldSelector,
				Limit:         limit,
				Continue:      continueToken,
			})
			if err != nil {
				yield(nil, WrapError(err))
				return
			}

			for i := range list.Items {
				obj, err := c.decode(&list.Items[i])
				if err != nil {
					yield(nil, err)
					return
				}
				if !yield(obj, nil) {
					return
				}
			}

			continueToken = list.GetContinue()
			if continueToken == "" {
				return
			}
		}
	}
}

// ListAll collects List into a slice.
func (c *Client[T]) ListAll(ctx context.Context, opts ListOptions) ([]*T, error) {
	var items []*T
	for obj, err := range c.List(ctx, opts) {
		if err != nil {
			return nil, err
		}
		items = append(items, obj)
	}
	return items, nil
}

// Get fetches the named object.
func (c *Client[T]) Get(ctx context.Context, name string) (*T, error) {
	req, err := c.objectRequest("get")
	if err != nil {
		return nil, err
	}
	obj, err := c.transport.Get(ctx, req, name, metav1.GetOptions{})
	if err != nil {
		return nil, WrapError(err)
	}
	return c.decode(obj)
}

// Create posts item and returns the server's representation of it.
func (c *Client[T]) Create(ctx context.Context, item *T, opts WriteOptions) (*T, error) {
	req, err := c.objectRequest("create")
	if err != nil {
		return nil, err
	}
	obj, err := c.encode(item)
	if err != nil {
		return nil, err
	}

	createOpts := metav1.CreateOptions{FieldManager: c.name}
	if opts.DryRun {
		createOpts.DryRun = []string{metav1.DryRunAll}
	}

	created, err := c.transport.Create(ctx, req, obj, createOpts)
	if err != nil {
		return nil, WrapError(err)
	}
	return c.decode(created)
}

// Replace puts item and returns the server's representation of it. A
// stale resourceVersion on item yields a Conflict error.
func (c *Client[T]) Replace(ctx context.Context, item *T, opts WriteOptions) (*T, error) {
	req, err := c.objectRequest("replace")
	if err != nil {
		return nil, err
	}
	obj, err := c.encode(item)
	if err != nil {
		return nil, err
	}

	updateOpts := metav1.UpdateOptions{FieldManager: c.name}
	if opts.DryRun {
		updateOpts.DryRun = []string{metav1.DryRunAll}
	}

	updated, err := c.transport.Update(ctx, req, obj, updateOpts)
	if err != nil {
		return nil, WrapError(err)
	}
	return c.decode(updated)
}

// Delete removes the named object and returns the server's status
// acknowledgment.
func (c *Client[T]) Delete(ctx context.Context, name string, opts DeleteOptions) (*metav1.Status, error) {
	req, err := c.objectRequest("delete")
	if err != nil {
		return nil, err
	}
	status, err := c.transport.Delete(ctx, req, name, opts.toMeta())
	if err != nil {
		return nil, WrapError(err)
	}
	return status, nil
}

// objectRequest returns the request of an operation that addresses a
// single object. A namespaced resource needs a namespace for those.
func (c *Client[T]) objectRequest(op string) (Request, error) {
	req := c.Request()
	if c.resource.Namespaced && req.Namespace == "" {
		return Request{}, &DomainError{
			Code:    ErrorCodeInvalid,
			Message: fmt.Sprintf("%s %s needs a namespace", op, c.resource.Kind),
		}
	}
	return req, nil
}

// unsupportedOnSubresource rejects collection operations on a
// subresource. The server only serves those on the parent collection, so
// sending them would return objects of the parent kind.
func unsupportedOnSubresource(r Resource, op string) error {
	if r.Subresource == "" {
		return nil
	}
	return &DomainError{
		Code:    ErrorCodeInvalid,
		Message: fmt.Sprintf("%s is not supported on subresource %s", op, r),
	}
}

func (c *Client[T]) encode(item *T) (*unstructured.Unstructured, error) {
	obj, err := c.codec.Encode(item)
	if err != nil {
		return nil, &DomainError{Code: ErrorCodeInvalid, Message: "encode " + c.resource.Kind, Cause: err}
	}

	if obj.GetAPIVersion() == "" {
		obj.SetAPIVersion(c.resource.APIVersion)
	}
	if obj.GetKind() == "" {
		obj.SetKind(c.resource.Kind)
	}
	return obj, nil
}

func (c *Client[T]) decode(obj *unstructured.Unstructured) (*T, error) {
	out, err := c.codec.Decode(obj)
	if err != nil {
		return nil, decodeError(err, "decode %s %q", c.resource.Kind, obj.GetName())
	}
	return out, nil
}
