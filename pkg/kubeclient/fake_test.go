package kubeclient

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
)

var testResource = Resource{
	Group:      "apps",
	Version:    "v1",
	Resource:   "deployments",
	APIVersion: "apps/v1",
	Kind:       "Deployment",
	Namespaced: true,
}

func deployment(name, rv string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]any{
			"name":            name,
			"namespace":       "default",
			"resourceVersion": rv,
		},
	}}
}

func bookmark(rv string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]any{"resourceVersion": rv},
	}}
}

func goneEvent() watch.Event {
	status := apierrors.NewResourceExpired("too old resource version").Status()
	return watch.Event{Type: watch.Error, Object: &status}
}

var deploymentsGR = schema.GroupResource{Group: "apps", Resource: "deployments"}

// scriptedWatch replays a fixed list of events and then reports
// end-of-stream.
type scriptedWatch struct {
	ch   chan watch.Event
	once sync.Once
	stop chan struct{}
}

func newScriptedWatch(events ...watch.Event) *scriptedWatch {
	ch := make(chan watch.Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &scriptedWatch{ch: ch, stop: make(chan struct{})}
}

func (w *scriptedWatch) ResultChan() <-chan watch.Event { return w.ch }
func (w *scriptedWatch) Stop()                          { w.once.Do(func() { close(w.stop) }) }

func (w *scriptedWatch) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

// watchStep is one scripted answer of fakeTransport.Watch.
type watchStep struct {
	watch watch.Interface
	err   error
}

type fakeTransport struct {
	mu sync.Mutex

	items     []*unstructured.Unstructured
	listCalls []metav1.ListOptions
	listErr   error

	getErr    error
	createErr error
	updateErr error

	lastRequest Request
	created     *unstructured.Unstructured
	createOpts  metav1.CreateOptions
	updateOpts  metav1.UpdateOptions
	deleteOpts  metav1.DeleteOptions

	steps      []watchStep
	watchCalls []metav1.ListOptions
	// exhausted is returned once steps run out.
	exhausted error
}

var _ Transport = (*fakeTransport)(nil)

func (f *fakeTransport) List(_ context.Context, req Request, opts metav1.ListOptions) (*unstructured.UnstructuredList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastRequest = req
	f.listCalls = append(f.listCalls, opts)
	if f.listErr != nil {
		return nil, f.listErr
	}

	offset := 0
	if opts.Continue != "" {
		offset, _ = strconv.Atoi(opts.Continue)
	}
	end := len(f.items)
	if opts.Limit > 0 && offset+int(opts.Limit) < end {
		end = offset + int(opts.Limit)
	}

	list := &unstructured.UnstructuredList{}
	for _, item := range f.items[offset:end] {
		list.Items = append(list.Items, *item.DeepCopy())
	}
	if end < len(f.items) {
		list.SetContinue(strconv.Itoa(end))
	}
	return list, nil
}

func (f *fakeTransport) Get(_ context.Context, req Request, name string, _ metav1.GetOptions) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastRequest = req
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, item := range f.items {
		if item.GetName() == name {
			return item.DeepCopy(), nil
		}
	}
	return nil, apierrors.NewNotFound(deploymentsGR, name)
}

func (f *fakeTransport) Create(_ context.Context, req Request, obj *unstructured.Unstructured, opts metav1.CreateOptions) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastRequest = req
	f.created = obj.DeepCopy()
	f.createOpts = opts
	if f.createErr != nil {
		return nil, f.createErr
	}

	out := obj.DeepCopy()
	out.SetUID("generated-uid")
	out.SetResourceVersion("1")
	return out, nil
}

func (f *fakeTransport) Update(_ context.Context, req Request, obj *unstructured.Unstructured, opts metav1.UpdateOptions) (*unstructured.Unstructured, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastRequest = req
	f.updateOpts = opts
	if f.updateErr != nil {
		return nil, f.updateErr
	}

	out := obj.DeepCopy()
	out.SetResourceVersion("2")
	return out, nil
}

// Delete echoes the options it received in the returned status.
func (f *fakeTransport) Delete(_ context.Context, req Request, name string, opts metav1.DeleteOptions) (*metav1.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastRequest = req
	f.deleteOpts = opts

	var (
		policy metav1.DeletionPropagation
		grace  int64 = -1
	)
	if opts.PropagationPolicy != nil {
		policy = *opts.PropagationPolicy
	}
	if opts.GracePeriodSeconds != nil {
		grace = *opts.GracePeriodSeconds
	}

	return &metav1.Status{
		Status:  metav1.StatusSuccess,
		Message: fmt.Sprintf("propagationPolicy=%s gracePeriodSeconds=%d dryRun=%v", policy, grace, opts.DryRun),
		Details: &metav1.StatusDetails{Name: name, Kind: req.Resource.Resource},
	}, nil
}

func (f *fakeTransport) Watch(_ context.Context, req Request, opts metav1.ListOptions) (watch.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastRequest = req
	f.watchCalls = append(f.watchCalls, opts)
	if len(f.steps) == 0 {
		return nil, f.exhausted
	}

	step := f.steps[0]
	f.steps = f.steps[1:]
	return step.watch, step.err
}

func (f *fakeTransport) watchCursors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	cursors := make([]string, 0, len(f.watchCalls))
	for _, call := range f.watchCalls {
		cursors = append(cursors, call.ResourceVersion)
	}
	return cursors
}
