package kubeclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func newTestClient(transport Transport) *Client[appsv1.Deployment] {
	return New[appsv1.Deployment](transport, "dev", "kubegen-test", testResource).Namespace("default")
}

func collection(n int) []*unstructured.Unstructured {
	items := make([]*unstructured.Unstructured, 0, n)
	for i := range n {
		items = append(items, deployment(fmt.Sprintf("app-%02d", i), fmt.Sprint(i+1)))
	}
	return items
}

func TestClientList_PaginationIsInvisible(t *testing.T) {
	ft := &fakeTransport{items: collection(25)}
	c := newTestClient(ft)

	var names []string
	for obj, err := range c.List(context.Background(), ListOptions{ChunkSize: 10}) {
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		names = append(names, obj.Name)
	}

	if len(names) != 25 {
		t.Fatalf("got %d items, want 25", len(names))
	}
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate item %s", n)
		}
		seen[n] = true
	}

	if len(ft.listCalls) != 3 {
		t.Fatalf("got %d list calls, want 3", len(ft.listCalls))
	}
	wantContinue := []string{"", "10", "20"}
	for i, call := range ft.listCalls {
		if call.Limit != 10 {
			t.Errorf("call %d: limit = %d, want 10", i, call.Limit)
		}
		if call.Continue != wantContinue[i] {
			t.Errorf("call %d: continue = %q, want %q", i, call.Continue, wantContinue[i])
		}
	}
}

func TestClientList_ChunkSizeDoesNotChangeResult(t *testing.T) {
	for _, chunk := range []int64{0, 1, 7, 10, 25, 100} {
		t.Run(fmt.Sprintf("chunk=%d", chunk), func(t *testing.T) {
			c := newTestClient(&fakeTransport{items: collection(25)})

			items, err := c.ListAll(context.Background(), ListOptions{ChunkSize: chunk})
			if err != nil {
				t.Fatalf("ListAll returned error: %v", err)
			}
			if len(items) != 25 {
				t.Errorf("got %d items, want 25", len(items))
			}
		})
	}
}

func TestClientList_IsLazyAndRestartable(t *testing.T) {
	ft := &fakeTransport{items: collection(25)}
	seq := newTestClient(ft).List(context.Background(), ListOptions{})

	if len(ft.listCalls) != 0 {
		t.Fatalf("List issued %d requests before iteration", len(ft.listCalls))
	}

	count := 0
	for _, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		count++
		if count == 3 {
			break
		}
	}
	if len(ft.listCalls) != 1 {
		t.Errorf("early break: got %d list calls, want 1", len(ft.listCalls))
	}

	count = 0
	for _, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		count++
	}
	if count != 25 {
		t.Errorf("second iteration yielded %d items, want 25", count)
	}
}

func TestClientList_SurfacesTypedError(t *testing.T) {
	ft := &fakeTransport{listErr: apierrors.NewForbidden(deploymentsGR, "", errors.New("denied"))}

	_, err := newTestClient(ft).ListAll(context.Background(), ListOptions{})
	if CodeOf(err) != ErrorCodeForbidden {
		t.Fatalf("got %v, want Forbidden", err)
	}
}

func TestClientGet(t *testing.T) {
	ft := &fakeTransport{items: collection(3)}
	c := newTestClient(ft)

	got, err := c.Get(context.Background(), "app-01")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != "app-01" || got.ResourceVersion != "2" {
		t.Errorf("got %s@%s, want app-01@2", got.Name, got.ResourceVersion)
	}
	if ft.lastRequest.Namespace != "default" || ft.lastRequest.Cluster != "dev" {
		t.Errorf("unexpected request target %+v", ft.lastRequest)
	}

	_, err = c.Get(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("got %v, want NotFound", err)
	}
}

func TestClientCreate(t *testing.T) {
	tests := []struct {
		name   string
		dryRun bool
		want   []string
	}{
		{name: "persisted", dryRun: false, want: nil},
		{name: "dry run", dryRun: true, want: []string{metav1.DryRunAll}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{}
			c := newTestClient(ft)

			item := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "web"}}
			got, err := c.Create(context.Background(), item, WriteOptions{DryRun: tt.dryRun})
			if err != nil {
				t.Fatalf("Create returned error: %v", err)
			}

			if got.UID != "generated-uid" {
				t.Errorf("server representation not returned: uid = %q", got.UID)
			}
			if fmt.Sprint(ft.createOpts.DryRun) != fmt.Sprint(tt.want) {
				t.Errorf("dryRun = %v, want %v", ft.createOpts.DryRun, tt.want)
			}
			if ft.createOpts.FieldManager != "kubegen-test" {
				t.Errorf("fieldManager = %q", ft.createOpts.FieldManager)
			}
			if ft.created.GetAPIVersion() != "apps/v1" || ft.created.GetKind() != "Deployment" {
				t.Errorf("type meta not filled: %s %s", ft.created.GetAPIVersion(), ft.created.GetKind())
			}
		})
	}
}

func TestClientCreate_AlreadyExists(t *testing.T) {
	ft := &fakeTransport{createErr: apierrors.NewAlreadyExists(deploymentsGR, "web")}

	_, err := newTestClient(ft).Create(context.Background(), &appsv1.Deployment{}, WriteOptions{})
	if !IsAlreadyExists(err) {
		t.Fatalf("got %v, want AlreadyExists", err)
	}
}

func TestClientReplace_Conflict(t *testing.T) {
	ft := &fakeTransport{updateErr: apierrors.NewConflict(deploymentsGR, "web", errors.New("object has been modified"))}

	_, err := newTestClient(ft).Replace(context.Background(), &appsv1.Deployment{}, WriteOptions{DryRun: true})
	if !IsConflict(err) {
		t.Fatalf("got %v, want Conflict", err)
	}
	if len(ft.updateOpts.DryRun) != 1 {
		t.Errorf("dryRun not forwarded: %v", ft.updateOpts.DryRun)
	}
}

func TestClientDelete_EchoesOptions(t *testing.T) {
	ft := &fakeTransport{}
	grace := int64(30)
	policy := metav1.DeletePropagationBackground

	status, err := newTestClient(ft).Delete(context.Background(), "web", DeleteOptions{
		GracePeriodSeconds: &grace,
		PropagationPolicy:  &policy,
	})
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	want := "propagationPolicy=Background gracePeriodSeconds=30 dryRun=[]"
	if status.Message != want {
		t.Errorf("status message = %q, want %q", status.Message, want)
	}
	if status.Details.Name != "web" {
		t.Errorf("status details name = %q", status.Details.Name)
	}
}

func TestClientDelete_OverridesBaseOptions(t *testing.T) {
	ft := &fakeTransport{}
	base := int64(5)
	grace := int64(0)
	orphan := metav1.DeletePropagationOrphan

	_, err := newTestClient(ft).Delete(context.Background(), "web", DeleteOptions{
		Options:            metav1.DeleteOptions{GracePeriodSeconds: &base, PropagationPolicy: &orphan},
		DryRun:             true,
		GracePeriodSeconds: &grace,
	})
	if err != nil {
		t.Fatal(err)
	}

	if *ft.deleteOpts.GracePeriodSeconds != 0 {
		t.Errorf("grace = %d, want 0", *ft.deleteOpts.GracePeriodSeconds)
	}
	if *ft.deleteOpts.PropagationPolicy != metav1.DeletePropagationOrphan {
		t.Errorf("policy = %s, want Orphan", *ft.deleteOpts.PropagationPolicy)
	}
	if len(ft.deleteOpts.DryRun) != 1 || ft.deleteOpts.DryRun[0] != metav1.DryRunAll {
		t.Errorf("dryRun = %v", ft.deleteOpts.DryRun)
	}
}

func TestClient_ClusterScopedIgnoresNamespace(t *testing.T) {
	ft := &fakeTransport{items: []*unstructured.Unstructured{deployment("node-a", "1")}}
	res := testResource
	res.Namespaced = false

	c := New[unstructured.Unstructured](ft, "dev", "kubegen-test", res).Namespace("ignored")
	if _, err := c.Get(context.Background(), "node-a"); err != nil {
		t.Fatal(err)
	}
	if ft.lastRequest.Namespace != "" {
		t.Errorf("namespace = %q, want empty", ft.lastRequest.Namespace)
	}
}

func TestClient_DecodeFailure(t *testing.T) {
	bad := deployment("broken", "1")
	bad.Object["spec"] = "not-an-object"
	ft := &fakeTransport{items: []*unstructured.Unstructured{bad}}

	_, err := newTestClient(ft).Get(context.Background(), "broken")
	if !IsDecodeFailure(err) {
		t.Fatalf("got %v, want DecodeFailure", err)
	}
}

func TestClient_NamespacedObjectCallsNeedNamespace(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(c *Client[appsv1.Deployment]) error
	}{
		{name: "get", call: func(c *Client[appsv1.Deployment]) error {
			_, err := c.Get(ctx, "web")
			return err
		}},
		{name: "create", call: func(c *Client[appsv1.Deployment]) error {
			_, err := c.Create(ctx, &appsv1.Deployment{}, WriteOptions{})
			return err
		}},
		{name: "replace", call: func(c *Client[appsv1.Deployment]) error {
			_, err := c.Replace(ctx, &appsv1.Deployment{}, WriteOptions{})
			return err
		}},
		{name: "delete", call: func(c *Client[appsv1.Deployment]) error {
			_, err := c.Delete(ctx, "web", DeleteOptions{})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{items: collection(1)}
			c := newTestClient(ft).Namespace("")

			if err := tt.call(c); CodeOf(err) != ErrorCodeInvalid {
				t.Fatalf("got %v, want Invalid", err)
			}
			if ft.lastRequest.Resource.Resource != "" {
				t.Errorf("request reached the transport: %+v", ft.lastRequest)
			}
		})
	}
}
