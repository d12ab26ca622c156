package kubeclient

import (
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Resource describes an API endpoint that a Client talks to. APIVersion
// and Kind describe the payload, which for subresources may differ from
// the parent (deployments/scale carries an autoscaling/v1 Scale).
type Resource struct {
	Group       string
	Version     string
	Resource    string
	Subresource string
	APIVersion  string
	Kind        string
	Namespaced  bool
}

// GroupVersionResource returns the parent resource coordinates.
func (r Resource) GroupVersionResource() schema.GroupVersionResource {
	return schema.GroupVersionResource{
		Group:    r.Group,
		Version:  r.Version,
		Resource: r.Resource,
	}
}

// Path returns "resource" or "resource/subresource".
func (r Resource) Path() string {
	if r.Subresource == "" {
		return r.Resource
	}
	return r.Resource + "/" + r.Subresource
}

func (r Resource) String() string {
	gv := schema.GroupVersion{Group: r.Group, Version: r.Version}.String()
	return strings.Join([]string{gv, r.Path()}, "/")
}

// Request identifies the target of a single transport call.
type Request struct {
	Cluster   string
	Resource  Resource
	Namespace string
}
