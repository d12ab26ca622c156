package kubeclient

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// Codec converts between a model type and its unstructured wire form.
type Codec[T any] interface {
	Encode(obj *T) (*unstructured.Unstructured, error)
	Decode(obj *unstructured.Unstructured) (*T, error)
}

// DefaultCodec converts through runtime.DefaultUnstructuredConverter.
// When T is unstructured.Unstructured the object is deep-copied instead.
func DefaultCodec[T any]() Codec[T] {
	return unstructuredCodec[T]{}
}

type unstructuredCodec[T any] struct{}

func (unstructuredCodec[T]) Encode(obj *T) (*unstructured.Unstructured, error) {
	if u, ok := any(obj).(*unstructured.Unstructured); ok {
		return u.DeepCopy(), nil
	}

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, err
	}
	return &unstructured.Unstructured{Object: content}, nil
}

func (unstructuredCodec[T]) Decode(obj *unstructured.Unstructured) (*T, error) {
	out := new(T)
	if u, ok := any(out).(*unstructured.Unstructured); ok {
		obj.DeepCopyInto(u)
		return out, nil
	}

	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.UnstructuredContent(), out); err != nil {
		return nil, err
	}
	return out, nil
}
