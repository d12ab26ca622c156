package core

import "fmt"

// ErrInvalidInput indicates a domain-level input validation failure.
type ErrInvalidInput struct {
	Field   string
	Message string
}

func (e *ErrInvalidInput) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ErrResourceNotFound indicates that a group/version/resource is not
// served by the cluster.
type ErrResourceNotFound struct {
	Cluster  string
	Resource string
}

func (e *ErrResourceNotFound) Error() string {
	if e.Cluster == "" {
		return fmt.Sprintf("resource %s not served", e.Resource)
	}
	return fmt.Sprintf("resource %s not served by cluster %s", e.Resource, e.Cluster)
}

// GenerationError reports the failure of a single resource during
// generation. Other resources of the batch are unaffected.
type GenerationError struct {
	Resource string
	Path     string
	Cause    error
}

func (e *GenerationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("generate %s: %v", e.Resource, e.Cause)
	}
	return fmt.Sprintf("generate %s (%s): %v", e.Resource, e.Path, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
