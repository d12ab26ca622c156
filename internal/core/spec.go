package core

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"unicode"

	"github.com/otterscale/kubegen/pkg/kubeclient"
)

// Verb is an action a generated client may expose.
type Verb string

const (
	// VerbGet fetches one object by name.
	VerbGet Verb = "get"
	// VerbPut replaces an existing object.
	VerbPut Verb = "put"
	// VerbPost creates a new object.
	VerbPost Verb = "post"
)

// Verbs lists every verb in canonical method order.
var Verbs = []Verb{VerbGet, VerbPut, VerbPost}

// ParseVerb accepts a verb name case-insensitively.
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Verbs, v) {
		return "", &ErrInvalidInput{Field: "verb", Message: fmt.Sprintf("unknown verb %q", s)}
	}
	return v, nil
}

func (v Verb) bit() VerbSet {
	switch v {
	case VerbGet:
		return 1 << 0
	case VerbPut:
		return 1 << 1
	case VerbPost:
		return 1 << 2
	default:
		return 0
	}
}

// VerbSet is a subset of Verbs.
type VerbSet uint8

// NewVerbSet returns the set holding verbs. Unknown verbs are ignored.
func NewVerbSet(verbs ...Verb) VerbSet {
	var s VerbSet
	for _, v := range verbs {
		s |= v.bit()
	}
	return s
}

func (s VerbSet) Has(v Verb) bool {
	b := v.bit()
	return b != 0 && s&b == b
}

// List returns the members of s in canonical order.
func (s VerbSet) List() []Verb {
	out := make([]Verb, 0, len(Verbs))
	for _, v := range Verbs {
		if s.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

func (s VerbSet) String() string {
	verbs := s.List()
	parts := make([]string, len(verbs))
	for i, v := range verbs {
		parts[i] = string(v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Scope tells whether a resource lives inside a namespace.
type Scope int

const (
	ScopeNamespaced Scope = iota
	ScopeCluster
)

func (s Scope) String() string {
	switch s {
	case ScopeNamespaced:
		return "Namespaced"
	case ScopeCluster:
		return "Cluster"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope accepts "Namespaced" or "Cluster", case-insensitively.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "namespaced":
		return ScopeNamespaced, nil
	case "cluster":
		return ScopeCluster, nil
	default:
		return 0, &ErrInvalidInput{Field: "scope", Message: fmt.Sprintf("unknown scope %q", s)}
	}
}

// ModelRef identifies the Go type a generated client is parameterized
// with, and the API version and kind the server knows it by.
type ModelRef struct {
	// Package is the Go import path, e.g. "k8s.io/api/autoscaling/v1".
	Package string
	Group   string
	Version string
	Kind    string
}

// APIVersion returns group/version, or version for the legacy group.
func (m ModelRef) APIVersion() string {
	if m.Group == "" {
		return m.Version
	}
	return m.Group + "/" + m.Version
}

// Namespace returns the last two segments of Package. They select the
// output directory and the import alias of generated files.
func (m ModelRef) Namespace() []string {
	segments := strings.Split(strings.Trim(m.Package, "/"), "/")
	if len(segments) > 2 {
		segments = segments[len(segments)-2:]
	}
	return segments
}

// Endpoint locates a collection on the server.
type Endpoint struct {
	Group       string
	Version     string
	Resource    string
	Subresource string
}

func (e Endpoint) String() string {
	s := path.Join(e.Group, e.Version, e.Resource)
	if e.Subresource != "" {
		s += "/" + e.Subresource
	}
	return s
}

// ResourceActionSpec describes one generated client: its name, model
// type, supported verbs and scope.
type ResourceActionSpec struct {
	// Name is the exported Go identifier the client types are derived
	// from, e.g. "DeploymentScale".
	Name        string
	Model       ModelRef
	Verbs       VerbSet
	Scope       Scope
	Endpoint    Endpoint
	Description string
}

// Resource returns the runtime descriptor of the spec's collection.
func (s ResourceActionSpec) Resource() kubeclient.Resource {
	return kubeclient.Resource{
		Group:       s.Endpoint.Group,
		Version:     s.Endpoint.Version,
		Resource:    s.Endpoint.Resource,
		Subresource: s.Endpoint.Subresource,
		APIVersion:  s.Model.APIVersion(),
		Kind:        s.Model.Kind,
		Namespaced:  s.Scope == ScopeNamespaced,
	}
}

// Validate checks that the spec can be rendered.
func (s ResourceActionSpec) Validate() error {
	if !isExportedIdent(s.Name) {
		return &ErrInvalidInput{Field: "name", Message: fmt.Sprintf("%q is not an exported Go identifier", s.Name)}
	}
	if s.Model.Package == "" || len(s.Model.Namespace()) < 2 {
		return &ErrInvalidInput{Field: "model.package", Message: fmt.Sprintf("%s: import path %q needs at least two segments", s.Name, s.Model.Package)}
	}
	for _, segment := range strings.Split(strings.Trim(s.Model.Package, "/"), "/") {
		if !validPathSegment(segment) {
			return &ErrInvalidInput{Field: "model.package", Message: fmt.Sprintf("%s: import path %q has invalid segment %q", s.Name, s.Model.Package, segment)}
		}
	}
	if !isExportedIdent(s.Model.Kind) {
		return &ErrInvalidInput{Field: "model.kind", Message: fmt.Sprintf("%s: %q is not an exported Go identifier", s.Name, s.Model.Kind)}
	}
	if s.Model.Version == "" {
		return &ErrInvalidInput{Field: "model.version", Message: s.Name + ": version is required"}
	}
	if s.Endpoint.Version == "" || s.Endpoint.Resource == "" {
		return &ErrInvalidInput{Field: "endpoint", Message: s.Name + ": version and resource are required"}
	}
	if s.Scope != ScopeNamespaced && s.Scope != ScopeCluster {
		return &ErrInvalidInput{Field: "scope", Message: fmt.Sprintf("%s: %s", s.Name, s.Scope)}
	}
	return nil
}

// SortSpecs orders specs by name, then model package, then endpoint,
// so that every run processes them in the same order.
func SortSpecs(specs []ResourceActionSpec) {
	slices.SortFunc(specs, func(a, b ResourceActionSpec) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if c := strings.Compare(a.Model.Package, b.Model.Package); c != 0 {
			return c
		}
		return strings.Compare(a.Endpoint.String(), b.Endpoint.String())
	})
}

// validPathSegment reports whether segment can name one directory below
// the output root.
func validPathSegment(segment string) bool {
	switch segment {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(segment, `\:`)
}

func isExportedIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case i == 0 && !unicode.IsUpper(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_':
			return false
		}
	}
	return true
}
