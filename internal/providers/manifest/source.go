// Package manifest reads resource specs from a YAML manifest.
//
// A manifest maps resource identifiers ("resource" or
// "resource/subresource") to their client description:
//
//	resources:
//	  deployments:
//	    group: apps
//	    version: v1
//	    model:
//	      package: k8s.io/api/apps/v1
//	      kind: Deployment
//	    verbs: [get, put, post]
//	    scope: Namespaced
//	  deployments/scale:
//	    name: DeploymentScale
//	    group: apps
//	    version: v1
//	    model:
//	      package: k8s.io/api/autoscaling/v1
//	      group: autoscaling
//	      version: v1
//	      kind: Scale
//	    verbs: [get, put]
//	    scope: Namespaced
//
// The model group and version default to the endpoint's, and the name
// defaults to the model kind. Entries for subresources must be named.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/otterscale/kubegen/internal/config"
	"github.com/otterscale/kubegen/internal/core"
)

type document struct {
	Resources map[string]entry `json:"resources"`
}

type entry struct {
	Name        string   `json:"name,omitempty"`
	Group       string   `json:"group,omitempty"`
	Version     string   `json:"version"`
	Model       model    `json:"model"`
	Verbs       []string `json:"verbs,omitempty"`
	Scope       string   `json:"scope"`
	Description string   `json:"description,omitempty"`
}

type model struct {
	Package string `json:"package"`
	Group   string `json:"group,omitempty"`
	Version string `json:"version,omitempty"`
	Kind    string `json:"kind"`
}

// Source implements core.SpecSource over a manifest file.
type Source struct {
	path string
}

var _ core.SpecSource = (*Source)(nil)

func NewSource(conf *config.Config) *Source {
	return NewSourceFromFile(conf.GenerateSpecFile())
}

func NewSourceFromFile(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Specs(_ context.Context) ([]core.ResourceActionSpec, error) {
	if s.path == "" {
		return nil, &core.ErrInvalidInput{Field: "generate.spec_file", Message: "no manifest file given"}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	specs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", s.path, err)
	}
	return specs, nil
}

// Parse decodes a manifest into specs sorted by name. Unknown fields
// and invalid entries are rejected; every invalid entry is reported.
func Parse(data []byte) ([]core.ResourceActionSpec, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, err
	}

	var (
		specs []core.ResourceActionSpec
		errs  []error
	)
	for _, id := range slices.Sorted(maps.Keys(doc.Resources)) {
		spec, err := doc.Resources[id].spec(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("resource %q: %w", id, err))
			continue
		}
		specs = append(specs, spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	core.SortSpecs(specs)
	return specs, nil
}

func (e entry) spec(id string) (core.ResourceActionSpec, error) {
	resource, subresource, _ := strings.Cut(id, "/")

	name := e.Name
	if name == "" {
		if subresource != "" {
			return core.ResourceActionSpec{}, &core.ErrInvalidInput{Field: "name", Message: "subresources must be named"}
		}
		name = e.Model.Kind
	}

	scope, err := core.ParseScope(e.Scope)
	if err != nil {
		return core.ResourceActionSpec{}, err
	}

	verbs := make([]core.Verb, 0, len(e.Verbs))
	for _, v := range e.Verbs {
		verb, err := core.ParseVerb(v)
		if err != nil {
			return core.ResourceActionSpec{}, err
		}
		verbs = append(verbs, verb)
	}

	m := core.ModelRef{
		Package: e.Model.Package,
		Group:   e.Model.Group,
		Version: e.Model.Version,
		Kind:    e.Model.Kind,
	}
	if m.Group == "" && m.Version == "" {
		m.Group, m.Version = e.Group, e.Version
	}

	spec := core.ResourceActionSpec{
		Name:  name,
		Model: m,
		Verbs: core.NewVerbSet(verbs...),
		Scope: scope,
		Endpoint: core.Endpoint{
			Group:       e.Group,
			Version:     e.Version,
			Resource:    resource,
			Subresource: subresource,
		},
		Description: strings.TrimSpace(e.Description),
	}
	if err := spec.Validate(); err != nil {
		return core.ResourceActionSpec{}, err
	}
	return spec, nil
}
