package kubernetes

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"unicode"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/otterscale/kubegen/internal/config"
	"github.com/otterscale/kubegen/internal/core"
)

// discoveryVerbs maps discovery verbs to client verbs.
var discoveryVerbs = map[string]core.Verb{
	"get":    core.VerbGet,
	"update": core.VerbPut,
	"create": core.VerbPost,
}

// DiscoverySource implements core.SpecSource by describing every
// resource and subresource a cluster serves.
type DiscoverySource struct {
	discovery   core.DiscoveryClient
	cluster     string
	groups      []string
	modelPrefix string
	log         *slog.Logger
}

var _ core.SpecSource = (*DiscoverySource)(nil)

func NewDiscoverySource(discovery core.DiscoveryClient, conf *config.Config) *DiscoverySource {
	return NewDiscoverySourceFor(discovery, "", conf.GenerateGroups(), conf.GenerateModelPackagePrefix())
}

// NewDiscoverySourceFor describes cluster, keeping only the listed API
// groups ("core" names the legacy group) or every group when groups is
// empty. Model packages are resolved under modelPrefix as
// <prefix>/<first label of the group>/<version>.
func NewDiscoverySourceFor(discovery core.DiscoveryClient, cluster string, groups []string, modelPrefix string) *DiscoverySource {
	return &DiscoverySource{
		discovery:   discovery,
		cluster:     cluster,
		groups:      groups,
		modelPrefix: modelPrefix,
		log:         slog.Default().With("component", "discovery-source"),
	}
}

func (d *DiscoverySource) Specs(ctx context.Context) ([]core.ResourceActionSpec, error) {
	lists, err := d.discovery.ServerResources(ctx, d.cluster)
	if err != nil {
		return nil, fmt.Errorf("discover resources: %w", err)
	}

	var specs []core.ResourceActionSpec
	for _, list := range lists {
		gv, err := schema.ParseGroupVersion(list.GroupVersion)
		if err != nil {
			return nil, fmt.Errorf("parse group version %q: %w", list.GroupVersion, err)
		}
		if !d.wantGroup(gv.Group) {
			continue
		}

		kinds := map[string]string{}
		for _, r := range list.APIResources {
			if !strings.Contains(r.Name, "/") {
				kinds[r.Name] = r.Kind
			}
		}

		for _, r := range list.APIResources {
			spec, ok := d.spec(ctx, gv, r, kinds)
			if !ok {
				d.log.Debug("skipping resource without a model kind", "groupVersion", gv, "resource", r.Name)
				continue
			}
			specs = append(specs, spec)
		}
	}

	core.SortSpecs(specs)
	return specs, nil
}

func (d *DiscoverySource) spec(ctx context.Context, gv schema.GroupVersion, r metav1.APIResource, kinds map[string]string) (core.ResourceActionSpec, bool) {
	res := core.ResourceFromAPI(gv, r)
	if res.Kind == "" {
		return core.ResourceActionSpec{}, false
	}

	name := res.Kind
	if res.Subresource != "" {
		parent := kinds[res.Resource]
		if parent == "" {
			return core.ResourceActionSpec{}, false
		}
		name = parent + exportedName(res.Subresource)
	}

	modelGV, err := schema.ParseGroupVersion(res.APIVersion)
	if err != nil {
		return core.ResourceActionSpec{}, false
	}

	var verbs []core.Verb
	for _, v := range r.Verbs {
		if verb, ok := discoveryVerbs[v]; ok {
			verbs = append(verbs, verb)
		}
	}

	scope := core.ScopeCluster
	if res.Namespaced {
		scope = core.ScopeNamespaced
	}

	return core.ResourceActionSpec{
		Name: name,
		Model: core.ModelRef{
			Package: path.Join(d.modelPrefix, groupPackage(modelGV.Group), modelGV.Version),
			Group:   modelGV.Group,
			Version: modelGV.Version,
			Kind:    res.Kind,
		},
		Verbs: core.NewVerbSet(verbs...),
		Scope: scope,
		Endpoint: core.Endpoint{
			Group:       res.Group,
			Version:     res.Version,
			Resource:    res.Resource,
			Subresource: res.Subresource,
		},
		Description: d.description(ctx, modelGV, res.Kind),
	}, true
}

// description returns the OpenAPI description of the kind, or "" when
// the server publishes no schema for it.
func (d *DiscoverySource) description(ctx context.Context, gv schema.GroupVersion, kind string) string {
	s, err := d.discovery.ResolveSchema(ctx, d.cluster, gv.Group, gv.Version, kind)
	if err != nil || s == nil {
		d.log.Debug("no schema for kind", "groupVersion", gv, "kind", kind, "error", err)
		return ""
	}
	return strings.TrimSpace(s.Description)
}

func (d *DiscoverySource) wantGroup(group string) bool {
	if len(d.groups) == 0 {
		return true
	}
	if group == "" {
		group = "core"
	}
	return slices.Contains(d.groups, group)
}

// groupPackage returns the package segment of an API group, following
// the k8s.io/api layout: "" -> "core", "rbac.authorization.k8s.io" -> "rbac".
func groupPackage(group string) string {
	if group == "" {
		return "core"
	}
	first, _, _ := strings.Cut(group, ".")
	return first
}

// exportedName upper-cases the first letter of every alphanumeric run
// and drops the rest: "ephemeralcontainers" -> "Ephemeralcontainers",
// "resize-policy" -> "ResizePolicy".
func exportedName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
