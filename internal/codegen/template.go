package codegen

import (
	"fmt"
	"path"

	"github.com/otterscale/kubegen/internal/core"
)

// Header marks every generated file.
const Header = "Code generated by kubegen. DO NOT EDIT."

// DefaultRuntimePackage is the import path of the client runtime.
const DefaultRuntimePackage = "github.com/otterscale/kubegen/pkg/kubeclient"

// TemplateOptions parameterize Build.
type TemplateOptions struct {
	// RuntimePackage is the import path of the runtime the generated
	// clients delegate to.
	RuntimePackage string
}

func (o TemplateOptions) runtimePackage() string {
	if o.RuntimePackage == "" {
		return DefaultRuntimePackage
	}
	return o.RuntimePackage
}

// Build maps spec to the syntax tree of its client module. A namespaced
// spec yields two interfaces: one taking the namespace on every call
// and one bound to a namespace at construction. A cluster-scoped spec
// yields only the first, without namespace parameters. Each interface
// has Generic plus one method per verb of spec, in the order Get
// (Get), Put (Replace), Post (Create).
func Build(spec core.ResourceActionSpec, opts TemplateOptions) *File {
	rtPath := opts.runtimePackage()
	namespace := spec.Model.Namespace()

	t := &template{
		spec:    spec,
		rt:      packageIdent(path.Base(rtPath)),
		model:   Type{Pkg: importAlias(namespace), Name: spec.Model.Kind},
		pkgName: packageIdent(namespace[len(namespace)-1]),
	}

	f := &File{
		Header:  Header,
		Package: t.pkgName,
	}
	if len(spec.Verbs.List()) > 0 {
		f.Imports = append(f.Imports, Import{Path: "context"})
	}
	f.Imports = append(f.Imports, Import{Alias: t.model.Pkg, Path: spec.Model.Package})
	rtImport := Import{Path: rtPath}
	if t.rt != path.Base(rtPath) {
		rtImport.Alias = t.rt
	}
	f.Imports = append(f.Imports, rtImport)

	f.Decls = append(f.Decls, t.resourceVar())
	if spec.Scope == core.ScopeNamespaced {
		f.Decls = append(f.Decls, t.variant(false, true)...)
		f.Decls = append(f.Decls, t.variant(true, false)...)
	} else {
		f.Decls = append(f.Decls, t.variant(false, false)...)
	}
	return f
}

type template struct {
	spec    core.ResourceActionSpec
	rt      string
	model   Type
	pkgName string
}

func (t *template) resourceName() string {
	return t.spec.Name + "Resource"
}

func (t *template) generic() Type {
	return Type{Pointer: true, Pkg: t.rt, Name: "Client", Args: []Type{t.model}}
}

func (t *template) resourceVar() Decl {
	res := t.spec.Resource()

	fields := []KeyValue{}
	add := func(key, value string) {
		if value != "" {
			fields = append(fields, KeyValue{Key: key, Value: String(value)})
		}
	}
	add("Group", res.Group)
	add("Version", res.Version)
	add("Resource", res.Resource)
	add("Subresource", res.Subresource)
	add("APIVersion", res.APIVersion)
	add("Kind", res.Kind)
	if res.Namespaced {
		fields = append(fields, KeyValue{Key: "Namespaced", Value: Bool(true)})
	}

	return Var{
		Doc:   []string{fmt.Sprintf("%s locates %s on the server.", t.resourceName(), t.spec.Endpoint)},
		Name:  t.resourceName(),
		Value: Composite{Type: Type{Pkg: t.rt, Name: "Resource"}, Fields: fields},
	}
}

// variant renders one interface with its implementation and factory.
// bound selects the variant whose namespace is fixed at construction;
// perCall adds a namespace parameter to every method.
func (t *template) variant(bound, perCall bool) []Decl {
	prefix := ""
	if bound {
		prefix = "Namespaced"
	}
	ifaceName := prefix + t.spec.Name + "Interface"
	implName := lowerCamel(prefix+t.spec.Name) + "Client"
	factoryName := "New" + prefix + t.spec.Name

	doc := fmt.Sprintf("%s accesses %s", ifaceName, t.spec.Endpoint)
	switch {
	case perCall:
		doc += " in any namespace. The namespace argument must not be empty."
	case bound:
		doc += " in a single namespace."
	default:
		doc += "."
	}
	ifaceDoc := []string{doc}
	if t.spec.Description != "" {
		ifaceDoc = append(ifaceDoc, "")
		ifaceDoc = append(ifaceDoc, splitLines(t.spec.Description)...)
	}

	recv := &Param{Name: "c", Type: Type{Pointer: true, Name: implName}}
	target := Expr(Selector{X: Ident("c"), Sel: "generic"})
	if perCall {
		target = Call{Fun: Selector{X: target, Sel: "Namespace"}, Args: []Expr{Ident("namespace")}}
	}

	iface := Interface{
		Doc:  ifaceDoc,
		Name: ifaceName,
		Methods: []Method{{
			Name:    "Generic",
			Results: []Type{t.generic()},
		}},
	}
	decls := []Decl{}
	methods := []Decl{Func{
		Recv:    recv,
		Name:    "Generic",
		Results: []Type{t.generic()},
		Body:    []Stmt{Return{Values: []Expr{Selector{X: Ident("c"), Sel: "generic"}}}},
	}}

	for _, verb := range t.spec.Verbs.List() {
		m, body := t.method(verb, perCall, target)
		iface.Methods = append(iface.Methods, m)
		methods = append(methods, Func{
			Recv:    recv,
			Name:    m.Name,
			Params:  m.Params,
			Results: m.Results,
			Body:    body,
		})
	}

	factoryParams := []Param{
		{Name: "transport", Type: Type{Pkg: t.rt, Name: "Transport"}},
		{Name: "cluster", Type: Type{Name: "string"}},
		{Name: "name", Type: Type{Name: "string"}},
	}
	newArgs := []Expr{Ident("transport"), Ident("cluster"), Ident("name"), Ident(t.resourceName())}
	factoryDoc := fmt.Sprintf("%s returns a %s using transport against cluster. name identifies the client to the server.", factoryName, ifaceName)
	if bound {
		factoryParams = append(factoryParams, Param{Name: "namespace", Type: Type{Name: "string"}})
		newArgs = append(newArgs, Call{
			Fun:      Selector{X: Ident(t.rt), Sel: "WithNamespace"},
			TypeArgs: []Type{t.model},
			Args:     []Expr{Ident("namespace")},
		})
		factoryDoc = fmt.Sprintf("%s returns a %s bound to namespace, using transport against cluster. name identifies the client to the server.", factoryName, ifaceName)
	}

	decls = append(decls,
		iface,
		Struct{
			Name:   implName,
			Fields: []Param{{Name: "generic", Type: t.generic()}},
		},
		Func{
			Doc:     []string{factoryDoc},
			Name:    factoryName,
			Params:  factoryParams,
			Results: []Type{{Name: ifaceName}},
			Body: []Stmt{Return{Values: []Expr{Composite{
				Addr: true,
				Type: Type{Name: implName},
				Fields: []KeyValue{{
					Key: "generic",
					Value: Call{
						Fun:      Selector{X: Ident(t.rt), Sel: "New"},
						TypeArgs: []Type{t.model},
						Args:     newArgs,
					},
				}},
			}}}},
		},
	)
	return append(decls, methods...)
}

func (t *template) method(verb core.Verb, perCall bool, target Expr) (Method, []Stmt) {
	params := []Param{{Name: "ctx", Type: Type{Pkg: "context", Name: "Context"}}}
	if perCall {
		params = append(params, Param{Name: "namespace", Type: Type{Name: "string"}})
	}
	results := []Type{t.model.Ptr(), {Name: "error"}}

	var (
		name string
		args []Expr
	)
	switch verb {
	case core.VerbGet:
		name = "Get"
		params = append(params, Param{Name: "name", Type: Type{Name: "string"}})
		args = []Expr{Ident("ctx"), Ident("name")}
	case core.VerbPut, core.VerbPost:
		name = "Replace"
		if verb == core.VerbPost {
			name = "Create"
		}
		params = append(params,
			Param{Name: "item", Type: t.model.Ptr()},
			Param{Name: "dryRun", Type: Type{Name: "bool"}},
		)
		args = []Expr{Ident("ctx"), Ident("item"), Composite{
			Type:   Type{Pkg: t.rt, Name: "WriteOptions"},
			Fields: []KeyValue{{Key: "DryRun", Value: Ident("dryRun")}},
		}}
	}

	body := []Stmt{Return{Values: []Expr{Call{Fun: Selector{X: target, Sel: name}, Args: args}}}}
	return Method{Name: name, Params: params, Results: results}, body
}
