// Package codegen renders ResourceActionSpecs into Go client modules.
//
// Rendering happens in two steps: Build maps a spec to a small,
// explicit syntax tree, and Print turns that tree into canonically
// formatted source. Neither step reads the clock, the environment or
// map iteration order, so equal specs always produce equal bytes.
package codegen

import "strings"

// File is one generated source file.
type File struct {
	Header  string
	Package string
	Imports []Import
	Decls   []Decl
}

// Import is one import spec. Alias may be empty.
type Import struct {
	Alias string
	Path  string
}

// Decl is a top-level declaration.
type Decl interface {
	decl()
}

// Type is a type expression such as *pkg.Name[Arg].
type Type struct {
	Pointer bool
	Pkg     string
	Name    string
	Args    []Type
}

func (t Type) String() string {
	var b strings.Builder
	if t.Pointer {
		b.WriteByte('*')
	}
	if t.Pkg != "" {
		b.WriteString(t.Pkg)
		b.WriteByte('.')
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('[')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte(']')
	}
	return b.String()
}

// Ptr returns a pointer to t.
func (t Type) Ptr() Type {
	t.Pointer = true
	return t
}

// Param is a named parameter, result or struct field.
type Param struct {
	Name string
	Type Type
}

// Method is an interface method signature.
type Method struct {
	Name    string
	Params  []Param
	Results []Type
}

// Interface declares a named interface type.
type Interface struct {
	Doc     []string
	Name    string
	Methods []Method
}

// Struct declares a named struct type.
type Struct struct {
	Doc    []string
	Name   string
	Fields []Param
}

// Var declares a package-level variable initialized by Value.
type Var struct {
	Doc   []string
	Name  string
	Value Expr
}

// Func declares a function, or a method when Recv is set.
type Func struct {
	Doc     []string
	Recv    *Param
	Name    string
	Params  []Param
	Results []Type
	Body    []Stmt
}

func (Interface) decl() {}
func (Struct) decl()    {}
func (Var) decl()       {}
func (Func) decl()      {}

// Stmt is a statement inside a function body.
type Stmt interface {
	stmt()
}

// Return returns Values.
type Return struct {
	Values []Expr
}

func (Return) stmt() {}

// Expr is an expression.
type Expr interface {
	expr()
}

// Ident is a bare identifier.
type Ident string

// Selector is X.Sel.
type Selector struct {
	X   Expr
	Sel string
}

// Call is Fun[TypeArgs](Args).
type Call struct {
	Fun      Expr
	TypeArgs []Type
	Args     []Expr
}

// KeyValue is one field of a composite literal.
type KeyValue struct {
	Key   string
	Value Expr
}

// Composite is a keyed composite literal, &T{...} when Addr is set.
type Composite struct {
	Addr   bool
	Type   Type
	Fields []KeyValue
}

// String is a quoted string literal.
type String string

// Bool is a boolean literal.
type Bool bool

func (Ident) expr()     {}
func (Selector) expr()  {}
func (Call) expr()      {}
func (Composite) expr() {}
func (String) expr()    {}
func (Bool) expr()      {}
