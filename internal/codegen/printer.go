package codegen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"
)

var formatOptions = &imports.Options{
	Comments:   true,
	TabIndent:  true,
	TabWidth:   8,
	FormatOnly: true,
}

// Print renders f as gofmt-formatted Go source. Imports are grouped as
// standard library, third party, then those under localPrefix.
func Print(f *File, localPrefix string) ([]byte, error) {
	p := &printer{localPrefix: localPrefix}
	p.file(f)

	out, err := imports.Process(f.Package+".go", p.buf.Bytes(), formatOptions)
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return out, nil
}

type printer struct {
	buf         bytes.Buffer
	localPrefix string
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.buf, format, args...)
}

func (p *printer) file(f *File) {
	if f.Header != "" {
		p.comment("", splitLines(f.Header))
		p.printf("\n")
	}
	p.printf("package %s\n", f.Package)

	if len(f.Imports) > 0 {
		p.printf("\nimport (\n")
		for i, group := range p.groupImports(f.Imports) {
			if i > 0 {
				p.printf("\n")
			}
			for _, imp := range group {
				if imp.Alias != "" {
					p.printf("\t%s %s\n", imp.Alias, strconv.Quote(imp.Path))
				} else {
					p.printf("\t%s\n", strconv.Quote(imp.Path))
				}
			}
		}
		p.printf(")\n")
	}

	for _, d := range f.Decls {
		p.printf("\n")
		p.decl(d)
	}
}

func (p *printer) groupImports(imps []Import) [][]Import {
	var std, third, local []Import
	for _, imp := range imps {
		switch {
		case p.localPrefix != "" && strings.HasPrefix(imp.Path, p.localPrefix):
			local = append(local, imp)
		case !strings.Contains(strings.SplitN(imp.Path, "/", 2)[0], "."):
			std = append(std, imp)
		default:
			third = append(third, imp)
		}
	}

	var groups [][]Import
	for _, g := range [][]Import{std, third, local} {
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func (p *printer) comment(indent string, lines []string) {
	for _, line := range lines {
		if line == "" {
			p.printf("%s//\n", indent)
			continue
		}
		p.printf("%s// %s\n", indent, line)
	}
}

func (p *printer) decl(d Decl) {
	switch d := d.(type) {
	case Interface:
		p.comment("", d.Doc)
		p.printf("type %s interface {\n", d.Name)
		for _, m := range d.Methods {
			p.printf("\t%s(%s)%s\n", m.Name, params(m.Params), results(m.Results))
		}
		p.printf("}\n")

	case Struct:
		p.comment("", d.Doc)
		p.printf("type %s struct {\n", d.Name)
		for _, f := range d.Fields {
			p.printf("\t%s %s\n", f.Name, f.Type)
		}
		p.printf("}\n")

	case Var:
		p.comment("", d.Doc)
		p.printf("var %s = ", d.Name)
		p.expr(d.Value, 0)
		p.printf("\n")

	case Func:
		p.comment("", d.Doc)
		p.printf("func ")
		if d.Recv != nil {
			p.printf("(%s %s) ", d.Recv.Name, d.Recv.Type)
		}
		p.printf("%s(%s)%s {\n", d.Name, params(d.Params), results(d.Results))
		for _, s := range d.Body {
			p.stmt(s, 1)
		}
		p.printf("}\n")

	default:
		panic(fmt.Sprintf("codegen: unknown declaration %T", d))
	}
}

func (p *printer) stmt(s Stmt, depth int) {
	indent := strings.Repeat("\t", depth)
	switch s := s.(type) {
	case Return:
		p.printf("%sreturn", indent)
		for i, v := range s.Values {
			if i == 0 {
				p.printf(" ")
			} else {
				p.printf(", ")
			}
			p.expr(v, depth)
		}
		p.printf("\n")

	default:
		panic(fmt.Sprintf("codegen: unknown statement %T", s))
	}
}

func (p *printer) expr(e Expr, depth int) {
	switch e := e.(type) {
	case Ident:
		p.printf("%s", string(e))

	case String:
		p.printf("%s", strconv.Quote(string(e)))

	case Bool:
		p.printf("%t", bool(e))

	case Selector:
		p.expr(e.X, depth)
		p.printf(".%s", e.Sel)

	case Call:
		p.expr(e.Fun, depth)
		if len(e.TypeArgs) > 0 {
			p.printf("[%s]", types(e.TypeArgs))
		}
		p.printf("(")
		for i, a := range e.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.expr(a, depth)
		}
		p.printf(")")

	case Composite:
		if e.Addr {
			p.printf("&")
		}
		p.printf("%s{", e.Type)
		if len(e.Fields) > 0 {
			p.printf("\n")
			indent := strings.Repeat("\t", depth+1)
			for _, kv := range e.Fields {
				p.printf("%s%s: ", indent, kv.Key)
				p.expr(kv.Value, depth+1)
				p.printf(",\n")
			}
			p.printf("%s", strings.Repeat("\t", depth))
		}
		p.printf("}")

	default:
		panic(fmt.Sprintf("codegen: unknown expression %T", e))
	}
}

// params renders a parameter list, merging adjacent parameters of the
// same type ("namespace, name string").
func params(ps []Param) string {
	var b strings.Builder
	for i, prm := range ps {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(prm.Name)
		if i+1 < len(ps) && ps[i+1].Type.String() == prm.Type.String() {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(prm.Type.String())
	}
	return b.String()
}

func results(ts []Type) string {
	switch len(ts) {
	case 0:
		return ""
	case 1:
		return " " + ts[0].String()
	default:
		return " (" + types(ts) + ")"
	}
}

func types(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func splitLines(s string) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}
