package codegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/otterscale/kubegen/internal/core"
)

// Emitter writes one client module per spec below a root directory, at
// <root>/<model namespace>/<snake_case name>.go. Files are replaced
// atomically, never appended to.
type Emitter struct {
	root string
	opts TemplateOptions
}

var _ core.Emitter = (*Emitter)(nil)

func NewEmitter(root string, opts TemplateOptions) *Emitter {
	return &Emitter{
		root: root,
		opts: opts,
	}
}

func (e *Emitter) Target(spec core.ResourceActionSpec) string {
	elems := append([]string{e.root}, spec.Model.Namespace()...)
	elems = append(elems, snakeCase(spec.Name)+".go")
	return filepath.Join(elems...)
}

// Render returns the formatted source of spec's client module.
func (e *Emitter) Render(spec core.ResourceActionSpec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return Print(Build(spec, e.opts), e.opts.runtimePackage())
}

func (e *Emitter) Emit(ctx context.Context, spec core.ResourceActionSpec) error {
	src, err := e.Render(spec)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := e.Target(spec)
	if rel, err := filepath.Rel(e.root, target); err != nil || !filepath.IsLocal(rel) {
		return &core.ErrInvalidInput{Field: "model.package", Message: fmt.Sprintf("%s: %s is outside %s", spec.Name, target, e.root)}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := atomicwriter.WriteFile(target, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
