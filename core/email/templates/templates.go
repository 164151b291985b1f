package templates

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrTemplateNotFound = errors.New("email template not found")
	ErrRenderFailed     = errors.New("failed to render email template")
)

// LayoutName is the template every email body is wrapped in.
const LayoutName = "layout"

// Renderer renders named email bodies inside a shared layout.
// Safe for concurrent use once created.
type Renderer struct {
	set *template.Template
}

// Funcs available to every template.
var funcs = template.FuncMap{
	"title": func(s string) string { return cases.Title(language.English).String(s) },
	"upper": strings.ToUpper,
}

// New parses every file matching patterns in fsys. Each body template is a
// {{define "name"}} block; the layout renders it through {{template "content" .}}.
func New(fsys fs.FS, patterns ...string) (*Renderer, error) {
	set, err := template.New(LayoutName).Funcs(funcs).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	if layout := set.Lookup(LayoutName); layout == nil || layout.Tree == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, LayoutName)
	}
	return &Renderer{set: set}, nil
}

// Render executes the layout with the named body as its content block.
func (r *Renderer) Render(name string, data any) (string, error) {
	body := r.set.Lookup(name)
	if body == nil || body.Tree == nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	// Clone so concurrent renders can bind different content blocks.
	t, err := r.set.Clone()
	if err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	// Escaping rewrites trees in place, so the shared body tree is copied.
	if _, err := t.AddParseTree("content", body.Tree.Copy()); err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, LayoutName, data); err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	return buf.String(), nil
}
