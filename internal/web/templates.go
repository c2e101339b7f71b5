package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"sync"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// TemplateProvider abstracts template loading and execution.
type TemplateProvider interface {
	// ExecuteTemplate executes the named template with the given data.
	ExecuteTemplate(w io.Writer, name string, data interface{}) error
}

// FSTemplateProvider parses templates from a filesystem and caches them until
// Reset is called.
type FSTemplateProvider struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewFSTemplateProvider creates a provider reading from fsys.
func NewFSTemplateProvider(fsys fs.FS) *FSTemplateProvider {
	return &FSTemplateProvider{
		fsys:  fsys,
		cache: make(map[string]*template.Template),
	}
}

// NewEmbeddedTemplateProvider serves the templates compiled into the binary.
func NewEmbeddedTemplateProvider() *FSTemplateProvider {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return NewFSTemplateProvider(sub)
}

// GetTemplate parses and caches a template.
func (p *FSTemplateProvider) GetTemplate(name string) (*template.Template, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.cache[name]; ok {
		return t, nil
	}
	content, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return nil, err
	}
	t, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, err
	}
	p.cache[name] = t
	return t, nil
}

// ExecuteTemplate loads and executes a template.
func (p *FSTemplateProvider) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	t, err := p.GetTemplate(name)
	if err != nil {
		return err
	}
	return t.Execute(w, data)
}

// Reset drops every cached template so the next execution re-reads it.
func (p *FSTemplateProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]*template.Template)
}
