// Package web holds the console's templates and static assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates static
var content embed.FS

// Templates returns the embedded templates directory.
func Templates() fs.FS {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Static returns the embedded static assets directory.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplateRegistry holds separate template instances for each page
type TemplateRegistry struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

func NewTemplateRegistry(funcMap template.FuncMap) *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]*template.Template),
		funcMap:   funcMap,
	}
}

func (tr *TemplateRegistry) Add(name string, tmpl *template.Template) {
	tr.templates[name] = tmpl
}

func (tr *TemplateRegistry) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	tmpl, ok := tr.templates[name]
	if ok {
		// Partial files define a template named after the file without .html
		if strings.HasSuffix(name, ".html") {
			baseName := strings.TrimSuffix(name, ".html")
			if lookup := tmpl.Lookup(baseName); lookup != nil {
				return lookup.Execute(w, data)
			}
		}
		return tmpl.ExecuteTemplate(w, name, data)
	}

	for _, t := range tr.templates {
		if lookup := t.Lookup(name); lookup != nil {
			return lookup.Execute(w, data)
		}
	}

	return fmt.Errorf("template %s not found", name)
}

// LoadTemplates parses layouts/, partials/ and pages/ from fsys. Every page
// gets its own set so each can define "content"; partials are also
// registered on their own for HTMX fragment responses.
func LoadTemplates(fsys fs.FS, funcMap template.FuncMap) (*TemplateRegistry, error) {
	registry := NewTemplateRegistry(funcMap)

	layoutFiles, err := fs.Glob(fsys, "layouts/*.html")
	if err != nil {
		return nil, err
	}
	partialFiles, err := fs.Glob(fsys, "partials/*.html")
	if err != nil {
		return nil, err
	}
	pageFiles, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}

	sharedFiles := append(append([]string{}, layoutFiles...), partialFiles...)

	for _, pageFile := range pageFiles {
		pageName := path.Base(pageFile)
		tmpl := template.New(pageName).Funcs(funcMap)
		if err := parseFiles(tmpl, fsys, append(sharedFiles, pageFile)...); err != nil {
			return nil, err
		}
		registry.Add(pageName, tmpl)
	}

	for _, partialFile := range partialFiles {
		partialName := path.Base(partialFile)
		tmpl := template.New(partialName).Funcs(funcMap)
		// Parse all partials (they may reference each other)
		if err := parseFiles(tmpl, fsys, partialFiles...); err != nil {
			return nil, err
		}
		registry.Add(partialName, tmpl)
	}

	return registry, nil
}

func parseFiles(tmpl *template.Template, fsys fs.FS, files ...string) error {
	for _, f := range files {
		b, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f, err)
		}
		if _, err := tmpl.Parse(string(b)); err != nil {
			return fmt.Errorf("failed to parse %s: %w", f, err)
		}
	}
	return nil
}
