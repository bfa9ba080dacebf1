package engines

import (
	"bytes"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"text/template"

	"github.com/cbroglie/mustache"
	"github.com/flosch/pongo2/v6"
)

// Default returns a registry holding the built-in engines.
func Default() *Registry {
	r := NewRegistry()
	r.Register("gotmpl", Func(renderText), "gotemplate", "tmpl")
	r.Register("gohtml", Func(renderHTML))
	r.Register("pongo2", Func(renderPongo2), "django", "jinja", "jinja2")
	r.Register("mustache", Func(renderMustache), "mst")
	return r
}

func templateName(data map[string]any) string {
	if name, ok := data["filename"].(string); ok && name != "" {
		return filepath.Base(name)
	}
	return "template"
}

// templateDir is the existing directory of the rendered file, used to
// resolve includes and partials.
func templateDir(data map[string]any) string {
	name, ok := data["filename"].(string)
	if !ok || name == "" {
		return ""
	}
	dir := filepath.Dir(name)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return ""
	}
	return dir
}

func renderText(src string, data map[string]any) (string, error) {
	tmpl, err := template.New(templateName(data)).Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(src string, data map[string]any) (string, error) {
	tmpl, err := htmltemplate.New(templateName(data)).Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderPongo2(src string, data map[string]any) (string, error) {
	// An empty base dir resolves includes against the working directory.
	loader, err := pongo2.NewLocalFileSystemLoader(templateDir(data))
	if err != nil {
		return "", err
	}
	set := pongo2.NewSet(templateName(data), loader)

	tpl, err := set.FromString(src)
	if err != nil {
		return "", err
	}
	return tpl.Execute(pongo2.Context(data))
}

func renderMustache(src string, data map[string]any) (string, error) {
	provider := &mustache.FileProvider{Extensions: []string{"", ".mustache", ".mst"}}
	if dir := templateDir(data); dir != "" {
		provider.Paths = []string{dir}
	}
	tmpl, err := mustache.ParseStringPartials(src, provider)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}
