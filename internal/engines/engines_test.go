package engines

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		lang string
		src  string
		want string
	}{
		{"gotmpl", `<div>{{.title}}</div>`, `<div>Hi & bye</div>`},
		{"gohtml", `<div>{{.title}}</div>`, `<div>Hi &amp; bye</div>`},
		{"pongo2", `<div>{{ title|upper }}</div>`, `<div>HI &amp; BYE</div>`},
		{"django", `{% if title %}<p>{{ title|length }}</p>{% endif %}`, `<p>8</p>`},
		{"jinja", `<p>{{ filename }}</p>`, `<p>/src/App.vue</p>`},
		{"mustache", `<div>{{{title}}}</div>`, `<div>Hi & bye</div>`},
		{"mst", `{{#items}}<li>{{.}}</li>{{/items}}`, `<li>a</li><li>b</li>`},
	}

	r := Default()
	data := map[string]any{
		"filename": "/src/App.vue",
		"title":    "Hi & bye",
		"items":    []string{"a", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			require.True(t, r.Has(tt.lang))
			got, err := r.Render(context.Background(), tt.lang, tt.src, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	r := Default()
	for _, lang := range []string{"gotmpl", "pongo2", "mustache"} {
		_, err := r.Render(context.Background(), lang, "{{#if}}{% if %}{{ .x", nil)
		assert.Error(t, err, lang)
	}
}

func TestPongo2_WithoutResourceDirectory(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"missing directory", map[string]any{"filename": "/nonexistent/App.vue", "title": "x"}, "<div>x</div>"},
		{"no filename", map[string]any{"title": "x"}, "<div>x</div>"},
		{"nil data", nil, "<div></div>"},
	}

	for _, tt := range tests {
		for _, lang := range []string{"pongo2", "django", "jinja", "jinja2"} {
			t.Run(tt.name+"/"+lang, func(t *testing.T) {
				got, err := Default().Render(context.Background(), lang, "<div>{{ title }}</div>", tt.data)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestPongo2_SyntaxError(t *testing.T) {
	_, err := Default().Render(context.Background(), "pongo2", "{% if %}", nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "panicked")
}

func TestPongo2_IncludeRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.html"), []byte("<h1>{{ title }}</h1>"), 0o644))

	got, err := Default().Render(context.Background(), "jinja",
		`<div>{% include "header.html" %}</div>`,
		map[string]any{"filename": filepath.Join(dir, "App.vue"), "title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "<div><h1>x</h1></div>", got)
}

func TestMustache_Partials(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "item.mustache"), []byte("<li>{{name}}</li>"), 0o644))

	got, err := Default().Render(context.Background(), "mustache",
		`<ul>{{#items}}{{> item}}{{/items}}</ul>`,
		map[string]any{
			"filename": filepath.Join(dir, "List.vue"),
			"items":    []map[string]any{{"name": "a"}, {"name": "b"}},
		})
	require.NoError(t, err)
	assert.Equal(t, "<ul><li>a</li><li>b</li></ul>", got)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("Upper", Func(func(src string, _ map[string]any) (string, error) {
		return src + "!", nil
	}), "up")

	assert.True(t, r.Has("upper"))
	assert.True(t, r.Has("UP"))
	assert.False(t, r.Has("pug"))
	assert.Equal(t, []string{"upper"}, r.Names())

	got, err := r.Render(context.Background(), "up", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "a!", got)

	_, err = r.Render(context.Background(), "pug", "a", nil)
	assert.ErrorContains(t, err, `no templating engine registered for "pug"`)

	assert.Equal(t, []string{"gohtml", "gotmpl", "mustache", "pongo2"}, Default().Names())
}

func TestFunc_Cancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	hung := Func(func(string, map[string]any) (string, error) {
		<-release
		return "late", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := hung.Render(ctx, "x", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	done, stop := context.WithCancel(context.Background())
	stop()
	_, err = hung.Render(done, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunc_Panic(t *testing.T) {
	boom := Func(func(string, map[string]any) (string, error) {
		panic("boom")
	})
	_, err := boom.Render(context.Background(), "x", nil)
	assert.ErrorContains(t, err, "engine panicked: boom")
}
