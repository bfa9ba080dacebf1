package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/registry"
	"github.com/conneroisu/sfcloader/internal/scanner"
)

const helloSource = `<template>
  <div class="hello" @click="greet">{{ msg }}</div>
</template>

<script>
export default {
  data() { return { msg: 'hi' } }
}
</script>

<style scoped>
.hello { color: red; }
</style>
`

type fixture struct {
	root string
	out  string
	reg  *registry.ComponentRegistry
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	reg := registry.NewComponentRegistry()
	s, err := scanner.NewComponentScanner(reg, root)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.ScanDirectory(context.Background(), "."))

	return &fixture{root: root, out: filepath.Join(root, "dist"), reg: reg}
}

func (f *fixture) pipeline(opts Options) *BuildPipeline {
	opts.OutputDir = f.out
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	return NewBuildPipeline(opts, loader.NewTemplateLoader(loader.Options{}), WithCache(NewCache(16, time.Minute)))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuildAll(t *testing.T) {
	f := newFixture(t, map[string]string{"src/Hello.vue": helloSource})
	bp := f.pipeline(Options{Target: loader.TargetWeb, SourceMaps: true})

	results := bp.BuildAll(context.Background(), f.reg.GetAll())
	require.Len(t, results, 1)
	res := results[0]
	require.NoError(t, res.Error)
	assert.False(t, res.HasErrors())
	assert.False(t, res.CacheHit)

	dir := filepath.Join(f.out, "src", "Hello")
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "template.js"),
		filepath.Join(dir, "script.js"),
		filepath.Join(dir, "script.js.map"),
		filepath.Join(dir, "style.0.css"),
		filepath.Join(dir, "style.0.css.map"),
		filepath.Join(dir, EntryFile),
	}, res.Modules)

	template := read(t, filepath.Join(dir, "template.js"))
	assert.Contains(t, template, "var render = function")
	assert.Contains(t, template, "export { render, staticRenderFns }")
	assert.Contains(t, template, `require("vue-hot-reload-api").rerender("`+res.Component.ID+`"`)

	script := read(t, filepath.Join(dir, "script.js"))
	assert.Contains(t, script, "export default {")
	assert.Contains(t, script, "//# sourceMappingURL=script.js.map\n")

	scriptMap := read(t, filepath.Join(dir, "script.js.map"))
	assert.Contains(t, scriptMap, `Hello.vue?vue`)
	assert.Contains(t, scriptMap, `"mappings"`)

	entry := read(t, filepath.Join(dir, EntryFile))
	assert.Contains(t, entry, `options._scopeId = "data-v-`+res.Component.ID+`"`)
	assert.Contains(t, entry, `options.__file = "src/Hello.vue"`)

	// A second build of unchanged content is served from the cache.
	again := bp.BuildAll(context.Background(), f.reg.GetAll())
	assert.True(t, again[0].CacheHit)
	assert.Equal(t, template, read(t, filepath.Join(dir, "template.js")))

	metrics := bp.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalBuilds)
	assert.Equal(t, int64(1), metrics.CacheHits)
	assert.Greater(t, bp.Cache().Stats().Hits, int64(0))
}

func TestBuildAll_Production(t *testing.T) {
	f := newFixture(t, map[string]string{"Hello.vue": helloSource})
	bp := f.pipeline(Options{Target: loader.TargetWeb, Production: true})

	res := bp.BuildAll(context.Background(), f.reg.GetAll())[0]
	require.NoError(t, res.Error)

	dir := filepath.Join(f.out, "Hello")
	template := read(t, filepath.Join(dir, "template.js"))
	assert.NotContains(t, template, "module.hot")
	assert.NotContains(t, template, "_withStripped")
	assert.NotContains(t, read(t, filepath.Join(dir, EntryFile)), "__file")
	assert.NotContains(t, res.Modules, filepath.Join(dir, "script.js.map"))
}

func TestBuildAll_CompileError(t *testing.T) {
	f := newFixture(t, map[string]string{"Broken.vue": "<template><div></div><p></p></template>\n"})
	bp := f.pipeline(Options{Target: loader.TargetNode})

	res := bp.BuildAll(context.Background(), f.reg.GetAll())[0]
	require.NoError(t, res.Error)
	assert.True(t, res.HasErrors())
	require.NotEmpty(t, res.Diagnostics)
	assert.Contains(t, res.Diagnostics[0].Message, "Error compiling template")
	assert.Equal(t, "Broken", res.Diagnostics[0].Component)

	template := read(t, filepath.Join(f.out, "Broken", "template.js"))
	assert.Equal(t, loader.ErrorStub, template)

	// Error stubs are rebuilt so the diagnostics are reported again.
	again := bp.BuildAll(context.Background(), f.reg.GetAll())[0]
	assert.False(t, again.CacheHit)
	assert.NotEmpty(t, again.Diagnostics)
}

func TestBuildAll_ExternalTemplate(t *testing.T) {
	f := newFixture(t, map[string]string{
		"Ext.vue":       `<template src="./ext.html"></template>`,
		"ext.html":      "<section>{{ title }}</section>",
		"Missing.vue":   `<template src="./nope.html"></template>`,
		"components.md": "ignored",
	})
	bp := f.pipeline(Options{Target: loader.TargetNode})

	results := bp.BuildAll(context.Background(), f.reg.GetAll())
	require.Len(t, results, 2)

	byName := map[string]BuildResult{}
	for _, r := range results {
		byName[r.Component.Name] = r
	}

	require.NoError(t, byName["Ext"].Error)
	assert.Contains(t, read(t, filepath.Join(f.out, "Ext", "template.js")), "section")

	missing := byName["Missing"]
	require.Error(t, missing.Error)
	assert.True(t, errors.HasCode(missing.Error, errors.ErrCodeBuildFailed))
	assert.ErrorContains(t, missing.Error, "nope.html")
}

func TestBuildAll_Cancelled(t *testing.T) {
	f := newFixture(t, map[string]string{"Hello.vue": helloSource})
	bp := f.pipeline(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := bp.BuildAll(ctx, f.reg.GetAll())[0]
	assert.ErrorIs(t, res.Error, context.Canceled)
}

func TestBuildQueue(t *testing.T) {
	f := newFixture(t, map[string]string{"Hello.vue": helloSource})
	bp := f.pipeline(Options{Target: loader.TargetWeb})

	done := make(chan BuildResult, 1)
	bp.AddCallback(func(r BuildResult) { done <- r })

	bp.Start(context.Background())
	defer bp.Stop()

	component := f.reg.GetAll()[0]
	require.True(t, bp.BuildWithPriority(component))

	select {
	case r := <-done:
		require.NoError(t, r.Error)
		assert.Equal(t, component.ID, r.Component.ID)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for build")
	}
}

func TestRemoveOutputs(t *testing.T) {
	f := newFixture(t, map[string]string{"Hello.vue": helloSource})
	bp := f.pipeline(Options{})
	component := f.reg.GetAll()[0]

	bp.BuildAll(context.Background(), []*registry.ComponentInfo{component})
	require.DirExists(t, bp.OutputDir(component))

	require.NoError(t, bp.RemoveOutputs(component))
	assert.NoDirExists(t, bp.OutputDir(component))
}
