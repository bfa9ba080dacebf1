package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/registry"
)

const helloComponent = `<template>
  <div class="hello">{{ msg }}</div>
</template>

<script>
export default {
  data() {
    return { msg: 'hi' }
  }
}
</script>

<style scoped>
.hello { color: red; }
</style>
`

// setupProject creates a project in a temporary directory and makes it the
// working directory.
func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("log.level", "error")

	return root
}

func execute(t *testing.T, run func(*cobra.Command, []string) error, args ...string) (string, string, error) {
	t.Helper()

	c := &cobra.Command{}
	var stdout, stderr bytes.Buffer
	c.SetOut(&stdout)
	c.SetErr(&stderr)

	err := run(c, args)
	return stdout.String(), stderr.String(), err
}

func resetCompileFlags() {
	compileTarget = string(loader.TargetWeb)
	compileProduction = false
	compileLang = ""
	compileQuery = ""
}

func TestCompile_Component(t *testing.T) {
	setupProject(t, map[string]string{"src/Hello.vue": helloComponent})
	resetCompileFlags()

	out, _, err := execute(t, runCompile, "src/Hello.vue")
	require.NoError(t, err)
	assert.Contains(t, out, "_vm._s(_vm.msg)")
	assert.Contains(t, out, "export { render, staticRenderFns }")
	assert.Contains(t, out, "module.hot")
	assert.Contains(t, out, registry.ComponentID("src/Hello.vue"))
}

func TestCompile_NodeTargetHasNoHotReload(t *testing.T) {
	setupProject(t, map[string]string{"src/Hello.vue": helloComponent})
	resetCompileFlags()
	compileTarget = string(loader.TargetNode)

	out, _, err := execute(t, runCompile, "src/Hello.vue")
	require.NoError(t, err)
	assert.Contains(t, out, "export { render, staticRenderFns }")
	assert.NotContains(t, out, "module.hot")
}

func TestCompile_TemplateErrors(t *testing.T) {
	setupProject(t, map[string]string{
		"src/Broken.vue": "<template>\n  <div></div><p></p>\n</template>\n",
	})
	resetCompileFlags()

	out, stderr, err := execute(t, runCompile, "src/Broken.vue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template compiled with 1 error(s)")
	assert.Contains(t, out, loader.ErrorStub)
	assert.Contains(t, stderr, "Error compiling template")
}

func TestCompile_NoTemplate(t *testing.T) {
	setupProject(t, map[string]string{
		"src/Logic.vue": "<script>\nexport default {}\n</script>\n",
	})
	resetCompileFlags()

	_, _, err := execute(t, runCompile, "src/Logic.vue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no template block")
}

func TestCompile_StandaloneTemplate(t *testing.T) {
	setupProject(t, map[string]string{
		"partials/greeting.gotmpl": `<p>{{ "hello" }}</p>`,
	})
	resetCompileFlags()

	out, _, err := execute(t, runCompile, "partials/greeting.gotmpl")
	require.NoError(t, err)
	assert.Contains(t, out, `"hello"`)
	assert.NotContains(t, out, "{{")
}

func TestStandaloneQuery(t *testing.T) {
	resetCompileFlags()
	t.Cleanup(resetCompileFlags)

	assert.Equal(t, "?vue&type=template&id=abc&lang=mustache", standaloneQuery("/x/a.mustache", "abc"))
	assert.Equal(t, "?vue&type=template&id=abc", standaloneQuery("/x/a.html", "abc"))

	compileLang = "pongo2"
	assert.Equal(t, "?vue&type=template&id=abc&lang=pongo2", standaloneQuery("/x/a.html", "abc"))

	compileQuery = "vue&type=template&id=x&scoped=true"
	assert.Equal(t, "?vue&type=template&id=x&scoped=true", standaloneQuery("/x/a.html", "abc"))
}

func TestSelect(t *testing.T) {
	setupProject(t, map[string]string{"src/Hello.vue": helloComponent})

	reset := func(blockType string, index int, format string) {
		selectType = blockType
		selectIndex = index
		selectMap = true
		selectFlags = &OutputFlags{Format: format}
	}

	t.Run("raw template", func(t *testing.T) {
		reset("template", -1, "raw")
		out, _, err := execute(t, runSelect, "src/Hello.vue")
		require.NoError(t, err)
		assert.Equal(t, "\n  <div class=\"hello\">{{ msg }}</div>\n", out)
	})

	t.Run("script with map", func(t *testing.T) {
		reset("script", -1, "json")
		out, _, err := execute(t, runSelect, "src/Hello.vue")
		require.NoError(t, err)

		var got selection
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "?vue&type=script", got.Query)
		assert.Contains(t, got.Content, "export default")
		require.NotNil(t, got.Map)
		assert.Contains(t, got.Map, "mappings")
	})

	t.Run("style by index as yaml", func(t *testing.T) {
		reset("style", 0, "yaml")
		out, _, err := execute(t, runSelect, "src/Hello.vue")
		require.NoError(t, err)

		var got selection
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		assert.Equal(t, "?vue&type=style&index=0", got.Query)
		assert.Contains(t, got.Content, ".hello { color: red; }")
	})

	t.Run("style without index", func(t *testing.T) {
		reset("style", -1, "raw")
		_, _, err := execute(t, runSelect, "src/Hello.vue")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeSelectNoMatch))
	})

	t.Run("index out of range", func(t *testing.T) {
		reset("style", 3, "raw")
		_, _, err := execute(t, runSelect, "src/Hello.vue")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeSelectIndexRange))
	})
}

func TestList(t *testing.T) {
	setupProject(t, map[string]string{
		"src/Hello.vue":          helloComponent,
		"src/Card.vue":           "<template src=\"./card.html\"></template>\n",
		"src/card.html":          "<div>card</div>",
		"src/node_modules/X.vue": helloComponent,
	})

	t.Run("table", func(t *testing.T) {
		listFlags = &OutputFlags{Format: "table"}
		listWithDeps = false

		out, _, err := execute(t, runList)
		require.NoError(t, err)
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "Hello")
		assert.Contains(t, out, "Card")
		assert.NotContains(t, out, "DEPENDENCIES")
		assert.NotContains(t, out, "node_modules")
	})

	t.Run("json with deps", func(t *testing.T) {
		listFlags = &OutputFlags{Format: "json"}
		listWithDeps = true

		out, _, err := execute(t, runList)
		require.NoError(t, err)

		var components []registry.ComponentInfo
		require.NoError(t, json.Unmarshal([]byte(out), &components))
		require.Len(t, components, 2)

		byName := make(map[string]registry.ComponentInfo)
		for _, c := range components {
			byName[c.Name] = c
		}
		require.Contains(t, byName, "Card")
		require.Len(t, byName["Card"].Dependencies, 1)
		assert.Equal(t, "card.html", filepath.Base(byName["Card"].Dependencies[0]))
		assert.Equal(t, registry.ComponentID("src/Hello.vue"), byName["Hello"].ID)
	})

	t.Run("json without deps", func(t *testing.T) {
		listFlags = &OutputFlags{Format: "json"}
		listWithDeps = false

		out, _, err := execute(t, runList)
		require.NoError(t, err)
		assert.NotContains(t, out, "dependencies")
	})
}

func TestList_Empty(t *testing.T) {
	setupProject(t, nil)
	listFlags = &OutputFlags{Format: "table"}
	listWithDeps = false

	out, _, err := execute(t, runList)
	require.NoError(t, err)
	assert.Equal(t, "No components found.\n", out)
}

func TestBuild(t *testing.T) {
	root := setupProject(t, map[string]string{"src/Hello.vue": helloComponent})
	buildClean = false
	viper.Set("build.workers", 1)

	out, stderr, err := execute(t, runBuild)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "Built 1 components")

	dir := filepath.Join(root, "dist", "src", "Hello")
	for _, name := range []string{"index.js", "template.js", "script.js", "style.0.css"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	template, err := os.ReadFile(filepath.Join(dir, "template.js"))
	require.NoError(t, err)
	assert.Contains(t, string(template), "staticRenderFns")
}

func TestBuild_Clean(t *testing.T) {
	root := setupProject(t, map[string]string{"src/Hello.vue": helloComponent})
	stale := filepath.Join(root, "dist", "stale.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))

	buildClean = true
	t.Cleanup(func() { buildClean = false })

	_, _, err := execute(t, runBuild)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(root, "dist", "src", "Hello", "index.js"))
}

func TestBuild_Failure(t *testing.T) {
	setupProject(t, map[string]string{
		"src/Hello.vue":  helloComponent,
		"src/Broken.vue": "<template>\n  <div></div><p></p>\n</template>\n",
	})
	buildClean = false

	_, stderr, err := execute(t, runBuild)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 components failed to build", err.Error())
	assert.Contains(t, stderr, "Error compiling template")
}

func TestBuild_NoComponents(t *testing.T) {
	setupProject(t, nil)
	buildClean = false

	out, _, err := execute(t, runBuild)
	require.NoError(t, err)
	assert.Equal(t, "No components found to build.\n", out)
}

func TestValidate(t *testing.T) {
	t.Run("valid project", func(t *testing.T) {
		setupProject(t, map[string]string{"src/Hello.vue": helloComponent})
		validateCompile = true
		validateFlags = &OutputFlags{Format: "text"}

		out, _, err := execute(t, runValidateCommand)
		require.NoError(t, err)
		assert.Contains(t, out, "ok   Hello (src/Hello.vue)")
		assert.Contains(t, out, "1 components, 1 valid, 0 invalid")
		// ./components does not exist.
		assert.Contains(t, out, "config warning:")
	})

	t.Run("invalid component", func(t *testing.T) {
		setupProject(t, map[string]string{
			"src/Hello.vue":  helloComponent,
			"src/Broken.vue": "<template>\n  <div></div><p></p>\n</template>\n",
		})
		validateCompile = true
		validateFlags = &OutputFlags{Format: "json"}

		out, _, err := execute(t, runValidateCommand)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 invalid component(s)")

		var summary ValidationSummary
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		assert.Equal(t, 2, summary.Total)
		assert.Equal(t, 1, summary.Invalid)
		for _, r := range summary.Results {
			if r.Component == "Broken" {
				assert.False(t, r.Valid)
				require.NotEmpty(t, r.Errors)
				assert.Contains(t, r.Errors[0], "exactly one root element")
			}
		}
	})

	t.Run("parse only", func(t *testing.T) {
		setupProject(t, map[string]string{
			"src/Broken.vue": "<template>\n  <div></div><p></p>\n</template>\n",
		})
		validateCompile = false
		t.Cleanup(func() { validateCompile = true })
		validateFlags = &OutputFlags{Format: "text"}

		out, _, err := execute(t, runValidateCommand)
		require.NoError(t, err)
		assert.Contains(t, out, "1 components, 1 valid, 0 invalid")
	})

	t.Run("config errors", func(t *testing.T) {
		setupProject(t, map[string]string{"src/Hello.vue": helloComponent})
		viper.Set("build.target", "browser")
		validateFlags = &OutputFlags{Format: "text"}

		out, _, err := execute(t, runValidateCommand)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 configuration error(s)")
		assert.Contains(t, out, "config error:")
		assert.Contains(t, out, "0 components")
	})
}

func TestVersion(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		versionFlags = &OutputFlags{Format: "json"}
		versionShort = false

		out, _, err := execute(t, runVersionCommand)
		require.NoError(t, err)

		var info map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &info))
		assert.Contains(t, info, "version")
		assert.Contains(t, info, "go_version")
	})

	t.Run("short", func(t *testing.T) {
		versionFlags = &OutputFlags{Format: "text"}
		versionShort = true
		t.Cleanup(func() { versionShort = false })

		out, _, err := execute(t, runVersionCommand)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "\n"))
	})

	t.Run("text", func(t *testing.T) {
		versionFlags = &OutputFlags{Format: "text"}
		versionShort = false

		out, _, err := execute(t, runVersionCommand)
		require.NoError(t, err)
		assert.Contains(t, out, "Build type: development")
	})
}

func TestValidateFormatWithSuggestion(t *testing.T) {
	valid := []string{"table", "json", "yaml"}

	tests := []struct {
		name    string
		format  string
		wantErr string
	}{
		{name: "exact", format: "json"},
		{name: "case insensitive", format: "YAML"},
		{name: "typo", format: "jsno", wantErr: `did you mean "json"?`},
		{name: "prefix", format: "tab", wantErr: `did you mean "table"?`},
		{name: "unrelated", format: "xml-pretty", wantErr: "must be one of: table, json, yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormatWithSuggestion(tt.format, valid)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	err := ValidateFormatWithSuggestion("xml-pretty", valid)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestValidateTarget(t *testing.T) {
	assert.NoError(t, ValidateTarget("web"))
	assert.NoError(t, ValidateTarget("node"))
	assert.Error(t, ValidateTarget("browser"))
}

func TestAddFlagValidation(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	fs.String("target", "web", "")
	AddFlagValidation(fs, "target", ValidateTarget)

	require.NoError(t, fs.Parse([]string{"--target=node"}))
	target, err := fs.GetString("target")
	require.NoError(t, err)
	assert.Equal(t, "node", target)

	err = fs.Parse([]string{"--target=browser"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target")
}

func TestAddOutputFlags(t *testing.T) {
	c := &cobra.Command{Use: "x"}
	flags := AddOutputFlags(c, "table", "json")
	assert.Equal(t, "table", flags.Format)

	require.NoError(t, c.ParseFlags([]string{"-o", "json"}))
	assert.Equal(t, "json", flags.Format)

	assert.Error(t, c.ParseFlags([]string{"-o", "xml"}))
}

func TestWriteStructured(t *testing.T) {
	v := map[string]int{"a": 1}

	var buf bytes.Buffer
	require.NoError(t, writeStructured(&buf, "json", v))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, writeStructured(&buf, "yaml", v))
	assert.Equal(t, "a: 1\n", buf.String())

	assert.Error(t, writeStructured(&buf, "toml", v))
}
