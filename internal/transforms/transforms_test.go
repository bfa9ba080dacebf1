package transforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sfcloader/internal/compiler"
)

func TestURLToRequire(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"./logo.png", `require("./logo.png")`},
		{"../a/b.svg", `require("../a/b.svg")`},
		{"~/assets/a.png", `require("assets/a.png")`},
		{"~pkg/a.png", `require("pkg/a.png")`},
		{"@/assets/a.png", `require("@/assets/a.png")`},
		{"./sprite.svg#icon", `require("./sprite.svg") + "#icon"`},
		{"/abs/a.png", `"/abs/a.png"`},
		{"https://cdn/a.png", `"https://cdn/a.png"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, URLToRequire(tt.url), tt.url)
	}
}

func compile(t *testing.T, tmpl string, mods ...*compiler.Module) *compiler.Result {
	t.Helper()
	res := compiler.New().Compile(tmpl, &compiler.Options{Modules: mods})
	require.Empty(t, res.Errors)
	return res
}

func TestAssetURL(t *testing.T) {
	res := compile(t, `<div><img src="./a.png"><video poster="~/p.jpg" :src="dyn"></video></div>`,
		AssetURL(nil))
	assert.Contains(t, res.Render, `attrs:{"src":require("./a.png")}`)
	assert.Contains(t, res.Render, `"poster":require("p.jpg")`)
	assert.Contains(t, res.Render, `"src":dyn`)
}

func TestAssetURL_UserOptions(t *testing.T) {
	res := compile(t, `<div><my-img src="./a.png"></my-img><img src="./b.png"></div>`,
		AssetURL(AssetURLOptions{"my-img": {"src"}, "img": {}}))
	assert.Contains(t, res.Render, `require("./a.png")`)
	assert.Contains(t, res.Render, `"src":"./b.png"`)
}

func TestSrcset(t *testing.T) {
	tests := []struct {
		name, srcset, want string
	}{
		{"single", "./a.png", `require("./a.png")`},
		{"descriptor", "./a.png 2x", `require("./a.png") + " 2x"`},
		{"many", "./a.png, ./b.png 2x", `require("./a.png") + ", " + require("./b.png") + " 2x"`},
		{"absolute kept", "/a.png 1x", `"/a.png" + " 1x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := compile(t, `<img srcset="`+tt.srcset+`">`, Srcset())
			assert.Contains(t, res.Render, `"srcset":`+tt.want+`}`)
		})
	}
}

func TestStripTestAttrs(t *testing.T) {
	res := compile(t, `<div data-testid="x" :data-test="y" id="a">z</div>`, StripTestAttrs())
	assert.NotContains(t, res.Render, "data-test")
	assert.Contains(t, res.Render, `"id":"a"`)
}

func TestRegistry(t *testing.T) {
	mods, err := Modules([]string{"strip-test-attrs"})
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "strip-test-attrs", mods[0].Name)

	_, err = Modules([]string{"nope"})
	assert.ErrorContains(t, err, "unknown compiler module")

	dirs, err := Directives([]string{"t"})
	require.NoError(t, err)
	res := compiler.New().Compile(`<p v-t="'hello'"></p>`, &compiler.Options{Directives: dirs})
	assert.Equal(t, `with(this){return _c('p',{domProps:{"textContent":_s($t('hello'))}})}`, res.Render)
}
