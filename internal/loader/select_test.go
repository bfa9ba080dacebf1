package loader

import (
	"testing"

	gosourcemap "github.com/go-sourcemap/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sfcloader/internal/descriptor"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/query"
	"github.com/conneroisu/sfcloader/internal/sourcemap"
)

func mustQuery(t *testing.T, raw string) *query.Query {
	t.Helper()
	q, err := query.Parse(raw)
	require.NoError(t, err)
	return q
}

func fixture() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Filename: "/src/App.vue",
		Template: &descriptor.Block{
			Type:    "template",
			Content: "<div>{{ msg }}</div>",
			Map:     &sourcemap.Map{Version: 3, Sources: []string{"App.vue"}, Mappings: "AAAA"},
		},
		Script: &descriptor.Block{
			Type:    "script",
			Content: "\nimport a from 'a'\n\nexport default {}\n// \n",
			Attrs:   []descriptor.Attr{{Name: "lang", Value: "ts"}},
			Lang:    "ts",
			Map:     &sourcemap.Map{Version: 3, Sources: []string{"App.vue"}},
		},
		Styles: []*descriptor.Block{
			{Type: "style", Content: ".a{}", Map: &sourcemap.Map{Version: 3, File: "first"}},
			{Type: "style", Content: ".b{}", Map: &sourcemap.Map{Version: 3, File: "second"}},
		},
		CustomBlocks: []*descriptor.Block{
			{Type: "docs", Content: "# Usage"},
		},
	}
}

func TestSelect_Template(t *testing.T) {
	desc := fixture()
	res, err := Select(desc, &Context{ResourcePath: "/src/App.vue"}, mustQuery(t, "?vue&type=template"))
	require.NoError(t, err)
	assert.Equal(t, desc.Template.Content, res.Content)
	assert.Same(t, desc.Template.Map, res.Map)
}

func TestSelect_Style(t *testing.T) {
	desc := fixture()
	res, err := Select(desc, &Context{}, mustQuery(t, "?vue&type=style&index=1"))
	require.NoError(t, err)
	assert.Equal(t, ".b{}", res.Content)
	assert.Same(t, desc.Styles[1].Map, res.Map)
}

func TestSelect_Custom(t *testing.T) {
	res, err := Select(fixture(), &Context{}, mustQuery(t, "?vue&type=custom&index=0&blockType=docs"))
	require.NoError(t, err)
	assert.Equal(t, "# Usage", res.Content)
	assert.Nil(t, res.Map)
}

func TestSelect_ScriptMap(t *testing.T) {
	desc := fixture()
	res, err := Select(desc, &Context{ResourcePath: "/src/App.vue"}, mustQuery(t, "?vue&type=script&lang=ts"))
	require.NoError(t, err)
	assert.Equal(t, desc.Script.Content, res.Content)
	require.NotNil(t, res.Map)

	filename := "/src/App.vue?vue&type=script&lang=ts"
	assert.Equal(t, filename, res.Map.File)
	assert.Equal(t, []string{filename}, res.Map.Sources)
	assert.Equal(t, []string{desc.Script.Content}, res.Map.SourcesContent)
	// lines 2 and 4 carry code
	assert.Equal(t, ";AACA;;AAEA", res.Map.Mappings)

	data, err := res.Map.JSON()
	require.NoError(t, err)
	consumer, err := gosourcemap.Parse("App.js.map", data)
	require.NoError(t, err)
	for _, line := range []int{2, 4} {
		_, _, origLine, origCol, ok := consumer.Source(line, 0)
		require.True(t, ok, "line %d", line)
		assert.Equal(t, line, origLine)
		assert.Equal(t, 0, origCol)
	}
}

func TestSelect_ScriptWithoutMap(t *testing.T) {
	desc := fixture()
	desc.Script.Map = nil
	res, err := Select(desc, &Context{}, mustQuery(t, "?vue&type=script"))
	require.NoError(t, err)
	assert.Nil(t, res.Map)
}

func TestSelect_NoMatch(t *testing.T) {
	tests := []struct {
		name  string
		desc  func() *descriptor.Descriptor
		query string
		code  string
	}{
		{"unknown type", fixture, "?vue&type=json", errors.ErrCodeSelectNoMatch},
		{"style without index", fixture, "?vue&type=style", errors.ErrCodeSelectNoMatch},
		{"custom without index", fixture, "?vue&type=custom", errors.ErrCodeSelectNoMatch},
		{"style index out of range", fixture, "?vue&type=style&index=2", errors.ErrCodeSelectIndexRange},
		{"custom index out of range", fixture, "?vue&type=custom&index=5", errors.ErrCodeSelectIndexRange},
		{"missing template", func() *descriptor.Descriptor {
			d := fixture()
			d.Template = nil
			return d
		}, "?vue&type=template", errors.ErrCodeSelectNoMatch},
		{"missing script", func() *descriptor.Descriptor {
			d := fixture()
			d.Script = nil
			return d
		}, "?vue&type=script", errors.ErrCodeSelectNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Select(tt.desc(), &Context{ResourcePath: "/src/App.vue"}, mustQuery(t, tt.query))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSelectBlock_CallsBackOnce(t *testing.T) {
	for _, raw := range []string{"?vue&type=style&index=0", "?vue&type=nope"} {
		calls := 0
		SelectBlock(fixture(), &Context{}, mustQuery(t, raw), func(err error, content string, m *sourcemap.Map) {
			calls++
		})
		assert.Equal(t, 1, calls, raw)
	}

	var gotErr error
	SelectBlock(fixture(), &Context{}, mustQuery(t, "?vue&type=nope"), func(err error, _ string, _ *sourcemap.Map) {
		gotErr = err
	})
	assert.True(t, errors.HasCode(gotErr, errors.ErrCodeSelectNoMatch))
}
