package loader

import (
	"regexp"

	"github.com/conneroisu/sfcloader/internal/descriptor"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/query"
	"github.com/conneroisu/sfcloader/internal/sourcemap"
)

// Result is the content and optional source map of a selected block.
type Result struct {
	Content string
	Map     *sourcemap.Map
}

// Callback receives the outcome of SelectBlock.
type Callback func(err error, content string, m *sourcemap.Map)

var (
	splitRE = regexp.MustCompile(`\r?\n`)
	emptyRE = regexp.MustCompile(`^(?:\/\/)?\s*$`)
)

// SelectBlock resolves the block requested by q and reports it through cb,
// which is called exactly once.
func SelectBlock(desc *descriptor.Descriptor, lctx *Context, q *query.Query, cb Callback) {
	res, err := Select(desc, lctx, q)
	if err != nil {
		cb(err, "", nil)
		return
	}
	cb(nil, res.Content, res.Map)
}

// Select returns the block requested by q. Requests matching no block
// fail with ErrCodeSelectNoMatch or ErrCodeSelectIndexRange.
func Select(desc *descriptor.Descriptor, lctx *Context, q *query.Query) (*Result, error) {
	if desc == nil || q == nil {
		return nil, errors.ErrSelectNoMatch("")
	}
	if lctx == nil {
		lctx = &Context{}
	}

	switch q.Type {
	case query.TypeTemplate:
		if desc.Template == nil {
			return nil, errors.ErrSelectNoMatch(q.Type).WithLocation(lctx.ResourcePath, 0, 0)
		}
		return &Result{Content: desc.Template.Content, Map: desc.Template.Map}, nil

	case query.TypeScript:
		if desc.Script == nil {
			return nil, errors.ErrSelectNoMatch(q.Type).WithLocation(lctx.ResourcePath, 0, 0)
		}
		script := desc.Script
		m := script.Map
		if m != nil {
			m = scriptMap(lctx.ResourcePath, script)
		}
		return &Result{Content: script.Content, Map: m}, nil

	case query.TypeStyle:
		return indexed(desc.Styles, lctx, q)

	case query.TypeCustom:
		return indexed(desc.CustomBlocks, lctx, q)
	}

	return nil, errors.ErrSelectNoMatch(q.Type).WithLocation(lctx.ResourcePath, 0, 0)
}

func indexed(blocks []*descriptor.Block, lctx *Context, q *query.Query) (*Result, error) {
	if q.Index == nil {
		return nil, errors.ErrSelectNoMatch(q.Type).
			WithLocation(lctx.ResourcePath, 0, 0).
			WithContext("reason", "missing index")
	}
	idx := *q.Index
	if idx < 0 || idx >= len(blocks) {
		return nil, errors.ErrSelectIndexRange(q.Type, idx, len(blocks)).WithLocation(lctx.ResourcePath, 0, 0)
	}
	b := blocks[idx]
	return &Result{Content: b.Content, Map: b.Map}, nil
}

// ScriptFilename is the virtual file the script block's map points at.
func ScriptFilename(resourcePath string, script *descriptor.Block) string {
	return resourcePath + "?vue&type=script" + query.AttrsToQuery(script.Attrs, "js")
}

// scriptMap maps every non-blank script line onto the same line of the
// isolated script file.
func scriptMap(resourcePath string, script *descriptor.Block) *sourcemap.Map {
	filename := ScriptFilename(resourcePath, script)

	gen := sourcemap.New(filename, "")
	gen.SetSourceContent(filename, script.Content)
	for i, line := range splitRE.Split(script.Content, -1) {
		if emptyRE.MatchString(line) {
			continue
		}
		pos := sourcemap.Position{Line: i + 1, Column: 0}
		gen.AddMapping(sourcemap.Mapping{Generated: pos, Original: pos, Source: filename})
	}
	return gen.ToMap()
}
