// Package descriptor splits a single-file component into its template,
// script, style and custom blocks.
package descriptor

import (
	"sort"

	"github.com/conneroisu/sfcloader/internal/query"
	"github.com/conneroisu/sfcloader/internal/sourcemap"
)

// Attr is one block attribute. Value-less attributes carry "true".
type Attr = query.Attr

// Block is one top-level section of a component file.
type Block struct {
	Type    string
	Content string
	Attrs   []Attr

	Lang       string
	Src        string
	Scoped     bool
	Module     string
	Functional bool

	// Start and End are byte offsets of Content within the file.
	Start int
	End   int
	// Line is the 1-based line on which Content starts.
	Line int

	Map *sourcemap.Map
}

// Attr returns the value of the named attribute.
func (b *Block) Attr(name string) (string, bool) {
	if b == nil {
		return "", false
	}
	for _, a := range b.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Descriptor is the parsed representation of a component file.
type Descriptor struct {
	Filename     string
	Template     *Block
	Script       *Block
	Styles       []*Block
	CustomBlocks []*Block
	Errors       []error
}

// Blocks returns every block in document order.
func (d *Descriptor) Blocks() []*Block {
	var blocks []*Block
	if d.Template != nil {
		blocks = append(blocks, d.Template)
	}
	if d.Script != nil {
		blocks = append(blocks, d.Script)
	}
	blocks = append(blocks, d.Styles...)
	blocks = append(blocks, d.CustomBlocks...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	return blocks
}

// Pad modes for ParseOptions.
const (
	PadNone  = ""
	PadLine  = "line"
	PadSpace = "space"
)

// ParseOptions controls Parse.
type ParseOptions struct {
	// Filename is recorded in source maps as the original source.
	Filename   string
	SourceRoot string
	// NeedMap requests per-character source maps for script and style blocks.
	NeedMap bool
	// Pad prefixes script, style and custom block content so that line
	// numbers (PadLine) or offsets (PadSpace) match the original file.
	Pad string
}

// Parser produces descriptors.
type Parser interface {
	Parse(source string, opts ParseOptions) *Descriptor
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(source string, opts ParseOptions) *Descriptor

// Parse calls f.
func (f ParserFunc) Parse(source string, opts ParseOptions) *Descriptor {
	return f(source, opts)
}

// Default is the tokenizer-backed parser.
var Default Parser = ParserFunc(Parse)
