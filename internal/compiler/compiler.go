// Package compiler turns component templates into render function code.
//
// Compilation runs in three stages: the template is parsed into an element
// tree, static subtrees are marked, and the tree is generated into a render
// function body plus a list of static render function bodies. A server
// variant produces string-concatenating render code instead.
package compiler

import "strings"

// WarnFunc reports a compile problem.
type WarnFunc func(msg string)

// Module hooks into element processing and data generation. Any hook may be
// nil.
type Module struct {
	Name              string
	PreTransformNode  func(el *Element, warn WarnFunc)
	TransformNode     func(el *Element, warn WarnFunc)
	PostTransformNode func(el *Element, warn WarnFunc)
	GenData           func(el *Element) string
}

// DirectiveFunc generates code for a directive at compile time. It returns
// true when the directive still needs its runtime counterpart.
type DirectiveFunc func(el *Element, dir *Directive, warn WarnFunc) bool

// Options controls a single compilation.
type Options struct {
	// ScopeID is the scoped style attribute, for example "data-v-1a2b3c4d".
	// Only server rendering writes it into markup.
	ScopeID string
	// PreserveWhitespace keeps whitespace-only text between elements as a
	// single space. Nil means true.
	PreserveWhitespace *bool
	// Modules run after the built-in class and style modules.
	Modules []*Module
	// Directives override or extend the built-in compile-time directives.
	Directives map[string]DirectiveFunc
	// Comments keeps HTML comments in the output.
	Comments bool
}

// Result is the outcome of a compilation. Errors and Tips are populated even
// when Render is usable.
type Result struct {
	AST             *Element
	Render          string
	StaticRenderFns []string
	Errors          []string
	Tips            []string
}

// Compiler compiles a template for client-side rendering.
type Compiler interface {
	Compile(template string, opts *Options) *Result
}

// SSRCompiler is implemented by compilers that can also target server
// rendering.
type SSRCompiler interface {
	SSRCompile(template string, opts *Options) *Result
}

// TemplateCompiler is the built-in compiler. The zero value is ready to use.
type TemplateCompiler struct{}

var (
	_ Compiler    = (*TemplateCompiler)(nil)
	_ SSRCompiler = (*TemplateCompiler)(nil)
)

// New returns the built-in compiler.
func New() *TemplateCompiler { return &TemplateCompiler{} }

// Compile implements Compiler.
func (c *TemplateCompiler) Compile(template string, opts *Options) *Result {
	return c.compile(template, opts, false)
}

// SSRCompile implements SSRCompiler.
func (c *TemplateCompiler) SSRCompile(template string, opts *Options) *Result {
	return c.compile(template, opts, true)
}

func (c *TemplateCompiler) compile(template string, opts *Options, ssr bool) *Result {
	if opts == nil {
		opts = &Options{}
	}
	modules := append([]*Module{classModule, styleModule}, opts.Modules...)

	p := newParser(strings.TrimSpace(template), opts, modules)
	root := p.parse()

	if ssr {
		optimizeSSR(root)
	} else {
		optimize(root)
	}

	g := newCodegen(opts, modules)
	var render string
	if ssr {
		render = g.generateSSR(root)
	} else {
		render = g.generate(root)
	}

	res := &Result{
		AST:             root,
		Render:          render,
		StaticRenderFns: g.staticRenderFns,
		Errors:          append(p.errors, g.errors...),
		Tips:            append(p.tips, g.tips...),
	}
	detectErrors(root, func(msg string) { res.Errors = append(res.Errors, msg) })
	return res
}
