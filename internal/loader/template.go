package loader

import (
	"context"
	"regexp"
	"strings"

	"github.com/conneroisu/sfcloader/internal/compiler"
	"github.com/conneroisu/sfcloader/internal/engines"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/format"
	"github.com/conneroisu/sfcloader/internal/hotreload"
	"github.com/conneroisu/sfcloader/internal/logging"
	"github.com/conneroisu/sfcloader/internal/query"
	"github.com/conneroisu/sfcloader/internal/transpile"
)

// ErrorStub is the module emitted for templates that fail to compile.
const ErrorStub = "export var render = function () {}\nexport var staticRenderFns = []"

// TemplateLoader compiles template blocks into render modules. It holds no
// per-request state and is safe for concurrent use.
type TemplateLoader struct {
	options    Options
	compiler   compiler.Compiler
	transpiler transpile.Transpiler
	formatter  format.Formatter
	engines    *engines.Registry
	logger     logging.Logger
}

// TemplateLoaderOption customises a TemplateLoader.
type TemplateLoaderOption func(*TemplateLoader)

// WithCompiler replaces the template compiler.
func WithCompiler(c compiler.Compiler) TemplateLoaderOption {
	return func(l *TemplateLoader) { l.compiler = c }
}

// WithTranspiler replaces the transpiler.
func WithTranspiler(t transpile.Transpiler) TemplateLoaderOption {
	return func(l *TemplateLoader) { l.transpiler = t }
}

// WithFormatter replaces the formatter.
func WithFormatter(f format.Formatter) TemplateLoaderOption {
	return func(l *TemplateLoader) { l.formatter = f }
}

// WithEngines replaces the templating engine registry.
func WithEngines(r *engines.Registry) TemplateLoaderOption {
	return func(l *TemplateLoader) { l.engines = r }
}

// WithLogger sets the logger used when a request context has none.
func WithLogger(logger logging.Logger) TemplateLoaderOption {
	return func(l *TemplateLoader) { l.logger = logger }
}

// NewTemplateLoader returns a loader using the built-in collaborators
// unless overridden.
func NewTemplateLoader(opts Options, fns ...TemplateLoaderOption) *TemplateLoader {
	l := &TemplateLoader{
		options:    opts,
		compiler:   compiler.New(),
		transpiler: transpile.New(),
		formatter:  format.New(),
		engines:    engines.Default(),
		logger:     logging.NewNopLogger(),
	}
	for _, fn := range fns {
		fn(l)
	}
	return l
}

// Options returns the loader configuration.
func (l *TemplateLoader) Options() Options {
	return l.options
}

// Load compiles rawTemplate for the request described by lctx. Compile
// errors are reported through lctx and produce ErrorStub; pre-processing,
// transpile and format failures are returned.
func (l *TemplateLoader) Load(ctx context.Context, lctx *Context, rawTemplate string) (string, error) {
	if lctx == nil {
		lctx = &Context{}
	}
	q, err := query.Parse(lctx.ResourceQuery)
	if err != nil {
		return "", err
	}

	template := rawTemplate
	if q.Lang != "" && l.engines != nil && l.engines.Has(q.Lang) {
		template, err = l.preprocess(ctx, lctx, q.Lang, rawTemplate)
		if err != nil {
			return "", err
		}
	}

	return l.compile(template, lctx, q)
}

func (l *TemplateLoader) preprocess(ctx context.Context, lctx *Context, lang, raw string) (string, error) {
	engineOptions := map[string]any{"filename": lctx.ResourcePath}
	for k, v := range l.options.Template {
		engineOptions[k] = v
	}

	logger := lctx.Logger
	if logger == nil {
		logger = l.logger
	}
	perf := logging.StartOperation(logger.WithComponent("loader"), "preprocess")
	out, err := l.engines.Render(ctx, lang, raw, engineOptions)
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", errors.ErrPreprocess(lang, err).WithLocation(lctx.ResourcePath, 0, 0)
	}
	perf.End(ctx, "lang", lang)
	return out, nil
}

func (l *TemplateLoader) compile(template string, lctx *Context, q *query.Query) (string, error) {
	server := lctx.IsServer()
	production := lctx.IsProduction()
	needsHotReload := !server && !production && enabled(l.options.HotReload)
	functional := q.Functional()

	scopeID := ""
	if q.Scoped() {
		scopeID = "data-v-" + q.ID
	}
	compilerOptions, err := l.options.compilerOptions(scopeID, q.Comment())
	if err != nil {
		return "", err
	}

	var compiled *compiler.Result
	if ssr, ok := l.compiler.(compiler.SSRCompiler); ok && server && enabled(l.options.OptimizeSSR) {
		compiled = ssr.SSRCompile(template, compilerOptions)
	} else {
		compiled = l.compiler.Compile(template, compilerOptions)
	}

	for _, tip := range compiled.Tips {
		lctx.EmitWarning(tip)
	}

	var code string
	if len(compiled.Errors) > 0 {
		lctx.EmitError(compileErrorMessage(template, compiled.Errors))
		code = ErrorStub
	} else {
		code, err = l.generate(compiled, functional, production)
		if err != nil {
			if le, ok := err.(*errors.LoaderError); ok {
				le.WithLocation(lctx.ResourcePath, 0, 0)
			}
			return "", err
		}
	}

	if needsHotReload {
		code += hotreload.TemplateCode(q.ID, l.options.HotReloadAPI)
	}
	return code, nil
}

func (l *TemplateLoader) generate(compiled *compiler.Result, functional, production bool) (string, error) {
	opts := l.options.transpileOptions(functional)

	fns := make([]string, len(compiled.StaticRenderFns))
	for i, fn := range compiled.StaticRenderFns {
		fns[i] = toFunction(fn, functional)
	}
	source := "var render = " + toFunction(compiled.Render, functional) + "\n" +
		"var staticRenderFns = [" + strings.Join(fns, ",") + "]"

	code, err := l.transpiler.Transpile(source, opts)
	if err != nil {
		return "", err
	}
	code += "\n"

	if !production {
		code, err = l.formatter.Format(code, format.Options{Semi: false})
		if err != nil {
			return "", err
		}
		if opts.StripsWith() {
			code += "render._withStripped = true\n"
		}
	}
	code += "export { render, staticRenderFns }"
	return code, nil
}

func toFunction(code string, functional bool) string {
	params := ""
	if functional {
		params = "_h,_vm"
	}
	return "function (" + params + ") {" + code + "}"
}

var lineRE = regexp.MustCompile(`\r?\n`)

func pad(template string) string {
	lines := lineRE.Split(template, -1)
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

func compileErrorMessage(template string, errs []string) string {
	items := make([]string, len(errs))
	for i, e := range errs {
		items[i] = "  - " + e
	}
	return "\n  Error compiling template:\n" + pad(template) + "\n" + strings.Join(items, "\n") + "\n"
}
