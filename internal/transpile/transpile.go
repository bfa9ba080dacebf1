// Package transpile lowers generated render code to a target ECMAScript
// version. Before lowering, `with(this){...}` blocks emitted by the template
// compiler can be stripped by rewriting free identifiers into explicit
// `_vm.` member accesses.
package transpile

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/sfcloader/internal/errors"
)

// Transforms toggles source rewrites applied before lowering.
type Transforms struct {
	// StripWith removes with(this) blocks. Nil means enabled.
	StripWith *bool `mapstructure:"stripWith" json:"stripWith,omitempty" yaml:"stripWith,omitempty"`
	// StripWithFunctional reads the instance from the second function
	// parameter instead of `this`.
	StripWithFunctional bool `mapstructure:"stripWithFunctional" json:"stripWithFunctional,omitempty" yaml:"stripWithFunctional,omitempty"`
}

// Options configures a Transpile call.
type Options struct {
	Transforms Transforms `mapstructure:"transforms" json:"transforms" yaml:"transforms"`
	// Target is an esbuild target name such as es2015 or esnext.
	Target string `mapstructure:"target" json:"target,omitempty" yaml:"target,omitempty"`
}

// StripsWith reports whether with-stripping is enabled.
func (o *Options) StripsWith() bool {
	return o == nil || o.Transforms.StripWith == nil || *o.Transforms.StripWith
}

// Transpiler lowers render code.
type Transpiler interface {
	Transpile(code string, opts *Options) (string, error)
}

// DefaultTarget is used when Options.Target is empty.
const DefaultTarget = "es2015"

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es6":    api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Esbuild strips with blocks and lowers the result through esbuild.
type Esbuild struct{}

// New returns an esbuild backed Transpiler.
func New() *Esbuild {
	return &Esbuild{}
}

// Transpile implements Transpiler. The output is whitespace-minified and
// has no trailing newline.
func (e *Esbuild) Transpile(code string, opts *Options) (string, error) {
	if opts == nil {
		opts = &Options{}
	}

	name := strings.ToLower(opts.Target)
	if name == "" {
		name = DefaultTarget
	}
	target, ok := targets[name]
	if !ok {
		return "", errors.NewConfigError(errors.ErrCodeTranspile, fmt.Sprintf("unknown transpile target %q", opts.Target))
	}

	if opts.StripsWith() {
		stripped, err := StripWith(code, opts.Transforms.StripWithFunctional)
		if err != nil {
			return "", errors.NewBuildError(errors.ErrCodeTranspile, "stripping with statements failed", err)
		}
		code = stripped
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:           api.LoaderJS,
		Target:           target,
		Charset:          api.CharsetUTF8,
		MinifyWhitespace: true,
	})
	if len(result.Errors) > 0 {
		return "", errors.NewBuildError(errors.ErrCodeTranspile, "transpile failed", messagesError(result.Errors))
	}

	return strings.TrimRight(string(result.Code), "\n"), nil
}

// messagesError flattens esbuild diagnostics into a single error.
func messagesError(msgs []api.Message) error {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			lines = append(lines, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		lines = append(lines, m.Text)
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}
