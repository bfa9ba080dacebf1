package loader

import (
	"github.com/conneroisu/sfcloader/internal/compiler"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/transforms"
	"github.com/conneroisu/sfcloader/internal/transpile"
)

// CompilerOptions are the configurable compiler settings.
type CompilerOptions struct {
	PreserveWhitespace *bool `mapstructure:"preserveWhitespace" yaml:"preserveWhitespace,omitempty"`
	// Modules and Directives name entries of the transforms registry.
	Modules    []string `mapstructure:"modules" yaml:"modules,omitempty"`
	Directives []string `mapstructure:"directives" yaml:"directives,omitempty"`

	ExtraModules    []*compiler.Module                `mapstructure:"-" yaml:"-"`
	ExtraDirectives map[string]compiler.DirectiveFunc `mapstructure:"-" yaml:"-"`
}

// Options configures the template loader. Nil booleans take their
// documented default.
type Options struct {
	TransformAssetURL transforms.AssetURLOptions `mapstructure:"transformAssetUrl" yaml:"transformAssetUrl,omitempty"`
	// TransformSrcset defaults to true.
	TransformSrcset *bool           `mapstructure:"transformSrcset" yaml:"transformSrcset,omitempty"`
	CompilerOptions CompilerOptions `mapstructure:"compilerOptions" yaml:"compilerOptions,omitempty"`
	// HotReload defaults to true.
	HotReload    *bool  `mapstructure:"hotReload" yaml:"hotReload,omitempty"`
	HotReloadAPI string `mapstructure:"hotReloadApi" yaml:"hotReloadApi,omitempty"`
	// Transpile replaces the default transpile options when set.
	Transpile *transpile.Options `mapstructure:"transpile" yaml:"transpile,omitempty"`
	// OptimizeSSR defaults to true.
	OptimizeSSR *bool `mapstructure:"optimizeSSR" yaml:"optimizeSSR,omitempty"`
	// Template is merged over the engine options of pre-processed templates.
	Template map[string]any `mapstructure:"template" yaml:"template,omitempty"`
}

func enabled(b *bool) bool {
	return b == nil || *b
}

// compilerOptions builds the compiler options for one request.
func (o *Options) compilerOptions(scopeID string, comments bool) (*compiler.Options, error) {
	modules := []*compiler.Module{transforms.AssetURL(o.TransformAssetURL)}
	if enabled(o.TransformSrcset) {
		modules = append(modules, transforms.Srcset())
	}

	named, err := transforms.Modules(o.CompilerOptions.Modules)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeUnknownModule, err.Error())
	}
	modules = append(modules, named...)
	modules = append(modules, o.CompilerOptions.ExtraModules...)

	directives, err := transforms.Directives(o.CompilerOptions.Directives)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeUnknownModule, err.Error())
	}
	for name, fn := range o.CompilerOptions.ExtraDirectives {
		directives[name] = fn
	}

	return &compiler.Options{
		ScopeID:            scopeID,
		PreserveWhitespace: o.CompilerOptions.PreserveWhitespace,
		Modules:            modules,
		Directives:         directives,
		Comments:           comments,
	}, nil
}

// transpileOptions returns the configured transpile options or the default
// for the request.
func (o *Options) transpileOptions(functional bool) *transpile.Options {
	if o.Transpile != nil {
		return o.Transpile
	}
	return &transpile.Options{Transforms: transpile.Transforms{StripWithFunctional: functional}}
}
