package transforms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conneroisu/sfcloader/internal/compiler"
)

var testAttrPrefixes = []string{"data-test", "data-testid", "data-cy"}

// StripTestAttrs removes data-test, data-testid and data-cy attributes
// before any other processing sees them.
func StripTestAttrs() *compiler.Module {
	return &compiler.Module{
		Name: "strip-test-attrs",
		PreTransformNode: func(el *compiler.Element, _ compiler.WarnFunc) {
			kept := el.AttrsList[:0]
			for _, a := range el.AttrsList {
				if !isTestAttr(a.Name) {
					kept = append(kept, a)
				}
			}
			el.AttrsList = kept
		},
	}
}

func isTestAttr(name string) bool {
	name = strings.TrimPrefix(strings.TrimPrefix(name, "v-bind:"), ":")
	for _, p := range testAttrPrefixes {
		if name == p {
			return true
		}
	}
	return false
}

// TranslateDirective implements v-t="key", setting the element text to the
// translated message.
func TranslateDirective(el *compiler.Element, dir *compiler.Directive, _ compiler.WarnFunc) bool {
	if dir.Value != "" {
		el.AddProp("textContent", "_s($t("+dir.Value+"))", false)
	}
	return false
}

var (
	modules = map[string]func() *compiler.Module{
		"strip-test-attrs": StripTestAttrs,
	}
	directives = map[string]compiler.DirectiveFunc{
		"t": TranslateDirective,
	}
)

// Modules resolves configured module names.
func Modules(names []string) ([]*compiler.Module, error) {
	out := make([]*compiler.Module, 0, len(names))
	for _, name := range names {
		ctor, ok := modules[name]
		if !ok {
			return nil, fmt.Errorf("unknown compiler module %q (available: %s)", name, strings.Join(ModuleNames(), ", "))
		}
		out = append(out, ctor())
	}
	return out, nil
}

// Directives resolves configured directive names.
func Directives(names []string) (map[string]compiler.DirectiveFunc, error) {
	out := make(map[string]compiler.DirectiveFunc, len(names))
	for _, name := range names {
		fn, ok := directives[name]
		if !ok {
			return nil, fmt.Errorf("unknown compiler directive %q", name)
		}
		out[name] = fn
	}
	return out, nil
}

// ModuleNames lists the registered module names.
func ModuleNames() []string {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
