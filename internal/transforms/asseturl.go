// Package transforms holds compiler modules that rewrite static asset
// references in templates into module requires.
package transforms

import (
	"regexp"
	"strings"

	"github.com/conneroisu/sfcloader/internal/compiler"
)

// AssetURLOptions maps a tag name (or "*") to the attributes holding asset
// URLs on it.
type AssetURLOptions map[string][]string

// DefaultAssetURLOptions lists the attributes rewritten when no options are
// configured.
func DefaultAssetURLOptions() AssetURLOptions {
	return AssetURLOptions{
		"audio":  {"src"},
		"video":  {"src", "poster"},
		"source": {"src"},
		"img":    {"src"},
		"image":  {"xlink:href", "href"},
		"use":    {"xlink:href", "href"},
	}
}

// AssetURL returns a module rewriting static asset attributes into
// require() calls. user entries replace the default entry for the same tag.
func AssetURL(user AssetURLOptions) *compiler.Module {
	opts := DefaultAssetURLOptions()
	for tag, attrs := range user {
		opts[tag] = attrs
	}
	return &compiler.Module{
		Name: "asset-url",
		PostTransformNode: func(el *compiler.Element, _ compiler.WarnFunc) {
			for tag, names := range opts {
				if tag != "*" && tag != el.Tag {
					continue
				}
				for _, name := range names {
					rewriteAttr(el.Attrs, name)
				}
			}
		},
	}
}

func rewriteAttr(attrs []*compiler.Attr, name string) {
	for _, a := range attrs {
		if a.Name != name {
			continue
		}
		if isStaticString(a.Value) {
			a.Value = URLToRequire(a.Value[1 : len(a.Value)-1])
		}
		return
	}
}

func isStaticString(v string) bool {
	return len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"'
}

// URLToRequire turns a relative, "~" or "@" prefixed URL into a require()
// expression. Other URLs are returned as string literals.
func URLToRequire(url string) string {
	if url == "" {
		return `""`
	}
	switch url[0] {
	case '.', '~', '@':
	default:
		return `"` + url + `"`
	}
	if url[0] == '~' {
		if strings.HasPrefix(url, "~/") {
			url = url[2:]
		} else {
			url = url[1:]
		}
	}
	path, hash, found := strings.Cut(url, "#")
	if !found || hash == "" {
		return `require("` + path + `")`
	}
	return `require("` + path + `") + "#` + hash + `"`
}

var escapedSpaceRE = regexp.MustCompile(`( |\\t|\\n|\\f|\\r)+`)

// Srcset returns a module rewriting the candidates of static img and source
// srcset attributes into concatenated require() calls.
func Srcset() *compiler.Module {
	return &compiler.Module{
		Name: "srcset",
		PostTransformNode: func(el *compiler.Element, _ compiler.WarnFunc) {
			if el.Tag != "img" && el.Tag != "source" {
				return
			}
			for _, a := range el.Attrs {
				if a.Name == "srcset" && isStaticString(a.Value) {
					a.Value = rewriteSrcset(a.Value[1 : len(a.Value)-1])
				}
			}
		},
	}
}

func rewriteSrcset(value string) string {
	var b strings.Builder
	for _, candidate := range strings.Split(value, ",") {
		fields := strings.SplitN(strings.TrimSpace(escapedSpaceRE.ReplaceAllString(candidate, " ")), " ", 3)
		url := fields[0]
		descriptor := ""
		if len(fields) > 1 {
			descriptor = " " + fields[1]
		}
		b.WriteString(URLToRequire(url) + ` + "` + descriptor + `, " + `)
	}
	code := b.String()
	code = code[:len(code)-6] + `"`
	return strings.TrimSuffix(code, ` + ""`)
}
