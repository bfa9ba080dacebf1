package build

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/conneroisu/sfcloader/internal/descriptor"
	"github.com/conneroisu/sfcloader/internal/query"
)

// EntryFile is the name of the module assembling a component's blocks.
const EntryFile = "index.js"

// Request is one block request generated for a component, along with the
// file its output is written to.
type Request struct {
	Type   string
	Index  int
	Block  *descriptor.Block
	Query  string
	Output string
}

// Requests expands a descriptor into the block requests the loaders serve,
// in template, script, styles, custom blocks order. id is the component's
// scope id.
func Requests(desc *descriptor.Descriptor, id string) []Request {
	var reqs []Request

	hasScoped := false
	for _, s := range desc.Styles {
		if s.Scoped {
			hasScoped = true
			break
		}
	}

	if t := desc.Template; t != nil {
		q := "?vue&type=template&id=" + query.Escape(id)
		if hasScoped {
			q += "&scoped=true"
		}
		q += query.AttrsToQuery(t.Attrs, "")
		reqs = append(reqs, Request{
			Type:   query.TypeTemplate,
			Block:  t,
			Query:  q,
			Output: "template.js",
		})
	}

	if s := desc.Script; s != nil {
		reqs = append(reqs, Request{
			Type:   query.TypeScript,
			Block:  s,
			Query:  "?vue&type=script" + query.AttrsToQuery(s.Attrs, "js"),
			Output: "script." + extension(s.Lang, "js"),
		})
	}

	for i, s := range desc.Styles {
		q := fmt.Sprintf("?vue&type=style&index=%d", i)
		if s.Scoped {
			q += "&id=" + query.Escape(id)
		}
		q += query.AttrsToQuery(s.Attrs, "css")
		reqs = append(reqs, Request{
			Type:   query.TypeStyle,
			Index:  i,
			Block:  s,
			Query:  q,
			Output: fmt.Sprintf("style.%d.%s", i, extension(s.Lang, "css")),
		})
	}

	for i, b := range desc.CustomBlocks {
		reqs = append(reqs, Request{
			Type:   query.TypeCustom,
			Index:  i,
			Block:  b,
			Query:  fmt.Sprintf("?vue&type=custom&index=%d&blockType=%s", i, query.Escape(b.Type)) + query.AttrsToQuery(b.Attrs, ""),
			Output: fmt.Sprintf("%s.%d.%s", sanitizeName(b.Type), i, extension(b.Lang, "txt")),
		})
	}

	return reqs
}

func extension(lang, fallback string) string {
	if lang == "" {
		return fallback
	}
	return sanitizeName(lang)
}

// sanitizeName keeps file names built from attribute values inside the
// component's output directory.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "block"
	}
	return b.String()
}

// EntryModule generates the module that imports a component's block
// outputs and attaches the render functions to the script's options.
func EntryModule(desc *descriptor.Descriptor, reqs []Request, id, file string, production bool) string {
	var b strings.Builder
	hasTemplate, hasScript, hasScoped := false, false, false

	for _, r := range reqs {
		switch r.Type {
		case query.TypeTemplate:
			hasTemplate = true
			fmt.Fprintf(&b, "import { render, staticRenderFns } from %s\n", quote("./"+r.Output))
		case query.TypeScript:
			hasScript = true
			fmt.Fprintf(&b, "import script from %s\n", quote("./"+r.Output))
		case query.TypeStyle:
			if r.Block.Scoped {
				hasScoped = true
			}
			fmt.Fprintf(&b, "import %s\n", quote("./"+r.Output))
		}
	}

	if !hasScript {
		b.WriteString("var script = {}\n")
	}
	b.WriteString("var options = typeof script === \"function\" ? script.options : script\n")
	if hasTemplate {
		b.WriteString("options.render = render\n")
		b.WriteString("options.staticRenderFns = staticRenderFns\n")
		b.WriteString("options._compiled = true\n")
		if desc.Template.Functional {
			b.WriteString("options.functional = true\n")
		}
	}
	if hasScoped {
		fmt.Fprintf(&b, "options._scopeId = %s\n", quote("data-v-"+id))
	}
	if !production {
		fmt.Fprintf(&b, "options.__file = %s\n", quote(path.Clean(file)))
	}
	b.WriteString("export default script\n")

	return b.String()
}

func quote(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}
