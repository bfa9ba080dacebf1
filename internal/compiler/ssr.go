package compiler

import (
	"encoding/json"
	"regexp"
	"strings"
)

type segmentType int

const (
	segRaw segmentType = iota
	segInterpolation
	segExpression
)

type segment struct {
	typ   segmentType
	value string
}

var plainStringRE = regexp.MustCompile(`^"(?:[^"\\]|\\.)*"$|^'(?:[^'\\]|\\.)*'$`)

func (g *codegen) generateSSR(root *Element) string {
	code := `_c("div")`
	if root != nil {
		code = g.genSSRElement(root)
	}
	return "with(this){return " + code + "}"
}

func (g *codegen) genSSRElement(el *Element) string {
	switch {
	case el.For != "" && !el.forProcessed:
		return g.genFor(el, g.genSSRElement, "")
	case el.If != "" && !el.ifProcessed:
		return g.genIf(el, g.genSSRElement, "")
	case el.Tag == "template" && el.SlotTarget == "":
		if el.ssr == ssrFull {
			return g.genChildrenAsStringNode(el)
		}
		if c := g.genSSRChildren(el, false); c != "" {
			return c
		}
		return "void 0"
	}

	switch el.ssr {
	case ssrFull:
		return "_ssrNode(" + g.elementToString(el) + ")"
	case ssrSelf:
		children := g.genSSRChildren(el, true)
		code := "_ssrNode(" + flattenSegments(g.openTagSegments(el)) + `,"</` + el.Tag + `>"`
		if children != "" {
			code += "," + children
		}
		return code + ")"
	case ssrChildren:
		return g.genSSRNormalElement(el, true)
	case ssrPartial:
		return g.genSSRNormalElement(el, false)
	default:
		return g.genElement(el)
	}
}

func (g *codegen) genSSRNormalElement(el *Element, stringifyChildren bool) string {
	var data string
	if !el.Plain {
		data = g.genData(el)
	}
	var children string
	if stringifyChildren {
		children = "[" + g.genChildrenAsStringNode(el) + "]"
	} else {
		children = g.genSSRChildren(el, true)
	}
	code := "_c('" + el.Tag + "'"
	if data != "" {
		code += "," + data
	}
	if children != "" {
		code += "," + children
	}
	return code + ")"
}

func (g *codegen) genSSRChildren(el *Element, checkSkip bool) string {
	return g.genChildren(el, checkSkip, g.genSSRElement, g.genSSRNode)
}

func (g *codegen) genSSRNode(n Node) string {
	switch v := n.(type) {
	case *Element:
		return g.genSSRElement(v)
	case *Text:
		return genText(v)
	}
	return ""
}

func (g *codegen) genChildrenAsStringNode(el *Element) string {
	if len(el.Children) == 0 {
		return ""
	}
	return "_ssrNode(" + flattenSegments(g.childrenToSegments(el)) + ")"
}

func (g *codegen) elementToString(el *Element) string {
	return "(" + flattenSegments(g.elementToSegments(el)) + ")"
}

func (g *codegen) elementToSegments(el *Element) []segment {
	switch {
	case el.For != "" && !el.forProcessed:
		el.forProcessed = true
		return []segment{{segExpression, g.genFor(el, g.elementToString, "_ssrList")}}
	case el.If != "" && !el.ifProcessed:
		el.ifProcessed = true
		return []segment{{segExpression, g.genIf(el, g.elementToString, `"<!---->"`)}}
	case el.Tag == "template":
		return g.childrenToSegments(el)
	}

	segs := g.openTagSegments(el)
	segs = append(segs, g.childrenToSegments(el)...)
	if !isUnaryTag(el.Tag) {
		segs = append(segs, segment{segRaw, "</" + el.Tag + ">"})
	}
	return segs
}

func (g *codegen) openTagSegments(el *Element) []segment {
	g.applyModelTransform(el)

	segs := []segment{{segRaw, "<" + el.Tag}}
	for _, a := range el.Attrs {
		segs = append(segs, attrSegment(a.Name, a.Value))
	}
	segs = append(segs, domPropSegments(el.Props, el.Attrs)...)
	if b, ok := el.AttrsMap["v-bind"]; ok && b != "" {
		segs = append(segs, segment{segExpression, "_ssrAttrs(" + b + ")"})
	}
	if b, ok := el.AttrsMap["v-bind.prop"]; ok && b != "" {
		segs = append(segs, segment{segExpression, "_ssrDOMProps(" + b + ")"})
	}
	if el.StaticClass != "" || el.ClassBinding != "" {
		segs = append(segs, classSegment(el.StaticClass, el.ClassBinding))
	}
	if show := el.AttrsMap["v-show"]; el.StaticStyle != "" || el.StyleBinding != "" || show != "" {
		segs = append(segs, styleSegment(el.AttrsMap["style"], el.StaticStyle, el.StyleBinding, show))
	}
	if g.opts.ScopeID != "" {
		segs = append(segs, segment{segRaw, " " + g.opts.ScopeID})
	}
	return append(segs, segment{segRaw, ">"})
}

func (g *codegen) childrenToSegments(el *Element) []segment {
	if b := el.AttrsMap["v-html"]; b != "" {
		return []segment{{segExpression, "_s(" + b + ")"}}
	}
	if b := el.AttrsMap["v-text"]; b != "" {
		return []segment{{segInterpolation, "_s(" + b + ")"}}
	}
	if b := el.AttrsMap["v-model"]; el.Tag == "textarea" && b != "" {
		return []segment{{segInterpolation, "_s(" + b + ")"}}
	}

	var segs []segment
	for _, c := range el.Children {
		switch n := c.(type) {
		case *Element:
			segs = append(segs, g.elementToSegments(n)...)
		case *Text:
			switch {
			case n.Expression != "":
				segs = append(segs, segment{segInterpolation, n.Expression})
			case n.IsComment:
				segs = append(segs, segment{segRaw, "<!--" + escapeHTML(n.Text) + "-->"})
			default:
				segs = append(segs, segment{segRaw, escapeHTML(n.Text)})
			}
		}
	}
	return segs
}

func (g *codegen) applyModelTransform(el *Element) {
	for _, dir := range el.Directives {
		if dir.Name != "model" {
			continue
		}
		g.directives["model"](el, dir, g.warn)
		if el.Tag == "textarea" {
			kept := el.Props[:0]
			for _, p := range el.Props {
				if p.Name != "value" {
					kept = append(kept, p)
				}
			}
			el.Props = kept
		}
		return
	}
}

func flattenSegments(segs []segment) string {
	var merged []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			merged = append(merged, jsString(buf.String()))
			buf.Reset()
		}
	}
	for _, s := range segs {
		switch s.typ {
		case segRaw:
			buf.WriteString(s.value)
		case segInterpolation:
			flush()
			merged = append(merged, "_ssrEscape("+s.value+")")
		case segExpression:
			flush()
			merged = append(merged, "("+s.value+")")
		}
	}
	flush()
	return strings.Join(merged, "+")
}

func attrSegment(name, value string) segment {
	if !plainStringRE.MatchString(value) {
		return segment{segExpression, "_ssrAttr(" + jsString(name) + "," + value + ")"}
	}
	if strings.HasPrefix(value, "'") {
		value = `"` + value[1:len(value)-1] + `"`
	}
	if enumeratedAttrs[name] && value != `"false"` {
		value = `"true"`
	}
	switch {
	case booleanAttrs[name]:
		return segment{segRaw, " " + name + `="` + name + `"`}
	case value == `""`:
		return segment{segRaw, " " + name}
	default:
		return segment{segRaw, " " + name + `="` + unquote(value) + `"`}
	}
}

func domPropSegments(props, attrs []*Attr) []segment {
	var segs []segment
	for _, p := range props {
		name, ok := propsToAttrs[p.Name]
		if !ok {
			name = strings.ToLower(p.Name)
		}
		if !isRenderableAttr(name) || hasAttrNamed(attrs, name) {
			continue
		}
		segs = append(segs, attrSegment(name, p.Value))
	}
	return segs
}

func hasAttrNamed(attrs []*Attr, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func classSegment(staticClass, binding string) segment {
	if staticClass != "" && binding == "" {
		return segment{segRaw, ` class="` + unquote(staticClass) + `"`}
	}
	return segment{segExpression, "_ssrClass(" + orDefault(staticClass, "null") + "," + orDefault(binding, "null") + ")"}
}

func styleSegment(raw, parsed, binding, show string) segment {
	if raw != "" && binding == "" && show == "" {
		return segment{segRaw, " style=" + jsString(raw)}
	}
	showCode := "null"
	if show != "" {
		showCode = "{ display: (" + show + ") ? '' : 'none' }"
	}
	return segment{segExpression, "_ssrStyle(" + orDefault(parsed, "null") + "," + orDefault(binding, "null") + ", " + showCode + ")"}
}

// unquote decodes a JS string literal produced by jsString.
func unquote(lit string) string {
	var s string
	if err := json.Unmarshal([]byte(lit), &s); err != nil {
		return strings.Trim(lit, `"`)
	}
	return s
}
