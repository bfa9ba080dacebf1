package compiler

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const attrValue = `(?:\s*(=)\s*(?:"([^"]*)"+|'([^']*)'+|([^\s"'=<>` + "`" + `]+)))?`

var (
	attributeRE      = regexp.MustCompile(`^\s*([^\s"'<>\/=]+)` + attrValue)
	dynamicArgAttrRE = regexp.MustCompile(`^\s*((?:v-[\w-]+:|@|:|#)\[[^=]+?\][^\s"'<>\/=]*)` + attrValue)
)

// scanStartTag reads the tag name and attributes from the raw start tag text,
// keeping their original case.
func scanStartTag(raw string) (string, []RawAttr) {
	rest := strings.TrimPrefix(raw, "<")
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '/' || r == '>'
	})
	if end < 0 {
		return rest, nil
	}
	name := rest[:end]
	rest = rest[end:]

	var attrs []RawAttr
	for {
		trimmed := strings.TrimLeft(rest, " \t\r\n\f")
		if trimmed == "" || trimmed[0] == '>' || strings.HasPrefix(trimmed, "/>") {
			break
		}
		m := dynamicArgAttrRE.FindStringSubmatch(rest)
		if m == nil {
			m = attributeRE.FindStringSubmatch(rest)
		}
		if m == nil {
			// stray character such as a lone "/" or quote
			rest = trimmed[1:]
			continue
		}
		value := m[3]
		if value == "" {
			value = m[4]
		}
		if value == "" {
			value = m[5]
		}
		attrs = append(attrs, RawAttr{Name: m[1], Value: html.UnescapeString(value)})
		rest = rest[len(m[0]):]
	}
	return name, attrs
}

func scanEndTag(raw string) string {
	name := strings.TrimPrefix(raw, "</")
	end := strings.IndexAny(name, " \t\r\n\f/>")
	if end >= 0 {
		name = name[:end]
	}
	return name
}

type parser struct {
	template string
	opts     *Options
	modules  []*Module

	root          *Element
	stack         []*Element
	currentParent *Element
	inVPre        bool
	inPre         bool
	warnedOnce    bool

	preserveWhitespace bool

	errors []string
	tips   []string
}

func newParser(template string, opts *Options, modules []*Module) *parser {
	return &parser{
		template:           template,
		opts:               opts,
		modules:            modules,
		preserveWhitespace: opts.PreserveWhitespace == nil || *opts.PreserveWhitespace,
	}
}

func (p *parser) warn(msg string) { p.errors = append(p.errors, msg) }

func (p *parser) tip(msg string) { p.tips = append(p.tips, msg) }

func (p *parser) warnOnce(msg string) {
	if !p.warnedOnce {
		p.warnedOnce = true
		p.warn(msg)
	}
}

func (p *parser) parse() *Element {
	z := html.NewTokenizer(strings.NewReader(p.template))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				p.warn("template tokenizer: " + err.Error())
			}
			p.closeAll()
			return p.root
		case html.StartTagToken, html.SelfClosingTagToken:
			name, attrs := scanStartTag(string(z.Raw()))
			p.start(name, attrs, tt == html.SelfClosingTagToken || isUnaryTag(name))
		case html.EndTagToken:
			p.end(scanEndTag(string(z.Raw())))
		case html.TextToken:
			p.chars(string(z.Text()))
		case html.CommentToken:
			if p.opts.Comments {
				p.comment(string(z.Text()))
			}
		}
	}
}

func (p *parser) lastTag() string {
	if len(p.stack) == 0 {
		return ""
	}
	return strings.ToLower(p.stack[len(p.stack)-1].Tag)
}

func (p *parser) start(tag string, attrs []RawAttr, unary bool) {
	if last := p.lastTag(); last != "" {
		if last == "p" && nonPhrasingTags[tag] {
			p.end(last)
		}
		if canBeLeftOpenTags[tag] && p.lastTag() == tag {
			p.end(tag)
		}
	}

	el := newElement(tag, attrs, p.currentParent)

	if isForbiddenTag(el) {
		el.Forbidden = true
		p.warn("Templates should only be responsible for mapping the state to the UI. " +
			"Avoid placing tags with side-effects in your templates, such as <" + tag + ">" +
			", as they will not be parsed.")
	}

	for _, m := range p.modules {
		if m.PreTransformNode != nil {
			m.PreTransformNode(el, p.warn)
		}
	}

	if !p.inVPre {
		if _, ok := el.GetAndRemoveAttr("v-pre"); ok {
			el.Pre = true
			p.inVPre = true
		}
	}
	if el.Tag == "pre" {
		p.inPre = true
	}

	if p.inVPre {
		processRawAttrs(el)
	} else {
		p.processFor(el)
		processIf(el)
		if _, ok := el.GetAndRemoveAttr("v-once"); ok {
			el.Once = true
		}
	}

	if p.root == nil {
		p.root = el
		p.checkRootConstraints(el)
	}

	if !unary {
		p.currentParent = el
		p.stack = append(p.stack, el)
	} else {
		p.closeElement(el)
	}
}

func (p *parser) end(tag string) {
	lower := strings.ToLower(tag)
	pos := -1
	for i := len(p.stack) - 1; i >= 0; i-- {
		if strings.ToLower(p.stack[i].Tag) == lower {
			pos = i
			break
		}
	}

	switch {
	case pos >= 0:
		for i := len(p.stack) - 1; i >= pos; i-- {
			if i > pos {
				p.warn("tag <" + p.stack[i].Tag + "> has no matching end tag.")
			}
			p.pop()
		}
	case lower == "br":
		p.start(tag, nil, true)
	case lower == "p":
		p.start(tag, nil, false)
		p.end(tag)
	}
}

func (p *parser) pop() {
	el := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if len(p.stack) > 0 {
		p.currentParent = p.stack[len(p.stack)-1]
	} else {
		p.currentParent = nil
	}
	p.closeElement(el)
}

func (p *parser) closeAll() {
	for len(p.stack) > 0 {
		p.warn("tag <" + p.stack[len(p.stack)-1].Tag + "> has no matching end tag.")
		p.pop()
	}
}

func (p *parser) checkRootConstraints(el *Element) {
	if el.Tag == "slot" || el.Tag == "template" {
		p.warnOnce("Cannot use <" + el.Tag + "> as component root element because it may " +
			"contain multiple nodes.")
	}
	if el.HasAttr("v-for") {
		p.warnOnce("Cannot use v-for on stateful component root element because " +
			"it renders multiple elements.")
	}
}

func (p *parser) closeElement(el *Element) {
	p.trimEndingWhitespace(el)
	if !p.inVPre && !el.processed {
		p.processElement(el)
	}

	if el == p.root && (el.HasElseIf || el.Else) {
		p.warnOrphanElse(el)
	}
	if len(p.stack) == 0 && el != p.root {
		if p.root.If != "" && (el.HasElseIf || el.Else) {
			p.checkRootConstraints(el)
			addIfCondition(p.root, el.ElseIf, el)
		} else {
			p.warnOnce("Component template should contain exactly one root element. " +
				"If you are using v-if on multiple elements, " +
				"use v-else-if to chain them instead.")
		}
	}

	if parent := p.currentParent; parent != nil && !el.Forbidden {
		if el.HasElseIf || el.Else {
			p.processIfConditions(el, parent)
		} else {
			if el.SlotScope != "" {
				parent.addScopedSlot(el)
			}
			parent.Children = append(parent.Children, el)
			el.Parent = parent
		}
	}

	kept := el.Children[:0]
	for _, c := range el.Children {
		if ce, ok := c.(*Element); ok && ce.SlotScope != "" {
			continue
		}
		kept = append(kept, c)
	}
	el.Children = kept
	p.trimEndingWhitespace(el)

	if el.Pre {
		p.inVPre = false
	}
	if el.Tag == "pre" {
		p.inPre = false
	}

	if el.NativeEvents != nil && !maybeComponent(el) {
		p.tip("The .native modifier for v-on is only valid on components but it was used on <" + el.Tag + ">.")
	}

	for _, m := range p.modules {
		if m.PostTransformNode != nil {
			m.PostTransformNode(el, p.warn)
		}
	}
}

func (el *Element) addScopedSlot(slot *Element) {
	target := slot.SlotTarget
	if target == "" {
		target = `"default"`
	}
	for i, s := range el.ScopedSlots {
		if slotKey(s) == target {
			el.ScopedSlots[i] = slot
			return
		}
	}
	el.ScopedSlots = append(el.ScopedSlots, slot)
}

func slotKey(el *Element) string {
	if el.SlotTarget == "" {
		return `"default"`
	}
	return el.SlotTarget
}

func (p *parser) trimEndingWhitespace(el *Element) {
	if p.inPre {
		return
	}
	for len(el.Children) > 0 {
		t, ok := el.Children[len(el.Children)-1].(*Text)
		if !ok || t.IsComment || t.Expression != "" || t.Text != " " {
			return
		}
		el.Children = el.Children[:len(el.Children)-1]
	}
}

func (p *parser) chars(text string) {
	parent := p.currentParent
	if parent == nil {
		if text == p.template {
			p.warnOnce("Component template requires a root element, rather than just text.")
		} else if t := strings.TrimSpace(text); t != "" {
			p.warnOnce(`text "` + t + `" outside root element will be ignored.`)
		}
		return
	}

	if (parent.Tag == "pre" || parent.Tag == "textarea") && len(parent.Children) == 0 && strings.HasPrefix(text, "\n") {
		text = text[1:]
	}

	children := parent.Children
	switch {
	case p.inPre || strings.TrimSpace(text) != "":
	case len(children) == 0:
		text = ""
	case p.preserveWhitespace:
		text = " "
	default:
		text = ""
	}
	if text == "" {
		return
	}

	if !p.inVPre && text != " " {
		if exp, ok := parseText(text); ok {
			parent.Children = append(children, &Text{Text: text, Expression: exp})
			return
		}
	}
	if text != " " || len(children) == 0 || !isSpaceText(children[len(children)-1]) {
		parent.Children = append(children, &Text{Text: text})
	}
}

func isSpaceText(n Node) bool {
	t, ok := n.(*Text)
	return ok && !t.IsComment && t.Expression == "" && t.Text == " "
}

func (p *parser) comment(text string) {
	if p.currentParent == nil {
		return
	}
	p.currentParent.Children = append(p.currentParent.Children, &Text{Text: text, IsComment: true})
}

func (p *parser) processIfConditions(el, parent *Element) {
	var prev *Element
	for len(parent.Children) > 0 {
		last := parent.Children[len(parent.Children)-1]
		if e, ok := last.(*Element); ok {
			prev = e
			break
		}
		if t, ok := last.(*Text); ok && t.Text != " " {
			p.warn(`text "` + strings.TrimSpace(t.Text) + `" between v-if and v-else(-if) will be ignored.`)
		}
		parent.Children = parent.Children[:len(parent.Children)-1]
	}

	if prev != nil && prev.If != "" {
		addIfCondition(prev, el.ElseIf, el)
		return
	}
	p.warnOrphanElse(el)
}

func (p *parser) warnOrphanElse(el *Element) {
	which := "else"
	if el.HasElseIf {
		which = `else-if="` + el.ElseIf + `"`
	}
	p.warn("v-" + which + " used on element <" + el.Tag + "> without corresponding v-if.")
}

func addIfCondition(el *Element, exp string, block *Element) {
	el.IfConditions = append(el.IfConditions, IfCondition{Exp: exp, Block: block})
}

func processRawAttrs(el *Element) {
	if len(el.AttrsList) > 0 {
		for _, a := range el.AttrsList {
			el.Attrs = append(el.Attrs, &Attr{Name: a.Name, Value: jsString(a.Value)})
		}
	} else if !el.Pre {
		el.Plain = true
	}
}
