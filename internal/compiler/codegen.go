package compiler

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

type codegen struct {
	opts       *Options
	modules    []*Module
	directives map[string]DirectiveFunc

	staticRenderFns []string
	onceID          int
	pre             bool

	errors []string
	tips   []string
}

func newCodegen(opts *Options, modules []*Module) *codegen {
	dirs := builtInDirectives()
	for name, fn := range opts.Directives {
		dirs[name] = fn
	}
	return &codegen{opts: opts, modules: modules, directives: dirs}
}

func (g *codegen) warn(msg string) { g.errors = append(g.errors, msg) }

func (g *codegen) tip(msg string) { g.tips = append(g.tips, msg) }

type genFunc func(el *Element) string

func (g *codegen) generate(root *Element) string {
	code := `_c("div")`
	if root != nil {
		if root.Tag == "script" {
			code = "null"
		} else {
			code = g.genElement(root)
		}
	}
	return "with(this){return " + code + "}"
}

func (g *codegen) genElement(el *Element) string {
	if el.Parent != nil {
		el.Pre = el.Pre || el.Parent.Pre
	}

	switch {
	case el.StaticRoot && !el.staticProcessed:
		return g.genStatic(el)
	case el.Once && !el.onceProcessed:
		return g.genOnce(el)
	case el.For != "" && !el.forProcessed:
		return g.genFor(el, nil, "")
	case el.If != "" && !el.ifProcessed:
		return g.genIf(el, nil, "")
	case el.Tag == "template" && el.SlotTarget == "" && !g.pre:
		if c := g.genChildren(el, false, nil, nil); c != "" {
			return c
		}
		return "void 0"
	case el.Tag == "slot":
		return g.genSlot(el)
	}

	if el.Component != "" {
		return g.genComponent(el.Component, el)
	}
	var data string
	if !el.Plain || (el.Pre && maybeComponent(el)) {
		data = g.genData(el)
	}
	var children string
	if !el.InlineTemplate {
		children = g.genChildren(el, true, nil, nil)
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

func (g *codegen) genStatic(el *Element) string {
	el.staticProcessed = true
	originalPre := g.pre
	if el.Pre {
		g.pre = true
	}
	g.staticRenderFns = append(g.staticRenderFns, "with(this){return "+g.genElement(el)+"}")
	g.pre = originalPre

	code := "_m(" + strconv.Itoa(len(g.staticRenderFns)-1)
	if el.StaticInFor {
		code += ",true"
	}
	return code + ")"
}

func (g *codegen) genOnce(el *Element) string {
	el.onceProcessed = true
	switch {
	case el.If != "" && !el.ifProcessed:
		return g.genIf(el, nil, "")
	case el.StaticInFor:
		var key string
		for p := el.Parent; p != nil; p = p.Parent {
			if p.For != "" {
				key = p.Key
				break
			}
		}
		if key == "" {
			g.warn("v-once can only be used inside v-for that is keyed. ")
			return g.genElement(el)
		}
		code := "_o(" + g.genElement(el) + "," + strconv.Itoa(g.onceID) + "," + key + ")"
		g.onceID++
		return code
	default:
		return g.genStatic(el)
	}
}

func (g *codegen) genIf(el *Element, altGen genFunc, altEmpty string) string {
	el.ifProcessed = true
	return g.genIfConditions(el.IfConditions, altGen, altEmpty)
}

func (g *codegen) genIfConditions(conditions []IfCondition, altGen genFunc, altEmpty string) string {
	if len(conditions) == 0 {
		if altEmpty != "" {
			return altEmpty
		}
		return "_e()"
	}
	cond := conditions[0]
	ternary := func(el *Element) string {
		switch {
		case altGen != nil:
			return altGen(el)
		case el.Once:
			return g.genOnce(el)
		default:
			return g.genElement(el)
		}
	}
	if cond.Exp != "" {
		return "(" + cond.Exp + ")?" + ternary(cond.Block) + ":" + g.genIfConditions(conditions[1:], altGen, altEmpty)
	}
	return ternary(cond.Block)
}

func (g *codegen) genFor(el *Element, altGen genFunc, altHelper string) string {
	iterators := ""
	if el.Iterator1 != "" {
		iterators += "," + el.Iterator1
	}
	if el.Iterator2 != "" {
		iterators += "," + el.Iterator2
	}

	if maybeComponent(el) && el.Tag != "slot" && el.Tag != "template" && el.Key == "" {
		g.tip("<" + el.Tag + ` v-for="` + el.Alias + " in " + el.For + `">: component lists rendered with ` +
			"v-for should have explicit keys. " +
			"See https://vuejs.org/guide/list.html#key for more info.")
	}

	el.forProcessed = true
	if altHelper == "" {
		altHelper = "_l"
	}
	if altGen == nil {
		altGen = g.genElement
	}
	return altHelper + "((" + el.For + ")," +
		"function(" + el.Alias + iterators + "){" +
		"return " + altGen(el) +
		"})"
}

func (g *codegen) genData(el *Element) string {
	var b strings.Builder
	b.WriteByte('{')

	if dirs := g.genDirectives(el); dirs != "" {
		b.WriteString(dirs + ",")
	}
	if el.Key != "" {
		b.WriteString("key:" + el.Key + ",")
	}
	if el.Ref != "" {
		b.WriteString("ref:" + el.Ref + ",")
	}
	if el.RefInFor {
		b.WriteString("refInFor:true,")
	}
	if el.Pre {
		b.WriteString("pre:true,")
	}
	if el.Component != "" {
		b.WriteString(`tag:"` + el.Tag + `",`)
	}
	for _, m := range g.modules {
		if m.GenData != nil {
			b.WriteString(m.GenData(el))
		}
	}
	if len(el.Attrs) > 0 {
		b.WriteString("attrs:" + genProps(el.Attrs) + ",")
	}
	if len(el.Props) > 0 {
		b.WriteString("domProps:" + genProps(el.Props) + ",")
	}
	if el.Events != nil {
		b.WriteString(genHandlers(el.Events, false) + ",")
	}
	if el.NativeEvents != nil {
		b.WriteString(genHandlers(el.NativeEvents, true) + ",")
	}
	if el.SlotTarget != "" && el.SlotScope == "" {
		b.WriteString("slot:" + el.SlotTarget + ",")
	}
	if len(el.ScopedSlots) > 0 {
		b.WriteString(g.genScopedSlots(el) + ",")
	}
	if el.Model != nil {
		b.WriteString("model:{value:" + el.Model.Value +
			",callback:" + el.Model.Callback +
			",expression:" + el.Model.Expression + "},")
	}
	if el.InlineTemplate {
		if it := g.genInlineTemplate(el); it != "" {
			b.WriteString(it + ",")
		}
	}

	data := strings.TrimSuffix(b.String(), ",") + "}"
	if len(el.DynamicAttrs) > 0 {
		data = "_b(" + data + `,"` + el.Tag + `",` + genProps(el.DynamicAttrs) + ")"
	}
	if el.wrapData != nil {
		data = el.wrapData(data)
	}
	if el.wrapListeners != nil {
		data = el.wrapListeners(data)
	}
	return data
}

func (g *codegen) genDirectives(el *Element) string {
	if len(el.Directives) == 0 {
		return ""
	}
	var parts []string
	for _, dir := range el.Directives {
		needRuntime := true
		if gen, ok := g.directives[dir.Name]; ok {
			needRuntime = gen(el, dir, g.warn)
		}
		if !needRuntime {
			continue
		}
		s := `{name:"` + dir.Name + `",rawName:"` + dir.RawName + `"`
		if dir.Value != "" {
			s += ",value:(" + dir.Value + "),expression:" + jsString(dir.Value)
		}
		if dir.Arg != "" {
			if dir.DynamicArg {
				s += ",arg:" + dir.Arg
			} else {
				s += `,arg:"` + dir.Arg + `"`
			}
		}
		if dir.Modifiers != nil {
			mods := make([]string, len(dir.Modifiers))
			for i, m := range dir.Modifiers {
				mods[i] = jsString(m) + ":true"
			}
			s += ",modifiers:{" + strings.Join(mods, ",") + "}"
		}
		parts = append(parts, s+"}")
	}
	if len(parts) == 0 {
		return ""
	}
	return "directives:[" + strings.Join(parts, ",") + "]"
}

func (g *codegen) genInlineTemplate(el *Element) string {
	elems := el.elementChildren()
	if len(el.Children) != 1 || len(elems) != 1 {
		g.warn("Inline-template components must have exactly one child element.")
	}
	if len(elems) == 0 {
		return ""
	}
	inner := newCodegen(g.opts, g.modules)
	render := inner.generate(elems[0])
	g.errors = append(g.errors, inner.errors...)
	g.tips = append(g.tips, inner.tips...)

	fns := make([]string, len(inner.staticRenderFns))
	for i, code := range inner.staticRenderFns {
		fns[i] = "function(){" + code + "}"
	}
	return "inlineTemplate:{render:function(){" + render + "},staticRenderFns:[" + strings.Join(fns, ",") + "]}"
}

func (g *codegen) genScopedSlots(el *Element) string {
	needsForceUpdate := el.For != ""
	if !needsForceUpdate {
		for _, slot := range el.ScopedSlots {
			if slot.SlotDynamic || slot.If != "" || slot.For != "" || containsSlotChild(slot) {
				needsForceUpdate = true
				break
			}
		}
	}
	needsKey := el.If != ""
	if !needsForceUpdate {
		for p := el.Parent; p != nil; p = p.Parent {
			if (p.SlotScope != "" && p.SlotScope != emptySlotScopeToken) || p.For != "" {
				needsForceUpdate = true
				break
			}
			if p.If != "" {
				needsKey = true
			}
		}
	}

	slots := make([]string, len(el.ScopedSlots))
	for i, slot := range el.ScopedSlots {
		slots[i] = g.genScopedSlot(slot)
	}
	generated := strings.Join(slots, ",")

	code := "scopedSlots:_u([" + generated + "]"
	switch {
	case needsForceUpdate:
		code += ",null,true"
	case needsKey:
		code += ",null,false," + strconv.FormatUint(uint64(hashString(generated)), 10)
	}
	return code + ")"
}

// hashString is the djb2-xor hash used to key conditional slot content.
func hashString(s string) uint32 {
	h := int32(5381)
	units := utf16.Encode([]rune(s))
	for i := len(units) - 1; i >= 0; i-- {
		h = int32(int64(h)*33) ^ int32(units[i])
	}
	return uint32(h)
}

func containsSlotChild(el *Element) bool {
	if el.Tag == "slot" {
		return true
	}
	for _, c := range el.Children {
		if ce, ok := c.(*Element); ok && containsSlotChild(ce) {
			return true
		}
	}
	return false
}

func (g *codegen) genScopedSlot(el *Element) string {
	_, legacy := el.AttrsMap["slot-scope"]
	if el.If != "" && !el.ifProcessed && !legacy {
		return g.genIf(el, g.genScopedSlot, "null")
	}
	if el.For != "" && !el.forProcessed {
		return g.genFor(el, g.genScopedSlot, "")
	}

	scope := el.SlotScope
	if scope == emptySlotScopeToken {
		scope = ""
	}

	var body string
	if el.Tag == "template" {
		children := g.genChildren(el, false, nil, nil)
		if children == "" {
			children = "undefined"
		}
		if el.If != "" && legacy {
			body = "(" + el.If + ")?" + children + ":undefined"
		} else {
			body = children
		}
	} else {
		body = g.genElement(el)
	}

	target := el.SlotTarget
	if target == "" {
		target = `"default"`
	}
	code := "{key:" + target + ",fn:function(" + scope + "){return " + body + "}"
	if scope == "" {
		code += ",proxy:true"
	}
	return code + "}"
}

// genChildren emits the children array. With checkSkip the normalization
// hint for the runtime is appended.
func (g *codegen) genChildren(el *Element, checkSkip bool, altGenElement genFunc, altGenNode func(Node) string) string {
	children := el.Children
	if len(children) == 0 {
		return ""
	}

	if first, ok := children[0].(*Element); ok && len(children) == 1 &&
		first.For != "" && first.Tag != "template" && first.Tag != "slot" {
		norm := ""
		if checkSkip {
			norm = ",0"
			if maybeComponent(first) {
				norm = ",1"
			}
		}
		gen := altGenElement
		if gen == nil {
			gen = g.genElement
		}
		return gen(first) + norm
	}

	gen := altGenNode
	if gen == nil {
		gen = g.genNode
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = gen(c)
	}
	code := "[" + strings.Join(parts, ",") + "]"
	if checkSkip {
		if n := normalizationType(children); n != 0 {
			code += "," + strconv.Itoa(n)
		}
	}
	return code
}

func normalizationType(children []Node) int {
	res := 0
	for _, c := range children {
		el, ok := c.(*Element)
		if !ok {
			continue
		}
		if needsNormalization(el) || anyIfBlock(el, needsNormalization) {
			return 2
		}
		if maybeComponent(el) || anyIfBlock(el, maybeComponent) {
			res = 1
		}
	}
	return res
}

func anyIfBlock(el *Element, pred func(*Element) bool) bool {
	for _, c := range el.IfConditions {
		if pred(c.Block) {
			return true
		}
	}
	return false
}

func needsNormalization(el *Element) bool {
	return el.For != "" || el.Tag == "template" || el.Tag == "slot"
}

func (g *codegen) genNode(n Node) string {
	switch v := n.(type) {
	case *Element:
		return g.genElement(v)
	case *Text:
		if v.IsComment {
			return genComment(v)
		}
		return genText(v)
	}
	return ""
}

func genText(t *Text) string {
	if t.Expression != "" {
		return "_v(" + t.Expression + ")"
	}
	return "_v(" + transformSpecialNewlines(jsString(t.Text)) + ")"
}

func genComment(t *Text) string {
	return "_e(" + jsString(t.Text) + ")"
}

func (g *codegen) genSlot(el *Element) string {
	name := el.SlotName
	if name == "" {
		name = `"default"`
	}
	children := g.genChildren(el, false, nil, nil)
	code := "_t(" + name
	if children != "" {
		code += ",function(){return " + children + "}"
	}

	var attrs string
	if len(el.Attrs) > 0 || len(el.DynamicAttrs) > 0 {
		all := make([]*Attr, 0, len(el.Attrs)+len(el.DynamicAttrs))
		for _, a := range append(append([]*Attr(nil), el.Attrs...), el.DynamicAttrs...) {
			all = append(all, &Attr{Name: camelize(a.Name), Value: a.Value, Dynamic: a.Dynamic})
		}
		attrs = genProps(all)
	}
	bind, hasBind := el.AttrsMap["v-bind"]

	if (attrs != "" || hasBind) && children == "" {
		code += ",null"
	}
	if attrs != "" {
		code += "," + attrs
	}
	if hasBind {
		if attrs == "" {
			code += ",null"
		}
		code += "," + bind
	}
	return code + ")"
}

func (g *codegen) genComponent(name string, el *Element) string {
	var children string
	if !el.InlineTemplate {
		children = g.genChildren(el, true, nil, nil)
	}
	code := "_c(" + name + "," + g.genData(el)
	if children != "" {
		code += "," + children
	}
	return code + ")"
}

func genProps(props []*Attr) string {
	var static, dynamic []string
	for _, p := range props {
		value := transformSpecialNewlines(p.Value)
		if p.Dynamic {
			dynamic = append(dynamic, p.Name+","+value)
		} else {
			static = append(static, `"`+p.Name+`":`+value)
		}
	}
	staticCode := "{" + strings.Join(static, ",") + "}"
	if len(dynamic) > 0 {
		return "_d(" + staticCode + ",[" + strings.Join(dynamic, ",") + "])"
	}
	return staticCode
}
