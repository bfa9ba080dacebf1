package compiler

import (
	"regexp"
	"strings"
)

// NodeType distinguishes AST nodes.
type NodeType int

const (
	ElementNode    NodeType = 1
	ExpressionNode NodeType = 2
	TextNode       NodeType = 3
)

// Node is an element or a text node.
type Node interface {
	Type() NodeType
}

// RawAttr is an attribute exactly as written in the template.
type RawAttr struct {
	Name  string
	Value string
}

// Attr is a processed attribute or DOM prop. Value is a JS expression.
type Attr struct {
	Name    string
	Value   string
	Dynamic bool
}

// Directive is a v-* directive that survived processing.
type Directive struct {
	Name       string
	RawName    string
	Value      string
	Arg        string
	DynamicArg bool
	Modifiers  []string
}

// Handler is one v-on handler.
type Handler struct {
	Value   string
	Dynamic bool
	// Modifiers is nil when the binding had none. A non-nil empty slice
	// means modifiers were given and consumed (for example .native).
	Modifiers []string
}

// Events keeps handlers grouped by event name in insertion order.
type Events struct {
	names    []string
	handlers map[string][]*Handler
}

// Names returns the event names in insertion order.
func (e *Events) Names() []string {
	if e == nil {
		return nil
	}
	return e.names
}

// Get returns the handlers bound to name.
func (e *Events) Get(name string) []*Handler {
	if e == nil {
		return nil
	}
	return e.handlers[name]
}

func (e *Events) add(name string, h *Handler, important bool) {
	if e.handlers == nil {
		e.handlers = make(map[string][]*Handler)
	}
	existing, ok := e.handlers[name]
	if !ok {
		e.names = append(e.names, name)
	}
	if important {
		e.handlers[name] = append([]*Handler{h}, existing...)
	} else {
		e.handlers[name] = append(existing, h)
	}
}

// IfCondition is one branch of a v-if chain.
type IfCondition struct {
	Exp   string
	Block *Element
}

// Model is the component v-model binding.
type Model struct {
	Value      string
	Callback   string
	Expression string
}

// SSR optimizability levels.
const (
	ssrUnset = iota
	ssrFalse
	ssrFull
	ssrSelf
	ssrChildren
	ssrPartial
)

// Element is an element node.
type Element struct {
	Tag       string
	AttrsList []RawAttr
	AttrsMap  map[string]string
	Parent    *Element
	Children  []Node

	Attrs        []*Attr
	DynamicAttrs []*Attr
	Props        []*Attr
	Directives   []*Directive
	Events       *Events
	NativeEvents *Events

	Key      string
	Ref      string
	RefInFor bool

	For       string
	Alias     string
	Iterator1 string
	Iterator2 string

	If           string
	ElseIf       string
	HasElseIf    bool
	Else         bool
	IfConditions []IfCondition

	Once      bool
	Pre       bool
	Plain     bool
	Forbidden bool

	Component      string
	InlineTemplate bool
	SlotName       string
	SlotTarget     string
	SlotDynamic    bool
	SlotScope      string
	ScopedSlots    []*Element

	StaticClass  string
	ClassBinding string
	StaticStyle  string
	StyleBinding string

	Model       *Model
	HasBindings bool

	// optimizer output
	Static      bool
	StaticRoot  bool
	StaticInFor bool

	// rawAttrs keeps the template attributes in source order.
	rawAttrs []RawAttr

	wrapData      func(code string) string
	wrapListeners func(code string) string

	staticProcessed bool
	onceProcessed   bool
	forProcessed    bool
	ifProcessed     bool
	ssr             int
	processed       bool
}

// Type implements Node.
func (el *Element) Type() NodeType { return ElementNode }

// Text is a text, interpolation or comment node.
type Text struct {
	Text       string
	Expression string
	IsComment  bool
	Static     bool
}

// Type implements Node.
func (t *Text) Type() NodeType {
	if t.Expression != "" {
		return ExpressionNode
	}
	return TextNode
}

func newElement(tag string, attrs []RawAttr, parent *Element) *Element {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name] = a.Value
	}
	return &Element{
		Tag:       tag,
		AttrsList: append([]RawAttr(nil), attrs...),
		AttrsMap:  m,
		Parent:    parent,
		rawAttrs:  attrs,
	}
}

// getAndRemoveAttrByRegex removes the first pending attribute whose name
// matches re.
func (el *Element) getAndRemoveAttrByRegex(re *regexp.Regexp) (RawAttr, bool) {
	for i, a := range el.AttrsList {
		if re.MatchString(a.Name) {
			el.AttrsList = append(el.AttrsList[:i:i], el.AttrsList[i+1:]...)
			return a, true
		}
	}
	return RawAttr{}, false
}

// HasAttr reports whether the raw attribute was present in the template.
func (el *Element) HasAttr(name string) bool {
	_, ok := el.AttrsMap[name]
	return ok
}

// GetAndRemoveAttr removes name from the pending attribute list and returns
// its raw value. The attribute stays visible in AttrsMap.
func (el *Element) GetAndRemoveAttr(name string) (string, bool) {
	val, ok := el.AttrsMap[name]
	if !ok {
		return "", false
	}
	for i, a := range el.AttrsList {
		if a.Name == name {
			el.AttrsList = append(el.AttrsList[:i:i], el.AttrsList[i+1:]...)
			break
		}
	}
	return val, true
}

// GetBindingAttr returns the expression bound to name through :name or
// v-bind:name. With getStatic, a plain name="x" is returned as a JS string.
func (el *Element) GetBindingAttr(name string, getStatic bool) (string, bool) {
	if v, ok := el.GetAndRemoveAttr(":" + name); ok {
		return parseFilters(v), true
	}
	if v, ok := el.GetAndRemoveAttr("v-bind:" + name); ok {
		return parseFilters(v), true
	}
	if getStatic {
		if v, ok := el.GetAndRemoveAttr(name); ok {
			return jsString(v), true
		}
	}
	return "", false
}

// AddAttr appends a processed attribute.
func (el *Element) AddAttr(name, value string, dynamic bool) {
	if dynamic {
		el.DynamicAttrs = append(el.DynamicAttrs, &Attr{Name: name, Value: value, Dynamic: true})
	} else {
		el.Attrs = append(el.Attrs, &Attr{Name: name, Value: value})
	}
	el.Plain = false
}

// AddProp appends a DOM prop.
func (el *Element) AddProp(name, value string, dynamic bool) {
	el.Props = append(el.Props, &Attr{Name: name, Value: value, Dynamic: dynamic})
	el.Plain = false
}

// AddDirective appends a runtime directive.
func (el *Element) AddDirective(d *Directive) {
	el.Directives = append(el.Directives, d)
	el.Plain = false
}

// AddHandler registers an event handler, folding the capture, once and
// passive modifiers into the event name.
func (el *Element) AddHandler(name, value string, modifiers []string, important bool, warn WarnFunc, dynamic bool) {
	if warn != nil && hasModifier(modifiers, "prevent") && hasModifier(modifiers, "passive") {
		warn("passive and prevent modifiers cannot be used together. Passive handler cannot prevent default event.")
	}

	if hasModifier(modifiers, "right") {
		if dynamic {
			name = "(" + name + ")==='click'?'contextmenu':(" + name + ")"
		} else if name == "click" {
			name = "contextmenu"
			modifiers = withoutModifier(modifiers, "right")
		}
	} else if hasModifier(modifiers, "middle") {
		if dynamic {
			name = "(" + name + ")==='click'?'mouseup':(" + name + ")"
		} else if name == "click" {
			name = "mouseup"
		}
	}

	if hasModifier(modifiers, "capture") {
		modifiers = withoutModifier(modifiers, "capture")
		name = prependMarker("!", name, dynamic)
	}
	if hasModifier(modifiers, "once") {
		modifiers = withoutModifier(modifiers, "once")
		name = prependMarker("~", name, dynamic)
	}
	if hasModifier(modifiers, "passive") {
		modifiers = withoutModifier(modifiers, "passive")
		name = prependMarker("&", name, dynamic)
	}

	var events **Events
	if hasModifier(modifiers, "native") {
		modifiers = withoutModifier(modifiers, "native")
		events = &el.NativeEvents
	} else {
		events = &el.Events
	}
	if *events == nil {
		*events = &Events{}
	}

	(*events).add(name, &Handler{
		Value:     strings.TrimSpace(value),
		Dynamic:   dynamic,
		Modifiers: modifiers,
	}, important)
	el.Plain = false
}

func prependMarker(symbol, name string, dynamic bool) string {
	if dynamic {
		return "_p(" + name + `,"` + symbol + `")`
	}
	return symbol + name
}

func hasModifier(modifiers []string, name string) bool {
	for _, m := range modifiers {
		if m == name {
			return true
		}
	}
	return false
}

func withoutModifier(modifiers []string, name string) []string {
	out := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		if m != name {
			out = append(out, m)
		}
	}
	return out
}

func (el *Element) elementChildren() []*Element {
	var out []*Element
	for _, c := range el.Children {
		if e, ok := c.(*Element); ok {
			out = append(out, e)
		}
	}
	return out
}
