package compiler

import "strings"

const rangeToken = "__r"

// genAssignmentCode produces code assigning assignment to the v-model
// expression value, going through $set for member access.
func genAssignmentCode(value, assignment string) string {
	exp, key, ok := parseModel(value)
	if !ok {
		return value + "=" + assignment
	}
	return "$set(" + exp + ", " + key + ", " + assignment + ")"
}

// parseModel splits a model expression into its object and key. ok is false
// for a bare identifier.
//
//	a.b      -> a, "b"
//	a[b][c]  -> a[b], c
//	a["x"]   -> a, "x"
func parseModel(val string) (exp, key string, ok bool) {
	val = strings.TrimSpace(val)
	n := len(val)

	if !strings.Contains(val, "[") || strings.LastIndexByte(val, ']') < n-1 {
		if i := strings.LastIndexByte(val, '.'); i > -1 {
			return val[:i], `"` + val[i+1:] + `"`, true
		}
		return val, "", false
	}

	index, expressionPos, expressionEndPos := 0, 0, 0
	next := func() byte {
		index++
		return at(val, index)
	}
	eof := func() bool { return index >= n }
	parseString := func(quote byte) {
		for !eof() {
			if next() == quote {
				break
			}
		}
	}

	for !eof() {
		chr := next()
		if chr == '"' || chr == '\'' {
			parseString(chr)
			continue
		}
		if chr != '[' {
			continue
		}
		inBracket := 1
		expressionPos = index
		for !eof() {
			c := next()
			if c == '"' || c == '\'' {
				parseString(c)
				continue
			}
			if c == '[' {
				inBracket++
			}
			if c == ']' {
				inBracket--
			}
			if inBracket == 0 {
				expressionEndPos = index
				break
			}
		}
	}

	if expressionEndPos <= expressionPos {
		return val, "", false
	}
	return val[:expressionPos], val[expressionPos+1 : expressionEndPos], true
}

func builtInDirectives() map[string]DirectiveFunc {
	return map[string]DirectiveFunc{
		"model": modelDirective,
		"text":  textDirective,
		"html":  htmlDirective,
		"on":    onDirective,
		"bind":  bindDirective,
		"cloak": func(*Element, *Directive, WarnFunc) bool { return false },
	}
}

func textDirective(el *Element, dir *Directive, _ WarnFunc) bool {
	if dir.Value != "" {
		el.AddProp("textContent", "_s("+dir.Value+")", false)
	}
	return false
}

func htmlDirective(el *Element, dir *Directive, _ WarnFunc) bool {
	if dir.Value != "" {
		el.AddProp("innerHTML", "_s("+dir.Value+")", false)
	}
	return false
}

func onDirective(el *Element, dir *Directive, warn WarnFunc) bool {
	if dir.Modifiers != nil {
		warn("v-on without argument does not support modifiers.")
	}
	el.wrapListeners = func(code string) string {
		return "_g(" + code + "," + dir.Value + ")"
	}
	return false
}

func bindDirective(el *Element, dir *Directive, _ WarnFunc) bool {
	el.wrapData = func(code string) string {
		prop := "false"
		if hasModifier(dir.Modifiers, "prop") {
			prop = "true"
		}
		sync := ""
		if hasModifier(dir.Modifiers, "sync") {
			sync = ",true"
		}
		return "_b(" + code + ",'" + el.Tag + "'," + dir.Value + "," + prop + sync + ")"
	}
	return false
}

func modelDirective(el *Element, dir *Directive, warn WarnFunc) bool {
	value := dir.Value
	mods := dir.Modifiers
	tag := el.Tag
	typ := el.AttrsMap["type"]

	if tag == "input" && typ == "file" {
		warn("<" + tag + ` v-model="` + value + `" type="file">:` + "\n" +
			"File inputs are read only. Use a v-on:change listener instead.")
	}

	switch {
	case el.Component != "":
		genComponentModel(el, value, mods)
		return false
	case tag == "select":
		genSelect(el, value, mods)
	case tag == "input" && typ == "checkbox":
		genCheckboxModel(el, value, mods)
	case tag == "input" && typ == "radio":
		genRadioModel(el, value, mods)
	case tag == "input" || tag == "textarea":
		genDefaultModel(el, value, mods, warn)
	case !IsReservedTag(tag):
		genComponentModel(el, value, mods)
		return false
	default:
		warn("<" + tag + ` v-model="` + value + `">: ` +
			"v-model is not supported on this element type. " +
			"If you are working with contenteditable, it's recommended to " +
			"wrap a library dedicated for that purpose inside a custom component.")
	}
	return true
}

func genComponentModel(el *Element, value string, mods []string) {
	valueExpression := "$$v"
	if hasModifier(mods, "trim") {
		valueExpression = "(typeof $$v === 'string'? $$v.trim(): $$v)"
	}
	if hasModifier(mods, "number") {
		valueExpression = "_n(" + valueExpression + ")"
	}
	el.Model = &Model{
		Value:      "(" + value + ")",
		Expression: jsString(value),
		Callback:   "function ($$v) {" + genAssignmentCode(value, valueExpression) + "}",
	}
}

func bindingOr(el *Element, name, def string) string {
	if v, ok := el.GetBindingAttr(name, true); ok && v != "" {
		return v
	}
	return def
}

func genCheckboxModel(el *Element, value string, mods []string) {
	valueBinding := bindingOr(el, "value", "null")
	trueValueBinding := bindingOr(el, "true-value", "true")
	falseValueBinding := bindingOr(el, "false-value", "false")

	checked := "Array.isArray(" + value + ")?_i(" + value + "," + valueBinding + ")>-1"
	if trueValueBinding == "true" {
		checked += ":(" + value + ")"
	} else {
		checked += ":_q(" + value + "," + trueValueBinding + ")"
	}
	el.AddProp("checked", checked, false)

	v := valueBinding
	if hasModifier(mods, "number") {
		v = "_n(" + valueBinding + ")"
	}
	el.AddHandler("change",
		"var $$a="+value+","+
			"$$el=$event.target,"+
			"$$c=$$el.checked?("+trueValueBinding+"):("+falseValueBinding+");"+
			"if(Array.isArray($$a)){"+
			"var $$v="+v+","+
			"$$i=_i($$a,$$v);"+
			"if($$el.checked){$$i<0&&("+genAssignmentCode(value, "$$a.concat([$$v])")+")}"+
			"else{$$i>-1&&("+genAssignmentCode(value, "$$a.slice(0,$$i).concat($$a.slice($$i+1))")+")}"+
			"}else{"+genAssignmentCode(value, "$$c")+"}",
		nil, true, nil, false)
}

func genRadioModel(el *Element, value string, mods []string) {
	valueBinding := bindingOr(el, "value", "null")
	if hasModifier(mods, "number") {
		valueBinding = "_n(" + valueBinding + ")"
	}
	el.AddProp("checked", "_q("+value+","+valueBinding+")", false)
	el.AddHandler("change", genAssignmentCode(value, valueBinding), nil, true, nil, false)
}

func genSelect(el *Element, value string, mods []string) {
	val := "val"
	if hasModifier(mods, "number") {
		val = "_n(val)"
	}
	selectedVal := "Array.prototype.filter" +
		".call($event.target.options,function(o){return o.selected})" +
		`.map(function(o){var val = "_value" in o ? o._value : o.value;` +
		"return " + val + "})"
	assignment := "$event.target.multiple ? $$selectedVal : $$selectedVal[0]"
	code := "var $$selectedVal = " + selectedVal + "; " + genAssignmentCode(value, assignment)
	el.AddHandler("change", code, nil, true, nil, false)
}

func genDefaultModel(el *Element, value string, mods []string, warn WarnFunc) {
	typ := el.AttrsMap["type"]

	bound, hasBound := el.AttrsMap["v-bind:value"]
	binding := "v-bind:value"
	if !hasBound {
		bound, hasBound = el.AttrsMap[":value"]
		binding = ":value"
	}
	if hasBound && bound != "" && !el.HasAttr("v-bind:type") && !el.HasAttr(":type") {
		warn(binding + `="` + bound + `" conflicts with v-model on the same element ` +
			"because the latter already expands to a value binding internally")
	}

	lazy := hasModifier(mods, "lazy")
	number := hasModifier(mods, "number")
	trim := hasModifier(mods, "trim")

	event := "input"
	if lazy {
		event = "change"
	} else if typ == "range" {
		event = rangeToken
	}

	valueExpression := "$event.target.value"
	if trim {
		valueExpression = "$event.target.value.trim()"
	}
	if number {
		valueExpression = "_n(" + valueExpression + ")"
	}

	code := genAssignmentCode(value, valueExpression)
	if !lazy && typ != "range" {
		code = "if($event.target.composing)return;" + code
	}

	el.AddProp("value", "("+value+")", false)
	el.AddHandler(event, code, nil, true, nil, false)
	if trim || number {
		el.AddHandler("blur", "$forceUpdate()", nil, false, nil, false)
	}
}
