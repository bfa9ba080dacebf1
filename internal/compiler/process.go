package compiler

import (
	"regexp"
	"strings"
)

const emptySlotScopeToken = "_empty_"

var (
	dirRE         = regexp.MustCompile(`^v-|^@|^:|^#`)
	bindRE        = regexp.MustCompile(`^:|^\.|^v-bind:`)
	onRE          = regexp.MustCompile(`^@|^v-on:`)
	forAliasRE    = regexp.MustCompile(`([\s\S]*?)\s+(?:in|of)\s+([\s\S]*)`)
	forIteratorRE = regexp.MustCompile(`,([^,\}\]]*)(?:,([^,\}\]]*))?$`)
	stripParensRE = regexp.MustCompile(`^\(|\)$`)
	dynamicArgRE  = regexp.MustCompile(`^\[.*\]$`)
	argRE         = regexp.MustCompile(`:(.*)$`)
	slotRE        = regexp.MustCompile(`^v-slot(:|$)|^#`)
)

func (p *parser) processFor(el *Element) {
	exp, ok := el.GetAndRemoveAttr("v-for")
	if !ok {
		return
	}
	m := forAliasRE.FindStringSubmatch(exp)
	if m == nil {
		p.warn("Invalid v-for expression: " + exp)
		return
	}
	el.For = strings.TrimSpace(m[2])

	alias := stripParensRE.ReplaceAllString(strings.TrimSpace(m[1]), "")
	if im := forIteratorRE.FindStringSubmatchIndex(alias); im != nil {
		el.Iterator1 = strings.TrimSpace(alias[im[2]:im[3]])
		if im[4] >= 0 {
			el.Iterator2 = strings.TrimSpace(alias[im[4]:im[5]])
		}
		alias = alias[:im[0]]
	}
	el.Alias = strings.TrimSpace(alias)
}

func processIf(el *Element) {
	if exp, ok := el.GetAndRemoveAttr("v-if"); ok && exp != "" {
		el.If = exp
		addIfCondition(el, exp, el)
		return
	}
	if _, ok := el.GetAndRemoveAttr("v-else"); ok {
		el.Else = true
	}
	if exp, ok := el.GetAndRemoveAttr("v-else-if"); ok {
		el.ElseIf = exp
		el.HasElseIf = true
	}
}

func (p *parser) processElement(el *Element) {
	p.processKey(el)
	el.Plain = el.Key == "" && len(el.ScopedSlots) == 0 && len(el.AttrsList) == 0

	processRef(el)
	p.processSlotContent(el)
	p.processSlotOutlet(el)
	processComponent(el)
	for _, m := range p.modules {
		if m.TransformNode != nil {
			m.TransformNode(el, p.warn)
		}
	}
	p.processAttrs(el)
	el.processed = true
}

func (p *parser) processKey(el *Element) {
	exp, ok := el.GetBindingAttr("key", true)
	if !ok || exp == "" {
		return
	}
	if el.Tag == "template" {
		p.warn("<template> cannot be keyed. Place the key on real elements instead.")
	}
	el.Key = exp
}

func processRef(el *Element) {
	ref, ok := el.GetBindingAttr("ref", true)
	if !ok || ref == "" {
		return
	}
	el.Ref = ref
	for e := el; e != nil; e = e.Parent {
		if e.For != "" {
			el.RefInFor = true
			break
		}
	}
}

func (p *parser) processSlotContent(el *Element) {
	if el.Tag == "template" {
		scope, ok := el.GetAndRemoveAttr("scope")
		if ok && scope != "" {
			p.tip(`the "scope" attribute for scoped slots have been deprecated and ` +
				`replaced by "slot-scope" since 2.5. The new "slot-scope" attribute ` +
				`can also be used on plain elements in addition to <template> to ` +
				`denote scoped slots.`)
			el.SlotScope = scope
		} else {
			el.SlotScope, _ = el.GetAndRemoveAttr("slot-scope")
		}
	} else if scope, ok := el.GetAndRemoveAttr("slot-scope"); ok && scope != "" {
		if el.HasAttr("v-for") {
			p.tip("Ambiguous combined usage of slot-scope and v-for on <" + el.Tag + "> " +
				"(v-for takes higher priority). Use a wrapper <template> for the " +
				"scoped slot to make it clearer.")
		}
		el.SlotScope = scope
	}

	if target, ok := el.GetBindingAttr("slot", true); ok && target != "" {
		if target == `""` {
			el.SlotTarget = `"default"`
		} else {
			el.SlotTarget = target
		}
		el.SlotDynamic = el.HasAttr(":slot") || el.HasAttr("v-bind:slot")
		if el.Tag != "template" && el.SlotScope == "" {
			el.AddAttr("slot", target, false)
		}
	}

	binding, ok := el.getAndRemoveAttrByRegex(slotRE)
	if !ok {
		return
	}
	if el.Tag == "template" {
		if el.SlotTarget != "" || el.SlotScope != "" {
			p.warn("Unexpected mixed usage of different slot syntaxes.")
		}
		if el.Parent != nil && !maybeComponent(el.Parent) {
			p.warn("<template v-slot> can only appear at the root level inside the receiving component")
		}
		el.SlotTarget, el.SlotDynamic = p.slotName(binding)
		el.SlotScope = orDefault(binding.Value, emptySlotScopeToken)
		return
	}

	if !maybeComponent(el) {
		p.warn("v-slot can only be used on components or <template>.")
	}
	if el.SlotScope != "" || el.SlotTarget != "" {
		p.warn("Unexpected mixed usage of different slot syntaxes.")
	}
	if len(el.ScopedSlots) > 0 {
		p.warn("To avoid scope ambiguity, the default slot should also use " +
			"<template> syntax when there are other named slots.")
	}
	container := newElement("template", nil, el)
	container.SlotTarget, container.SlotDynamic = p.slotName(binding)
	for _, c := range el.Children {
		if ce, ok := c.(*Element); ok {
			if ce.SlotScope != "" {
				continue
			}
			ce.Parent = container
		}
		container.Children = append(container.Children, c)
	}
	container.SlotScope = orDefault(binding.Value, emptySlotScopeToken)
	el.addScopedSlot(container)
	el.Children = nil
	el.Plain = false
}

func (p *parser) slotName(binding RawAttr) (string, bool) {
	name := slotRE.ReplaceAllString(binding.Name, "")
	if name == "" {
		if !strings.HasPrefix(binding.Name, "#") {
			name = "default"
		} else {
			p.warn("v-slot shorthand syntax requires a slot name.")
		}
	}
	if dynamicArgRE.MatchString(name) {
		return name[1 : len(name)-1], true
	}
	return `"` + name + `"`, false
}

func (p *parser) processSlotOutlet(el *Element) {
	if el.Tag != "slot" {
		return
	}
	el.SlotName, _ = el.GetBindingAttr("name", true)
	if el.Key != "" {
		p.warn("`key` does not work on <slot> because slots are abstract outlets " +
			"and can possibly expand into multiple elements. " +
			"Use the key on a wrapping element instead.")
	}
}

func processComponent(el *Element) {
	if binding, ok := el.GetBindingAttr("is", true); ok && binding != "" {
		el.Component = binding
	}
	if _, ok := el.GetAndRemoveAttr("inline-template"); ok {
		el.InlineTemplate = true
	}
}

// parseModifiers splits "click.stop.prevent" into its modifiers. Dots inside
// a dynamic argument are not modifiers.
func parseModifiers(name string) (string, []string) {
	start := strings.LastIndexByte(name, ']') + 1
	dot := strings.IndexByte(name[start:], '.')
	if dot < 0 {
		return name, nil
	}
	dot += start
	var mods []string
	for _, m := range strings.Split(name[dot+1:], ".") {
		if m != "" {
			mods = append(mods, m)
		}
	}
	if mods == nil {
		return name, nil
	}
	return name[:dot], mods
}

func (p *parser) processAttrs(el *Element) {
	for _, attr := range el.AttrsList {
		name, rawName, value := attr.Name, attr.Name, attr.Value

		if !dirRE.MatchString(name) {
			if _, ok := parseText(value); ok {
				p.warn(name + `="` + value + `": ` +
					"Interpolation inside attributes has been removed. " +
					"Use v-bind or the colon shorthand instead. For example, " +
					`instead of <div id="{{ val }}">, use <div :id="val">.`)
			}
			el.AddAttr(name, jsString(value), false)
			if el.Component == "" && name == "muted" && mustUseProp(el.Tag, el.AttrsMap["type"], name) {
				el.AddProp(name, "true", false)
			}
			continue
		}

		el.HasBindings = true
		name, modifiers := parseModifiers(name)

		switch {
		case bindRE.MatchString(name):
			name = bindRE.ReplaceAllString(name, "")
			value = parseFilters(value)
			dynamic := dynamicArgRE.MatchString(name)
			if dynamic {
				name = name[1 : len(name)-1]
			}
			if strings.TrimSpace(value) == "" {
				p.warn(`The value for a v-bind expression cannot be empty. Found in "v-bind:` + name + `"`)
			}
			if hasModifier(modifiers, "prop") && !dynamic {
				name = camelize(name)
				if name == "innerHtml" {
					name = "innerHTML"
				}
			}
			if hasModifier(modifiers, "camel") && !dynamic {
				name = camelize(name)
			}
			if hasModifier(modifiers, "sync") {
				syncGen := genAssignmentCode(value, "$event")
				if !dynamic {
					el.AddHandler("update:"+camelize(name), syncGen, nil, false, p.warn, false)
					if hyphenate(name) != camelize(name) {
						el.AddHandler("update:"+hyphenate(name), syncGen, nil, false, p.warn, false)
					}
				} else {
					el.AddHandler(`"update:"+(`+name+")", syncGen, nil, false, p.warn, true)
				}
			}
			if hasModifier(modifiers, "prop") || (el.Component == "" && mustUseProp(el.Tag, el.AttrsMap["type"], name)) {
				el.AddProp(name, value, dynamic)
			} else {
				el.AddAttr(name, value, dynamic)
			}

		case onRE.MatchString(name):
			name = onRE.ReplaceAllString(name, "")
			dynamic := dynamicArgRE.MatchString(name)
			if dynamic {
				name = name[1 : len(name)-1]
			}
			el.AddHandler(name, value, modifiers, false, p.warn, dynamic)

		default:
			name = dirRE.ReplaceAllString(name, "")
			var arg string
			dynamic := false
			if m := argRE.FindStringSubmatch(name); m != nil && m[1] != "" {
				arg = m[1]
				name = name[:len(name)-len(arg)-1]
				if dynamicArgRE.MatchString(arg) {
					arg = arg[1 : len(arg)-1]
					dynamic = true
				}
			}
			el.AddDirective(&Directive{
				Name:       name,
				RawName:    rawName,
				Value:      value,
				Arg:        arg,
				DynamicArg: dynamic,
				Modifiers:  modifiers,
			})
			if name == "model" {
				p.checkForAliasModel(el, value)
			}
		}
	}
}

func (p *parser) checkForAliasModel(el *Element, value string) {
	for e := el; e != nil; e = e.Parent {
		if e.For != "" && e.Alias == value {
			p.warn("<" + el.Tag + ` v-model="` + value + `">: ` +
				"You are binding v-model directly to a v-for iteration alias. " +
				"This will not be able to modify the v-for source array because " +
				"writing to the alias is like modifying a function local variable. " +
				"Consider using an array of objects and use v-model on an object property instead.")
		}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
