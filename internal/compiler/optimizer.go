package compiler

// optimize marks subtrees that never change so code generation can hoist them
// into static render functions.
func optimize(root *Element) {
	if root == nil {
		return
	}
	markStatic(root)
	markStaticRoots(root, false)
}

func markStatic(el *Element) {
	el.Static = isStatic(el)

	// slot content of components stays dynamic so the child can patch it
	if !IsReservedTag(el.Tag) && el.Tag != "slot" && !el.HasAttr("inline-template") {
		return
	}
	for _, c := range el.Children {
		switch n := c.(type) {
		case *Element:
			markStatic(n)
			if !n.Static {
				el.Static = false
			}
		case *Text:
			n.Static = n.Expression == ""
			if !n.Static {
				el.Static = false
			}
		}
	}
	for _, cond := range el.IfConditions[min(1, len(el.IfConditions)):] {
		markStatic(cond.Block)
		if !cond.Block.Static {
			el.Static = false
		}
	}
}

func markStaticRoots(el *Element, inFor bool) {
	if el.Static || el.Once {
		el.StaticInFor = inFor
	}
	if el.Static && len(el.Children) > 0 && !(len(el.Children) == 1 && el.Children[0].Type() == TextNode) {
		el.StaticRoot = true
		return
	}
	el.StaticRoot = false

	for _, c := range el.Children {
		if ce, ok := c.(*Element); ok {
			markStaticRoots(ce, inFor || el.For != "")
		}
	}
	for _, cond := range el.IfConditions[min(1, len(el.IfConditions)):] {
		markStaticRoots(cond.Block, inFor)
	}
}

func isStatic(el *Element) bool {
	if el.Pre {
		return true
	}
	return !el.HasBindings &&
		el.If == "" && el.For == "" &&
		!builtInTags[el.Tag] &&
		IsReservedTag(el.Tag) &&
		!isDirectChildOfTemplateFor(el) &&
		hasOnlyStaticKeys(el)
}

// hasOnlyStaticKeys reports whether el carries nothing beyond its tag, plain
// attributes, static class and static style.
func hasOnlyStaticKeys(el *Element) bool {
	return el.Key == "" && el.Ref == "" &&
		len(el.Directives) == 0 && el.Events == nil && el.NativeEvents == nil &&
		len(el.Props) == 0 && len(el.DynamicAttrs) == 0 &&
		el.SlotTarget == "" && el.SlotName == "" && el.SlotScope == "" && len(el.ScopedSlots) == 0 &&
		el.ClassBinding == "" && el.StyleBinding == "" &&
		el.Component == "" && !el.InlineTemplate && el.Model == nil &&
		!el.Once && !el.Forbidden && !el.Else && !el.HasElseIf && len(el.IfConditions) == 0
}

func isDirectChildOfTemplateFor(el *Element) bool {
	for el.Parent != nil {
		el = el.Parent
		if el.Tag != "template" {
			return false
		}
		if el.For != "" {
			return true
		}
	}
	return false
}

// optimizeSSR classifies each element by how much of it can be rendered to
// a plain string on the server.
func optimizeSSR(root *Element) {
	if root == nil {
		return
	}
	walkSSR(root, true)
}

func walkSSR(el *Element, isRoot bool) {
	if isUnoptimizableTree(el) {
		el.ssr = ssrFalse
		return
	}
	selfUnoptimizable := isRoot || hasCustomDirective(el)
	check := func(level int) {
		if level != ssrFull {
			if selfUnoptimizable {
				el.ssr = ssrPartial
			} else {
				el.ssr = ssrSelf
			}
		}
	}
	if selfUnoptimizable {
		el.ssr = ssrChildren
	}

	for _, c := range el.Children {
		if ce, ok := c.(*Element); ok {
			walkSSR(ce, false)
			check(ce.ssr)
		}
	}
	for _, cond := range el.IfConditions[min(1, len(el.IfConditions)):] {
		walkSSR(cond.Block, isRoot)
		check(cond.Block.ssr)
	}

	if el.ssr == ssrUnset || (!isRoot && (el.HasAttr("v-html") || el.HasAttr("v-text"))) {
		el.ssr = ssrFull
	} else {
		el.Children = optimizeSiblings(el)
	}
}

// optimizeSiblings groups runs of fully optimizable children into template
// wrappers so they render as one string.
func optimizeSiblings(el *Element) []Node {
	var out []Node
	var group []Node
	flush := func() {
		if len(group) > 0 {
			wrapper := newElement("template", nil, el)
			wrapper.Children = group
			wrapper.ssr = ssrFull
			out = append(out, wrapper)
		}
		group = nil
	}
	for _, c := range el.Children {
		if ce, ok := c.(*Element); ok && ce.ssr != ssrFull {
			flush()
			out = append(out, c)
			continue
		}
		group = append(group, c)
	}
	flush()
	return out
}

func isUnoptimizableTree(el *Element) bool {
	return builtInTags[el.Tag] || !IsReservedTag(el.Tag) || el.Component != "" || isSelectWithModel(el)
}

func hasCustomDirective(el *Element) bool {
	for _, d := range el.Directives {
		if !builtInDirectiveNames[d.Name] {
			return true
		}
	}
	return false
}

func isSelectWithModel(el *Element) bool {
	if el.Tag != "select" {
		return false
	}
	for _, d := range el.Directives {
		if d.Name == "model" {
			return true
		}
	}
	return false
}
