package compiler

import "strings"

var classModule = &Module{
	Name: "class",
	TransformNode: func(el *Element, warn WarnFunc) {
		staticClass, _ := el.GetAndRemoveAttr("class")
		if staticClass != "" {
			if _, ok := parseText(staticClass); ok {
				warn(`class="` + staticClass + `": ` +
					"Interpolation inside attributes has been removed. " +
					"Use v-bind or the colon shorthand instead. For example, " +
					`instead of <div class="{{ val }}">, use <div :class="val">.`)
			}
			el.StaticClass = jsString(collapseClass(staticClass))
		}
		if binding, ok := el.GetBindingAttr("class", false); ok && binding != "" {
			el.ClassBinding = binding
		}
	},
	GenData: func(el *Element) string {
		var data string
		if el.StaticClass != "" {
			data += "staticClass:" + el.StaticClass + ","
		}
		if el.ClassBinding != "" {
			data += "class:" + el.ClassBinding + ","
		}
		return data
	},
}

var styleModule = &Module{
	Name: "style",
	TransformNode: func(el *Element, warn WarnFunc) {
		staticStyle, _ := el.GetAndRemoveAttr("style")
		if staticStyle != "" {
			if _, ok := parseText(staticStyle); ok {
				warn(`style="` + staticStyle + `": ` +
					"Interpolation inside attributes has been removed. " +
					"Use v-bind or the colon shorthand instead. For example, " +
					`instead of <div style="{{ val }}">, use <div :style="val">.`)
			}
			el.StaticStyle = styleObject(dedupeStyle(parseStyleText(staticStyle)))
		}
		if binding, ok := el.GetBindingAttr("style", false); ok && binding != "" {
			el.StyleBinding = binding
		}
	},
	GenData: func(el *Element) string {
		var data string
		if el.StaticStyle != "" {
			data += "staticStyle:" + el.StaticStyle + ","
		}
		if el.StyleBinding != "" {
			data += "style:(" + el.StyleBinding + "),"
		}
		return data
	},
}

// dedupeStyle keeps the first position of each property with its last value.
func dedupeStyle(pairs [][2]string) [][2]string {
	index := make(map[string]int, len(pairs))
	out := make([][2]string, 0, len(pairs))
	for _, p := range pairs {
		if p[0] == "" || strings.TrimSpace(p[1]) == "" {
			continue
		}
		if i, ok := index[p[0]]; ok {
			out[i][1] = p[1]
			continue
		}
		index[p[0]] = len(out)
		out = append(out, p)
	}
	return out
}
