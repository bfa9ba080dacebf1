package compiler

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	fnExpRE      = regexp.MustCompile(`^([\w$_]+|\([^)]*?\))\s*=>|^function(?:\s+[\w$]+)?\s*\(`)
	fnInvokeRE   = regexp.MustCompile(`\([^)]*?\);*$`)
	simplePathRE = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*|\['[^']*?'\]|\["[^"]*?"\]|\[\d+\]|\[[A-Za-z_$][\w$]*\])*$`)
)

var keyCodes = map[string]any{
	"esc":    27,
	"tab":    9,
	"enter":  13,
	"space":  32,
	"up":     38,
	"left":   37,
	"right":  39,
	"down":   40,
	"delete": []int{8, 46},
}

var keyNames = map[string]any{
	"esc":    []string{"Esc", "Escape"},
	"tab":    "Tab",
	"enter":  "Enter",
	"space":  []string{" ", "Spacebar"},
	"up":     []string{"Up", "ArrowUp"},
	"left":   []string{"Left", "ArrowLeft"},
	"right":  []string{"Right", "ArrowRight"},
	"down":   []string{"Down", "ArrowDown"},
	"delete": []string{"Backspace", "Delete", "Del"},
}

func genGuard(condition string) string {
	return "if(" + condition + ")return null;"
}

var modifierCode = map[string]string{
	"stop":    "$event.stopPropagation();",
	"prevent": "$event.preventDefault();",
	"self":    genGuard("$event.target !== $event.currentTarget"),
	"ctrl":    genGuard("!$event.ctrlKey"),
	"shift":   genGuard("!$event.shiftKey"),
	"alt":     genGuard("!$event.altKey"),
	"meta":    genGuard("!$event.metaKey"),
	"left":    genGuard("'button' in $event && $event.button !== 0"),
	"middle":  genGuard("'button' in $event && $event.button !== 1"),
	"right":   genGuard("'button' in $event && $event.button !== 2"),
}

func genHandlers(events *Events, native bool) string {
	prefix := "on:"
	if native {
		prefix = "nativeOn:"
	}
	var static, dynamic []string
	for _, name := range events.Names() {
		handlers := events.Get(name)
		code := genHandlerList(handlers)
		if len(handlers) == 1 && handlers[0].Dynamic {
			dynamic = append(dynamic, name+","+code)
		} else {
			static = append(static, `"`+name+`":`+code)
		}
	}
	staticCode := "{" + strings.Join(static, ",") + "}"
	if len(dynamic) > 0 {
		return prefix + "_d(" + staticCode + ",[" + strings.Join(dynamic, ",") + "])"
	}
	return prefix + staticCode
}

func genHandlerList(handlers []*Handler) string {
	switch len(handlers) {
	case 0:
		return "function(){}"
	case 1:
		return genHandler(handlers[0])
	}
	parts := make([]string, len(handlers))
	for i, h := range handlers {
		parts[i] = genHandler(h)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func genHandler(h *Handler) string {
	isMethodPath := simplePathRE.MatchString(h.Value)
	isFunctionExpression := fnExpRE.MatchString(h.Value)
	isFunctionInvocation := simplePathRE.MatchString(fnInvokeRE.ReplaceAllString(h.Value, ""))

	if h.Modifiers == nil {
		if isMethodPath || isFunctionExpression {
			return h.Value
		}
		if isFunctionInvocation {
			return "function($event){return " + h.Value + "}"
		}
		return "function($event){" + h.Value + "}"
	}

	var code, modCode string
	var keys []string
	for _, m := range h.Modifiers {
		if c, ok := modifierCode[m]; ok {
			modCode += c
			if _, isKey := keyCodes[m]; isKey {
				keys = append(keys, m)
			}
		} else if m == "exact" {
			var conds []string
			for _, k := range []string{"ctrl", "shift", "alt", "meta"} {
				if !hasModifier(h.Modifiers, k) {
					conds = append(conds, "$event."+k+"Key")
				}
			}
			modCode += genGuard(strings.Join(conds, "||"))
		} else {
			keys = append(keys, m)
		}
	}
	if len(keys) > 0 {
		code += genKeyFilter(keys)
	}
	code += modCode

	var handlerCode string
	switch {
	case isMethodPath:
		handlerCode = "return " + h.Value + ".apply(null, arguments)"
	case isFunctionExpression:
		handlerCode = "return (" + h.Value + ").apply(null, arguments)"
	case isFunctionInvocation:
		handlerCode = "return " + h.Value
	default:
		handlerCode = h.Value
	}
	return "function($event){" + code + handlerCode + "}"
}

func genKeyFilter(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = genFilterCode(k)
	}
	return "if(!$event.type.indexOf('key')&&" + strings.Join(parts, "&&") + ")return null;"
}

func genFilterCode(key string) string {
	if n := leadingInt(key); n != 0 {
		return "$event.keyCode!==" + strconv.Itoa(n)
	}
	return "_k($event.keyCode," + jsString(key) + "," + jsonOrUndefined(keyCodes[key]) +
		",$event.key," + jsonOrUndefined(keyNames[key]) + ")"
}

func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

func jsonOrUndefined(v any) string {
	if v == nil {
		return "undefined"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "undefined"
	}
	return string(b)
}
