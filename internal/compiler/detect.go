package compiler

import (
	"errors"
	"regexp"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

var (
	prohibitedKeywordRE = regexp.MustCompile(`\b(?:` + strings.ReplaceAll(
		"do,if,for,let,new,try,var,case,else,with,await,break,catch,class,const,"+
			"super,throw,while,yield,delete,export,import,return,switch,default,"+
			"extends,finally,continue,debugger,function,arguments", ",", "|") + `)\b`)

	unaryOperatorsRE = regexp.MustCompile(`\b(?:delete|typeof|void)\s*\([^)]*\)`)

	stripStringRE = regexp.MustCompile("'(?:[^'\\\\]|\\\\.)*'|\"(?:[^\"\\\\]|\\\\.)*\"|`(?:[^`\\\\]|\\\\.)*\\$\\{|\\}(?:[^`\\\\]|\\\\.)*`|`(?:[^`\\\\]|\\\\.)*`")
)

// detectErrors checks that every directive value and interpolation in the
// tree parses as JavaScript.
func detectErrors(root *Element, warn WarnFunc) {
	if root != nil {
		checkNode(root, warn)
	}
}

func checkNode(el *Element, warn WarnFunc) {
	for _, a := range el.rawAttrs {
		if !dirRE.MatchString(a.Name) || a.Value == "" {
			continue
		}
		text := a.Name + `="` + a.Value + `"`
		switch {
		case a.Name == "v-for":
			checkFor(el, text, warn)
		case a.Name == "v-slot" || strings.HasPrefix(a.Name, "v-slot:") || strings.HasPrefix(a.Name, "#"):
			checkFunctionParameterExpression(a.Value, text, warn)
		case onRE.MatchString(a.Name):
			checkEvent(a.Value, text, warn)
		default:
			checkExpression(a.Value, text, warn)
		}
	}

	for _, c := range el.Children {
		switch n := c.(type) {
		case *Element:
			checkNode(n, warn)
		case *Text:
			if n.Expression != "" {
				checkExpression(n.Expression, n.Text, warn)
			}
		}
	}
	for _, cond := range el.IfConditions[min(1, len(el.IfConditions)):] {
		checkNode(cond.Block, warn)
	}
	for _, slot := range el.ScopedSlots {
		if slot != el {
			checkNode(slot, warn)
		}
	}
}

func checkFor(el *Element, text string, warn WarnFunc) {
	checkExpression(el.For, text, warn)
	checkIdentifier(el.Alias, "v-for alias", text, warn)
	checkIdentifier(el.Iterator1, "v-for iterator", text, warn)
	checkIdentifier(el.Iterator2, "v-for iterator", text, warn)
}

func checkIdentifier(ident, kind, text string, warn WarnFunc) {
	if ident == "" {
		return
	}
	if _, err := parseJS("var " + ident + "=_"); err != nil {
		warn("invalid " + kind + ` "` + ident + `" in expression: ` + strings.TrimSpace(text))
	}
}

func checkEvent(exp, text string, warn WarnFunc) {
	stripped := stripStringRE.ReplaceAllString(exp, "")
	if loc := unaryOperatorsRE.FindStringIndex(stripped); loc != nil && (loc[0] == 0 || stripped[loc[0]-1] != '$') {
		warn(`avoid using JavaScript unary operator as property name: "` + stripped[loc[0]:loc[1]] +
			`" in expression ` + strings.TrimSpace(text))
	}
	checkExpression(exp, text, warn)
}

func checkExpression(exp, text string, warn WarnFunc) {
	_, err := parseJS("function anonymous(\n) {\nreturn " + exp + "\n}")
	if err == nil {
		return
	}
	if kw := prohibitedKeywordRE.FindString(stripStringRE.ReplaceAllString(exp, "")); kw != "" {
		warn(`avoid using JavaScript keyword as property name: "` + kw + `"` + "\n  Raw expression: " + strings.TrimSpace(text))
		return
	}
	warn("invalid expression: " + errorMessage(err) + " in\n\n    " + exp + "\n\n  Raw expression: " + strings.TrimSpace(text) + "\n")
}

func checkFunctionParameterExpression(exp, text string, warn WarnFunc) {
	if _, err := parseJS("function anonymous(" + exp + "\n) {\n\n}"); err != nil {
		warn("invalid function parameter expression: " + errorMessage(err) + " in\n\n    " + exp +
			"\n\n  Raw expression: " + strings.TrimSpace(text) + "\n")
	}
}

func parseJS(src string) (*js.AST, error) {
	return js.Parse(parse.NewInputString(src), js.Options{})
}

func errorMessage(err error) string {
	var perr *parse.Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}
