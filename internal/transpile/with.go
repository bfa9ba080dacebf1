package transpile

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

const (
	instancePrelude   = "var _vm=this;var _h=_vm.$createElement;var _c=_vm._self._c||_h;"
	functionalPrelude = "var _c=_vm._c;"
)

// globals stay unprefixed inside stripped blocks.
var globals = map[string]bool{
	"Infinity": true, "undefined": true, "NaN": true,
	"isFinite": true, "isNaN": true, "parseFloat": true, "parseInt": true,
	"decodeURI": true, "decodeURIComponent": true, "encodeURI": true, "encodeURIComponent": true,
	"Math": true, "Number": true, "Date": true, "Array": true, "Object": true, "Boolean": true,
	"String": true, "RegExp": true, "Map": true, "Set": true, "JSON": true, "Intl": true,
	"BigInt": true, "require": true, "arguments": true,
	"_vm": true, "_h": true, "_c": true,
}

// StripWith rewrites every `with(this){...}` block in code: free identifiers
// inside it become `_vm.<name>` and the block is replaced by its body
// preceded by a prelude binding _vm, _h and _c. With functional set the
// instance comes from the enclosing `_vm` parameter.
func StripWith(code string, functional bool) (string, error) {
	ast, err := js.Parse(parse.NewInputString(code), js.Options{})
	if err != nil {
		return "", err
	}

	r := &renamer{original: map[*js.Var][]byte{}}
	js.Walk(&withFinder{r: r}, ast)
	if !r.found {
		return code, nil
	}

	prelude := instancePrelude
	if functional {
		prelude = functionalPrelude
	}
	js.Walk(&splicer{prelude: prelude}, ast)

	return ast.JSString(), nil
}

func isWithThis(n js.INode) (*js.WithStmt, bool) {
	w, ok := n.(*js.WithStmt)
	if !ok {
		return nil, false
	}
	lit, ok := w.Cond.(*js.LiteralExpr)
	if !ok || lit.TokenType != js.ThisToken {
		return nil, false
	}
	return w, true
}

type withFinder struct {
	r *renamer
}

func (f *withFinder) Enter(n js.INode) js.IVisitor {
	if _, ok := isWithThis(n); ok {
		f.r.found = true
		return f.r
	}
	return f
}

func (f *withFinder) Exit(js.INode) {}

// renamer prefixes undeclared variables. Uses in nested scopes link to the
// variable of the outermost scope, so every var along the chain is renamed
// and printing stays consistent for shorthand properties.
type renamer struct {
	found    bool
	original map[*js.Var][]byte
}

func (r *renamer) Enter(n js.INode) js.IVisitor {
	v, ok := n.(*js.Var)
	if !ok {
		return r
	}

	root := v
	for root.Link != nil {
		root = root.Link
	}
	if root.Decl != js.NoDecl {
		return r
	}

	name := r.nameOf(root)
	if globals[string(name)] || len(name) == 0 || name[0] == '#' {
		return r
	}

	prefixed := []byte("_vm." + string(name))
	for cur := v; cur != nil; cur = cur.Link {
		if _, done := r.original[cur]; !done {
			r.original[cur] = cur.Data
			cur.Data = prefixed
		}
	}
	return r
}

func (r *renamer) Exit(js.INode) {}

func (r *renamer) nameOf(v *js.Var) []byte {
	if orig, ok := r.original[v]; ok {
		return orig
	}
	return v.Data
}

type splicer struct {
	prelude string
}

func (s *splicer) Enter(n js.INode) js.IVisitor {
	block, ok := n.(*js.BlockStmt)
	if !ok {
		return s
	}

	var list []js.IStmt
	changed := false
	for _, stmt := range block.List {
		w, ok := isWithThis(stmt)
		if !ok {
			list = append(list, stmt)
			continue
		}
		changed = true
		list = append(list, s.preludeStmts()...)
		if body, ok := w.Body.(*js.BlockStmt); ok {
			list = append(list, body.List...)
		} else {
			list = append(list, w.Body)
		}
	}
	if changed {
		block.List = list
	}
	return s
}

func (s *splicer) Exit(js.INode) {}

func (s *splicer) preludeStmts() []js.IStmt {
	ast, err := js.Parse(parse.NewInputString(s.prelude), js.Options{})
	if err != nil {
		panic(fmt.Sprintf("transpile: invalid prelude: %v", err))
	}
	return ast.BlockStmt.List
}
