package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Render(t *testing.T) {
	tests := []struct {
		name     string
		template string
		render   string
		static   []string
	}{
		{
			name:     "interpolation",
			template: `<div>{{ msg }}</div>`,
			render:   `with(this){return _c('div',[_v(_s(msg))])}`,
		},
		{
			name:     "static subtree is hoisted",
			template: `<div><span>hi</span></div>`,
			render:   `with(this){return _m(0)}`,
			static:   []string{`with(this){return _c('div',[_c('span',[_v("hi")])])}`},
		},
		{
			name:     "bindings and handlers",
			template: `<div :id="a" @click="go">x</div>`,
			render:   `with(this){return _c('div',{attrs:{"id":a},on:{"click":go}},[_v("x")])}`,
		},
		{
			name:     "v-if chain",
			template: `<div><p v-if="a">A</p><p v-else>B</p></div>`,
			render:   `with(this){return _c('div',[(a)?_c('p',[_v("A")]):_c('p',[_v("B")])])}`,
		},
		{
			name:     "v-for with key",
			template: `<ul><li v-for="(item, i) in items" :key="item.id">{{ item.name }}</li></ul>`,
			render:   `with(this){return _c('ul',_l((items),function(item,i){return _c('li',{key:item.id},[_v(_s(item.name))])}),0)}`,
		},
		{
			name:     "v-model on input",
			template: `<input v-model="msg">`,
			render: `with(this){return _c('input',{directives:[{name:"model",rawName:"v-model",value:(msg),expression:"msg"}],` +
				`domProps:{"value":(msg)},on:{"input":function($event){if($event.target.composing)return;msg=$event.target.value}}})}`,
		},
		{
			name:     "v-model on component",
			template: `<my-input v-model="form.name"/>`,
			render:   `with(this){return _c('my-input',{model:{value:(form.name),callback:function ($$v) {$set(form, "name", $$v)},expression:"form.name"}})}`,
		},
		{
			name:     "slot outlet with fallback",
			template: `<div><slot name="x">fb</slot></div>`,
			render:   `with(this){return _c('div',[_t("x",function(){return [_v("fb")]})],2)}`,
		},
		{
			name:     "scoped slot",
			template: `<comp><template #item="{ row }"><span>{{ row }}</span></template></comp>`,
			render:   `with(this){return _c('comp',{scopedSlots:_u([{key:"item",fn:function({ row }){return [_c('span',[_v(_s(row))])]}}])})}`,
		},
		{
			name:     "static class and style",
			template: `<div class=" a  b " style="color: red; top: 0" :class="c">x</div>`,
			render:   `with(this){return _c('div',{staticClass:"a b",class:c,staticStyle:{"color":"red","top":"0"}},[_v("x")])}`,
		},
		{
			name:     "empty template",
			template: ``,
			render:   `with(this){return _c("div")}`,
		},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Compile(tt.template, nil)
			assert.Empty(t, res.Errors)
			assert.Equal(t, tt.render, res.Render)
			if tt.static != nil {
				assert.Equal(t, tt.static, res.StaticRenderFns)
			} else {
				assert.Empty(t, res.StaticRenderFns)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"multiple roots", `<div></div><p></p>`, "Component template should contain exactly one root element."},
		{"text root", `just text`, "Component template requires a root element, rather than just text."},
		{"unclosed child", `<div><span></div>`, "tag <span> has no matching end tag."},
		{"bad expression", `<div>{{ a b }}</div>`, "invalid expression:"},
		{"keyword in expression", `<div :a="if"></div>`, `avoid using JavaScript keyword as property name: "if"`},
		{"bad v-for", `<div><p v-for="nope"></p></div>`, "Invalid v-for expression: nope"},
		{"v-else without v-if", `<div><p v-else></p></div>`, "v-else used on element <p> without corresponding v-if."},
		{"v-else on root", `<div v-else></div>`, "v-else used on element <div> without corresponding v-if."},
		{"v-else-if on root", `<div v-else-if="a"></div>`, `v-else-if="a" used on element <div> without corresponding v-if.`},
		{"v-else after plain sibling", `<div><p></p><p v-else></p></div>`, "v-else used on element <p> without corresponding v-if."},
		{"forbidden tag", `<div><style>a{}</style></div>`, "Avoid placing tags with side-effects in your templates, such as <style>"},
		{"attribute interpolation", `<div id="{{ x }}"></div>`, "Interpolation inside attributes has been removed."},
		{"keyed template", `<div><template :key="a"><p/></template></div>`, "<template> cannot be keyed."},
		{"slot root", `<slot></slot>`, "Cannot use <slot> as component root element"},
		{"file input model", `<input type="file" v-model="f">`, "File inputs are read only."},
		{"unsupported model", `<div v-model="x"></div>`, "v-model is not supported on this element type."},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Compile(tt.template, nil)
			require.NotEmpty(t, res.Errors)
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "errors %q do not mention %q", res.Errors, tt.want)
		})
	}
}

func TestCompile_Tips(t *testing.T) {
	res := New().Compile(`<div><comp v-for="x in xs"></comp></div>`, nil)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Tips, 1)
	assert.Contains(t, res.Tips[0], "component lists rendered with v-for should have explicit keys.")
}

func TestCompile_Comments(t *testing.T) {
	tmpl := `<div><!-- note --><p>x</p></div>`

	res := New().Compile(tmpl, &Options{Comments: true})
	require.Len(t, res.StaticRenderFns, 1)
	assert.Contains(t, res.StaticRenderFns[0], `_e(" note ")`)

	res = New().Compile(tmpl, nil)
	require.Len(t, res.StaticRenderFns, 1)
	assert.NotContains(t, res.StaticRenderFns[0], "_e(")
}

func TestCompile_PreserveWhitespace(t *testing.T) {
	tmpl := `<div><b>{{a}}</b> <i>{{b}}</i></div>`

	res := New().Compile(tmpl, nil)
	assert.Contains(t, res.Render, `_v(" ")`)

	off := false
	res = New().Compile(tmpl, &Options{PreserveWhitespace: &off})
	assert.NotContains(t, res.Render, `_v(" ")`)
}

func TestCompile_ModuleHooks(t *testing.T) {
	var seen []string
	mod := &Module{
		Name: "record",
		PostTransformNode: func(el *Element, _ WarnFunc) {
			seen = append(seen, el.Tag)
		},
	}
	res := New().Compile(`<div><p>{{ a }}</p></div>`, &Options{Modules: []*Module{mod}})
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"p", "div"}, seen)
}

func TestCompile_CustomDirective(t *testing.T) {
	dirs := map[string]DirectiveFunc{
		"focus": func(el *Element, dir *Directive, _ WarnFunc) bool {
			el.AddProp("autofocus", "true", false)
			return false
		},
	}
	res := New().Compile(`<input v-focus>`, &Options{Directives: dirs})
	assert.Equal(t, `with(this){return _c('input',{domProps:{"autofocus":true}})}`, res.Render)
}

func TestSSRCompile(t *testing.T) {
	tmpl := `<div><span class="a">hi {{ name }}</span></div>`

	res := New().SSRCompile(tmpl, &Options{ScopeID: "data-v-12ab"})
	assert.Empty(t, res.Errors)
	assert.Equal(t,
		`with(this){return _c('div',[_ssrNode("<span class=\"a\" data-v-12ab>"+_ssrEscape("hi "+_s(name))+"</span>")])}`,
		res.Render)

	client := New().Compile(tmpl, &Options{ScopeID: "data-v-12ab"})
	assert.NotContains(t, client.Render, "data-v-12ab")
}

func TestSSRCompile_DynamicChild(t *testing.T) {
	res := New().SSRCompile(`<div><my-comp :a="b"/><p>x</p></div>`, nil)
	assert.Empty(t, res.Errors)
	assert.Contains(t, res.Render, `_c('my-comp',{attrs:{"a":b}})`)
	assert.Contains(t, res.Render, `_ssrNode("<p>x</p>")`)
}
