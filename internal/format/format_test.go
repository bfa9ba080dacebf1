package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sfcloader/internal/errors"
)

func TestStripSemicolons(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "var a = 1;\nvar b = 2;\n", "var a = 1\nvar b = 2\n"},
		{"paren continuation", "var a = b;\n(function () {})();\n", "var a = b;\n(function () {})()\n"},
		{"bracket continuation", "x();\n[1, 2].forEach(f);\n", "x();\n[1, 2].forEach(f)\n"},
		{"blank lines skipped", "a();\n\n  -b;\n", "a();\n\n  -b\n"},
		{"template literal", "var s = `a;\nb;\n`;\nc();\n", "var s = `a;\nb;\n`\nc()\n"},
		{"block bodies", "function f() {\n  return 1;\n}\n", "function f() {\n  return 1\n}\n"},
		{"for header", "for (;;) {\n  a();\n}\n", "for (;;) {\n  a()\n}\n"},
		{"callback body", "f(function () {\n  return 1;\n});\n", "f(function () {\n  return 1\n})\n"},
		{"trailing comment", "a(); // note\nb();\n", "a() // note\nb()\n"},
		{"regexp", "var r = /;$/;\nf();\n", "var r = /;$/\nf()\n"},
		{"backtick in string", "var q = '`';\nvar s = `x;\ny`;\n", "var q = '`'\nvar s = `x;\ny`\n"},
		{"template substitution", "var s = `${a};\n${b}`;\n", "var s = `${a};\n${b}`\n"},
		{"empty loop body", "function f() {\n  while (x())\n    ;\n  y();\n}\n", "function f() {\n  while (x())\n    ;\n  y()\n}\n"},
		{"empty if body", "if (a)\n  ;\nelse\n  b();\n", "if (a)\n  ;\nelse\n  b()\n"},
		{"empty bodies on one line", "while (x()) ;\nif (a) ;\nelse b();\n", "while (x()) ;\nif (a) ;\nelse b()\n"},
		{"empty else body", "if (a) b();\nelse ;\nc();\n", "if (a) b()\nelse ;\nc()\n"},
		{"unterminated string", "var s = 'a;\n", "var s = 'a;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripSemicolons(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	code := `var render=function(){var _vm=this;return _vm._c("div")};var staticRenderFns=[];`

	got, err := New().Format(code, Options{})
	require.NoError(t, err)
	assert.Contains(t, got, "var render = function() {\n")
	assert.Contains(t, got, "  return _vm._c(\"div\")\n")
	assert.Contains(t, got, "var staticRenderFns = []\n")
	assert.NotContains(t, got, ";\n")

	got, err = New().Format(code, Options{Semi: true})
	require.NoError(t, err)
	assert.Contains(t, got, "var staticRenderFns = [];\n")
}

func TestFormat_EmptyStatements(t *testing.T) {
	got, err := New().Format("function f(){while(x());y()}\nif(a);else b()", Options{})
	require.NoError(t, err)
	assert.Regexp(t, `while \(x\(\)\)\s*;`, got)
	assert.Regexp(t, `if \(a\)\s*;\s*else`, got)
	assert.Contains(t, got, "y()\n")
}

func TestFormat_Error(t *testing.T) {
	_, err := New().Format("var = ;", Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFormat))
}
