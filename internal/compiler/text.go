package compiler

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var (
	interpolationRE  = regexp.MustCompile(`\{\{((?:.|\r?\n)+?)\}\}`)
	validDivisionRE  = regexp.MustCompile(`[\w).+\-_$\]]`)
	whitespaceRunRE  = regexp.MustCompile(`\s+`)
	specialNewlineRE = strings.NewReplacer("\u2028", `\u2028`, "\u2029", `\u2029`)
)

// jsString renders s as a double-quoted JS string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func transformSpecialNewlines(s string) string {
	return specialNewlineRE.Replace(s)
}

// parseText turns "a {{ b }} c" into `"a "+_s(b)+" c"`. ok is false when the
// text holds no interpolation.
func parseText(text string) (string, bool) {
	matches := interpolationRE.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return "", false
	}

	var tokens []string
	last := 0
	for _, m := range matches {
		if m[0] > last {
			tokens = append(tokens, jsString(text[last:m[0]]))
		}
		exp := parseFilters(strings.TrimSpace(text[m[2]:m[3]]))
		tokens = append(tokens, "_s("+exp+")")
		last = m[1]
	}
	if last < len(text) {
		tokens = append(tokens, jsString(text[last:]))
	}
	return strings.Join(tokens, "+"), true
}

// parseFilters rewrites "value | a | b(1)" into `_f("b")(_f("a")(value),1)`.
// Pipes inside strings, regexps, brackets and "||" are left alone.
func parseFilters(exp string) string {
	var (
		inSingle, inDouble, inTemplate, inRegex bool
		curly, square, paren                    int
		lastFilterIndex                         int
		expression                              string
		haveExpression                          bool
		filters                                 []string
		c, prev                                 byte
	)

	pushFilter := func(i int) {
		filters = append(filters, strings.TrimSpace(exp[lastFilterIndex:i]))
		lastFilterIndex = i + 1
	}

	i := 0
	for ; i < len(exp); i++ {
		prev = c
		c = exp[i]
		switch {
		case inSingle:
			if c == '\'' && prev != '\\' {
				inSingle = false
			}
		case inDouble:
			if c == '"' && prev != '\\' {
				inDouble = false
			}
		case inTemplate:
			if c == '`' && prev != '\\' {
				inTemplate = false
			}
		case inRegex:
			if c == '/' && prev != '\\' {
				inRegex = false
			}
		case c == '|' && at(exp, i+1) != '|' && at(exp, i-1) != '|' && curly == 0 && square == 0 && paren == 0:
			if !haveExpression {
				lastFilterIndex = i + 1
				expression = strings.TrimSpace(exp[:i])
				haveExpression = true
			} else {
				pushFilter(i)
			}
		default:
			switch c {
			case '"':
				inDouble = true
			case '\'':
				inSingle = true
			case '`':
				inTemplate = true
			case '(':
				paren++
			case ')':
				paren--
			case '[':
				square++
			case ']':
				square--
			case '{':
				curly++
			case '}':
				curly--
			case '/':
				j := i - 1
				var p byte
				for ; j >= 0; j-- {
					p = exp[j]
					if p != ' ' {
						break
					}
				}
				if j < 0 || !validDivisionRE.Match([]byte{p}) {
					inRegex = true
				}
			}
		}
	}

	if !haveExpression {
		expression = strings.TrimSpace(exp[:i])
	} else if lastFilterIndex != 0 {
		pushFilter(i)
	}

	for _, f := range filters {
		expression = wrapFilter(expression, f)
	}
	return expression
}

func at(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func wrapFilter(exp, filter string) string {
	i := strings.IndexByte(filter, '(')
	if i < 0 {
		return `_f("` + filter + `")(` + exp + `)`
	}
	name := filter[:i]
	args := filter[i+1:]
	if args != ")" {
		return `_f("` + name + `")(` + exp + "," + args
	}
	return `_f("` + name + `")(` + exp + args
}

// camelize turns "foo-bar" into "fooBar".
func camelize(s string) string {
	var b strings.Builder
	upper := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' && i+1 < len(s) && isWordByte(s[i+1]) {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}

// hyphenate turns "fooBar" into "foo-bar".
func hyphenate(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' && i > 0 && s[i-1] != '-' {
			b.WriteByte('-')
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// parseStyleText splits "color: red; background: url(a;b)" into ordered
// property/value pairs.
func parseStyleText(css string) [][2]string {
	var out [][2]string
	depth := 0
	start := 0
	flush := func(end int) {
		item := css[start:end]
		if idx := strings.IndexByte(item, ':'); idx >= 0 {
			name := strings.TrimSpace(item[:idx])
			value := strings.TrimSpace(item[idx+1:])
			if value != "" || name != "" {
				out = append(out, [2]string{name, value})
			}
		}
	}
	for i := 0; i < len(css); i++ {
		switch css[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(css))
	return out
}

func styleObject(pairs [][2]string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsString(p[0]))
		b.WriteByte(':')
		b.WriteString(jsString(p[1]))
	}
	b.WriteByte('}')
	return b.String()
}

// escapeHTML escapes text for server-rendered markup.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

var htmlEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;", "&", "&amp;", "'", "&#39;")

func collapseClass(s string) string {
	return strings.TrimSpace(whitespaceRunRE.ReplaceAllString(s, " "))
}
