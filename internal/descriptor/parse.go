package descriptor

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/sfcloader/internal/sourcemap"
)

var (
	splitRE = regexp.MustCompile(`\r?\n`)
	emptyRE = regexp.MustCompile(`^(?:\/\/)?\s*$`)
)

// Parse splits source into blocks. Only top-level elements become blocks;
// a nested <template> inside the template block is tracked so the block ends
// at its matching close tag.
func Parse(source string, opts ParseOptions) *Descriptor {
	desc := &Descriptor{Filename: opts.Filename}

	z := html.NewTokenizer(strings.NewReader(source))
	var (
		offset  int
		current *Block
		depth   int
	)

	for {
		tt := z.Next()
		raw := z.Raw()
		tokenStart := offset
		offset += len(raw)

		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				desc.Errors = append(desc.Errors, z.Err())
			}
			break
		}

		switch tt {
		case html.StartTagToken:
			name, attrs := readTag(z)
			if current == nil {
				current = &Block{
					Type:  name,
					Attrs: attrs,
					Start: offset,
				}
				depth = 1
				continue
			}
			if name == current.Type {
				depth++
			}

		case html.SelfClosingTagToken:
			if current == nil {
				name, attrs := readTag(z)
				// <style src="./a.css" /> style blocks carry no content
				b := &Block{Type: name, Attrs: attrs, Start: offset, End: offset}
				desc.add(b, source, opts)
			}

		case html.EndTagToken:
			if current == nil {
				continue
			}
			name, _ := z.TagName()
			if string(name) != current.Type {
				continue
			}
			depth--
			if depth == 0 {
				current.End = tokenStart
				desc.add(current, source, opts)
				current = nil
			}
		}
	}

	if current != nil {
		desc.Errors = append(desc.Errors, fmt.Errorf("element <%s> is missing end tag", current.Type))
	}

	return desc
}

// readTag copies the tag name and attributes of the current token.
func readTag(z *html.Tokenizer) (string, []Attr) {
	name, hasAttr := z.TagName()
	tag := string(name)
	var attrs []Attr
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		value := string(val)
		if value == "" {
			value = "true"
		}
		attrs = append(attrs, Attr{Name: string(key), Value: value})
	}
	return tag, attrs
}

func (d *Descriptor) add(b *Block, source string, opts ParseOptions) {
	b.Line = strings.Count(source[:b.Start], "\n") + 1
	for _, a := range b.Attrs {
		switch a.Name {
		case "lang":
			b.Lang = a.Value
		case "src":
			b.Src = a.Value
		case "scoped":
			b.Scoped = true
		case "module":
			b.Module = a.Value
		case "functional":
			b.Functional = true
		}
	}

	content := source[b.Start:b.End]

	switch b.Type {
	case "template":
		if d.Template != nil {
			d.Errors = append(d.Errors, fmt.Errorf("%s: component may contain only one <template> block", fileOr(d.Filename)))
			return
		}
		b.Content = Deindent(content)
		d.Template = b
		return
	case "script":
		if d.Script != nil {
			d.Errors = append(d.Errors, fmt.Errorf("%s: component may contain only one <script> block", fileOr(d.Filename)))
			return
		}
		d.Script = b
	case "style":
		d.Styles = append(d.Styles, b)
	default:
		d.CustomBlocks = append(d.CustomBlocks, b)
	}

	if opts.Pad != PadNone {
		content = padContent(source, b, opts.Pad) + content
	}
	b.Content = content

	if opts.NeedMap && b.Src == "" && (b.Type == "script" || b.Type == "style") {
		b.Map = generateMap(opts.Filename, source, b, opts.SourceRoot, opts.Pad != PadNone)
	}
}

func padContent(source string, b *Block, pad string) string {
	prefix := source[:b.Start]
	if pad == PadSpace {
		var buf bytes.Buffer
		for _, r := range prefix {
			if r == '\n' || r == '\r' {
				buf.WriteRune(r)
			} else {
				buf.WriteByte(' ')
			}
		}
		return buf.String()
	}
	padChar := "\n"
	if b.Type == "script" && b.Lang == "" {
		padChar = "//\n"
	}
	return strings.Repeat(padChar, len(splitRE.Split(prefix, -1))-1)
}

// generateMap maps every non-whitespace character of a script or style block
// back to the same column of the component file.
func generateMap(filename, source string, b *Block, sourceRoot string, padded bool) *sourcemap.Map {
	filename = strings.ReplaceAll(filename, `\`, "/")
	g := sourcemap.New(filename, strings.ReplaceAll(sourceRoot, `\`, "/"))
	g.SetSourceContent(filename, source)

	offset := 0
	if !padded {
		offset = b.Line - 1
	}

	for i, line := range splitRE.Split(b.Content, -1) {
		if emptyRE.MatchString(line) {
			continue
		}
		for col := 0; col < len(line); col++ {
			switch line[col] {
			case ' ', '\t', '\r', '\f', '\v':
				continue
			}
			g.AddMapping(sourcemap.Mapping{
				Source:    filename,
				Original:  sourcemap.Position{Line: i + 1 + offset, Column: col},
				Generated: sourcemap.Position{Line: i + 1, Column: col},
			})
		}
	}
	return g.ToMap()
}

// Deindent strips the common leading indentation from every non-blank line.
func Deindent(s string) string {
	trimmed := strings.TrimLeft(s, "\r\n")
	if trimmed == "" || (trimmed[0] != ' ' && trimmed[0] != '\t') {
		return s
	}
	indent := trimmed[0]

	lines := splitRE.Split(s, -1)
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := 0
		for n < len(line) && line[n] == indent {
			n++
		}
		if minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent <= 0 {
		return s
	}

	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		} else {
			lines[i] = strings.TrimLeft(line, string(indent))
		}
	}
	return strings.Join(lines, "\n")
}

func fileOr(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}
