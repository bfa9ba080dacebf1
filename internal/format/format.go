// Package format pretty prints generated JavaScript.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/conneroisu/sfcloader/internal/errors"
)

// Options configures a Format call.
type Options struct {
	// Semi keeps statement-terminating semicolons.
	Semi bool
}

// Formatter pretty prints code.
type Formatter interface {
	Format(code string, opts Options) (string, error)
}

// Esbuild pretty prints through esbuild's printer.
type Esbuild struct{}

// New returns an esbuild backed Formatter.
func New() *Esbuild {
	return &Esbuild{}
}

// Format implements Formatter. The result ends with a newline.
func (e *Esbuild) Format(code string, opts Options) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:  api.LoaderJS,
		Target:  api.ESNext,
		Charset: api.CharsetUTF8,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return "", errors.NewBuildError(errors.ErrCodeFormat, "format failed",
			fmt.Errorf("%s", strings.Join(msgs, "\n")))
	}

	out := string(result.Code)
	if !opts.Semi {
		out = StripSemicolons(out)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

// StripSemicolons removes the semicolons that end a statement at the end of
// a line. Semicolons inside parentheses, semicolons forming an empty
// statement, and those followed by a line that would otherwise continue the
// statement are kept. Code the lexer rejects is returned unchanged.
func StripSemicolons(code string) string {
	toks, strippable, ok := lexStatements(code)
	if !ok {
		return code
	}

	var sb strings.Builder
	sb.Grow(len(code))
	for i, tok := range toks {
		if strippable[i] && endsLine(toks, i+1) {
			continue
		}
		sb.Write(tok.data)
	}
	return sb.String()
}

type token struct {
	tt   js.TokenType
	data []byte
}

type group struct {
	paren bool
	// header marks the parentheses of an if, for, while or with statement.
	header bool
}

// lexStatements tokenizes code and reports which semicolons terminate a
// non-empty statement outside any parentheses.
func lexStatements(code string) ([]token, map[int]bool, bool) {
	l := js.NewLexer(parse.NewInputString(code))

	var (
		toks       []token
		groups     []group
		strippable = map[int]bool{}
		prev       = js.ErrorToken
		newline    = true
		closedHead bool
	)
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			if l.Err() != io.EOF {
				return nil, nil, false
			}
			return toks, strippable, true
		}
		if (tt == js.DivToken || tt == js.DivEqToken) && startsOperand(prev) {
			if tt, data = l.RegExp(); tt == js.ErrorToken {
				return nil, nil, false
			}
		}

		switch tt {
		case js.WhitespaceToken, js.CommentToken:
			toks = append(toks, token{tt, data})
			continue
		case js.LineTerminatorToken, js.CommentLineTerminatorToken:
			toks = append(toks, token{tt, data})
			newline = true
			continue
		}

		afterHead := closedHead
		closedHead = false
		switch tt {
		case js.OpenParenToken:
			groups = append(groups, group{paren: true, header: opensHeader(prev)})
		case js.OpenBraceToken:
			groups = append(groups, group{})
		case js.CloseParenToken:
			if n := len(groups); n > 0 {
				closedHead = groups[n-1].header
				groups = groups[:n-1]
			}
		case js.CloseBraceToken:
			if n := len(groups); n > 0 {
				groups = groups[:n-1]
			}
		case js.SemicolonToken:
			inParens := len(groups) > 0 && groups[len(groups)-1].paren
			if !inParens && !newline && !afterHead && !emptyStatementAt(prev) {
				strippable[len(toks)] = true
			}
		}
		toks = append(toks, token{tt, data})
		prev, newline = tt, false
	}
}

// endsLine reports whether only blank space separates toks[from:] from the
// end of the line, and the next line does not continue the statement.
func endsLine(toks []token, from int) bool {
	brokeLine := false
	for _, tok := range toks[from:] {
		switch tok.tt {
		case js.WhitespaceToken, js.CommentToken:
			continue
		case js.LineTerminatorToken, js.CommentLineTerminatorToken:
			brokeLine = true
			continue
		}
		return brokeLine && !continuesStatement(tok.data)
	}
	return true
}

func continuesStatement(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	switch data[0] {
	case '(', '[', '`', '+', '-', '/':
		return true
	}
	return false
}

// startsOperand reports whether a slash after prev begins a regular
// expression rather than a division.
func startsOperand(prev js.TokenType) bool {
	if js.IsIdentifier(prev) || js.IsNumeric(prev) {
		return false
	}
	switch prev {
	case js.StringToken, js.TemplateToken, js.TemplateEndToken, js.RegExpToken,
		js.PrivateIdentifierToken, js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.IncrToken, js.DecrToken,
		js.ThisToken, js.SuperToken, js.NullToken, js.TrueToken, js.FalseToken:
		return false
	}
	return true
}

func opensHeader(prev js.TokenType) bool {
	switch prev {
	case js.IfToken, js.ForToken, js.WhileToken, js.WithToken:
		return true
	}
	return false
}

// emptyStatementAt reports whether a semicolon after prev is a statement of
// its own.
func emptyStatementAt(prev js.TokenType) bool {
	switch prev {
	case js.ErrorToken, js.SemicolonToken, js.OpenBraceToken, js.ColonToken, js.ElseToken, js.DoToken:
		return true
	}
	return false
}
