// Package query decodes loader resource queries such as
// "?vue&type=style&index=1&scoped" and encodes block attributes back into them.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/conneroisu/sfcloader/internal/errors"
)

// Block types recognised in the type key.
const (
	TypeTemplate = "template"
	TypeScript   = "script"
	TypeStyle    = "style"
	TypeCustom   = "custom"
)

// Query is the decoded form of one request's query string.
type Query struct {
	Type  string
	Index *int
	ID    string
	Lang  string

	Values url.Values
}

// Parse decodes a resource query. A leading "?" is optional.
func Parse(resourceQuery string) (*Query, error) {
	raw := strings.TrimPrefix(resourceQuery, "?")
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidQuery, "malformed resource query "+strconv.Quote(resourceQuery)).
			WithContext("cause", err.Error())
	}

	q := &Query{
		Type:   values.Get("type"),
		ID:     values.Get("id"),
		Lang:   values.Get("lang"),
		Values: values,
	}

	if values.Has("index") {
		idx, err := strconv.Atoi(values.Get("index"))
		if err != nil || idx < 0 {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidQuery, "index must be a non-negative integer, got "+strconv.Quote(values.Get("index")))
		}
		q.Index = &idx
	}

	return q, nil
}

// Has reports whether key is present, with or without a value.
func (q *Query) Has(key string) bool {
	if q == nil || q.Values == nil {
		return false
	}
	return q.Values.Has(key)
}

// Scoped reports the scoped presence flag.
func (q *Query) Scoped() bool { return q.Has("scoped") }

// Functional reports the functional presence flag.
func (q *Query) Functional() bool { return q.Has("functional") }

// Comment reports the comment presence flag.
func (q *Query) Comment() bool { return q.Has("comment") }

// Attr is one attribute of a component block, in source order.
type Attr struct {
	Name  string
	Value string
}

var ignoredAttrs = map[string]bool{
	"id":    true,
	"index": true,
	"src":   true,
	"type":  true,
}

// AttrsToQuery renders block attributes as "&name=value" pairs. Value-less
// attributes carry "true". When no lang attribute is present and
// langFallback is set, "&lang=<langFallback>" is appended.
func AttrsToQuery(attrs []Attr, langFallback string) string {
	var b strings.Builder
	hasLang := false

	for _, attr := range attrs {
		if ignoredAttrs[attr.Name] {
			continue
		}
		if attr.Name == "lang" {
			hasLang = true
		}
		b.WriteByte('&')
		b.WriteString(Escape(attr.Name))
		b.WriteByte('=')
		b.WriteString(Escape(attr.Value))
	}

	if langFallback != "" && !hasLang {
		b.WriteString("&lang=")
		b.WriteString(Escape(langFallback))
	}

	return b.String()
}

// unreserved restores the characters Node's querystring.escape leaves as is.
var unreserved = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// Escape percent-encodes s as a query component, with spaces as %20.
// ! ' ( ) and * are left unescaped.
func Escape(s string) string {
	return unreserved.Replace(url.QueryEscape(s))
}
