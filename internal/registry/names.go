package registry

import (
	"fmt"
	"hash/crc32"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// ComponentID hashes a root-relative path into the eight hex digit id used
// for scoped attributes and hot reload records. Paths are normalised to
// forward slashes so ids are stable across platforms.
func ComponentID(relPath string) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(filepath.ToSlash(relPath))))
}

// ComponentName derives a PascalCase name from a file name, so
// "user-card.vue" becomes "UserCard".
func ComponentName(path string) string {
	return strings.ReplaceAll(DisplayName(path), " ", "")
}

// DisplayName derives a human readable title from a file name, so
// "user_card.vue" becomes "User Card".
func DisplayName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = splitCamel(w)
	}
	return titleCaser.String(strings.Join(words, " "))
}

// splitCamel inserts spaces at lower-to-upper transitions.
func splitCamel(s string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range s {
		if unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
