// Package selector reduces CSS selectors to coarse words which could be
// searched for in arbitrary content.
package selector

import (
	"regexp"
	"strings"
)

// attributeName extracts attribute name from selectors like "[type=checkbox]" or "[hidden]".
var attributeName = regexp.MustCompile(`\[([^=\]]+).*\]`)

// Reduce takes css selector and breaks it down into a single lowercase word
// which could be looked for in content. Optional reports whether rules using
// the word should be kept only when the word is seen in content, otherwise
// they are always kept.
//
// Only rightmost simple selector is considered, class part wins over element
// part ("img.thumbnail" and ".thumbnail" both reduce to "thumbnail").
func Reduce(sel string) (word string, optional bool) {
	// use the last part when selector depth is > 1
	parts := strings.Split(strings.TrimSpace(strings.ToLower(sel)), " ")
	word = parts[len(parts)-1]

	// use class part of the selector
	parts = strings.Split(word, ".")
	word = parts[len(parts)-1]

	optional = !(strings.HasPrefix(word, ":") || strings.HasPrefix(word, "*"))

	word, optional = stripSquareBracket(word, optional)

	if strings.HasPrefix(word, ".") {
		word = word[1:]
		optional = true
	}

	word = stripAfterColon(word)

	if strings.HasPrefix(word, ":") {
		optional = false
	} else {
		word = unescape(word)
	}
	return word, optional
}

func stripSquareBracket(word string, optional bool) (string, bool) {
	pos := strings.IndexByte(word, '[')
	switch {
	case pos < 0:
		return word, optional
	case pos == 0:
		// grab the part before "="
		if m := attributeName.FindStringSubmatch(word); m != nil {
			return m[1], true
		}
		return word, optional
	default:
		return word[:pos], true
	}
}

// stripAfterColon removes everything starting with first unescaped ":" unless
// nothing would be left (pseudo elements like "::after").
func stripAfterColon(word string) string {
	const escaped = `\:`

	parts := strings.Split(word, escaped)
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if before, _, found := strings.Cut(part, ":"); found {
			kept = append(kept, before)
			break
		}
		kept = append(kept, part)
	}
	if stripped := strings.Join(kept, escaped); len(stripped) > 0 {
		return stripped
	}
	return word
}

// unescape drops backslashes keeping characters they escape, a doubled
// backslash becomes single one.
func unescape(word string) string {
	if !strings.ContainsRune(word, '\\') {
		return word
	}
	var b strings.Builder
	b.Grow(len(word))
	for i := 0; i < len(word); i++ {
		if word[i] == '\\' {
			i++
			if i == len(word) {
				break
			}
		}
		b.WriteByte(word[i])
	}
	return b.String()
}
