package selector

import (
	"regexp"
	"strings"
)

var (
	// words including "/" (keeps path-like attribute values)
	wordsWithSlash = regexp.MustCompile(`[a-z0-9_\-/.:]+`)
	// words excluding "/" (catches self-closing tags like "hr" in "<hr/>")
	wordsNoSlash = regexp.MustCompile(`[a-z0-9_\-.:]+`)
)

// Words returns set of all tokens in text which could match reduced
// selectors. The set is deliberately over-inclusive: false positives only keep
// extra rules.
func Words(text string) map[string]bool {
	text = strings.ToLower(text)

	words := make(map[string]bool)
	for _, w := range wordsWithSlash.FindAllString(text, -1) {
		words[w] = true
	}
	for _, w := range wordsNoSlash.FindAllString(text, -1) {
		words[w] = true
	}
	return words
}

// CustomWords reduces manually specified selectors (possibly several in a
// single comma separated string) to the words which must always be kept.
func CustomWords(selectors ...string) map[string]bool {
	words := make(map[string]bool)
	for _, s := range selectors {
		for _, token := range wordsWithSlash.FindAllString(strings.ToLower(s), -1) {
			word, _ := Reduce(token)
			words[word] = true
		}
	}
	return words
}
