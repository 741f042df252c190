package index

import (
	"slices"
	"strings"
)

const (
	newline = "\n"
	indent  = "    "
)

// BuildOptions controls CSS reassembly.
type BuildOptions struct {
	Minify bool
	// LeadingWhitespace prefixes every produced line.
	LeadingWhitespace string
	// All ignores detected words and emits every definition.
	All bool
}

// BuildCSS reassembles CSS from definitions matching words. Used words are
// detected ones plus compulsory and always included words (or every known
// word with All). Rules keep source order within media group, only matching
// selectors of a rule are emitted, groups follow order of first appearance.
// Load must be called first, otherwise result is empty.
func (x *Index) BuildCSS(detected map[string]bool, opts BuildOptions) string {
	if x.data == nil {
		return ""
	}

	used := x.usedWords(detected, opts.All)

	var (
		media []string
		rules = make(map[string][]string)
	)
	for _, g := range x.data.groups {
		if r := g.rules(used); len(r) > 0 {
			media = append(media, g.Media)
			rules[g.Media] = r
		}
	}

	ws := opts.LeadingWhitespace
	var b strings.Builder

	if opts.Minify {
		b.WriteString(ws)
		for _, m := range media {
			if m != "" {
				b.WriteString(m + "{")
			}
			b.WriteString(strings.Join(rules[m], ""))
			if m != "" {
				b.WriteString("}")
			}
		}
		b.WriteString(newline)
		return b.String()
	}

	for _, m := range media {
		if m == "" {
			b.WriteString(ws + strings.Join(rules[m], newline+ws) + newline)
			continue
		}
		b.WriteString(ws + m + "{" + newline)
		b.WriteString(ws + indent + strings.Join(rules[m], newline+ws+indent) + newline)
		b.WriteString(ws + "}" + newline)
	}
	return b.String()
}

func (x *Index) usedWords(detected map[string]bool, all bool) map[string]bool {
	used := make(map[string]bool)
	if all {
		for _, g := range x.data.groups {
			for w := range g.Words {
				used[w] = true
			}
		}
		return used
	}
	for w := range x.data.compulsory {
		used[w] = true
	}
	for w := range x.custom {
		used[w] = true
	}
	for w, ok := range detected {
		if ok {
			used[w] = true
		}
	}
	return used
}

// rules renders matching definitions of the group in source order.
func (g *Group) rules(used map[string]bool) []string {
	seen := make(map[int]bool)
	var positions []int
	for w, list := range g.Words {
		if !used[w] {
			continue
		}
		for _, pos := range list {
			if !seen[pos] {
				seen[pos] = true
				positions = append(positions, pos)
			}
		}
	}
	slices.Sort(positions)

	out := make([]string, 0, len(positions))
	for _, pos := range positions {
		def := g.Definitions[pos]
		var sels []string
		for _, ws := range def.Words {
			if used[ws.Word] {
				sels = append(sels, ws.Selectors...)
			}
		}
		if len(sels) > 0 {
			out = append(out, strings.Join(sels, ",")+"{"+def.Styles+"}")
		}
	}
	return out
}
