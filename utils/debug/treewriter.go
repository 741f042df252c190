// Package debug renders indented trees for manual inspection of internal
// structures.
package debug

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
)

// wordsPerLine limits how many set members Set puts on a single line.
const wordsPerLine = 8

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label with quoted value, empty value is left as is.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Set writes label with member count followed by members in natural order,
// several quoted members per line.
func (tw TreeWriter) Set(depth int, label string, set map[string]bool) {
	keys := make([]string, 0, len(set))
	for k, ok := range set {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Sort(natural.StringSlice(keys))

	tw.Line(depth, "%s: %d", label, len(keys))
	for start := 0; start < len(keys); start += wordsPerLine {
		end := min(start+wordsPerLine, len(keys))
		quoted := make([]string, 0, end-start)
		for _, k := range keys[start:end] {
			quoted = append(quoted, strconv.Quote(k))
		}
		tw.Line(depth+1, "%s", strings.Join(quoted, " "))
	}
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
