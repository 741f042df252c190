package index

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"relcss/utils/debug"
)

// String returns a readable tree of sources and extracted definitions.
// It exists solely for manual inspection.
func (x *Index) String() string {
	tw := debug.NewTreeWriter()

	tw.Line(0, "Sources: %d", len(x.sources))
	for i, src := range x.sources {
		tw.Line(1, "Source[%d] %q", i, src.Name())
	}
	if x.digest != "" {
		tw.Line(0, "Digest: %s", x.digest)
	}

	if len(x.custom) > 0 {
		tw.Set(0, "Always included words", x.custom)
	}

	if x.data == nil {
		tw.Line(0, "Definitions are not loaded")
		return tw.String()
	}

	for _, g := range x.data.groups {
		tw.TextBlock(0, "Media", g.Media)
		tw.Line(1, "Definitions: %d", len(g.Definitions))
		for i, d := range g.Definitions {
			tw.Line(2, "Definition[%d]", i)
			for _, ws := range d.Words {
				tw.Line(3, "Word[%q] %s selectors=%q", ws.Word, x.data.kind(ws.Word), ws.Selectors)
			}
			tw.TextBlock(3, "Styles", d.Styles)
		}
		keys := slices.Collect(maps.Keys(g.Words))
		sort.Sort(natural.StringSlice(keys))
		tw.Line(1, "Word index: %d", len(keys))
		for _, k := range keys {
			tw.Line(2, "Word[%q] positions=%v", k, g.Words[k])
		}
	}

	tw.Set(0, "Optional words", x.data.optional)
	tw.Set(0, "Compulsory words", x.data.compulsory)
	return tw.String()
}

func (c *corpus) kind(word string) string {
	if c.compulsory[word] {
		return "compulsory"
	}
	return "optional"
}
