package index

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amazon-ion/ion-go/ion"
)

// snapshotVersion changes whenever layout of cached data or extraction rules
// change, older snapshots are ignored.
const snapshotVersion = 1

var errSnapshotVersion = errors.New("unsupported snapshot version")

type snapshot struct {
	Version    int             `ion:"version"`
	Groups     []snapshotGroup `ion:"groups"`
	Optional   []string        `ion:"optional_words"`
	Compulsory []string        `ion:"compulsory_words"`
}

type snapshotGroup struct {
	Media       string               `ion:"media"`
	Definitions []snapshotDefinition `ion:"definitions"`
	WordIndexes []snapshotWordIndex  `ion:"word_indexes"`
}

type snapshotDefinition struct {
	Selectors []snapshotSelectors `ion:"selectors"`
	Styles    string              `ion:"styles"`
}

type snapshotSelectors struct {
	Word      string   `ion:"word"`
	Selectors []string `ion:"selectors"`
}

type snapshotWordIndex struct {
	Word      string `ion:"word"`
	Positions []int  `ion:"positions"`
}

// marshalSnapshot encodes derived state as binary Ion. Group, definition and
// selector order is kept, sets and word indexes are sorted by word.
func marshalSnapshot(c *corpus) ([]byte, error) {
	s := snapshot{
		Version:    snapshotVersion,
		Optional:   sortedKeys(c.optional),
		Compulsory: sortedKeys(c.compulsory),
	}
	for _, g := range c.groups {
		sg := snapshotGroup{Media: g.Media}
		for _, d := range g.Definitions {
			sd := snapshotDefinition{Styles: d.Styles}
			for _, ws := range d.Words {
				sd.Selectors = append(sd.Selectors, snapshotSelectors{Word: ws.Word, Selectors: ws.Selectors})
			}
			sg.Definitions = append(sg.Definitions, sd)
		}
		for _, w := range sortedKeys(g.Words) {
			sg.WordIndexes = append(sg.WordIndexes, snapshotWordIndex{Word: w, Positions: g.Words[w]})
		}
		s.Groups = append(s.Groups, sg)
	}
	return ion.MarshalBinary(&s)
}

// unmarshalSnapshot restores derived state checking it is internally
// consistent.
func unmarshalSnapshot(data []byte) (*corpus, error) {
	var s snapshot
	if err := ion.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unable to decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", errSnapshotVersion, s.Version)
	}

	c := newCorpus()
	for _, w := range s.Optional {
		c.optional[w] = true
	}
	for _, w := range s.Compulsory {
		if c.optional[w] {
			return nil, fmt.Errorf("word %q is both optional and compulsory", w)
		}
		c.compulsory[w] = true
	}
	for _, sg := range s.Groups {
		if _, dup := c.media[sg.Media]; dup {
			return nil, fmt.Errorf("duplicate media group %q", sg.Media)
		}
		g := c.group(sg.Media)
		for _, sd := range sg.Definitions {
			if sd.Styles == "" {
				return nil, fmt.Errorf("empty styles in media group %q", sg.Media)
			}
			d := Definition{Styles: sd.Styles}
			for _, ss := range sd.Selectors {
				d.Words = append(d.Words, Selectors{Word: ss.Word, Selectors: ss.Selectors})
			}
			g.Definitions = append(g.Definitions, d)
		}
		for _, wi := range sg.WordIndexes {
			for _, pos := range wi.Positions {
				if pos < 0 || pos >= len(g.Definitions) {
					return nil, fmt.Errorf("word %q refers to missing definition %d in media group %q", wi.Word, pos, sg.Media)
				}
			}
			g.Words[wi.Word] = wi.Positions
		}
	}
	return c, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
