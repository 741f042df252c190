// Package index keeps parsed CSS definitions grouped by media context and
// indexed by selector words, and rebuilds CSS from the definitions matching
// a set of words.
package index

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"relcss/cache"
	"relcss/css"
	"relcss/selector"
	"relcss/source"
)

// Parser turns CSS text into a tree of at-rule and declaration blocks.
type Parser interface {
	Parse(data []byte, source ...string) (*css.Stylesheet, error)
}

// Selectors lists original selectors of a single declaration block reducing
// to the same word.
type Selectors struct {
	Word      string
	Selectors []string
}

// Definition is a single recorded declaration block.
type Definition struct {
	Words  []Selectors // in order of first appearance in the selector list
	Styles string      // rendered declarations, never empty
}

// Group holds definitions sharing media context ("" for top level).
type Group struct {
	Media       string
	Definitions []Definition
	// Words maps word to ascending positions in Definitions
	Words map[string][]int
}

// corpus is the complete derived state, everything which survives a cache
// round-trip.
type corpus struct {
	groups     []*Group
	media      map[string]*Group
	optional   map[string]bool
	compulsory map[string]bool
}

func newCorpus() *corpus {
	return &corpus{
		media:      make(map[string]*Group),
		optional:   make(map[string]bool),
		compulsory: make(map[string]bool),
	}
}

// Index is CSS corpus built from a list of sources. It is not safe for
// concurrent use.
type Index struct {
	log     *zap.Logger
	parser  Parser
	store   cache.Store
	sources []source.Source
	custom  map[string]bool

	digest string
	data   *corpus
}

// Option configures Index.
type Option func(*Index)

// WithParser replaces default CSS parser.
func WithParser(p Parser) Option {
	return func(x *Index) {
		x.parser = p
	}
}

// WithStore enables caching of extracted definitions.
func WithStore(s cache.Store) Option {
	return func(x *Index) {
		x.store = s
	}
}

func New(log *zap.Logger, opts ...Option) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	x := &Index{
		log:    log.Named("index"),
		custom: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.parser == nil {
		x.parser = css.NewParser(log)
	}
	return x
}

// AddSource appends CSS source. Previously extracted state is discarded.
func (x *Index) AddSource(src source.Source) *Index {
	x.sources = append(x.sources, src)
	x.digest, x.data = "", nil
	return x
}

// Reset forgets all sources, always included selectors and derived state.
func (x *Index) Reset() *Index {
	x.sources, x.custom = nil, make(map[string]bool)
	x.digest, x.data = "", nil
	return x
}

// Sources returns CSS sources in the order they were added.
func (x *Index) Sources() []source.Source {
	return x.sources
}

// AlwaysInclude registers selectors whose rules are kept regardless of
// content. Every selector-like token of the input is reduced to its word.
// These words never go to the cache.
func (x *Index) AlwaysInclude(selectors ...string) *Index {
	for w := range selector.CustomWords(selectors...) {
		x.custom[w] = true
	}
	return x
}

// Digest identifies the current list of sources and their content.
func (x *Index) Digest() (string, error) {
	if x.digest != "" {
		return x.digest, nil
	}

	var (
		parts []string
		err   error
	)
	for _, src := range x.sources {
		d, derr := src.Digest()
		if derr != nil {
			err = multierr.Append(err, fmt.Errorf("css source %s: %w", src.Name(), derr))
			continue
		}
		parts = append(parts, d)
	}
	if err != nil {
		return "", err
	}

	h := md5.New()
	for _, p := range parts {
		io.WriteString(h, p)
		h.Write([]byte{0})
	}
	x.digest = hex.EncodeToString(h.Sum(nil))
	return x.digest, nil
}

// Load makes sure definitions are available: restores them from the cache
// when possible, otherwise extracts them from sources and caches the result.
// Only source access failures are reported, cache and parsing problems are
// logged and worked around.
func (x *Index) Load() error {
	if x.data != nil {
		return nil
	}

	digest, err := x.Digest()
	if err != nil {
		return err
	}

	if data := x.loadCached(digest); data != nil {
		x.data = data
		return nil
	}

	data, err := x.extract()
	if err != nil {
		return err
	}
	x.data = data
	x.saveCached(digest, data)
	return nil
}

// Loaded reports whether definitions are ready for use.
func (x *Index) Loaded() bool {
	return x.data != nil
}

// OptionalWords returns words which have to be seen in content for their
// rules to be kept. Load must be called first.
func (x *Index) OptionalWords() map[string]bool {
	if x.data == nil {
		return nil
	}
	return x.data.optional
}

// CompulsoryWords returns words whose rules are always kept, including ones
// registered with AlwaysInclude. Load must be called first.
func (x *Index) CompulsoryWords() map[string]bool {
	words := make(map[string]bool, len(x.custom))
	if x.data != nil {
		for w := range x.data.compulsory {
			words[w] = true
		}
	}
	for w := range x.custom {
		words[w] = true
	}
	return words
}

func (x *Index) loadCached(digest string) *corpus {
	if x.store == nil {
		return nil
	}
	payload, err := x.store.Load(digest)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			x.log.Debug("Cache miss", zap.String("digest", digest))
		} else {
			x.log.Warn("Unable to read cache, ignoring", zap.String("digest", digest), zap.Error(err))
		}
		return nil
	}
	data, err := unmarshalSnapshot(payload)
	if err != nil {
		x.log.Warn("Unable to use cached definitions, ignoring", zap.String("digest", digest), zap.Error(err))
		return nil
	}
	x.log.Debug("Definitions loaded from cache", zap.String("digest", digest), zap.Int("groups", len(data.groups)))
	return data
}

func (x *Index) saveCached(digest string, data *corpus) {
	if x.store == nil {
		return
	}
	payload, err := marshalSnapshot(data)
	if err != nil {
		x.log.Warn("Unable to serialize definitions, not caching", zap.Error(err))
		return
	}
	if err := x.store.Save(digest, payload); err != nil {
		x.log.Warn("Unable to write cache, ignoring", zap.String("digest", digest), zap.Error(err))
		return
	}
	x.log.Debug("Definitions cached", zap.String("digest", digest), zap.Int("bytes", len(payload)))
}

// extract parses every source in order. Unreadable sources are fatal,
// unparsable ones contribute nothing.
func (x *Index) extract() (*corpus, error) {
	data := newCorpus()

	var err error
	for _, src := range x.sources {
		text, rerr := src.Content()
		if rerr != nil {
			err = multierr.Append(err, fmt.Errorf("css source %s: %w", src.Name(), rerr))
			continue
		}
		sheet, perr := x.parser.Parse(text, src.Name())
		if perr != nil {
			x.log.Warn("Unable to parse css, skipping", zap.String("source", src.Name()), zap.Error(perr))
			continue
		}
		for _, w := range sheet.Warnings {
			x.log.Debug("CSS problem skipped", zap.String("source", src.Name()), zap.String("details", w))
		}
		data.ingest(sheet)
	}
	if err != nil {
		return nil, err
	}
	x.log.Debug("Definitions extracted", zap.Int("sources", len(x.sources)), zap.Int("groups", len(data.groups)),
		zap.Int("optional", len(data.optional)), zap.Int("compulsory", len(data.compulsory)))
	return data, nil
}

func (c *corpus) ingest(sheet *css.Stylesheet) {
	sheet.Walk(func(media string, block *css.DeclarationBlock) {
		c.record(media, block.Selectors, block.Styles())
	})
}

func (c *corpus) record(media string, selectors []string, styles string) {
	if len(styles) == 0 {
		return
	}

	def := Definition{Styles: styles}
	for _, sel := range selectors {
		word, optional := selector.Reduce(sel)
		c.mark(word, optional)
		def.add(word, sel)
	}

	g := c.group(media)
	pos := len(g.Definitions)
	g.Definitions = append(g.Definitions, def)
	for _, ws := range def.Words {
		g.Words[ws.Word] = append(g.Words[ws.Word], pos)
	}
}

// mark records word as optional or compulsory, compulsory always wins.
func (c *corpus) mark(word string, optional bool) {
	switch {
	case !optional:
		c.compulsory[word] = true
		delete(c.optional, word)
	case !c.compulsory[word]:
		c.optional[word] = true
	}
}

func (c *corpus) group(media string) *Group {
	if g, ok := c.media[media]; ok {
		return g
	}
	g := &Group{Media: media, Words: make(map[string][]int)}
	c.groups = append(c.groups, g)
	c.media[media] = g
	return g
}

func (d *Definition) add(word, sel string) {
	for i := range d.Words {
		if d.Words[i].Word == word {
			d.Words[i].Selectors = append(d.Words[i].Selectors, sel)
			return
		}
	}
	d.Words = append(d.Words, Selectors{Word: word, Selectors: []string{sel}})
}

// String renders definition as CSS rule with all its selectors.
func (d Definition) String() string {
	var sels []string
	for _, ws := range d.Words {
		sels = append(sels, ws.Selectors...)
	}
	return strings.Join(sels, ",") + "{" + d.Styles + "}"
}
