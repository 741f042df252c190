// Package relcss produces CSS containing only the rules relevant to a set of
// content sources.
//
// Typical use:
//
//	css, err := relcss.New().
//		AddCSSFile("styles/site.css").
//		AddContentFile("templates/index.html").
//		AlwaysInclude(".modal, .tooltip").
//		Render("")
package relcss

import (
	"go.uber.org/zap"

	"relcss/cache"
	"relcss/index"
	"relcss/scan"
	"relcss/source"
)

// Builder accumulates CSS and content sources and renders reduced CSS. Every
// configuration call invalidates previously rendered result. Builder is not
// safe for concurrent use.
type Builder struct {
	log           *zap.Logger
	fsys          source.Filesystem
	detectChanges bool

	index   *index.Index
	scanner *scan.Scanner

	removeUnused bool
	minify       bool

	rendered bool
	ws       string
	output   string
}

// Option configures Builder.
type Option func(*builderOptions)

type builderOptions struct {
	log           *zap.Logger
	fsys          source.Filesystem
	store         cache.Store
	detectChanges bool
}

// WithLogger sets logger, default is no logging.
func WithLogger(log *zap.Logger) Option {
	return func(o *builderOptions) {
		o.log = log
	}
}

// WithFilesystem replaces filesystem used for file sources.
func WithFilesystem(fsys source.Filesystem) Option {
	return func(o *builderOptions) {
		o.fsys = fsys
	}
}

// WithCache enables caching of extracted CSS definitions.
func WithCache(store cache.Store) Option {
	return func(o *builderOptions) {
		o.store = store
	}
}

// WithChangeDetection controls whether CSS file content takes part in cache
// key (default). When disabled edits to already cached files go unnoticed.
func WithChangeDetection(on bool) Option {
	return func(o *builderOptions) {
		o.detectChanges = on
	}
}

func New(opts ...Option) *Builder {
	o := builderOptions{fsys: source.OSFilesystem{}, detectChanges: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	var xopts []index.Option
	if o.store != nil {
		xopts = append(xopts, index.WithStore(o.store))
	}
	return &Builder{
		log:           o.log,
		fsys:          o.fsys,
		detectChanges: o.detectChanges,
		index:         index.New(o.log, xopts...),
		scanner:       scan.New(o.log),
		removeUnused:  true,
	}
}

// AddCSSFile registers CSS files. Files are not touched until Render.
func (b *Builder) AddCSSFile(paths ...string) *Builder {
	for _, p := range paths {
		b.index.AddSource(source.NewFile(b.fsys, p, b.detectChanges))
	}
	return b.invalidate()
}

// AddCSS registers literal CSS text.
func (b *Builder) AddCSS(text string) *Builder {
	b.index.AddSource(source.NewText("<css>", []byte(text)))
	return b.invalidate()
}

// AddCSSSource registers arbitrary CSS sources.
func (b *Builder) AddCSSSource(sources ...source.Source) *Builder {
	for _, src := range sources {
		b.index.AddSource(src)
	}
	return b.invalidate()
}

// AddContentFile registers files to be searched for used selectors.
func (b *Builder) AddContentFile(paths ...string) *Builder {
	for _, p := range paths {
		b.scanner.Add(source.NewFile(b.fsys, p, b.detectChanges))
	}
	return b.invalidate()
}

// AddContent registers literal content text.
func (b *Builder) AddContent(text string) *Builder {
	b.scanner.Add(source.NewText("<content>", []byte(text)))
	return b.invalidate()
}

// AddContentSource registers arbitrary content sources.
func (b *Builder) AddContentSource(sources ...source.Source) *Builder {
	b.scanner.Add(sources...)
	return b.invalidate()
}

// AlwaysInclude keeps rules for selectors regardless of content. Each
// argument may hold several comma separated selectors.
func (b *Builder) AlwaysInclude(selectors ...string) *Builder {
	b.index.AlwaysInclude(selectors...)
	return b.invalidate()
}

// RemoveUnused controls whether rules not matched by content are dropped
// (default). When off, content is not read at all.
func (b *Builder) RemoveUnused(on bool) *Builder {
	b.removeUnused = on
	return b.invalidate()
}

// Minify controls whether output is a single line.
func (b *Builder) Minify(on bool) *Builder {
	b.minify = on
	return b.invalidate()
}

// Render produces the resulting CSS, every line prefixed with ws. Result is
// memoized until configuration or ws changes. Missing or unreadable sources
// are reported as errors.
func (b *Builder) Render(ws string) (string, error) {
	if b.rendered && b.ws == ws {
		return b.output, nil
	}

	if err := b.index.Load(); err != nil {
		return "", err
	}

	opts := index.BuildOptions{
		Minify:            b.minify,
		LeadingWhitespace: ws,
		All:               !b.removeUnused,
	}

	var detected map[string]bool
	if b.removeUnused {
		found, err := b.scanner.Scan(b.index.OptionalWords())
		if err != nil {
			return "", err
		}
		detected = found
	}

	b.output = b.index.BuildCSS(detected, opts)
	b.rendered, b.ws = true, ws
	b.log.Debug("CSS rendered",
		zap.Int("css sources", len(b.index.Sources())),
		zap.Int("content sources", len(b.scanner.Sources())),
		zap.Int("words detected", len(detected)),
		zap.Int("bytes", len(b.output)))
	return b.output, nil
}

// Index exposes extracted definitions, mostly for diagnostics.
func (b *Builder) Index() *index.Index {
	return b.index
}

func (b *Builder) invalidate() *Builder {
	b.rendered, b.output = false, ""
	return b
}
