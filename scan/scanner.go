// Package scan looks for selector words in content sources.
package scan

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"relcss/selector"
	"relcss/source"
)

// Scanner checks content sources for presence of candidate words.
type Scanner struct {
	log     *zap.Logger
	sources []source.Source
}

func New(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log.Named("scanner")}
}

// Add appends content sources.
func (s *Scanner) Add(sources ...source.Source) *Scanner {
	s.sources = append(s.sources, sources...)
	return s
}

// Sources returns content sources in the order they were added.
func (s *Scanner) Sources() []source.Source {
	return s.sources
}

// Reset forgets all content sources.
func (s *Scanner) Reset() *Scanner {
	s.sources = nil
	return s
}

// Scan returns candidates found in any of the sources. Sources which could
// not be read are all reported in a single error.
func (s *Scanner) Scan(candidates map[string]bool) (map[string]bool, error) {
	found := make(map[string]bool)

	var err error
	for _, src := range s.sources {
		text, rerr := src.Content()
		if rerr != nil {
			err = multierr.Append(err, fmt.Errorf("content source %s: %w", src.Name(), rerr))
			continue
		}
		matched := 0
		for w := range selector.Words(string(text)) {
			if candidates[w] && !found[w] {
				found[w] = true
				matched++
			}
		}
		s.log.Debug("Content scanned", zap.String("source", src.Name()), zap.Int("bytes", len(text)), zap.Int("new words", matched))
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}
