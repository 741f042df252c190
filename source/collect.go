package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"relcss/archive"
)

// header size filetype needs to recognize everything it knows about
const headSize = 262

// CollectOptions controls source discovery.
type CollectOptions struct {
	// Extensions (with leading dot, case insensitive) of files picked up
	// from directories and archives, empty means any non binary file.
	Extensions []string
	// DetectChanges is passed to every file source.
	DetectChanges bool
	// Encoding forces content decoding for all discovered sources.
	Encoding encoding.Encoding
}

// Collect turns paths into sources. Regular files are used as is, directories
// are walked recursively (files are taken in natural order) and zip archives
// contribute their matching entries. Paths which do not exist are reported
// together as a single error.
func Collect(ctx context.Context, paths []string, opts CollectOptions, log *zap.Logger) (sources []Source, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("collect")

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fi, serr := os.Stat(path)
		if serr != nil {
			err = multierr.Append(err, classify(path, serr))
			continue
		}

		switch {
		case fi.Mode().IsDir():
			found, derr := collectDir(ctx, path, opts, log)
			if derr != nil {
				err = multierr.Append(err, derr)
				continue
			}
			if len(found) == 0 {
				log.Debug("Nothing to process", zap.String("dir", path))
			}
			sources = append(sources, found...)

		case fi.Mode().IsRegular():
			zipped, aerr := isArchiveFile(path)
			if aerr != nil {
				err = multierr.Append(err, classify(path, aerr))
				continue
			}
			if !zipped {
				sources = append(sources, NewFile(OSFilesystem{}, path, opts.DetectChanges).WithEncoding(opts.Encoding))
				continue
			}
			found, zerr := collectArchive(path, opts, log)
			if zerr != nil {
				err = multierr.Append(err, zerr)
				continue
			}
			sources = append(sources, found...)

		default:
			err = multierr.Append(err, fmt.Errorf("%w: unexpected path mode for %s", ErrRead, path))
		}
	}
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func collectDir(ctx context.Context, dir string, opts CollectOptions, log *zap.Logger) ([]Source, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Sort(natural.StringSlice(files))

	var sources []Source
	for _, path := range files {
		head, err := readHead(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if filetype.Is(head, "zip") {
			found, err := collectArchive(path, opts, log)
			if err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				continue
			}
			sources = append(sources, found...)
			continue
		}
		if !opts.accepts(path) {
			continue
		}
		if isBinary(head) {
			log.Debug("Skipping binary file", zap.String("file", path))
			continue
		}
		sources = append(sources, NewFile(OSFilesystem{}, path, opts.DetectChanges).WithEncoding(opts.Encoding))
	}
	return sources, nil
}

func collectArchive(path string, opts CollectOptions, log *zap.Logger) ([]Source, error) {
	var sources []Source
	err := archive.Walk(path, opts.accepts, func(arc, name string, data []byte) error {
		if isBinary(data) {
			log.Debug("Skipping binary file in archive", zap.String("archive", arc), zap.String("file", name))
			return nil
		}
		text, err := Decode(data, contentTypeOf(name), opts.Encoding)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("file", name), zap.Error(err))
			return nil
		}
		sources = append(sources, NewText(arc+"/"+name, text))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: unable to process archive %s: %w", ErrRead, path, err)
	}
	return sources, nil
}

func (o CollectOptions) accepts(name string) bool {
	if len(o.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range o.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func isArchiveFile(path string) (bool, error) {
	head, err := readHead(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isBinary reports whether data starts with signature of a known binary
// format (images, fonts, media, documents).
func isBinary(head []byte) bool {
	kind, err := filetype.Match(head)
	return err == nil && kind != filetype.Unknown
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, headSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return head[:n], nil
}

func contentTypeOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css":
		return "text/css"
	case ".html", ".htm", ".xhtml", ".php", ".twig", ".tpl", ".vue":
		return "text/html"
	default:
		return "text/plain"
	}
}
