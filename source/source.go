package source

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// Source is a single piece of CSS or content to be processed.
type Source interface {
	// Name identifies source in logs and errors.
	Name() string
	// Content returns source text converted to UTF-8.
	Content() ([]byte, error)
	// Digest returns string which changes whenever source content changes.
	Digest() (string, error)
}

// File is a source backed by a file.
type File struct {
	fsys          Filesystem
	path          string
	contentType   string
	detectChanges bool
	enc           encoding.Encoding
	digest        string
}

// NewFile creates file source. When detectChanges is false digest is
// computed from the path alone and file is not read until its content is
// requested.
func NewFile(fsys Filesystem, path string, detectChanges bool) *File {
	if fsys == nil {
		fsys = OSFilesystem{}
	}
	return &File{
		fsys:          fsys,
		path:          path,
		contentType:   contentTypeOf(path),
		detectChanges: detectChanges,
	}
}

// WithEncoding forces file content to be decoded from enc regardless of what
// detection says. Nil restores detection.
func (f *File) WithEncoding(enc encoding.Encoding) *File {
	f.enc = enc
	return f
}

func (f *File) Name() string {
	return f.path
}

func (f *File) Content() ([]byte, error) {
	data, err := f.fsys.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return Decode(data, f.contentType, f.enc)
}

func (f *File) Digest() (string, error) {
	if f.digest != "" {
		return f.digest, nil
	}
	if !f.detectChanges {
		if !f.fsys.Exists(f.path) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, f.path)
		}
		f.digest = f.path
		return f.digest, nil
	}
	digest, err := f.fsys.Digest(f.path)
	if err != nil {
		return "", err
	}
	f.digest = digest
	return f.digest, nil
}

// Text is a source with literal content.
type Text struct {
	name    string
	content []byte
}

// NewText creates literal source, name is only used for logging.
func NewText(name string, content []byte) *Text {
	if name == "" {
		name = "<text>"
	}
	return &Text{name: name, content: content}
}

func (t *Text) Name() string {
	return t.name
}

func (t *Text) Content() ([]byte, error) {
	return t.content, nil
}

func (t *Text) Digest() (string, error) {
	return HashBytes(t.content), nil
}

// Decode converts data to UTF-8. Forced encoding is always applied, otherwise
// data is converted when its encoding is known for certain (BOM, charset in
// content type) or when it is not valid UTF-8 to begin with.
func Decode(data []byte, contentType string, forced encoding.Encoding) ([]byte, error) {
	enc := forced
	if enc == nil {
		detected, name, certain := charset.DetermineEncoding(data, contentType)
		if name == "utf-8" || (!certain && utf8.Valid(data)) {
			return data, nil
		}
		enc = detected
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to decode content: %w", ErrRead, err)
	}
	return out, nil
}
