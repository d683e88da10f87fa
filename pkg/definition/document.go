package definition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// utf8BOM is stripped from payloads; some config exports carry it.
var utf8BOM = []byte("\xef\xbb\xbf")

// Document is a loaded, not yet decoded, webform definition.
type Document struct {
	source Source
	raw    []byte
}

// Loader fetches raw definition documents.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// NewDocument copies raw, without a leading byte order mark, into a Document.
// Blank payloads are rejected.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("definition: source is required")
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, fmt.Errorf("definition: document %s is empty", src.Location())
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument is NewDocument for fixtures; it panics on error.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// FormID is the form id implied by the document location, used when the
// payload does not declare one.
func (d Document) FormID() string {
	if d.source == nil {
		return ""
	}
	return d.source.FormID()
}
