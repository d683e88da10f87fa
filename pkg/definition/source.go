package definition

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Source identifies where a webform definition lives. Besides the loader
// modality it names the form its location implies: a Drupal config export at
// "config/webform.webform.contact.yml" holds the "contact" form.
type Source interface {
	Kind() SourceKind
	Location() string
	FormID() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// drupalConfigPrefix prefixes webform config export names.
const drupalConfigPrefix = "webform.webform."

type source struct {
	kind     SourceKind
	location string
}

func (s source) Kind() SourceKind { return s.kind }
func (s source) Location() string { return s.location }
func (s source) FormID() string   { return FormIDFromLocation(s.location) }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(p string) Source {
	return source{kind: SourceKindFile, location: filepath.Clean(p)}
}

// SourceFromFS returns a Source naming an entry of an fs.FS.
func SourceFromFS(name string) Source {
	return source{kind: SourceKindFS, location: path.Clean(name)}
}

// SourceFromURL returns a Source for an HTTP endpoint. It panics on an invalid
// URL; use ParseSource for user input.
func SourceFromURL(raw string) Source {
	src, err := parseURLSource(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// ParseSource reads a command-line style location: http and https URLs load
// over HTTP, anything else is a file path.
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("definition: empty source")
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return parseURLSource(raw)
	}
	return SourceFromFile(raw), nil
}

func parseURLSource(raw string) (Source, error) {
	if raw == "" {
		return nil, errors.New("definition: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return nil, fmt.Errorf("definition: invalid URL %q: %w", raw, err)
	}
	return source{kind: SourceKindURL, location: raw}, nil
}

// FormIDFromLocation strips directories, query, extension and the Drupal
// config prefix from a path or URL.
func FormIDFromLocation(location string) string {
	base := path.Base(strings.ReplaceAll(location, "\\", "/"))
	if idx := strings.IndexAny(base, "?#"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.TrimPrefix(base, drupalConfigPrefix)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
