// Package loader reads webform definition documents from files, fs.FS
// entries or HTTP endpoints.
package loader

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-webform/pkg/definition"
)

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the filesystem used for fs sources.
func WithFS(files fs.FS) Option {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL sources using the supplied client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client == nil {
			return
		}
		clone := *client
		l.http = &clone
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// Loader implements definition.Loader by delegating to file, fs.FS, or HTTP
// strategies. URL sources are rejected unless an HTTP client was configured.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

var _ definition.Loader = (*Loader)(nil)

// New constructs a Loader.
func New(options ...Option) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	if l.http != nil && l.timeout > 0 && l.http.Timeout == 0 {
		l.http.Timeout = l.timeout
	}
	return l
}

// Load fetches a document from the provided source.
func (l *Loader) Load(ctx context.Context, src definition.Source) (definition.Document, error) {
	if src == nil {
		return definition.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case definition.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case definition.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case definition.SourceKindURL:
		if l.http == nil {
			return definition.Document{}, errors.New("loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = errors.New("loader: unsupported source kind")
	}
	if err != nil {
		return definition.Document{}, err
	}

	return definition.NewDocument(src, data)
}
