package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-webform/pkg/definition"
)

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webform.webform.contact.yml")
	if err := os.WriteFile(path, []byte("name:\n  '#type': textfield\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := New().Load(context.Background(), definition.SourceFromFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	form, err := definition.DecodeDocument(doc)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if form.ID != "contact" {
		t.Fatalf("expected contact id, got %q", form.ID)
	}
}

func TestLoader_FS(t *testing.T) {
	fsys := fstest.MapFS{"forms/a.yml": {Data: []byte("a:\n  '#type': date\n")}}
	doc, err := New(WithFS(fsys)).Load(context.Background(), definition.SourceFromFS("forms/a.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Location() != "forms/a.yml" {
		t.Fatalf("location mismatch: %s", doc.Location())
	}
}

func TestLoader_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.yml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("a:\n  '#type': number\n"))
	}))
	defer srv.Close()

	if _, err := New().Load(context.Background(), definition.SourceFromURL(srv.URL+"/a.yml")); err == nil {
		t.Fatalf("expected error when http support is disabled")
	}

	l := New(WithHTTPClient(srv.Client()))
	if _, err := l.Load(context.Background(), definition.SourceFromURL(srv.URL+"/a.yml")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := l.Load(context.Background(), definition.SourceFromURL(srv.URL+"/missing.yml")); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Load(ctx, definition.SourceFromFile("whatever.yml")); err == nil {
		t.Fatalf("expected context error")
	}
}
