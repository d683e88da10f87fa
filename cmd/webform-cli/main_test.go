package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/tui"
)

func TestMergeDraftKeepsLoadedSID(t *testing.T) {
	loaded := &normalizer.Draft{
		SID:         "sub-9",
		CurrentPage: "one",
		Values:      map[string]any{"name": "Jane", "notes": "old"},
	}
	result := tui.Result{
		Values: definition.MapOf("notes", "new"),
		Page:   "two",
	}

	got := mergeDraft(loaded, result)
	want := normalizer.Draft{
		SID:         "sub-9",
		CurrentPage: "two",
		Values:      map[string]any{"name": "Jane", "notes": "new"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeDraftWithoutLoadedDraft(t *testing.T) {
	got := mergeDraft(nil, tui.Result{Page: "one"})
	if got.SID != "" {
		t.Fatalf("expected no sid before the store assigns one, got %q", got.SID)
	}
	if got.Values == nil || len(got.Values) != 0 {
		t.Fatalf("expected empty values, got %#v", got.Values)
	}
	if got.CurrentPage != "one" {
		t.Fatalf("expected current page one, got %q", got.CurrentPage)
	}
}

func TestRunReturnsErrorWithoutInput(t *testing.T) {
	err := run()
	if err == nil || err.Error() != "either -source or -dir is required" {
		t.Fatalf("expected missing input error, got %v", err)
	}
}
