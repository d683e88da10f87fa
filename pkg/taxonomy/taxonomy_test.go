package taxonomy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-webform/pkg/taxonomy"
	"github.com/goliatone/go-webform/pkg/uischema"
)

var regions = []taxonomy.Term{
	{ID: "1", Label: "Europe"},
	{ID: "2", Label: "France", ParentID: "1"},
	{ID: "3", Label: "Paris", ParentID: "2"},
	{ID: "4", Label: "Spain", ParentID: "1"},
	{ID: "5", Label: "Asia", ParentID: "0"},
	{ID: "6", Label: "Japan", ParentID: "5"},
}

func TestTreeOptions_IndentsByDepth(t *testing.T) {
	t.Parallel()

	got := taxonomy.TreeOptions(regions, "", 0)
	want := uischema.OptionList{
		{Value: "1", Label: "Europe"},
		{Value: "2", Label: "-France"},
		{Value: "3", Label: "--Paris"},
		{Value: "4", Label: "-Spain"},
		{Value: "5", Label: "Asia"},
		{Value: "6", Label: "-Japan"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tree options mismatch (-want +got):\n%s", diff)
	}

	limited := taxonomy.TreeOptions(regions, "*", 2)
	if len(limited) != 5 || limited[1].Label != "*France" {
		t.Fatalf("expected depth limit to drop Paris, got %+v", limited)
	}
}

func TestBreadcrumbOptions(t *testing.T) {
	t.Parallel()

	got := taxonomy.BreadcrumbOptions(regions, " / ", 0)
	if got[2].Label != "Europe / France / Paris" {
		t.Fatalf("unexpected breadcrumb %q", got[2].Label)
	}
	def := taxonomy.BreadcrumbOptions(regions, "", 0)
	if def[5].Label != "Asia › Japan" {
		t.Fatalf("unexpected default breadcrumb %q", def[5].Label)
	}
}

func TestWalk_OrphansAndCycles(t *testing.T) {
	t.Parallel()

	terms := []taxonomy.Term{
		{ID: "a", Label: "A", ParentID: "missing"},
		{ID: "b", Label: "B", ParentID: "c"},
		{ID: "c", Label: "C", ParentID: "b"},
	}
	entries := taxonomy.Walk(terms, 0)
	if len(entries) != 1 || entries[0].Term.ID != "a" || entries[0].Depth != 0 {
		t.Fatalf("expected orphan root only, got %+v", entries)
	}
	if taxonomy.Walk(nil, 0) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestCachedLoader(t *testing.T) {
	t.Parallel()

	calls := 0
	fail := false
	loader := taxonomy.LoaderFunc(func(_ context.Context, id string) ([]taxonomy.Term, error) {
		calls++
		if fail {
			return nil, errors.New("db down")
		}
		return []taxonomy.Term{{ID: id + "-1", Label: "One"}}, nil
	})

	cached, err := taxonomy.NewCachedLoader(loader, 1)
	if err != nil {
		t.Fatalf("new cached loader: %v", err)
	}
	ctx := context.Background()

	first, err := cached.LoadVocabulary(ctx, "tags")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	first[0].Label = "mutated"
	second, _ := cached.LoadVocabulary(ctx, "tags")
	if calls != 1 {
		t.Fatalf("expected cached hit, got %d calls", calls)
	}
	if second[0].Label != "One" {
		t.Fatalf("cache returned caller-mutated data: %+v", second)
	}

	if _, err := cached.LoadVocabulary(ctx, "regions"); err != nil {
		t.Fatalf("load regions: %v", err)
	}
	if cached.Len() != 1 {
		t.Fatalf("expected size-1 cache to evict, len=%d", cached.Len())
	}

	fail = true
	cached.Purge()
	if _, err := cached.LoadVocabulary(ctx, "tags"); err == nil {
		t.Fatalf("expected loader error to propagate")
	}
	if cached.Len() != 0 {
		t.Fatalf("errors must not be cached")
	}

	if _, err := taxonomy.NewCachedLoader(nil, 0); err == nil {
		t.Fatalf("expected error for nil loader")
	}
}
