package tokens_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-webform/pkg/tokens"
)

func TestReplacer_ResolvesValuesGroupsAndDates(t *testing.T) {
	t.Parallel()

	clock := func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC) }
	replacer := tokens.New(
		tokens.WithValue("[site:name]", "Example"),
		tokens.WithValues(map[string]string{"current-user:mail": "ada@example.com"}),
		tokens.WithGroup("webform_submission", func(name string) (string, bool) {
			if name == "values:city" {
				return "Lyon", true
			}
			return "", false
		}),
		tokens.WithClock(clock),
	)

	got, err := replacer.Replace("[site:name] / [current-user:mail] / [webform_submission:values:city] / [current-date:html_date]")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	want := "Example / ada@example.com / Lyon / 2024-03-09"
	if got != want {
		t.Fatalf("Replace() = %q, want %q", got, want)
	}
}

func TestReplacer_UnresolvedTokens(t *testing.T) {
	t.Parallel()

	keep, err := tokens.New().Replace("Hello [current-user:name]")
	if err != nil || keep != "Hello [current-user:name]" {
		t.Fatalf("expected token kept, got %q (%v)", keep, err)
	}

	cleared, err := tokens.New(tokens.WithClear()).Replace("Hello [current-user:name]!")
	if err != nil || cleared != "Hello !" {
		t.Fatalf("expected token cleared, got %q (%v)", cleared, err)
	}

	if _, err := tokens.New(tokens.WithStrict()).Replace("[x:y]"); !errors.Is(err, tokens.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}

	plain, err := tokens.New(tokens.WithStrict()).Replace("no [tokens here]")
	if err != nil || plain != "no [tokens here]" {
		t.Fatalf("non-token brackets must be ignored, got %q (%v)", plain, err)
	}
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	got, err := tokens.Identity{}.Replace("[site:name]")
	if err != nil || got != "[site:name]" {
		t.Fatalf("identity replacer changed input: %q (%v)", got, err)
	}
}
