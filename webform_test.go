package webform_test

import (
	"context"
	"strings"
	"testing"

	webform "github.com/goliatone/go-webform"
	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/orchestrator"
)

const feedback = `
id: feedback
elements:
  intro:
    '#type': processed_text
    '#text': '<p onclick="x()">Tell us <em>more</em></p>'
    '#format': basic_html
  rating:
    '#type': radios
    '#title': Rating
    '#options':
      - Good
      - Bad
`

func TestGenerateJSONFromDocument(t *testing.T) {
	doc := definition.MustNewDocument(definition.SourceFromFile("webform.webform.feedback.yml"), []byte(feedback))

	payload, err := webform.GenerateJSONFromDocument(context.Background(), doc, webform.Account{},
		webform.WithNormalizerOptions(normalizer.WithMarkupSanitizer(nil)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	got := string(payload)
	if !strings.Contains(got, `"html":"<p>Tell us <em>more</em></p>"`) {
		t.Fatalf("expected sanitized markup, got %s", got)
	}
	if !strings.Contains(got, `"options":[{"value":"Good","label":"Good"},{"value":"Bad","label":"Bad"}]`) {
		t.Fatalf("expected list options, got %s", got)
	}
}

func TestSchemaRequiresSource(t *testing.T) {
	if _, err := webform.Schema(context.Background(), nil, webform.Account{}); err == nil {
		t.Fatal("expected error without a source")
	}
}

func TestNewOrchestratorUsesLoader(t *testing.T) {
	gen := webform.NewOrchestrator(orchestrator.WithLoader(webform.NewLoader()))
	if gen == nil {
		t.Fatal("expected orchestrator")
	}
	if ids := gen.Forms(); len(ids) != 0 {
		t.Fatalf("expected no stored forms, got %v", ids)
	}
}
