// Package webform turns Drupal webform definitions into the JSON UI schema a
// decoupled front end renders. The root package offers shortcuts over the
// orchestrator for the common cases.
package webform

import (
	"context"

	"github.com/goliatone/go-webform/internal/loader"
	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/orchestrator"
	"github.com/goliatone/go-webform/pkg/uischema"
)

// Request aliases orchestrator.Request for callers that only import the root
// package.
type Request = orchestrator.Request

// Account aliases normalizer.Account.
type Account = normalizer.Account

// NewLoader constructs a definition loader using the internal implementation
// while keeping the concrete type hidden from consumers.
func NewLoader(options ...loader.Option) definition.Loader {
	return loader.New(options...)
}

// NewOrchestrator constructs an orchestrator with the provided options.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Schema loads the definition at source and returns its UI schema tree.
func Schema(ctx context.Context, source definition.Source, account Account, options ...orchestrator.Option) (*uischema.Tree, error) {
	gen := orchestrator.New(options...)
	return gen.Schema(ctx, orchestrator.Request{
		Source:  source,
		Account: account,
	})
}

// GenerateJSON loads the definition at source and returns the encoded schema.
func GenerateJSON(ctx context.Context, source definition.Source, account Account, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:  source,
		Account: account,
	})
}

// GenerateJSONFromDocument encodes the schema of a pre-loaded document,
// bypassing the loader stage while still delegating to the orchestrator.
func GenerateJSONFromDocument(ctx context.Context, doc definition.Document, account Account, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Document: &doc,
		Account:  account,
	})
}

// WithNormalizerOptions builds a normalizer from opts and registers it with
// the orchestrator.
func WithNormalizerOptions(opts ...normalizer.Option) orchestrator.Option {
	return orchestrator.WithNormalizer(normalizer.New(opts...))
}
