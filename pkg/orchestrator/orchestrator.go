package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-webform/internal/loader"
	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/uischema"
)

// ErrFormNotFound is returned when a FormID request misses the store.
var ErrFormNotFound = errors.New("orchestrator: form not found")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom definition loader.
func WithLoader(l definition.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithNormalizer injects a configured normalizer.
func WithNormalizer(n *normalizer.Normalizer) Option {
	return func(o *Orchestrator) {
		o.normalizer = n
	}
}

// WithStore registers the forms addressable by id.
func WithStore(store *definition.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithTransformer registers a Transformer that can rewrite a definition
// before it is normalized.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithIndent makes Generate emit indented JSON.
func WithIndent(indent bool) Option {
	return func(o *Orchestrator) {
		o.indent = indent
	}
}

// Orchestrator coordinates the full pipeline from definition source to the
// encoded UI schema. It applies sensible defaults (file/fs loader, default
// normalizer) while remaining open to dependency injection for advanced
// callers.
type Orchestrator struct {
	loader      definition.Loader
	normalizer  *normalizer.Normalizer
	store       *definition.Store
	transformer Transformer
	indent      bool
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.loader == nil {
		o.loader = loader.New()
	}
	if o.normalizer == nil {
		o.normalizer = normalizer.New()
	}
	return o
}

// Request describes the inputs required to build a UI schema. Exactly one of
// Form, Document, Source or FormID is consulted, in that order.
type Request struct {
	// Form bypasses loading and decoding.
	Form *definition.Form

	// Document bypasses the loader when callers already hold the payload.
	Document *definition.Document

	// Source identifies where the definition lives.
	Source definition.Source

	// FormID selects a form registered in the store.
	FormID string

	// Account and Locale are forwarded to the normalizer.
	Account normalizer.Account
	Locale  string
}

// Schema executes the pipeline and returns the UI schema tree.
func (o *Orchestrator) Schema(ctx context.Context, req Request) (*uischema.Tree, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form, err := o.resolveForm(ctx, req)
	if err != nil {
		return nil, err
	}
	if o.transformer != nil {
		form = form.Clone()
		if err := o.transformer.Transform(ctx, form); err != nil {
			return nil, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}

	tree, err := o.normalizer.Normalize(ctx, form, normalizer.Request{
		Account: req.Account,
		Locale:  req.Locale,
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: normalize %q: %w", form.ID, err)
	}
	return tree, nil
}

// Generate executes the pipeline and returns the JSON encoded UI schema.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	tree, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := uischema.Encode(tree, o.indent)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: encode schema: %w", err)
	}
	return payload, nil
}

// Forms lists the ids registered in the store.
func (o *Orchestrator) Forms() []string {
	return o.store.IDs()
}

// Store returns the configured store, or nil.
func (o *Orchestrator) Store() *definition.Store {
	return o.store
}

func (o *Orchestrator) resolveForm(ctx context.Context, req Request) (*definition.Form, error) {
	switch {
	case req.Form != nil:
		return req.Form, nil
	case req.Document != nil:
		form, err := definition.DecodeDocument(*req.Document)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: decode document: %w", err)
		}
		return form, nil
	case req.Source != nil:
		doc, err := o.loader.Load(ctx, req.Source)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load document: %w", err)
		}
		form, err := definition.DecodeDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: decode document: %w", err)
		}
		return form, nil
	case req.FormID != "":
		form, ok := o.store.Form(req.FormID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFormNotFound, req.FormID)
		}
		return form, nil
	default:
		return nil, errors.New("orchestrator: form, document, source or form id is required")
	}
}
