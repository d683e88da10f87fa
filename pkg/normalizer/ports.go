package normalizer

import (
	"context"

	"github.com/goliatone/go-webform/pkg/i18n"
	"github.com/goliatone/go-webform/pkg/taxonomy"
	"github.com/goliatone/go-webform/pkg/upload"
)

// SelectorResolver maps a #states selector to the key of the element it
// targets.
type SelectorResolver interface {
	ResolveSelector(selector string) (string, bool)
}

// SelectorResolverFunc adapts a function into a SelectorResolver.
type SelectorResolverFunc func(selector string) (string, bool)

// ResolveSelector implements SelectorResolver.
func (fn SelectorResolverFunc) ResolveSelector(selector string) (string, bool) {
	if fn == nil {
		return "", false
	}
	return fn(selector)
}

// TokenReplacer substitutes placeholders in default values.
type TokenReplacer interface {
	Replace(raw string) (string, error)
}

// TokenReplacerFunc adapts a function into a TokenReplacer.
type TokenReplacerFunc func(raw string) (string, error)

// Replace implements TokenReplacer.
func (fn TokenReplacerFunc) Replace(raw string) (string, error) {
	if fn == nil {
		return raw, nil
	}
	return fn(raw)
}

// UploadPreparer resolves the constraints of an upload element.
type UploadPreparer = upload.Preparer

// UploadPreparerFunc adapts a function into an UploadPreparer.
type UploadPreparerFunc = upload.PreparerFunc

// Draft is the stored, unfinished submission of a user.
type Draft struct {
	SID         string
	CurrentPage string
	// Values holds raw submitted values keyed by element key.
	Values map[string]any
}

// DraftLoader returns the draft a user keeps for a form, or nil.
type DraftLoader interface {
	LoadDraft(ctx context.Context, userID, formID string) (*Draft, error)
}

// DraftLoaderFunc adapts a function into a DraftLoader.
type DraftLoaderFunc func(ctx context.Context, userID, formID string) (*Draft, error)

// LoadDraft implements DraftLoader.
func (fn DraftLoaderFunc) LoadDraft(ctx context.Context, userID, formID string) (*Draft, error) {
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, userID, formID)
}

// VocabularyLoader returns the terms of a vocabulary in display order.
type VocabularyLoader = taxonomy.Loader

// VocabularyLoaderFunc adapts a function into a VocabularyLoader.
type VocabularyLoaderFunc = taxonomy.LoaderFunc

// Translator localises user-facing strings.
type Translator = i18n.Translator

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc = i18n.TranslatorFunc

// Account identifies who the schema is built for.
type Account struct {
	ID            string
	Authenticated bool
}

// Anonymous reports whether drafts must be skipped for the account.
func (a Account) Anonymous() bool {
	return !a.Authenticated || a.ID == ""
}

// Request carries per-call inputs.
type Request struct {
	Account Account
	Locale  string
}
