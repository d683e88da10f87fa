package normalizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/i18n"
	"github.com/goliatone/go-webform/pkg/states"
	"github.com/goliatone/go-webform/pkg/tokens"
	"github.com/goliatone/go-webform/pkg/uischema"
	"github.com/goliatone/go-webform/pkg/upload"
)

// Normalizer converts webform definitions into UI schema trees. It holds no
// per-call state and is safe for concurrent use.
type Normalizer struct {
	selectors    SelectorResolver
	tokens       TokenReplacer
	uploads      UploadPreparer
	drafts       DraftLoader
	vocabularies VocabularyLoader
	translator   Translator
	onMissing    i18n.MissingHandler
	markup       *bluemonday.Policy
}

// Option customises a Normalizer.
type Option func(*Normalizer)

// WithSelectorResolver sets the #states selector resolver.
func WithSelectorResolver(resolver SelectorResolver) Option {
	return func(n *Normalizer) {
		if resolver != nil {
			n.selectors = resolver
		}
	}
}

// WithTokenReplacer sets the default value token replacer.
func WithTokenReplacer(replacer TokenReplacer) Option {
	return func(n *Normalizer) {
		if replacer != nil {
			n.tokens = replacer
		}
	}
}

// WithUploadPreparer sets the upload constraint resolver.
func WithUploadPreparer(preparer UploadPreparer) Option {
	return func(n *Normalizer) {
		if preparer != nil {
			n.uploads = preparer
		}
	}
}

// WithDraftLoader enables draft lookups for authenticated accounts.
func WithDraftLoader(loader DraftLoader) Option {
	return func(n *Normalizer) {
		n.drafts = loader
	}
}

// WithVocabularyLoader sets the taxonomy source of term selects.
func WithVocabularyLoader(loader VocabularyLoader) Option {
	return func(n *Normalizer) {
		n.vocabularies = loader
	}
}

// WithTranslator sets the translator used for labels and messages.
func WithTranslator(translator Translator) Option {
	return func(n *Normalizer) {
		if translator != nil {
			n.translator = translator
		}
	}
}

// WithMissingTranslation customises the fallback used when a translation
// cannot be resolved. The default returns the formatted key.
func WithMissingTranslation(handler i18n.MissingHandler) Option {
	return func(n *Normalizer) {
		n.onMissing = handler
	}
}

// New builds a Normalizer. Without options it resolves `:input[name=...]`
// selectors, keeps default values verbatim, applies the stock upload rules,
// loads no drafts or vocabularies and translates with the English catalog.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		selectors:  states.DefaultResolver(),
		tokens:     tokens.Identity{},
		uploads:    upload.NewDefaultPreparer(),
		translator: i18n.DefaultCatalog(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Normalize builds the UI schema of form for the request's account and
// locale. The form is never modified; any mapping failure aborts the call and
// no partial tree is returned.
func (n *Normalizer) Normalize(ctx context.Context, form *definition.Form, req Request) (*uischema.Tree, error) {
	if form == nil {
		return nil, errors.New("normalizer: nil form")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &run{n: n, ctx: ctx, form: form, req: req}
	draft, err := r.loadDraft()
	if err != nil {
		return nil, err
	}

	tree, err := r.tree(form.Elements, nil)
	if err != nil {
		return nil, err
	}

	if pages := tree.Pages(); pages != nil && draft != nil {
		if draft.SID != "" {
			idx, _ := pages.Index(draft.CurrentPage)
			draft.PageIndex = &idx
		}
		tree.SetDraft(draft)
	}
	tree.SetReset(uischema.Reset{
		Hidden: !form.Settings.FormReset,
		Text:   r.translate(i18n.KeyReset),
	})
	return tree, nil
}

// run holds the state of one Normalize call.
type run struct {
	n      *Normalizer
	ctx    context.Context
	form   *definition.Form
	req    Request
	values map[string]any
}

func (r *run) loadDraft() (*uischema.Draft, error) {
	if r.req.Account.Anonymous() {
		return nil, nil
	}
	if strings.TrimSpace(r.form.Settings.Draft) != definition.DraftAuthenticated {
		return nil, nil
	}

	block := &uischema.Draft{Enable: true}
	if r.n.drafts == nil {
		return block, nil
	}
	stored, err := r.n.drafts.LoadDraft(r.ctx, r.req.Account.ID, r.form.ID)
	if err != nil {
		return nil, fmt.Errorf("normalizer: form %q: %w", r.form.ID, wrapCause(ErrDraft, err))
	}
	if stored != nil {
		r.values = stored.Values
		block.CurrentPage = stored.CurrentPage
		block.SID = stored.SID
	}
	return block, nil
}

// tree converts a list of sibling elements. parent is nil at the root.
func (r *run) tree(elements []*definition.Element, parent *definition.Element) (*uischema.Tree, error) {
	out := uischema.NewTree()
	for _, el := range elements {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
		switch classify(el) {
		case kindActions:
			out.AddAction(el.Key, actionButton(el))
		case kindLayout:
			node, err := r.layout(el, parent)
			if err != nil {
				return nil, err
			}
			if err := out.SetField(el.Key, node); err != nil {
				return nil, mappingError(el.Key, el.Type, err)
			}
		case kindPage:
			if el.Key == uischema.PreviewPageKey {
				return nil, mappingError(el.Key, el.Type, fmt.Errorf("%w: %q", ErrReservedKey, el.Key))
			}
			node, err := r.page(el)
			if err != nil {
				return nil, err
			}
			out.AddPage(el.Key, node)
		default:
			node, err := r.leaf(el, elements, parent)
			if err != nil {
				return nil, err
			}
			if err := out.SetField(el.Key, node); err != nil {
				return nil, mappingError(el.Key, el.Type, err)
			}
		}
	}
	if pages := out.Pages(); pages != nil {
		pages.SetPreview(r.previewPage())
	}
	return out, nil
}

func actionButton(el *definition.Element) uischema.Action {
	text := ""
	if el.Has("submit__label") {
		text = el.String("submit__label")
	} else if el.Has("title") {
		text = el.String("title")
	}
	return uischema.Action{Text: text, Type: el.Type}
}

func (r *run) layout(el, parent *definition.Element) (*uischema.Node, error) {
	node := &uischema.Node{
		Type:  el.Type,
		Title: uischema.Ptr(el.String("title")),
	}
	if el.Has("align_items") {
		node.AlignItems = mustProp(el, "align_items")
	}
	if el.Has("title_display") {
		node.TitleDisplay = mustProp(el, "title_display")
	}
	if el.Has("description") {
		node.Description = mustProp(el, "description")
		if el.Has("description_display") {
			node.DescriptionDisplay = mustProp(el, "description_display")
		}
	}
	if isFlexItem(el, parent) {
		node.Flex = uischema.Ptr(flexWeight(el))
	}
	if class := classNames(el); class != "" {
		node.Class = uischema.Ptr(class)
	}

	if len(el.Children) == 0 {
		return node, nil
	}
	childs, err := r.tree(el.Children, el)
	if err != nil {
		return nil, err
	}
	flexItems, flexTotal := 0, 0
	for _, child := range el.Children {
		if isFlexItem(child, el) {
			flexItems++
			flexTotal += flexWeight(child)
		}
	}
	if flexItems > 1 {
		childs.SetFlexTotal(flexTotal)
	}
	node.Childs = childs
	return node, nil
}

func (r *run) page(el *definition.Element) (*uischema.Node, error) {
	node := &uischema.Node{
		Type:  el.Type,
		Title: uischema.Ptr(el.String("title")),
	}
	if class := classNames(el); class != "" {
		node.Class = uischema.Ptr(class)
	}
	if el.Truthy("prev_button_label") {
		node.PrevButtonLabel = el.String("prev_button_label")
	}
	if el.Truthy("next_button_label") {
		node.NextButtonLabel = el.String("next_button_label")
	}
	if len(el.Children) == 0 {
		return node, nil
	}
	childs, err := r.tree(el.Children, el)
	if err != nil {
		return nil, err
	}
	node.Childs = childs
	return node, nil
}

func (r *run) previewPage() uischema.PreviewPage {
	settings := r.form.Settings
	return uischema.PreviewPage{
		Preview: uischema.PreviewSettings{
			Enable:           settings.Preview > 0,
			Label:            settings.PreviewLabel,
			Title:            settings.PreviewTitle,
			Message:          settings.PreviewMessage,
			ExcludedElements: uischema.ExcludedElements(settings.PreviewExcludedElements.Keys()),
			ExcludeEmpty:     settings.PreviewExcludeEmpty,
		},
		Wizard: uischema.WizardSettings{
			PrevButtonLabel: settings.WizardPrevButtonLabel,
			NextButtonLabel: settings.WizardNextButtonLabel,
		},
	}
}

func (r *run) translate(key string, args ...any) string {
	return i18n.Translate(r.n.translator, r.n.onMissing, r.req.Locale, key, args...)
}

// classNames joins #attributes.class, which may be a list or a single string.
func classNames(el *definition.Element) string {
	attrs, ok := mustProp(el, "attributes").(*definition.Map)
	if !ok {
		return ""
	}
	raw, _ := attrs.Get("class")
	return strings.Join(definition.StringList(raw), " ")
}
