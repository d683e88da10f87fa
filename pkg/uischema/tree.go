package uischema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Reserved keys of a Tree. They hold collections instead of field nodes.
const (
	KeyPages     = "pages"
	KeyButtons   = "buttons"
	KeyDraft     = "draft"
	KeyFlexTotal = "flexTotal"
	// PreviewPageKey names the synthetic trailing page appended to every page
	// collection.
	PreviewPageKey = "webform_preview"
)

// ErrReservedKey is returned when a field key collides with a reserved key.
var ErrReservedKey = errors.New("uischema: key is reserved")

// Tree is an ordered collection of field nodes plus the optional pages,
// buttons, draft and flexTotal entries. The root schema and every container's
// childs are Trees. Entries encode in the order they were first added.
type Tree struct {
	order     []string
	fields    map[string]*Node
	pages     *Pages
	buttons   *Buttons
	draft     *Draft
	flexTotal *int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{fields: make(map[string]*Node)}
}

// IsReserved reports whether key cannot be used for a field node.
func IsReserved(key string) bool {
	switch key {
	case KeyPages, KeyButtons, KeyDraft, KeyFlexTotal:
		return true
	default:
		return false
	}
}

// SetField appends (or replaces in place) the node stored under key.
func (t *Tree) SetField(key string, node *Node) error {
	if IsReserved(key) {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	if t.fields == nil {
		t.fields = make(map[string]*Node)
	}
	if _, exists := t.fields[key]; !exists {
		t.order = append(t.order, key)
	}
	t.fields[key] = node
	return nil
}

// Field returns the node stored under key.
func (t *Tree) Field(key string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	node, ok := t.fields[key]
	return node, ok
}

// Keys returns the field keys in order, without reserved entries.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.fields))
	for _, key := range t.order {
		if !IsReserved(key) {
			out = append(out, key)
		}
	}
	return out
}

// Entries returns every key, reserved ones included, in encoding order.
func (t *Tree) Entries() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Len reports the number of entries.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// AddPage appends a wizard page, creating the page collection on first use.
func (t *Tree) AddPage(key string, node *Node) {
	if t.pages == nil {
		t.pages = &Pages{pages: make(map[string]*Node)}
		t.order = append(t.order, KeyPages)
	}
	t.pages.add(key, node)
}

// Pages returns the page collection, or nil when the tree has none.
func (t *Tree) Pages() *Pages {
	if t == nil {
		return nil
	}
	return t.pages
}

// AddAction registers an action button.
func (t *Tree) AddAction(key string, action Action) {
	t.ensureButtons().addAction(key, action)
}

// SetReset sets the reset button.
func (t *Tree) SetReset(reset Reset) {
	t.ensureButtons().reset = &reset
}

// Buttons returns the button collection, or nil when the tree has none.
func (t *Tree) Buttons() *Buttons {
	if t == nil {
		return nil
	}
	return t.buttons
}

// SetDraft attaches the draft block.
func (t *Tree) SetDraft(draft *Draft) {
	if draft == nil {
		return
	}
	if t.draft == nil {
		t.order = append(t.order, KeyDraft)
	}
	t.draft = draft
}

// Draft returns the draft block, or nil.
func (t *Tree) Draft() *Draft {
	if t == nil {
		return nil
	}
	return t.draft
}

// SetFlexTotal records the summed flex weight of the tree's flex items.
func (t *Tree) SetFlexTotal(total int) {
	if t.flexTotal == nil {
		t.order = append(t.order, KeyFlexTotal)
	}
	t.flexTotal = &total
}

// FlexTotal returns the summed flex weight when it was recorded.
func (t *Tree) FlexTotal() (int, bool) {
	if t == nil || t.flexTotal == nil {
		return 0, false
	}
	return *t.flexTotal, true
}

func (t *Tree) ensureButtons() *Buttons {
	if t.buttons == nil {
		t.buttons = &Buttons{actions: make(map[string]Action)}
		t.order = append(t.order, KeyButtons)
	}
	return t.buttons
}

// MarshalJSON encodes the tree as an object in insertion order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range t.order {
		if idx > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, key); err != nil {
			return nil, err
		}
		var value any
		switch key {
		case KeyPages:
			value = t.pages
		case KeyButtons:
			value = t.buttons
		case KeyDraft:
			value = t.draft
		case KeyFlexTotal:
			value = t.flexTotal
		default:
			value = t.fields[key]
		}
		if err := writeValue(&buf, value); err != nil {
			return nil, fmt.Errorf("uischema: encode %q: %w", key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Pages is the ordered collection of wizard pages plus the preview page.
type Pages struct {
	order   []string
	pages   map[string]*Node
	preview *PreviewPage
}

func (p *Pages) add(key string, node *Node) {
	if _, exists := p.pages[key]; !exists {
		p.order = append(p.order, key)
	}
	p.pages[key] = node
}

// Page returns the declared page stored under key.
func (p *Pages) Page(key string) (*Node, bool) {
	if p == nil {
		return nil, false
	}
	node, ok := p.pages[key]
	return node, ok
}

// Keys returns the page keys in order; the preview key comes last when set.
func (p *Pages) Keys() []string {
	if p == nil {
		return nil
	}
	out := append([]string(nil), p.order...)
	if p.preview != nil {
		out = append(out, PreviewPageKey)
	}
	return out
}

// Index returns the zero-based position of key among Keys.
func (p *Pages) Index(key string) (int, bool) {
	for idx, candidate := range p.Keys() {
		if candidate == key {
			return idx, true
		}
	}
	return 0, false
}

// SetPreview sets the synthetic preview page.
func (p *Pages) SetPreview(preview PreviewPage) {
	p.preview = &preview
}

// Preview returns the preview page, or nil.
func (p *Pages) Preview() *PreviewPage {
	if p == nil {
		return nil
	}
	return p.preview
}

// MarshalJSON encodes declared pages followed by the preview page.
func (p *Pages) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range p.order {
		if idx > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, key); err != nil {
			return nil, err
		}
		if err := writeValue(&buf, p.pages[key]); err != nil {
			return nil, fmt.Errorf("uischema: encode page %q: %w", key, err)
		}
	}
	if p.preview != nil {
		if len(p.order) > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, PreviewPageKey); err != nil {
			return nil, err
		}
		if err := writeValue(&buf, p.preview); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PreviewPage carries the preview and wizard settings of a paged form.
type PreviewPage struct {
	Preview PreviewSettings `json:"preview"`
	Wizard  WizardSettings  `json:"wizard"`
}

// PreviewSettings mirrors the form's preview configuration.
type PreviewSettings struct {
	Enable           bool             `json:"enable"`
	Label            string           `json:"label"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	ExcludedElements ExcludedElements `json:"excluded_elements"`
	ExcludeEmpty     bool             `json:"preview_exclude_empty"`
}

// WizardSettings holds the form-wide wizard button labels.
type WizardSettings struct {
	PrevButtonLabel string `json:"prev_button_label"`
	NextButtonLabel string `json:"next_button_label"`
}

// ExcludedElements lists element keys hidden from the preview. It encodes as
// a key => key object, or [] when empty.
type ExcludedElements []string

// MarshalJSON implements json.Marshaler.
func (e ExcludedElements) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, key := range e {
		if idx > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, key); err != nil {
			return nil, err
		}
		if err := writeValue(&buf, key); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Buttons holds the form's action buttons and the reset button.
type Buttons struct {
	actionOrder []string
	actions     map[string]Action
	reset       *Reset
}

// Action is a submit-style button.
type Action struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Reset describes the reset button.
type Reset struct {
	Hidden bool   `json:"hidden"`
	Text   string `json:"text"`
}

func (b *Buttons) addAction(key string, action Action) {
	if _, exists := b.actions[key]; !exists {
		b.actionOrder = append(b.actionOrder, key)
	}
	b.actions[key] = action
}

// Action returns the action registered under key.
func (b *Buttons) Action(key string) (Action, bool) {
	if b == nil {
		return Action{}, false
	}
	action, ok := b.actions[key]
	return action, ok
}

// ActionKeys returns action keys in declaration order.
func (b *Buttons) ActionKeys() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.actionOrder...)
}

// Reset returns the reset button, or nil.
func (b *Buttons) Reset() *Reset {
	if b == nil {
		return nil
	}
	return b.reset
}

// MarshalJSON encodes {"actions": {...}, "reset": {...}}, omitting empty parts.
func (b *Buttons) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	wrote := false
	if len(b.actionOrder) > 0 {
		if err := writeKey(&buf, "actions"); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for idx, key := range b.actionOrder {
			if idx > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, key); err != nil {
				return nil, err
			}
			if err := writeValue(&buf, b.actions[key]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
		wrote = true
	}
	if b.reset != nil {
		if wrote {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, "reset"); err != nil {
			return nil, err
		}
		if err := writeValue(&buf, b.reset); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Draft describes the persisted draft of an authenticated user.
type Draft struct {
	Enable      bool   `json:"enable"`
	CurrentPage string `json:"currentPage,omitempty"`
	SID         string `json:"sid,omitempty"`
	PageIndex   *int   `json:"current_page,omitempty"`
}

// Encode renders the tree as indented or compact JSON without HTML escaping.
func Encode(t *Tree, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
