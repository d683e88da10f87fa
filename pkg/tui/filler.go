// Package tui fills a normalized webform schema from the terminal. Fields are
// prompted in schema order, wizard pages one after the other, and the answers
// are collected into an ordered value map suitable for storing as a draft.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/uischema"
)

// Filler walks a schema tree and prompts for every input field.
type Filler struct {
	driver PromptDriver
}

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// New constructs a Filler backed by the survey driver unless overridden.
func New(options ...Option) *Filler {
	f := &Filler{driver: NewSurveyDriver()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

// Prefill seeds a fill session, typically from a stored draft.
type Prefill struct {
	Values map[string]any
	// Page skips every wizard page declared before it.
	Page string
}

// Result holds the collected answers.
type Result struct {
	Values *definition.Map
	// Page is the last wizard page entered, empty for single page forms.
	Page string
}

// ValueMap returns the answers as a plain map.
func (r Result) ValueMap() map[string]any {
	out := make(map[string]any, r.Values.Len())
	r.Values.Each(func(key string, value any) bool {
		out[key] = value
		return true
	})
	return out
}

type session struct {
	values    *definition.Map
	prefill   map[string]any
	startPage string
	page      string
}

func (s *session) value(key string, fallback any) any {
	if v, ok := s.values.Get(key); ok {
		return v
	}
	if v, ok := s.prefill[key]; ok && v != nil {
		return v
	}
	return fallback
}

func (s *session) plain() map[string]any {
	out := make(map[string]any, s.values.Len())
	s.values.Each(func(key string, value any) bool {
		out[key] = value
		return true
	})
	return out
}

// Fill prompts for the fields of tree. On ErrAborted the values collected so
// far are returned together with the error.
func (f *Filler) Fill(ctx context.Context, tree *uischema.Tree, prefill Prefill) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("tui: context is required")
	}
	if tree == nil {
		return Result{}, ErrNilTree
	}
	if f.driver == nil {
		return Result{}, errors.New("tui: prompt driver is nil")
	}

	s := &session{
		values:    definition.NewMap(),
		prefill:   prefill.Values,
		startPage: prefill.Page,
	}
	err := f.walk(ctx, tree, s)
	return Result{Values: s.values, Page: s.page}, err
}

func (f *Filler) walk(ctx context.Context, tree *uischema.Tree, s *session) error {
	for _, key := range tree.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch key {
		case uischema.KeyPages:
			if err := f.walkPages(ctx, tree.Pages(), s); err != nil {
				return err
			}
		case uischema.KeyButtons, uischema.KeyDraft, uischema.KeyFlexTotal:
			continue
		default:
			node, _ := tree.Field(key)
			if node == nil {
				continue
			}
			if node.Childs != nil {
				if title := deref(node.Title); title != "" {
					if err := f.driver.Notify(ctx, title); err != nil {
						return err
					}
				}
				if err := f.walk(ctx, node.Childs, s); err != nil {
					return err
				}
				continue
			}
			if err := f.promptField(ctx, key, node, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Filler) walkPages(ctx context.Context, pages *uischema.Pages, s *session) error {
	skipping := s.startPage != ""
	if _, ok := pages.Page(s.startPage); !ok {
		skipping = false
	}
	for _, key := range pages.Keys() {
		if key == uischema.PreviewPageKey {
			continue
		}
		if skipping {
			if key != s.startPage {
				continue
			}
			skipping = false
		}
		page, _ := pages.Page(key)
		s.page = key
		if page == nil {
			continue
		}
		if title := deref(page.Title); title != "" {
			if err := f.driver.Notify(ctx, title); err != nil {
				return err
			}
		}
		if page.Childs != nil {
			if err := f.walk(ctx, page.Childs, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Filler) promptField(ctx context.Context, key string, node *uischema.Node, s *session) error {
	q, ok := questionFor(key, node, s)
	if !ok {
		return nil
	}
	for {
		answer, err := f.driver.Ask(ctx, q)
		if err != nil {
			return err
		}
		if err := q.Validate(answer); err != nil {
			if err := f.driver.Notify(ctx, fmt.Sprintf("Invalid %s: %v", q.Label, err)); err != nil {
				return err
			}
			continue
		}
		s.values.Set(key, storedValue(q.Kind, answer))
		return nil
	}
}

// questionFor builds the question asked for node. Fields that need a browser
// (upload, captcha, markup) and choice fields without options are not asked.
func questionFor(key string, node *uischema.Node, s *session) (Question, bool) {
	q := Question{
		Key:     key,
		Label:   displayLabel(key, node),
		Help:    deref(node.HelperText),
		Default: s.value(key, node.DefaultValue),
	}
	switch node.Type {
	case uischema.TypeCheckbox:
		q.Kind = FieldBoolean
	case uischema.TypeNumber:
		q.Kind = FieldNumber
	case uischema.TypeSelect, uischema.TypeRadios:
		q.Kind = FieldSelect
	case uischema.TypeCheckboxes:
		q.Kind = FieldMultiSelect
	case uischema.TypeTextArea:
		q.Kind = FieldTextArea
	case uischema.TypeText, uischema.TypeDate, uischema.TypeTime:
		q.Kind = FieldText
	default:
		return Question{}, false
	}
	if q.Kind == FieldSelect || q.Kind == FieldMultiSelect {
		q.Options = node.OptionValues()
		if len(q.Options) == 0 {
			return Question{}, false
		}
	}
	q.Validate = collectValidationRules(node).validator(q.Kind, q.Options, s.plain)
	return q, true
}

// storedValue converts an accepted answer into the value kept in the result.
func storedValue(kind FieldKind, answer any) any {
	switch kind {
	case FieldNumber:
		raw := strings.TrimSpace(answerString(answer))
		if raw == "" {
			return nil
		}
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(raw, 64)
		return f
	case FieldMultiSelect:
		values := answerList(answer)
		out := make([]any, len(values))
		for i, value := range values {
			out[i] = value
		}
		return out
	case FieldBoolean:
		return definition.Truthy(answer)
	default:
		return answerString(answer)
	}
}

func displayLabel(key string, node *uischema.Node) string {
	if label := strings.TrimSpace(deref(node.Label)); label != "" {
		return label
	}
	return key
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func answerString(value any) string {
	if value == nil {
		return ""
	}
	return definition.ToString(value)
}

func answerList(value any) []string {
	if list, ok := value.([]string); ok {
		return list
	}
	return definition.StringList(value)
}

func optionLabels(options []uischema.Option) []string {
	out := make([]string, len(options))
	for i, option := range options {
		out[i] = option.Label
		if out[i] == "" {
			out[i] = option.Value
		}
	}
	return out
}

func indexOfValue(options []uischema.Option, value string) int {
	for i, option := range options {
		if option.Value == value {
			return i
		}
	}
	return -1
}
