package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-webform/pkg/definition"
)

// Transformer rewrites a definition before it is normalized. It receives a
// private copy, so stored definitions are never affected.
type Transformer interface {
	Transform(ctx context.Context, form *definition.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *definition.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *definition.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, form *definition.Form) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, form); err != nil {
				return err
			}
		}
		return nil
	})
}

// PresetTransformer applies declarative overrides loaded from a YAML or JSON
// document. Element paths use dots to reach nested elements and property
// names may be written with or without the leading "#":
//
//	title: Contact us (staging)
//	elements:
//	  name:
//	    '#title': Full name
//	  address.city:
//	    '#required': true
type PresetTransformer struct {
	title    string
	elements *definition.Map
}

// NewPresetTransformer constructs a transformer from raw YAML or JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	doc, err := definition.ParseMapping(data)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	t := &PresetTransformer{}
	if raw, ok := doc.Get("title"); ok {
		t.title = definition.ToString(raw)
	}
	if raw, ok := doc.Get("elements"); ok && raw != nil {
		elements, ok := raw.(*definition.Map)
		if !ok {
			return nil, errors.New("preset transformer: elements must be a mapping")
		}
		t.elements = elements
	}
	return t, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied form.
func (t *PresetTransformer) Transform(ctx context.Context, form *definition.Form) error {
	if form == nil {
		return errors.New("preset transformer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.title != "" {
		form.Title = t.title
	}

	var err error
	t.elements.Each(func(path string, patch any) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		el := findElementByPath(form.Elements, path)
		if el == nil {
			err = fmt.Errorf("preset transformer: element %q not found", path)
			return false
		}
		props, ok := patch.(*definition.Map)
		if !ok {
			err = fmt.Errorf("preset transformer: patch for %q must be a mapping", path)
			return false
		}
		applyElementPatch(el, props)
		return true
	})
	return err
}

func applyElementPatch(el *definition.Element, patch *definition.Map) {
	if el.Props == nil {
		el.Props = definition.NewMap()
	}
	patch.Each(func(name string, value any) bool {
		name = strings.TrimPrefix(name, definition.PropertyMarker)
		el.Props.Set(name, value)
		if name == "type" {
			el.Type = strings.TrimSpace(definition.ToString(value))
		}
		return true
	})
}

func findElementByPath(elements []*definition.Element, path string) *definition.Element {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	segments := strings.Split(path, ".")
	current := elements
	for idx, segment := range segments {
		var next *definition.Element
		for _, el := range current {
			if el.Key == segment {
				next = el
				break
			}
		}
		if next == nil {
			return nil
		}
		if idx == len(segments)-1 {
			return next
		}
		current = next.Children
	}
	return nil
}
