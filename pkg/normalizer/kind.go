package normalizer

import "github.com/goliatone/go-webform/pkg/definition"

type kind int

const (
	kindLeaf kind = iota
	kindActions
	kindLayout
	kindPage
)

func (k kind) String() string {
	switch k {
	case kindActions:
		return "actions"
	case kindLayout:
		return "layout"
	case kindPage:
		return "page"
	default:
		return "leaf"
	}
}

func classify(el *definition.Element) kind {
	switch {
	case el.Type == TypeActions:
		return kindActions
	case isLayout(el.Type):
		return kindLayout
	case el.Type == TypeWizardPage:
		return kindPage
	default:
		return kindLeaf
	}
}

func isLayout(sourceType string) bool {
	_, ok := layoutTypes[sourceType]
	return ok
}

// isFlexItem reports whether el sits in a flexbox row. Direct children of a
// webform_flexbox are flex items unless they opt out explicitly.
func isFlexItem(el, parent *definition.Element) bool {
	if value, ok := el.Prop("webform_parent_flexbox"); ok {
		return definition.Truthy(value)
	}
	return parent != nil && parent.Type == TypeFlexbox
}

func flexWeight(el *definition.Element) int {
	if weight, ok := definition.ToInt(mustProp(el, "flex")); ok {
		return weight
	}
	return 1
}

func mustProp(el *definition.Element, name string) any {
	value, _ := el.Prop(name)
	return value
}
