package normalizer

import (
	"fmt"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/i18n"
	"github.com/goliatone/go-webform/pkg/states"
	"github.com/goliatone/go-webform/pkg/taxonomy"
	"github.com/goliatone/go-webform/pkg/uischema"
	"github.com/goliatone/go-webform/pkg/upload"
)

func (r *run) leaf(el *definition.Element, siblings []*definition.Element, parent *definition.Element) (*uischema.Node, error) {
	uiType, ok := LeafType(el.Type)
	if !ok {
		return nil, mappingError(el.Key, el.Type, ErrUnmappedType)
	}
	if err := checkNoChildren(el); err != nil {
		return nil, err
	}

	node := &uischema.Node{Type: uiType}
	validation := &uischema.Validation{}

	if value, ok := r.defaultValue(el); ok {
		resolved, err := r.replaceTokens(value)
		if err != nil {
			return nil, mappingError(el.Key, el.Type, fmt.Errorf("default value: %w", err))
		}
		node.DefaultValue = resolved
	}
	if el.Has("title_display") {
		node.TitleDisplay = mustProp(el, "title_display")
	}

	r.mapProperties(el, parent, node)
	r.mapValidation(el, siblings, node, validation)

	if el.Type == TypeTermSelect {
		options, err := r.termOptions(el)
		if err != nil {
			return nil, err
		}
		node.Options = &options
	}
	prependEmptyOption(node)

	switch uiType {
	case uischema.TypeUpload:
		if err := r.mapUpload(el, node, validation); err != nil {
			return nil, err
		}
	case uischema.TypeRawHTML:
		r.mapMarkup(el, node)
	}

	if el.Has("states") {
		compiled, err := states.Compile(mustProp(el, "states"), r.n.selectors)
		if err != nil {
			return nil, mappingError(el.Key, el.Type, err)
		}
		node.States = compiled
	}

	if !validation.Empty() {
		node.Validation = validation
	}
	return node, nil
}

// checkNoChildren rejects field elements that nest other elements. The first
// nested element is reported, as unmapped when its own type is unknown.
func checkNoChildren(el *definition.Element) error {
	if len(el.Children) == 0 {
		return nil
	}
	child := el.Children[0]
	if classify(child) == kindLeaf {
		if _, ok := LeafType(child.Type); !ok {
			return mappingError(child.Key, child.Type, ErrUnmappedType)
		}
	}
	return mappingError(child.Key, child.Type, fmt.Errorf("%w: nested in %q", ErrUnexpectedChildren, el.Key))
}

// defaultValue prefers the value stored in the user's draft.
func (r *run) defaultValue(el *definition.Element) (any, bool) {
	if value, ok := r.values[el.Key]; ok && value != nil {
		return value, true
	}
	if el.Has("default_value") {
		return mustProp(el, "default_value"), true
	}
	return nil, false
}

func (r *run) replaceTokens(value any) (any, error) {
	switch typed := value.(type) {
	case string:
		return r.n.tokens.Replace(typed)
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			str, ok := item.(string)
			if !ok {
				out[idx] = item
				continue
			}
			replaced, err := r.n.tokens.Replace(str)
			if err != nil {
				return nil, err
			}
			out[idx] = replaced
		}
		return out, nil
	case []string:
		out := make([]any, len(typed))
		for idx, str := range typed {
			replaced, err := r.n.tokens.Replace(str)
			if err != nil {
				return nil, err
			}
			out[idx] = replaced
		}
		return out, nil
	default:
		return value, nil
	}
}

func (r *run) mapProperties(el, parent *definition.Element, node *uischema.Node) {
	if el.Has("title") {
		node.Label = uischema.Ptr(el.String("title"))
	}
	if isFlexItem(el, parent) {
		node.Flex = uischema.Ptr(flexWeight(el))
	}
	if el.Has("placeholder") {
		node.Placeholder = uischema.Ptr(r.translate(el.String("placeholder")))
	}
	if el.Has("description") {
		node.HelperText = uischema.Ptr(r.translate(el.String("description")))
	}
	if el.Has("readonly") {
		node.ReadOnly = mustProp(el, "readonly")
	}
	node.HTMLInputType = htmlInputTypes[el.Type]
	if el.Has("options") {
		options := flattenOptions(mustProp(el, "options"))
		node.Options = &options
	}
	if el.Has("empty_option") {
		node.EmptyOption = uischema.Ptr(r.translate(el.String("empty_option")))
	}
	if el.Has("empty_value") {
		node.EmptyValue = mustProp(el, "empty_value")
	}
	if el.Has("options_display") {
		node.OptionsDisplay = mustProp(el, "options_display")
	}
	if el.Has("options_all") {
		node.OptionsAll = mustProp(el, "options_all")
	}
	if el.Has("options_none") {
		node.OptionsNone = mustProp(el, "options_none")
	}
	node.Class = uischema.Ptr(classNames(el))
}

func (r *run) mapValidation(el *definition.Element, siblings []*definition.Element, node *uischema.Node, v *uischema.Validation) {
	if el.Truthy("required") {
		v.Required = true
		if el.Has("required_error") {
			v.RequiredError = r.translate(el.String("required_error"))
		}
	}
	if el.Has("pattern") {
		v.Pattern = el.String("pattern")
		if el.Has("pattern_error") {
			v.PatternError = el.String("pattern_error")
		}
	}
	if el.Has("min") {
		v.Min = mustProp(el, "min")
	}
	if el.Has("max") {
		v.Max = mustProp(el, "max")
	}

	label := ""
	if node.Label != nil {
		label = *node.Label
	}
	invalid := func() string {
		return r.translate(i18n.KeyInvalidField, map[string]any{"@field": label})
	}

	if (el.Type == TypeEmail || el.Type == TypeEmailConfirm) && v.Pattern == "" {
		v.Pattern = EmailPattern
		v.PatternError = invalid()
	}
	if el.Type == TypeEmailConfirm {
		for _, sibling := range siblings {
			if sibling.Type == TypeEmail {
				v.SameAs = sibling.Key
				v.SameAsError = invalid()
				break
			}
		}
	}
	if el.Type == TypeCaptcha {
		v.Required = true
	}
}

func (r *run) termOptions(el *definition.Element) (uischema.OptionList, error) {
	vocabulary := el.String("vocabulary")
	if vocabulary == "" || r.n.vocabularies == nil {
		return uischema.OptionList{}, nil
	}
	terms, err := r.n.vocabularies.LoadVocabulary(r.ctx, vocabulary)
	if err != nil {
		return nil, mappingError(el.Key, el.Type, wrapCause(ErrVocabulary, err))
	}
	depth, _ := definition.ToInt(mustProp(el, "depth"))
	if el.Truthy("breadcrumb") {
		return taxonomy.BreadcrumbOptions(terms, el.String("breadcrumb_delimiter"), depth), nil
	}
	return taxonomy.TreeOptions(terms, el.String("tree_delimiter"), depth), nil
}

func (r *run) mapUpload(el *definition.Element, node *uischema.Node, v *uischema.Validation) error {
	constraints, err := r.n.uploads.PrepareUpload(r.ctx, el, r.form)
	if err != nil {
		return mappingError(el.Key, el.Type, wrapCause(ErrUpload, err))
	}

	multiple := mustProp(el, "multiple")
	node.IsMultiple = uischema.Ptr(definition.Truthy(multiple))
	if definition.IsInteger(multiple) {
		if limit, ok := definition.ToInt(multiple); ok {
			v.MaxFiles = uischema.Ptr(limit)
		}
	}

	sizeMb, ok := definition.ToInt(mustProp(el, "max_filesize"))
	if !ok || sizeMb <= 0 {
		sizeMb = constraints.MaxSizeMb
	}
	if sizeMb > 0 {
		v.MaxSizeBytes = uischema.Ptr(upload.MaxSizeBytes(sizeMb))
		node.MaxSizeMb = uischema.Ptr(sizeMb)
	}

	if len(constraints.Extensions) > 0 {
		v.Extensions = constraints.DottedExtensions()
		node.ExtensionsClean = constraints.CleanExtensions()
	}
	return nil
}

// flattenOptions turns #options into ordered pairs. Nested mappings are
// option groups and contribute their entries in place.
func flattenOptions(raw any) uischema.OptionList {
	out := uischema.OptionList{}
	switch typed := raw.(type) {
	case *definition.Map:
		typed.Each(func(value string, label any) bool {
			if group, ok := label.(*definition.Map); ok {
				out = append(out, flattenOptions(group)...)
				return true
			}
			out = append(out, uischema.Option{Value: value, Label: definition.ToString(label)})
			return true
		})
	case []any:
		for _, item := range typed {
			if group, ok := item.(*definition.Map); ok {
				out = append(out, flattenOptions(group)...)
				continue
			}
			str := definition.ToString(item)
			out = append(out, uischema.Option{Value: str, Label: str})
		}
	}
	return out
}

// prependEmptyOption adds the empty choice in front of non-empty options.
func prependEmptyOption(node *uischema.Node) {
	if node.EmptyOption == nil || *node.EmptyOption == "" {
		return
	}
	if node.Options == nil || len(*node.Options) == 0 {
		return
	}
	empty := uischema.Option{Label: *node.EmptyOption}
	if definition.Truthy(node.EmptyValue) {
		empty.Value = definition.ToString(node.EmptyValue)
	}
	options := append(uischema.OptionList{empty}, *node.Options...)
	node.Options = &options
}
