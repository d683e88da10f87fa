package definition

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode parses a webform definition from YAML or JSON.
//
// Two layouts are accepted: a config export carrying id/title/settings and an
// "elements" attribute (either a mapping or, as Drupal exports it, a YAML
// string), or a bare element mapping as produced by the webform source editor.
func Decode(raw []byte) (*Form, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("definition: document is empty")
	}

	root, err := parseMapping(raw)
	if err != nil {
		return nil, err
	}

	form := &Form{}
	elements := root
	if rawElements, ok := root.Get("elements"); ok {
		form.ID = strings.TrimSpace(readString(root, "id"))
		form.Title = readString(root, "title")
		if settings, ok := root.Get("settings"); ok {
			settingsMap, ok := settings.(*Map)
			if !ok && settings != nil {
				return nil, errors.New("definition: settings must be a mapping")
			}
			form.Settings = settingsFromMap(settingsMap)
		}

		switch typed := rawElements.(type) {
		case nil:
			elements = NewMap()
		case *Map:
			elements = typed
		case string:
			if strings.TrimSpace(typed) == "" {
				elements = NewMap()
				break
			}
			elements, err = parseMapping([]byte(typed))
			if err != nil {
				return nil, fmt.Errorf("definition: embedded elements: %w", err)
			}
		default:
			return nil, errors.New("definition: elements must be a mapping or a YAML string")
		}
	}

	form.Elements, err = elementsFromMap(elements, "")
	if err != nil {
		return nil, err
	}
	return form, nil
}

// DecodeDocument decodes a loaded document. When the payload has no id the
// form id is derived from the document location, so
// "config/webform.webform.contact.yml" yields "contact".
func DecodeDocument(doc Document) (*Form, error) {
	form, err := Decode(doc.Raw())
	if err != nil {
		return nil, fmt.Errorf("%w (source %s)", err, doc.Location())
	}
	if form.ID == "" {
		form.ID = doc.FormID()
	}
	return form, nil
}

// ParseMapping decodes a YAML or JSON mapping into an ordered Map.
func ParseMapping(raw []byte) (*Map, error) {
	return parseMapping(raw)
}

func parseMapping(raw []byte) (*Map, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("definition: parse: %w", err)
	}
	value, err := decodeNode(&node)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return NewMap(), nil
	}
	out, ok := value.(*Map)
	if !ok {
		return nil, errors.New("definition: document root must be a mapping")
	}
	return out, nil
}

func decodeNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return decodeNode(node.Content[0])
	case yaml.AliasNode:
		if node.Alias == nil {
			return nil, fmt.Errorf("definition: unresolved alias at line %d", node.Line)
		}
		return decodeNode(node.Alias)
	case yaml.MappingNode:
		out := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("definition: mapping key at line %d must be a scalar", keyNode.Line)
			}
			value, err := decodeNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(keyNode.Value, value)
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("definition: scalar at line %d: %w", node.Line, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("definition: unsupported node kind at line %d", node.Line)
	}
}

func elementsFromMap(m *Map, parent string) ([]*Element, error) {
	var out []*Element
	var err error
	m.Each(func(key string, value any) bool {
		if IsProperty(key) {
			return true
		}
		var el *Element
		el, err = elementFromValue(key, value, joinKey(parent, key))
		if err != nil {
			return false
		}
		out = append(out, el)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func elementFromValue(key string, value any, fullPath string) (*Element, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("definition: empty element key under %q", fullPath)
	}
	body, ok := value.(*Map)
	if !ok {
		return nil, fmt.Errorf("definition: element %q must be a mapping", fullPath)
	}

	el := &Element{Key: key, Props: NewMap()}
	children := NewMap()
	body.Each(func(name string, prop any) bool {
		if IsProperty(name) {
			el.Props.Set(strings.TrimPrefix(name, PropertyMarker), prop)
			return true
		}
		children.Set(name, prop)
		return true
	})
	el.Type = strings.TrimSpace(el.String("type"))

	nested, err := elementsFromMap(children, fullPath)
	if err != nil {
		return nil, err
	}
	el.Children = nested
	return el, nil
}

func readString(m *Map, key string) string {
	value, _ := m.Get(key)
	return ToString(value)
}

func joinKey(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
