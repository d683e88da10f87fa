package definition

import "strings"

// PropertyMarker prefixes property keys in webform element mappings. Keys
// without it are child elements.
const PropertyMarker = "#"

// Element is a node of a webform element tree. Properties are stored without
// the leading marker ("#title" becomes "title").
type Element struct {
	Key      string
	Type     string
	Props    *Map
	Children []*Element
}

// IsProperty reports whether a raw mapping key names a property instead of a
// child element.
func IsProperty(key string) bool {
	return strings.HasPrefix(key, PropertyMarker)
}

// Prop returns the raw property value.
func (e *Element) Prop(name string) (any, bool) {
	if e == nil {
		return nil, false
	}
	return e.Props.Get(name)
}

// Has reports whether the property exists with a non-nil value.
func (e *Element) Has(name string) bool {
	value, ok := e.Prop(name)
	return ok && value != nil
}

// Truthy reports whether the property exists and is not empty.
func (e *Element) Truthy(name string) bool {
	value, _ := e.Prop(name)
	return Truthy(value)
}

// String returns the property rendered as a string ("" when absent).
func (e *Element) String(name string) string {
	value, _ := e.Prop(name)
	return ToString(value)
}

// Child returns the direct child with the given key.
func (e *Element) Child(key string) (*Element, bool) {
	if e == nil {
		return nil, false
	}
	for _, child := range e.Children {
		if child.Key == key {
			return child, true
		}
	}
	return nil, false
}

// Find searches the subtree depth-first, in declaration order.
func (e *Element) Find(key string) (*Element, bool) {
	if e == nil {
		return nil, false
	}
	for _, child := range e.Children {
		if child.Key == key {
			return child, true
		}
		if found, ok := child.Find(key); ok {
			return found, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the element subtree.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := &Element{
		Key:   e.Key,
		Type:  e.Type,
		Props: e.Props.Clone(),
	}
	if len(e.Children) > 0 {
		out.Children = make([]*Element, len(e.Children))
		for idx, child := range e.Children {
			out.Children[idx] = child.Clone()
		}
	}
	return out
}
