package uischema

import (
	"bytes"
	"encoding/json"
)

// Target UI types understood by the front-end renderer.
const (
	TypeText       = "text"
	TypeNumber     = "number"
	TypeTextArea   = "textArea"
	TypeCaptcha    = "captcha"
	TypeCheckbox   = "checkbox"
	TypeSelect     = "select"
	TypeRadios     = "radios"
	TypeCheckboxes = "checkboxes"
	TypeUpload     = "upload"
	TypeDate       = "date"
	TypeTime       = "time"
	TypeRawHTML    = "rawhtml"
)

// Node is a single entry of a UI schema tree. Layout and page nodes keep the
// source element type and carry Childs; leaf nodes carry one of the Type*
// constants and never have Childs. Pointer fields distinguish "absent" from
// zero values so the encoded payload only lists what the source declared.
type Node struct {
	Type               string      `json:"type"`
	Title              *string     `json:"title,omitempty"`
	Label              *string     `json:"label,omitempty"`
	AlignItems         any         `json:"align_items,omitempty"`
	TitleDisplay       any         `json:"title_display,omitempty"`
	Description        any         `json:"description,omitempty"`
	DescriptionDisplay any         `json:"description_display,omitempty"`
	DefaultValue       any         `json:"default_value,omitempty"`
	Flex               *int        `json:"flex,omitempty"`
	Placeholder        *string     `json:"placeholder,omitempty"`
	HelperText         *string     `json:"helperText,omitempty"`
	ReadOnly           any         `json:"readOnly,omitempty"`
	HTMLInputType      string      `json:"htmlInputType,omitempty"`
	Options            *OptionList `json:"options,omitempty"`
	EmptyOption        *string     `json:"emptyOption,omitempty"`
	EmptyValue         any         `json:"emptyValue,omitempty"`
	OptionsDisplay     any         `json:"optionsDisplay,omitempty"`
	OptionsAll         any         `json:"optionsAll,omitempty"`
	OptionsNone        any         `json:"optionsNone,omitempty"`
	Class              *string     `json:"class,omitempty"`
	PrevButtonLabel    string      `json:"prev_button_label,omitempty"`
	NextButtonLabel    string      `json:"next_button_label,omitempty"`
	Validation         *Validation `json:"validation,omitempty"`
	IsMultiple         *bool       `json:"isMultiple,omitempty"`
	MaxSizeMb          *int        `json:"maxSizeMb,omitempty"`
	ExtensionsClean    string      `json:"extensionsClean,omitempty"`
	HTML               *string     `json:"html,omitempty"`
	Format             *string     `json:"format,omitempty"`
	Attributes         any         `json:"attributes,omitempty"`
	States             States      `json:"states,omitempty"`
	Childs             *Tree       `json:"childs,omitempty"`
}

// OptionList is the ordered list of choices of a select-like field. A nil
// pointer on Node means "no options declared"; an empty list is encoded as [].
type OptionList []Option

// MarshalJSON encodes a nil list as [] instead of null.
func (l OptionList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return marshal([]Option(l))
}

// Option is one {value, label} pair.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionValues returns the node's options, or nil when none were declared.
func (n *Node) OptionValues() []Option {
	if n == nil || n.Options == nil {
		return nil
	}
	return []Option(*n.Options)
}

// Validation groups client-side validation rules.
type Validation struct {
	Required      bool   `json:"required,omitempty"`
	RequiredError string `json:"requiredError,omitempty"`
	Pattern       string `json:"pattern,omitempty"`
	PatternError  string `json:"patternError,omitempty"`
	Min           any    `json:"min,omitempty"`
	Max           any    `json:"max,omitempty"`
	SameAs        string `json:"sameAs,omitempty"`
	SameAsError   string `json:"sameAsError,omitempty"`
	MaxFiles      *int   `json:"maxFiles,omitempty"`
	MaxSizeBytes  *int64 `json:"maxSizeBytes,omitempty"`
	Extensions    string `json:"extensions,omitempty"`
}

// Empty reports whether no rule is set.
func (v *Validation) Empty() bool {
	if v == nil {
		return true
	}
	return !v.Required && v.RequiredError == "" && v.Pattern == "" && v.PatternError == "" &&
		v.Min == nil && v.Max == nil && v.SameAs == "" && v.SameAsError == "" &&
		v.MaxFiles == nil && v.MaxSizeBytes == nil && v.Extensions == ""
}

// States holds compiled conditional-display rules in declaration order.
type States []State

// State is the compiled form of one #states entry (visible, required, ...).
// Operator is empty unless the rule has more than one check.
type State struct {
	Name     string
	Operator string
	Checks   []Check
}

// Check compares the value of another element against a constraint.
type Check struct {
	Element  string `json:"element"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Get returns the state with the given name.
func (s States) Get(name string) (State, bool) {
	for _, state := range s {
		if state.Name == name {
			return state, true
		}
	}
	return State{}, false
}

// MarshalJSON encodes states as an object keyed by state name.
func (s States) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, state := range s {
		if idx > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, state.Name); err != nil {
			return nil, err
		}
		checks := state.Checks
		if checks == nil {
			checks = []Check{}
		}
		payload := struct {
			Operator string  `json:"operator,omitempty"`
			Checks   []Check `json:"checks"`
		}{Operator: state.Operator, Checks: checks}
		if err := writeValue(&buf, payload); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func writeKey(buf *bytes.Buffer, key string) error {
	raw, err := marshal(key)
	if err != nil {
		return err
	}
	buf.Write(raw)
	buf.WriteByte(':')
	return nil
}

func writeValue(buf *bytes.Buffer, value any) error {
	raw, err := marshal(value)
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}

// marshal encodes without HTML escaping so markup payloads stay readable.
func marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
