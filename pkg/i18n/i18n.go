// Package i18n provides the Translator port used while building UI schemas,
// a small in-memory catalog and @placeholder message formatting.
package i18n

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-webform/pkg/definition"
)

// Message keys emitted by the normalizer.
const (
	KeyReset        = "Reset"
	KeyInvalidField = "The field @field is not valid"
)

var (
	// ErrMissingTranslator is passed to MissingHandler when no translator is
	// configured.
	ErrMissingTranslator = errors.New("i18n: translator not configured")
	// ErrMissingMessage is returned by Catalog when a key has no entry.
	ErrMissingMessage = errors.New("i18n: message not found")
)

// Translator resolves a message key for a locale. Args carry placeholder
// values, usually as a single map[string]any keyed by "@name".
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

// Translate implements Translator.
func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	if fn == nil {
		return "", ErrMissingTranslator
	}
	return fn(locale, key, args...)
}

// MissingHandler decides what string to use when translation fails.
type MissingHandler func(locale, key string, args []any, err error) string

// FormatOnMissing returns the key itself with placeholders substituted.
func FormatOnMissing(_ string, key string, args []any, _ error) string {
	return Format(key, args...)
}

// Translate resolves key through t, falling back to onMissing (or to the
// formatted key) when t is nil, errors, or returns a blank message.
func Translate(t Translator, onMissing MissingHandler, locale, key string, args ...any) string {
	if onMissing == nil {
		onMissing = FormatOnMissing
	}
	if strings.TrimSpace(key) == "" {
		return key
	}
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}
	msg, err := t.Translate(locale, key, args...)
	if err != nil || strings.TrimSpace(msg) == "" {
		return onMissing(locale, key, args, err)
	}
	return msg
}

// Format substitutes "@name", "%name" and ":name" placeholders using every
// map argument. Longer placeholders are replaced first so "@field_name" is
// not clobbered by "@field".
func Format(message string, args ...any) string {
	params := collectParams(args)
	if len(params) == 0 {
		return message
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, name, params[name])
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

func collectParams(args []any) map[string]string {
	params := make(map[string]string)
	for _, arg := range args {
		switch typed := arg.(type) {
		case map[string]any:
			for name, value := range typed {
				params[placeholder(name)] = definition.ToString(value)
			}
		case map[string]string:
			for name, value := range typed {
				params[placeholder(name)] = value
			}
		case *definition.Map:
			typed.Each(func(name string, value any) bool {
				params[placeholder(name)] = definition.ToString(value)
				return true
			})
		}
	}
	return params
}

func placeholder(name string) string {
	if name == "" {
		return name
	}
	switch name[0] {
	case '@', '%', ':':
		return name
	default:
		return "@" + name
	}
}

// Catalog is an in-memory, locale-keyed message table. Lookups fall back from
// "fr-CA" to "fr" and then to the fallback locale. It is safe for concurrent
// use.
type Catalog struct {
	mu       sync.RWMutex
	fallback string
	messages map[string]map[string]string
}

// CatalogOption customises a Catalog.
type CatalogOption func(*Catalog)

// WithFallbackLocale sets the locale consulted when a lookup misses.
func WithFallbackLocale(locale string) CatalogOption {
	return func(c *Catalog) {
		c.fallback = normalizeLocale(locale)
	}
}

// WithMessages registers messages for a locale.
func WithMessages(locale string, messages map[string]string) CatalogOption {
	return func(c *Catalog) {
		c.add(locale, messages)
	}
}

// NewCatalog builds a catalog with the given options.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		fallback: "en",
		messages: make(map[string]map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// DefaultCatalog returns a catalog holding the English messages the
// normalizer emits.
func DefaultCatalog() *Catalog {
	return NewCatalog(WithMessages("en", map[string]string{
		KeyReset:        "Reset",
		KeyInvalidField: "The field @field is not valid",
	}))
}

// Add registers or replaces messages for a locale.
func (c *Catalog) Add(locale string, messages map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(locale, messages)
}

func (c *Catalog) add(locale string, messages map[string]string) {
	locale = normalizeLocale(locale)
	bucket := c.messages[locale]
	if bucket == nil {
		bucket = make(map[string]string, len(messages))
		c.messages[locale] = bucket
	}
	for key, msg := range messages {
		bucket[key] = msg
	}
}

// Translate implements Translator.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	if c == nil {
		return "", ErrMissingTranslator
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range c.candidates(locale) {
		if msg, ok := c.messages[candidate][key]; ok {
			return Format(msg, args...), nil
		}
	}
	return "", fmt.Errorf("%w: %q (locale %q)", ErrMissingMessage, key, locale)
}

func (c *Catalog) candidates(locale string) []string {
	locale = normalizeLocale(locale)
	out := make([]string, 0, 3)
	if locale != "" {
		out = append(out, locale)
		if idx := strings.Index(locale, "-"); idx > 0 {
			out = append(out, locale[:idx])
		}
	}
	if c.fallback != "" && c.fallback != locale {
		out = append(out, c.fallback)
	}
	return out
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}
