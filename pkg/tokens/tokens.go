// Package tokens substitutes "[group:name]" placeholders in default values.
package tokens

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownToken is returned in strict mode when a token has no value.
var ErrUnknownToken = errors.New("tokens: unknown token")

var tokenPattern = regexp.MustCompile(`\[([a-zA-Z0-9_\-]+):([^\[\]\s]+)\]`)

// GroupFunc resolves the names of one token group ("current-user", "site").
type GroupFunc func(name string) (string, bool)

// Replacer resolves tokens from static values, group resolvers and the
// built-in "current-date" group. Unresolved tokens are kept verbatim unless
// the replacer clears or rejects them.
type Replacer struct {
	values map[string]string
	groups map[string]GroupFunc
	clear  bool
	strict bool
	now    func() time.Time
}

// Option customises a Replacer.
type Option func(*Replacer)

// WithValue registers the value of a single "group:name" token.
func WithValue(token, value string) Option {
	return func(r *Replacer) {
		r.values[normalizeToken(token)] = value
	}
}

// WithValues registers several token values at once.
func WithValues(values map[string]string) Option {
	return func(r *Replacer) {
		for token, value := range values {
			r.values[normalizeToken(token)] = value
		}
	}
}

// WithGroup registers a resolver for every token of a group.
func WithGroup(group string, fn GroupFunc) Option {
	return func(r *Replacer) {
		if fn != nil {
			r.groups[strings.TrimSpace(group)] = fn
		}
	}
}

// WithClear removes unresolved tokens instead of keeping them.
func WithClear() Option {
	return func(r *Replacer) {
		r.clear = true
	}
}

// WithStrict makes unresolved tokens an error.
func WithStrict() Option {
	return func(r *Replacer) {
		r.strict = true
	}
}

// WithClock overrides the time source used by the current-date group.
func WithClock(now func() time.Time) Option {
	return func(r *Replacer) {
		if now != nil {
			r.now = now
		}
	}
}

// New builds a Replacer.
func New(opts ...Option) *Replacer {
	r := &Replacer{
		values: make(map[string]string),
		groups: make(map[string]GroupFunc),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Replace substitutes every token found in raw.
func (r *Replacer) Replace(raw string) (string, error) {
	if !strings.Contains(raw, "[") {
		return raw, nil
	}
	var firstErr error
	out := tokenPattern.ReplaceAllStringFunc(raw, func(match string) string {
		parts := tokenPattern.FindStringSubmatch(match)
		value, ok := r.lookup(parts[1], parts[2])
		if ok {
			return value
		}
		if r.strict && firstErr == nil {
			firstErr = fmt.Errorf("%w: %s", ErrUnknownToken, match)
		}
		if r.clear {
			return ""
		}
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (r *Replacer) lookup(group, name string) (string, bool) {
	if value, ok := r.values[group+":"+name]; ok {
		return value, true
	}
	if fn, ok := r.groups[group]; ok {
		return fn(name)
	}
	if group == "current-date" {
		return currentDate(r.now(), name)
	}
	return "", false
}

func currentDate(now time.Time, name string) (string, bool) {
	switch name {
	case "html_date":
		return now.Format("2006-01-02"), true
	case "html_time":
		return now.Format("15:04:05"), true
	case "html_datetime":
		return now.Format(time.RFC3339), true
	case "html_year":
		return now.Format("2006"), true
	case "html_month":
		return now.Format("2006-01"), true
	case "timestamp", "raw":
		return strconv.FormatInt(now.Unix(), 10), true
	default:
		return "", false
	}
}

func normalizeToken(token string) string {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "[")
	return strings.TrimSuffix(token, "]")
}

// Identity returns values unchanged.
type Identity struct{}

// Replace implements the token replacer port.
func (Identity) Replace(raw string) (string, error) {
	return raw, nil
}
