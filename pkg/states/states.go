// Package states compiles webform #states declarations into the conditional
// display rules carried by UI schema nodes.
package states

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/uischema"
)

// Combinators recognised inside a condition list.
const (
	OperatorAnd = "and"
	OperatorOr  = "or"
	OperatorXor = "xor"
)

var (
	// ErrMalformedConditions reports a #states entry that is not a condition
	// mapping or list.
	ErrMalformedConditions = errors.New("states: malformed conditions")
	// ErrUnresolvedSelector reports a selector the resolver could not map to
	// an element key.
	ErrUnresolvedSelector = errors.New("states: unresolved selector")
)

// Resolver maps a condition selector (":input[name=\"contact[email]\"]") to
// the key of the element it targets.
type Resolver interface {
	ResolveSelector(selector string) (string, bool)
}

// ResolverFunc adapts a function into a Resolver.
type ResolverFunc func(selector string) (string, bool)

// ResolveSelector implements Resolver.
func (fn ResolverFunc) ResolveSelector(selector string) (string, bool) {
	if fn == nil {
		return "", false
	}
	return fn(selector)
}

var inputNamePattern = regexp.MustCompile(`\[name=(?:"([^"]+)"|'([^']+)')\]`)

// DefaultResolver extracts the input name from a selector and keeps its first
// segment, so `:input[name="address[city]"]` resolves to "address".
func DefaultResolver() Resolver {
	return ResolverFunc(resolveInputName)
}

func resolveInputName(selector string) (string, bool) {
	match := inputNamePattern.FindStringSubmatch(selector)
	if match == nil {
		return "", false
	}
	name := match[1]
	if name == "" {
		name = match[2]
	}
	if idx := strings.Index(name, "["); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSpace(name)
	return name, name != ""
}

// Compile turns the raw #states value into ordered display rules. Each state
// maps to either a selector => {operator: value} mapping (implicit "and") or
// a list mixing single-selector mappings with the "or"/"xor" tokens. The
// combinator is kept only when a state yields more than one check.
func Compile(raw any, resolver Resolver) (uischema.States, error) {
	if raw == nil {
		return nil, nil
	}
	if resolver == nil {
		resolver = DefaultResolver()
	}
	declared, ok := raw.(*definition.Map)
	if !ok {
		return nil, fmt.Errorf("%w: expected a mapping of states", ErrMalformedConditions)
	}

	out := make(uischema.States, 0, declared.Len())
	var err error
	declared.Each(func(name string, conditions any) bool {
		var state uischema.State
		state, err = compileState(name, conditions, resolver)
		if err != nil {
			return false
		}
		out = append(out, state)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func compileState(name string, conditions any, resolver Resolver) (uischema.State, error) {
	state := uischema.State{Name: name, Checks: []uischema.Check{}}
	combinator := OperatorAnd

	appendCheck := func(selector string, constraint any) error {
		check, err := compileCheck(name, selector, constraint, resolver)
		if err != nil {
			return err
		}
		state.Checks = append(state.Checks, check)
		return nil
	}

	switch typed := conditions.(type) {
	case *definition.Map:
		var err error
		typed.Each(func(selector string, constraint any) bool {
			err = appendCheck(selector, constraint)
			return err == nil
		})
		if err != nil {
			return state, err
		}
	case []any:
		for idx, entry := range typed {
			switch item := entry.(type) {
			case string:
				token := strings.ToLower(strings.TrimSpace(item))
				if token != OperatorOr && token != OperatorXor && token != OperatorAnd {
					return state, fmt.Errorf("%w: state %q entry %d: unknown token %q", ErrMalformedConditions, name, idx, item)
				}
				combinator = token
			case *definition.Map:
				if item.Len() != 1 {
					return state, fmt.Errorf("%w: state %q entry %d must hold exactly one selector", ErrMalformedConditions, name, idx)
				}
				selector := item.Keys()[0]
				constraint, _ := item.Get(selector)
				if err := appendCheck(selector, constraint); err != nil {
					return state, err
				}
			default:
				return state, fmt.Errorf("%w: state %q entry %d", ErrMalformedConditions, name, idx)
			}
		}
	default:
		return state, fmt.Errorf("%w: state %q", ErrMalformedConditions, name)
	}

	if len(state.Checks) > 1 {
		state.Operator = combinator
	}
	return state, nil
}

func compileCheck(state, selector string, constraint any, resolver Resolver) (uischema.Check, error) {
	element, ok := resolver.ResolveSelector(selector)
	if !ok || element == "" {
		return uischema.Check{}, fmt.Errorf("%w: state %q selector %q", ErrUnresolvedSelector, state, selector)
	}
	body, ok := constraint.(*definition.Map)
	if !ok || body.Len() == 0 {
		return uischema.Check{}, fmt.Errorf("%w: state %q selector %q needs a {trigger: value} mapping", ErrMalformedConditions, state, selector)
	}
	operator := body.Keys()[0]
	value, _ := body.Get(operator)
	return uischema.Check{Element: element, Operator: operator, Value: value}, nil
}
