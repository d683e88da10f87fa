package tui

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/uischema"
)

type validationRules struct {
	required    bool
	requiredMsg string
	pattern     *regexp.Regexp
	patternMsg  string
	min         *float64
	max         *float64
	sameAs      string
	sameAsMsg   string
}

func collectValidationRules(node *uischema.Node) validationRules {
	v := node.Validation
	if v == nil {
		return validationRules{}
	}
	rules := validationRules{
		required:    v.Required,
		requiredMsg: v.RequiredError,
		patternMsg:  v.PatternError,
		sameAs:      v.SameAs,
		sameAsMsg:   v.SameAsError,
	}
	if v.Pattern != "" {
		if re, err := CompilePattern(v.Pattern); err == nil {
			rules.pattern = re
		}
	}
	if val, ok := toFloat(v.Min); ok {
		rules.min = &val
	}
	if val, ok := toFloat(v.Max); ok {
		rules.max = &val
	}
	return rules
}

// CompilePattern turns a client-side pattern into a Go regexp. JavaScript
// literals ("/^...$/i") keep their body and flags; anything else is treated
// as an HTML pattern attribute and anchored on both ends.
func CompilePattern(raw string) (*regexp.Regexp, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("tui: empty pattern")
	}
	if strings.HasPrefix(raw, "/") {
		if end := strings.LastIndex(raw, "/"); end > 0 {
			body, flags := raw[1:end], raw[end+1:]
			prefix := ""
			for _, flag := range flags {
				switch flag {
				case 'i', 'm', 's':
					prefix += string(flag)
				}
			}
			if prefix != "" {
				body = "(?" + prefix + ")" + body
			}
			return regexp.Compile(body)
		}
	}
	return regexp.Compile("^(?:" + raw + ")$")
}

// validator returns the answer check of a question. values reports the answers
// collected so far, for sameAs.
func (r validationRules) validator(kind FieldKind, options []uischema.Option, values func() map[string]any) func(any) error {
	return func(answer any) error {
		switch kind {
		case FieldBoolean:
			if r.required && !definition.Truthy(answer) {
				return r.message(r.requiredMsg, "required")
			}
			return nil
		case FieldNumber:
			raw := strings.TrimSpace(answerString(answer))
			if raw == "" {
				if r.required {
					return r.message(r.requiredMsg, "required")
				}
				return nil
			}
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%q is not a number", raw)
			}
			return r.validateNumber(n)
		case FieldMultiSelect:
			selected := answerList(answer)
			for _, value := range selected {
				if indexOfValue(options, value) < 0 {
					return fmt.Errorf("unknown option %q", value)
				}
			}
			return r.validateArray(selected)
		case FieldSelect:
			value := answerString(answer)
			if value != "" && indexOfValue(options, value) < 0 {
				return fmt.Errorf("unknown option %q", value)
			}
			return r.validateString(value, values())
		default:
			return r.validateString(answerString(answer), values())
		}
	}
}

func (r validationRules) validateString(value string, values map[string]any) error {
	if strings.TrimSpace(value) == "" {
		if r.required {
			return r.message(r.requiredMsg, "required")
		}
		return nil
	}
	if r.pattern != nil && !r.pattern.MatchString(value) {
		return r.message(r.patternMsg, "does not match required pattern")
	}
	if r.sameAs != "" {
		if other, _ := values[r.sameAs].(string); other != value {
			return r.message(r.sameAsMsg, "must match "+r.sameAs)
		}
	}
	return nil
}

func (r validationRules) validateNumber(value float64) error {
	if r.min != nil && value < *r.min {
		return fmt.Errorf("min %v", *r.min)
	}
	if r.max != nil && value > *r.max {
		return fmt.Errorf("max %v", *r.max)
	}
	return nil
}

func (r validationRules) validateArray(value []string) error {
	if r.required && len(value) == 0 {
		return r.message(r.requiredMsg, "required")
	}
	return nil
}

func (r validationRules) message(custom, fallback string) error {
	if custom != "" {
		return errors.New(custom)
	}
	return errors.New(fallback)
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case nil:
		return 0, false
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		return parseFloat(n)
	default:
		return parseFloat(fmt.Sprint(n))
	}
}

func parseFloat(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	return val, err == nil
}
