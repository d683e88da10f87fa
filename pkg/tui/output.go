package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-webform/pkg/definition"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Encode serializes collected values in declaration order.
func Encode(values *definition.Map, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	case OutputFormatJSON, "":
		if values == nil {
			return []byte("{}"), nil
		}
		raw, err := values.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("tui: encode values: %w", err)
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return nil, fmt.Errorf("tui: indent values: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", format)
	}
}

func flattenForm(values *definition.Map) string {
	flattened := url.Values{}
	values.Each(func(key string, value any) bool {
		flatten(key, value, flattened)
		return true
	})
	return flattened.Encode()
}

func flatten(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", fmt.Sprint(val))
		}
	case nil:
		out.Set(prefix, "")
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values *definition.Map) string {
	var b strings.Builder
	values.Each(func(key string, value any) bool {
		switch v := value.(type) {
		case []any:
			for idx, val := range v {
				fmt.Fprintf(&b, "%s[%d]=%v\n", key, idx, val)
			}
		case nil:
			fmt.Fprintf(&b, "%s=\n", key)
		default:
			fmt.Fprintf(&b, "%s=%v\n", key, v)
		}
		return true
	})
	return b.String()
}
