// Package upload resolves the file constraints (extensions, size limit and
// storage location) of webform upload elements.
package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-webform/pkg/definition"
)

// BytesPerMegabyte converts declared megabyte limits to bytes.
const BytesPerMegabyte int64 = 1024 * 1024

// Upload element types handled by DefaultPreparer.
const (
	TypeDocumentFile = "webform_document_file"
	TypeImageFile    = "webform_image_file"
)

// ErrUnsupportedElement is returned for element types the preparer does not
// know how to constrain.
var ErrUnsupportedElement = errors.New("upload: unsupported element type")

// Constraints describes what an upload field accepts.
type Constraints struct {
	// Extensions lists accepted extensions without leading dots.
	Extensions []string
	// MaxSizeMb is the size limit in megabytes; zero means unset.
	MaxSizeMb int
	// Location is the storage URI files are written to.
	Location string
}

// DottedExtensions renders ".pdf,.doc", or "" when no extension is set.
func (c Constraints) DottedExtensions() string {
	if len(c.Extensions) == 0 {
		return ""
	}
	parts := make([]string, len(c.Extensions))
	for idx, ext := range c.Extensions {
		parts[idx] = "." + ext
	}
	return strings.Join(parts, ",")
}

// CleanExtensions renders the space separated source form "pdf doc".
func (c Constraints) CleanExtensions() string {
	return strings.Join(c.Extensions, " ")
}

// MaxSizeBytes converts a megabyte limit to bytes.
func MaxSizeBytes(mb int) int64 {
	return int64(mb) * BytesPerMegabyte
}

// Preparer resolves the constraints of one upload element.
type Preparer interface {
	PrepareUpload(ctx context.Context, el *definition.Element, form *definition.Form) (Constraints, error)
}

// PreparerFunc adapts a function into a Preparer.
type PreparerFunc func(ctx context.Context, el *definition.Element, form *definition.Form) (Constraints, error)

// PrepareUpload implements Preparer.
func (fn PreparerFunc) PrepareUpload(ctx context.Context, el *definition.Element, form *definition.Form) (Constraints, error) {
	if fn == nil {
		return Constraints{}, nil
	}
	return fn(ctx, el, form)
}

// DefaultPreparer applies the stock webform rules: #file_extensions wins over
// the per-type defaults, #max_filesize over the configured default, and files
// land under "<scheme>://webform/<form id>/_sid_".
type DefaultPreparer struct {
	extensions map[string][]string
	maxSizeMb  int
	scheme     string
}

// Option customises DefaultPreparer.
type Option func(*DefaultPreparer)

// WithDefaultExtensions overrides the extensions accepted by an element type
// when it declares none.
func WithDefaultExtensions(elementType string, extensions ...string) Option {
	return func(p *DefaultPreparer) {
		p.extensions[elementType] = ParseExtensions(strings.Join(extensions, " "))
	}
}

// WithDefaultMaxSize sets the megabyte limit used when an element declares
// none.
func WithDefaultMaxSize(mb int) Option {
	return func(p *DefaultPreparer) {
		if mb > 0 {
			p.maxSizeMb = mb
		}
	}
}

// WithScheme sets the default storage scheme ("private", "public").
func WithScheme(scheme string) Option {
	return func(p *DefaultPreparer) {
		if s := strings.TrimSpace(scheme); s != "" {
			p.scheme = s
		}
	}
}

// NewDefaultPreparer builds a preparer with the stock defaults.
func NewDefaultPreparer(opts ...Option) *DefaultPreparer {
	p := &DefaultPreparer{
		extensions: map[string][]string{
			TypeDocumentFile: ParseExtensions("txt rtf pdf doc docx odt ppt pptx odp xls xlsx ods"),
			TypeImageFile:    ParseExtensions("gif jpg jpeg png"),
		},
		scheme: "private",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// PrepareUpload implements Preparer.
func (p *DefaultPreparer) PrepareUpload(ctx context.Context, el *definition.Element, form *definition.Form) (Constraints, error) {
	if err := ctx.Err(); err != nil {
		return Constraints{}, err
	}
	if el == nil {
		return Constraints{}, fmt.Errorf("upload: nil element")
	}
	defaults, ok := p.extensions[el.Type]
	if !ok {
		return Constraints{}, fmt.Errorf("%w: %q (element %s)", ErrUnsupportedElement, el.Type, el.Key)
	}

	out := Constraints{MaxSizeMb: p.maxSizeMb}
	if declared := ParseExtensions(el.String("file_extensions")); len(declared) > 0 {
		out.Extensions = declared
	} else {
		out.Extensions = append([]string(nil), defaults...)
	}
	if mb, ok := definition.ToInt(mustProp(el, "max_filesize")); ok && mb > 0 {
		out.MaxSizeMb = mb
	}

	scheme := p.scheme
	if declared := strings.TrimSpace(el.String("uri_scheme")); declared != "" {
		scheme = declared
	}
	formID := ""
	if form != nil {
		formID = form.ID
	}
	out.Location = fmt.Sprintf("%s://webform/%s/_sid_", scheme, formID)
	return out, nil
}

// ParseExtensions splits a space or comma separated extension list, dropping
// leading dots and duplicates and lower-casing each entry.
func ParseExtensions(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		ext := strings.ToLower(strings.TrimLeft(strings.TrimSpace(field), "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mustProp(el *definition.Element, name string) any {
	value, _ := el.Prop(name)
	return value
}
