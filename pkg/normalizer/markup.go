package normalizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/uischema"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// WithMarkupSanitizer sanitises processed_text bodies with policy. A nil
// policy selects MarkupPolicy. Without this option markup is passed through
// verbatim.
func WithMarkupSanitizer(policy *bluemonday.Policy) Option {
	return func(n *Normalizer) {
		if policy == nil {
			policy = MarkupPolicy()
		}
		n.markup = policy
	}
}

// MarkupPolicy returns the shared policy used for processed_text bodies:
// bluemonday's UGC rules plus the class and style hooks editors rely on.
func MarkupPolicy() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowAttrs("id").Globally()
		policy.AllowElements("figure", "figcaption", "section", "span", "div")
		policy.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
		markupPolicy = policy
	})
	return markupPolicy
}

func (r *run) mapMarkup(el *definition.Element, node *uischema.Node) {
	html := el.String("text")
	if r.n.markup != nil {
		html = sanitizeMarkup(r.n.markup, html)
	}
	node.HTML = uischema.Ptr(html)
	node.Format = uischema.Ptr(el.String("format"))
	if el.Has("wrapper_attributes") {
		node.Attributes = mustProp(el, "wrapper_attributes")
	}
}

func sanitizeMarkup(policy *bluemonday.Policy, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(trimmed))
}
