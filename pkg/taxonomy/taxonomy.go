// Package taxonomy formats vocabulary term trees into select options and
// provides an LRU cache in front of vocabulary loaders.
package taxonomy

import (
	"context"
	"strings"

	"github.com/goliatone/go-webform/pkg/uischema"
)

// Default delimiters used when a term select does not declare its own.
const (
	DefaultTreeDelimiter       = "-"
	DefaultBreadcrumbDelimiter = " › "
)

// Term is one vocabulary entry. An empty or "0" ParentID marks a root term.
// Terms arrive in display order; siblings keep that order in every format.
type Term struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	ParentID string `json:"parent_id,omitempty"`
}

// Loader returns the flat term list of a vocabulary. Unknown vocabularies
// yield an empty list.
type Loader interface {
	LoadVocabulary(ctx context.Context, vocabularyID string) ([]Term, error)
}

// LoaderFunc adapts a function into a Loader.
type LoaderFunc func(ctx context.Context, vocabularyID string) ([]Term, error)

// LoadVocabulary implements Loader.
func (fn LoaderFunc) LoadVocabulary(ctx context.Context, vocabularyID string) ([]Term, error) {
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, vocabularyID)
}

// StaticLoader serves vocabularies from memory.
type StaticLoader map[string][]Term

// LoadVocabulary implements Loader.
func (s StaticLoader) LoadVocabulary(_ context.Context, vocabularyID string) ([]Term, error) {
	terms := s[vocabularyID]
	return append([]Term(nil), terms...), nil
}

// Entry is a term positioned in its tree.
type Entry struct {
	Term  Term
	Depth int
	// Path lists the labels from the root down to (and including) the term.
	Path []string
}

// Walk orders terms depth-first, parents before children. maxDepth limits
// the number of levels (1 keeps only roots); zero or less means unlimited.
// Terms whose parent is missing are treated as roots, and cycles are cut.
func Walk(terms []Term, maxDepth int) []Entry {
	if len(terms) == 0 {
		return nil
	}
	known := make(map[string]bool, len(terms))
	for _, term := range terms {
		known[term.ID] = true
	}
	children := make(map[string][]Term)
	var roots []Term
	for _, term := range terms {
		if isRoot(term, known) {
			roots = append(roots, term)
			continue
		}
		children[term.ParentID] = append(children[term.ParentID], term)
	}

	out := make([]Entry, 0, len(terms))
	visited := make(map[string]bool, len(terms))
	var visit func(term Term, depth int, path []string)
	visit = func(term Term, depth int, path []string) {
		if visited[term.ID] {
			return
		}
		if maxDepth > 0 && depth >= maxDepth {
			return
		}
		visited[term.ID] = true
		current := append(append([]string(nil), path...), term.Label)
		out = append(out, Entry{Term: term, Depth: depth, Path: current})
		for _, child := range children[term.ID] {
			visit(child, depth+1, current)
		}
	}
	for _, root := range roots {
		visit(root, 0, nil)
	}
	return out
}

func isRoot(term Term, known map[string]bool) bool {
	parent := strings.TrimSpace(term.ParentID)
	if parent == "" || parent == "0" || parent == term.ID {
		return true
	}
	return !known[parent]
}

// TreeOptions renders terms as indented options: each label is prefixed by
// the delimiter repeated once per level.
func TreeOptions(terms []Term, delimiter string, maxDepth int) uischema.OptionList {
	if delimiter == "" {
		delimiter = DefaultTreeDelimiter
	}
	entries := Walk(terms, maxDepth)
	out := make(uischema.OptionList, 0, len(entries))
	for _, entry := range entries {
		out = append(out, uischema.Option{
			Value: entry.Term.ID,
			Label: strings.Repeat(delimiter, entry.Depth) + entry.Term.Label,
		})
	}
	return out
}

// BreadcrumbOptions renders terms with their full ancestry as label.
func BreadcrumbOptions(terms []Term, delimiter string, maxDepth int) uischema.OptionList {
	if delimiter == "" {
		delimiter = DefaultBreadcrumbDelimiter
	}
	entries := Walk(terms, maxDepth)
	out := make(uischema.OptionList, 0, len(entries))
	for _, entry := range entries {
		out = append(out, uischema.Option{
			Value: entry.Term.ID,
			Label: strings.Join(entry.Path, delimiter),
		})
	}
	return out
}
