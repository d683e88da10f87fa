package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

//go:embed openapi.yaml
var openapiYAML []byte

// LoadOpenAPI parses and validates the embedded API description.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(openapiYAML)
	if err != nil {
		return nil, fmt.Errorf("server: load openapi: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("server: openapi document does not contain any paths")
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("server: validate openapi: %w", err)
	}
	return doc, nil
}

// documentedOperations lists "METHOD /path" for every operation in doc.
func documentedOperations(doc *openapi3.T) []string {
	var out []string
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method := range item.Operations() {
			out = append(out, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(out)
	return out
}

// checkRoutes reports routes served by router that doc does not describe, and
// documented operations nothing serves.
func checkRoutes(doc *openapi3.T, router chi.Routes) error {
	documented := make(map[string]bool)
	for _, op := range documentedOperations(doc) {
		documented[op] = false
	}

	var undocumented []string
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		key := method + " " + route
		if _, ok := documented[key]; !ok {
			undocumented = append(undocumented, key)
			return nil
		}
		documented[key] = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("server: walk routes: %w", err)
	}

	var unserved []string
	for op, served := range documented {
		if !served {
			unserved = append(unserved, op)
		}
	}
	sort.Strings(undocumented)
	sort.Strings(unserved)
	if len(undocumented) > 0 || len(unserved) > 0 {
		return fmt.Errorf("server: routes and openapi disagree (undocumented %v, unserved %v)", undocumented, unserved)
	}
	return nil
}
