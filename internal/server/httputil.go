package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/orchestrator"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeRawJSON writes an already encoded payload.
func writeRawJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Printf("writeRawJSON error: %v", err)
	}
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Key   string `json:"key,omitempty"`
	Type  string `json:"type,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeOrchestratorError maps pipeline errors to HTTP responses.
func writeOrchestratorError(w http.ResponseWriter, err error) {
	if errors.Is(err, orchestrator.ErrFormNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if mapping, ok := normalizer.AsMappingError(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: err.Error(),
			Code:  "MAPPING_ERROR",
			Key:   mapping.Key,
			Type:  mapping.Type,
		})
		return
	}
	log.Printf("schema error: %v", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}

func accountFromRequest(r *http.Request) normalizer.Account {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	return normalizer.Account{ID: id, Authenticated: id != ""}
}

// localeFromRequest prefers ?locale= and falls back to the first
// Accept-Language tag.
func localeFromRequest(r *http.Request) string {
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		return locale
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	tag = strings.TrimSpace(tag)
	if tag == "*" {
		return ""
	}
	return tag
}
