package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-webform/pkg/definition"
	"github.com/goliatone/go-webform/pkg/i18n"
	"github.com/goliatone/go-webform/pkg/normalizer"
	"github.com/goliatone/go-webform/pkg/orchestrator"
)

const contactForm = `
id: contact
settings:
  form_reset: true
elements:
  name:
    '#type': textfield
    '#title': Name
  actions:
    '#type': webform_actions
    '#submit__label': Send
`

const wizardForm = `
id: survey
settings:
  draft: authenticated
elements:
  first:
    '#type': webform_wizard_page
    color:
      '#type': textfield
  second:
    '#type': webform_wizard_page
    notes:
      '#type': textarea
`

const brokenForm = `
id: broken
elements:
  widget:
    '#type': mystery_widget
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	var forms []*definition.Form
	for _, src := range []string{contactForm, wizardForm, brokenForm} {
		form, err := definition.Decode([]byte(src))
		if err != nil {
			t.Fatalf("decode form: %v", err)
		}
		forms = append(forms, form)
	}
	store, err := definition.NewStore(forms...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	catalog := i18n.DefaultCatalog()
	catalog.Add("fr", map[string]string{i18n.KeyReset: "Réinitialiser"})

	drafts := normalizer.DraftLoaderFunc(func(_ context.Context, userID, formID string) (*normalizer.Draft, error) {
		if userID != "7" || formID != "survey" {
			return nil, nil
		}
		return &normalizer.Draft{SID: "12", CurrentPage: "second", Values: map[string]any{"color": "blue"}}, nil
	})

	orch := orchestrator.New(
		orchestrator.WithStore(store),
		orchestrator.WithNormalizer(normalizer.New(
			normalizer.WithTranslator(catalog),
			normalizer.WithDraftLoader(drafts),
		)),
	)
	s, err := New(context.Background(), Config{Orchestrator: orch, Quiet: true})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestServer_ListWebforms(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/webforms", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Webforms []string `json:"webforms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if diff := cmp.Diff([]string{"broken", "contact", "survey"}, body.Webforms); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_Schema(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/webforms/contact", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	want := `{"name":{"type":"text","label":"Name","class":""},"buttons":{"actions":{"actions":{"text":"Send","type":"webform_actions"}},"reset":{"hidden":false,"text":"Reset"}}}`
	if diff := cmp.Diff(want, rec.Body.String()); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_SchemaLocale(t *testing.T) {
	s := newTestServer(t)

	byHeader := httptest.NewRequest(http.MethodGet, "/webforms/contact", nil)
	byHeader.Header.Set("Accept-Language", "fr-CA,fr;q=0.9,en;q=0.8")
	rec := do(t, s, byHeader)
	if !strings.Contains(rec.Body.String(), `"text":"Réinitialiser"`) {
		t.Fatalf("expected french reset label, got %s", rec.Body.String())
	}

	byQuery := httptest.NewRequest(http.MethodGet, "/webforms/contact?locale=en", nil)
	byQuery.Header.Set("Accept-Language", "fr")
	rec = do(t, s, byQuery)
	if !strings.Contains(rec.Body.String(), `"text":"Reset"`) {
		t.Fatalf("expected query locale to win, got %s", rec.Body.String())
	}
}

func TestServer_SchemaDraftForAuthenticatedUser(t *testing.T) {
	s := newTestServer(t)

	anonymous := do(t, s, httptest.NewRequest(http.MethodGet, "/webforms/survey", nil))
	if strings.Contains(anonymous.Body.String(), `"draft"`) {
		t.Fatalf("anonymous request must not carry a draft: %s", anonymous.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/webforms/survey", nil)
	req.Header.Set(HeaderUserID, "7")
	rec := do(t, s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, fragment := range []string{
		`"draft":{"enable":true,"currentPage":"second","sid":"12","current_page":1}`,
		`"color":{"type":"text","default_value":"blue","class":""}`,
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected %s in %s", fragment, body)
		}
	}
}

func TestServer_Errors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		path   string
		status int
		code   string
		key    string
	}{
		{path: "/webforms/missing", status: http.StatusNotFound, code: "NOT_FOUND"},
		{path: "/webforms/broken", status: http.StatusUnprocessableEntity, code: "MAPPING_ERROR", key: "widget"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != tc.code || body.Key != tc.key {
				t.Fatalf("unexpected error body %+v", body)
			}
		})
	}
}

func TestServer_OpenAPI(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Fatalf("unexpected openapi version %v", doc["openapi"])
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/webforms/{id}"]; !ok {
		t.Fatalf("expected schema path in %v", paths)
	}
}

func TestDocumentedOperationsMatchRoutes(t *testing.T) {
	doc, err := LoadOpenAPI(context.Background())
	if err != nil {
		t.Fatalf("load openapi: %v", err)
	}
	want := []string{
		"GET /healthz",
		"GET /openapi.json",
		"GET /webforms",
		"GET /webforms/{id}",
	}
	if diff := cmp.Diff(want, documentedOperations(doc)); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestLocaleFromRequest(t *testing.T) {
	cases := map[string]string{
		"":                  "",
		"*":                 "",
		"de":                "de",
		"pt-BR;q=0.9, en":   "pt-BR",
		" es-ES , es;q=0.5": "es-ES",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Accept-Language", header)
		}
		if got := localeFromRequest(req); got != want {
			t.Fatalf("Accept-Language %q: expected %q, got %q", header, want, got)
		}
	}
}
