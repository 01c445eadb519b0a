package mapping

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestServer(repo Repository) *echo.Echo {
	e := echo.New()
	apiV1 := e.Group("/api/v1")
	fhirGroup := e.Group("/fhir")

	svc := NewService(repo, nil, zerolog.Nop())
	NewHandler(svc).RegisterRoutes(apiV1, fhirGroup)
	return e
}

func TestTranslateEndpoint(t *testing.T) {
	repo := &mockRepo{mappings: []*CodeMapping{
		{SourceCode: "AAE-16", SourceTerm: "Jvara", TargetCode: "MG26", TargetTerm: "Fever of other or unknown origin", Equivalence: EquivalenceEqual, Confidence: 85},
	}}
	e := newTestServer(repo)

	req := httptest.NewRequest(http.MethodPost, "/fhir/ConceptMap/$translate",
		strings.NewReader(`{"system": "https://namaste.ayush.gov.in/ayurveda", "code": "AAE-16"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"valueBoolean":true`) {
		t.Errorf("expected result=true, got %s", body)
	}
	if !strings.Contains(body, "MG26") {
		t.Errorf("expected target code in response, got %s", body)
	}
}

func TestTranslateEndpointGET(t *testing.T) {
	e := newTestServer(&mockRepo{})

	req := httptest.NewRequest(http.MethodGet, "/fhir/ConceptMap/$translate?code=AAB-99", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unmapped code, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"valueBoolean":false`) {
		t.Errorf("expected result=false, got %s", rec.Body.String())
	}
}

func TestListMappingsEndpoint(t *testing.T) {
	repo := &mockRepo{mappings: []*CodeMapping{
		{SourceCode: "AAE-16", TargetCode: "MG26", Confidence: 85},
		{SourceCode: "AAE-16", TargetCode: "1A00", Confidence: 62},
	}}
	e := newTestServer(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mappings/AAE-16", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var mappings []*CodeMapping
	if err := json.Unmarshal(rec.Body.Bytes(), &mappings); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(mappings) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(mappings))
	}
	if mappings[0].Confidence < mappings[1].Confidence {
		t.Error("expected mappings ordered best first")
	}

	// Unknown code is an empty list, not an error.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/mappings/NOPE", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}
}
