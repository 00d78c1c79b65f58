package httpserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	promotionengine "promoengine/contexts/promotion-engine"
)

func newTestServer() *Server {
	module := promotionengine.NewInMemoryModule(nil)
	return New(module, nil, ":0")
}

func TestDraftUpsertRejectsInvalidJSON(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/authoring/promotions/draft", bytes.NewReader([]byte(`{not json`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDraftUpsertRejectsInvalidInput(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"name":"","countryIso":"US","tiers":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/authoring/promotions/draft", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name and no tiers, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDraftUpsertRejectsUnknownAttributeWithUnseededCatalog(t *testing.T) {
	module := promotionengine.NewInMemoryModule(nil)
	server := New(module, nil, ":0")

	body := []byte(`{
		"name": "spend tier 1",
		"countryIso": "US",
		"tiers": [
			{
				"tierLevel": 1,
				"groups": [
					{"order": 0, "expression": {"attributeId": "missing_attr", "operatorId": "op_eq", "valueRaw": "x"}}
				]
			}
		]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/authoring/promotions/draft", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 since the unseeded in-memory catalog has no attributes to compile against, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPublishReturnsNotFoundWhenNoVersionExists(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/authoring/promotions/missing_promo/US/publish", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when no version exists to publish, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEvaluateRejectsInvalidRequest(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"contactId":"","countryIso":"US"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/runtime/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank contact id and zero asOfUtc, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestEvaluateSucceedsWithNoActivePromotions(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"contactId":"contact-1","countryIso":"US","asOfUtc":"2026-01-01T00:00:00Z","ctx":{"eventId":"evt-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/runtime/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with an empty result set, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "[]\n" {
		t.Fatalf("expected an empty json array body, got %q", rr.Body.String())
	}
}
