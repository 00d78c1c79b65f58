package segment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSegmentsForContactParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contacts/contact-1/segments" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("country"); got != "US" {
			t.Errorf("expected country query param US, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"segments":["vip","new_customer"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	segments, err := client.SegmentsForContact(context.Background(), "contact-1", "US")
	if err != nil {
		t.Fatalf("segments for contact failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if _, ok := segments["vip"]; !ok {
		t.Fatal("expected vip segment to be present")
	}
}

func TestSegmentsForContactReturnsErrorOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0)
	_, err := client.SegmentsForContact(context.Background(), "contact-1", "US")
	if err == nil {
		t.Fatal("expected an error on a non-200 response")
	}
}
