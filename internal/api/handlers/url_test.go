package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"phalanx/internal/domain/services"
)

func newTestURLHandler(t *testing.T) *URLHandler {
	t.Helper()
	log := testLogger()
	suffixes := services.NewDefaultSuffixList()
	return NewURLHandler(
		services.NewURLExpander(nil, 0, log),
		services.NewDomainProfiler(suffixes, log),
		services.NewPreviewService(log),
		services.NewLinkExtractor(suffixes),
		log,
	)
}

func TestURLCheckEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/short" {
			http.Redirect(w, r, "/account/verify", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newTestURLHandler(t)
	rec := postJSON(t, h.Check, "/api/v1/url/check", URLRequest{URL: srv.URL + "/short"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Expanded == nil || resp.Expanded.FinalURL != srv.URL+"/account/verify" {
		t.Errorf("Expanded = %+v", resp.Expanded)
	}
	if resp.Profile == nil {
		t.Fatal("no profile in response")
	}
	if len(resp.Profile.SuspiciousPaths) == 0 {
		t.Errorf("final path not profiled: %+v", resp.Profile)
	}
}

func TestURLCheckEndpointInvalidURL(t *testing.T) {
	h := newTestURLHandler(t)

	rec := postJSON(t, h.Check, "/api/v1/url/check", URLRequest{URL: "not a url"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, h.Check, "/api/v1/url/check", URLRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty url: status = %d, want 400", rec.Code)
	}
}

func TestURLPreviewDisabled(t *testing.T) {
	log := testLogger()
	suffixes := services.NewDefaultSuffixList()
	h := NewURLHandler(
		services.NewURLExpander(nil, 0, log),
		services.NewDomainProfiler(suffixes, log),
		nil,
		services.NewLinkExtractor(suffixes),
		log,
	)

	rec := postJSON(t, h.Preview, "/api/v1/url/preview", URLRequest{URL: "https://example.com/"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestURLPreviewEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Hello</title></head></html>`))
	}))
	defer srv.Close()

	h := newTestURLHandler(t)
	rec := postJSON(t, h.Preview, "/api/v1/url/preview", URLRequest{URL: srv.URL})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["title"] != "Hello" {
		t.Errorf("title = %v", resp["title"])
	}
}
