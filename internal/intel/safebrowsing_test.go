package intel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"phalanx/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func newTestSafeBrowsing(t *testing.T, handler http.HandlerFunc) (*SafeBrowsingClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewSafeBrowsingClient("test-key", testLogger())
	c.SetBaseURL(srv.URL)
	return c, srv
}

func TestSafeBrowsingMatch(t *testing.T) {
	c, _ := newTestSafeBrowsing(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/threatMatches:find" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		var req urlLookupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.ThreatInfo.ThreatEntries) != 1 || req.ThreatInfo.ThreatEntries[0].URL != "http://evil.example/" {
			t.Errorf("threat entries = %+v", req.ThreatInfo.ThreatEntries)
		}

		json.NewEncoder(w).Encode(urlLookupResponse{Matches: []threatMatch{{
			ThreatType:   ThreatTypeSocialEng,
			PlatformType: "ANY_PLATFORM",
			Threat:       threatEntryURL{URL: "http://evil.example/"},
		}}})
	})

	result, err := c.CheckURL(context.Background(), "http://evil.example/")
	if err != nil {
		t.Fatalf("CheckURL: %v", err)
	}
	if !result.Malicious {
		t.Error("Malicious = false, want true")
	}
	if result.ThreatType != string(ThreatTypeSocialEng) {
		t.Errorf("ThreatType = %q", result.ThreatType)
	}
	if result.Service != "google_safebrowsing" {
		t.Errorf("Service = %q", result.Service)
	}
}

func TestSafeBrowsingNoMatch(t *testing.T) {
	c, _ := newTestSafeBrowsing(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})

	result, err := c.CheckURL(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("CheckURL: %v", err)
	}
	if result.Malicious {
		t.Error("empty match list reported malicious")
	}
}

func TestSafeBrowsingQuotaErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantQuota bool
	}{
		{"429 rate limited", http.StatusTooManyRequests, "slow down", true},
		{"403 quota exhausted", http.StatusForbidden, `{"error":{"message":"Quota exceeded"}}`, true},
		{"403 forbidden for other reasons", http.StatusForbidden, "bad key", false},
		{"500 server error", http.StatusInternalServerError, "oops", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestSafeBrowsing(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.CheckURL(context.Background(), "https://example.com/")
			if err == nil {
				t.Fatal("CheckURL succeeded, want error")
			}
			var quotaErr *QuotaError
			if got := errors.As(err, &quotaErr); got != tt.wantQuota {
				t.Errorf("QuotaError = %v, want %v (err: %v)", got, tt.wantQuota, err)
			}
			if tt.wantQuota && quotaErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", quotaErr.Status, tt.status)
			}
		})
	}
}

func TestSafeBrowsingMissingAPIKey(t *testing.T) {
	c := NewSafeBrowsingClient("", testLogger())
	if _, err := c.CheckURL(context.Background(), "https://example.com/"); err == nil {
		t.Error("CheckURL without API key succeeded")
	}
}
