package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"phalanx/internal/config"
	"phalanx/internal/domain/models"
	"phalanx/internal/domain/services"
	"phalanx/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func newTestMessagesHandler(t *testing.T) *MessagesHandler {
	t.Helper()
	log := testLogger()
	suffixes := services.NewDefaultSuffixList()
	engine := services.NewVerdictEngine(
		services.NewDomainProfiler(suffixes, log),
		nil,
		nil,
		services.NewRuleEngine(log),
		nil,
		services.NewLinkExtractor(suffixes),
		nil,
		log,
	)
	return NewMessagesHandler(engine, nil, config.AnalysisConfig{Sensitivity: "medium"}, log)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestMessagesHandler(t)

	rec := postJSON(t, h.Analyze, "/api/v1/messages/analyze", AnalyzeRequest{
		Sender: "+15550001111",
		Body:   "verify your account at https://admin@paypa1-login.tk/verify",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var verdict models.Verdict
	if err := json.Unmarshal(rec.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if verdict.Level != models.VerdictRed {
		t.Errorf("Level = %s, want RED", verdict.Level)
	}
	if verdict.MessageID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("no message ID generated")
	}
	if len(verdict.Reasons) == 0 {
		t.Error("verdict carries no reasons")
	}
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	h := newTestMessagesHandler(t)

	tests := []struct {
		name string
		req  AnalyzeRequest
	}{
		{"missing body", AnalyzeRequest{Sender: "x"}},
		{"malformed message id", AnalyzeRequest{Body: "hi", MessageID: "not-a-uuid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Analyze, "/api/v1/messages/analyze", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAnalyzeEndpointUnknownSensitivityDefaultsMedium(t *testing.T) {
	h := newTestMessagesHandler(t)

	// One http link: raw 25. Medium leaves 25 below the AMBER threshold.
	rec := postJSON(t, h.Analyze, "/api/v1/messages/analyze", AnalyzeRequest{
		Body:        "go to http://example.com/",
		Sensitivity: "paranoid",
	})
	var verdict models.Verdict
	if err := json.Unmarshal(rec.Body.Bytes(), &verdict); err != nil {
		t.Fatal(err)
	}
	if verdict.Level != models.VerdictGreen {
		t.Errorf("Level = %s, want GREEN under default sensitivity", verdict.Level)
	}
}

func TestVerdictHistoryUnavailableWithoutDatabase(t *testing.T) {
	h := newTestMessagesHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/verdicts", nil)
	rec := httptest.NewRecorder()
	h.ListVerdicts(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
