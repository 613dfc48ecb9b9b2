package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/pkg/logger"
)

const (
	safeBrowsingService = "google_safebrowsing"
	safeBrowsingAPIURL  = "https://safebrowsing.googleapis.com/v4"
)

// QuotaError reports a service refusing further lookups: HTTP 429, or a 403
// whose body mentions quota.
type QuotaError struct {
	Service string
	Status  int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded (status %d)", e.Service, e.Status)
}

// ThreatType represents Google Safe Browsing threat types
type ThreatType string

const (
	ThreatTypeMalware       ThreatType = "MALWARE"
	ThreatTypeSocialEng     ThreatType = "SOCIAL_ENGINEERING"
	ThreatTypeUnwantedSW    ThreatType = "UNWANTED_SOFTWARE"
	ThreatTypePotentialHarm ThreatType = "POTENTIALLY_HARMFUL_APPLICATION"
)

// SafeBrowsingClient checks URLs against Google Safe Browsing API v4
// threatMatches:find lookups.
type SafeBrowsingClient struct {
	client  *http.Client
	logger  *logger.Logger
	apiKey  string
	baseURL string
}

// NewSafeBrowsingClient creates a Safe Browsing lookup client.
func NewSafeBrowsingClient(apiKey string, log *logger.Logger) *SafeBrowsingClient {
	return &SafeBrowsingClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:  log.WithComponent("google-safebrowsing"),
		apiKey:  apiKey,
		baseURL: safeBrowsingAPIURL,
	}
}

// Service returns the service name recorded on reputation results.
func (c *SafeBrowsingClient) Service() string {
	return safeBrowsingService
}

type urlLookupRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type threatInfo struct {
	ThreatTypes      []ThreatType     `json:"threatTypes"`
	PlatformTypes    []string         `json:"platformTypes"`
	ThreatEntryTypes []string         `json:"threatEntryTypes"`
	ThreatEntries    []threatEntryURL `json:"threatEntries"`
}

type threatEntryURL struct {
	URL string `json:"url"`
}

type urlLookupResponse struct {
	Matches []threatMatch `json:"matches"`
}

type threatMatch struct {
	ThreatType      ThreatType     `json:"threatType"`
	PlatformType    string         `json:"platformType"`
	ThreatEntryType string         `json:"threatEntryType"`
	Threat          threatEntryURL `json:"threat"`
	CacheDuration   string         `json:"cacheDuration"`
}

// CheckURL looks up a single URL against the threat lists. A *QuotaError is
// returned when the API reports quota exhaustion.
func (c *SafeBrowsingClient) CheckURL(ctx context.Context, target string) (*models.ReputationResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("Google Safe Browsing API key not configured")
	}

	reqBody := urlLookupRequest{
		ThreatInfo: threatInfo{
			ThreatTypes: []ThreatType{
				ThreatTypeMalware,
				ThreatTypeSocialEng,
				ThreatTypeUnwantedSW,
				ThreatTypePotentialHarm,
			},
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []threatEntryURL{{URL: target}},
		},
	}
	reqBody.Client.ClientID = "phalanx"
	reqBody.Client.ClientVersion = "1.0.0"

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/threatMatches:find?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests ||
			(resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "quota")) {
			return nil, &QuotaError{Service: safeBrowsingService, Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("Google Safe Browsing API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response urlLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := &models.ReputationResult{
		Service:   safeBrowsingService,
		CheckedAt: time.Now().UTC(),
	}
	if len(response.Matches) > 0 {
		m := response.Matches[0]
		result.Malicious = true
		result.ThreatType = string(m.ThreatType)
		result.Metadata = map[string]string{
			"platform_type":  m.PlatformType,
			"cache_duration": m.CacheDuration,
		}
		c.logger.Info().
			Str("url", target).
			Str("threat_type", string(m.ThreatType)).
			Msg("URL flagged by Google Safe Browsing")
	}
	return result, nil
}

// SetBaseURL overrides the API endpoint, used by tests.
func (c *SafeBrowsingClient) SetBaseURL(u string) {
	c.baseURL = u
}
