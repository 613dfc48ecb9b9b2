package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/pkg/logger"
)

const (
	urlhausService = "urlhaus"
	urlhausAPIURL  = "https://urlhaus-api.abuse.ch/v1"
)

// URLhausClient checks URLs against the abuse.ch URLhaus lookup API.
type URLhausClient struct {
	client  *http.Client
	logger  *logger.Logger
	baseURL string
}

// NewURLhausClient creates a URLhaus lookup client. No API key is required.
func NewURLhausClient(log *logger.Logger) *URLhausClient {
	return &URLhausClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:  log.WithComponent("urlhaus"),
		baseURL: urlhausAPIURL,
	}
}

// Service returns the service name recorded on reputation results.
func (c *URLhausClient) Service() string {
	return urlhausService
}

type urlhausResponse struct {
	QueryStatus string `json:"query_status"`
	URLStatus   string `json:"url_status"`
	Threat      string `json:"threat"`
	DateAdded   string `json:"date_added"`
	URLhausRef  string `json:"urlhaus_reference"`
	Tags        []string `json:"tags"`
}

// CheckURL looks up a single URL. A query_status of "no_results" is a clean
// result, not an error.
func (c *URLhausClient) CheckURL(ctx context.Context, target string) (*models.ReputationResult, error) {
	form := url.Values{"url": {target}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/url/",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("URLhaus API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response urlhausResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := &models.ReputationResult{
		Service:   urlhausService,
		CheckedAt: time.Now().UTC(),
	}
	if response.QueryStatus == "ok" {
		result.Malicious = true
		result.ThreatType = response.Threat
		result.Metadata = map[string]string{
			"url_status": response.URLStatus,
			"reference":  response.URLhausRef,
		}
		if len(response.Tags) > 0 {
			result.Metadata["tags"] = strings.Join(response.Tags, ",")
		}
		c.logger.Info().
			Str("url", target).
			Str("threat", response.Threat).
			Msg("URL flagged by URLhaus")
	}
	return result, nil
}

// SetBaseURL overrides the API endpoint, used by tests.
func (c *URLhausClient) SetBaseURL(u string) {
	c.baseURL = u
}
