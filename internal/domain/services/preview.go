package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/pkg/logger"
)

const previewBodyLimit = 256 * 1024

var (
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	faviconRe = regexp.MustCompile(`(?is)<link[^>]+rel=["'](?:shortcut )?icon["'][^>]*>`)
	hrefRe    = regexp.MustCompile(`(?is)href=["']([^"']+)["']`)
)

// PreviewService fetches a page's title and favicon URL. It reads a bounded
// slice of the body and does no script execution or further parsing.
type PreviewService struct {
	client *http.Client
	log    *logger.Logger
}

func NewPreviewService(log *logger.Logger) *PreviewService {
	return &PreviewService{
		client: &http.Client{},
		log:    log.WithComponent("link_preview"),
	}
}

// Preview fetches target and extracts title and favicon.
func (p *PreviewService) Preview(ctx context.Context, target string) (*models.LinkPreview, error) {
	base, err := url.Parse(target)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &models.ExpansionError{Kind: models.ExpansionInvalidURL, URL: target, Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("preview fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, previewBodyLimit))
	if err != nil {
		return nil, classifyTransportError(target, err)
	}

	preview := &models.LinkPreview{
		URL:       target,
		FetchedAt: time.Now().UTC(),
	}
	if m := titleRe.FindSubmatch(body); m != nil {
		preview.Title = strings.TrimSpace(string(m[1]))
	}
	preview.FaviconURL = faviconURL(base, body)
	return preview, nil
}

// faviconURL resolves the page's declared icon, falling back to
// /favicon.ico.
func faviconURL(base *url.URL, body []byte) string {
	if tag := faviconRe.Find(body); tag != nil {
		if m := hrefRe.FindSubmatch(tag); m != nil {
			if ref, err := url.Parse(string(m[1])); err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	}
	fallback := *base
	fallback.Path = "/favicon.ico"
	fallback.RawQuery = ""
	fallback.Fragment = ""
	return fallback.String()
}
