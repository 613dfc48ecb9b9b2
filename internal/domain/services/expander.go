package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/internal/infrastructure/cache"
	"phalanx/pkg/logger"
)

const (
	maxRedirectHops    = 4
	probeTimeout       = 1500 * time.Millisecond
	expandCacheTTL     = 7 * 24 * time.Hour
	defaultNearEntries = 512
)

// shortenerHosts are known URL shortening services.
var shortenerHosts = map[string]bool{
	"bit.ly":       true,
	"tinyurl.com":  true,
	"t.co":         true,
	"goo.gl":       true,
	"ow.ly":        true,
	"is.gd":        true,
	"buff.ly":      true,
	"rebrand.ly":   true,
	"cutt.ly":      true,
	"shorturl.at":  true,
	"tiny.cc":      true,
	"rb.gy":        true,
	"t.ly":         true,
	"s.id":         true,
	"v.gd":         true,
	"qr.ae":        true,
	"lnkd.in":      true,
	"short.io":     true,
	"soo.gd":       true,
	"clicky.me":    true,
	"budurl.com":   true,
	"bc.vc":        true,
	"u.to":         true,
	"x.co":         true,
	"shorte.st":    true,
	"adf.ly":       true,
	"linktr.ee":    true,
	"surl.li":      true,
	"shrtco.de":    true,
	"urlshort.com": true,
}

// IsShortener reports whether host belongs to a known URL shortener.
func IsShortener(host string) bool {
	return shortenerHosts[strings.ToLower(host)]
}

// KVStore is the persistent far cache tier. Satisfied by cache.RedisCache.
type KVStore interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// URLExpander resolves redirect chains to their final destination. Results go
// through a bounded in-memory near tier and a persistent far tier before any
// network probe is issued. Each call resolves one hop at a time; independent
// calls may run concurrently.
type URLExpander struct {
	client *http.Client
	near   *cache.LRU
	far    KVStore
	log    *logger.Logger
}

// NewURLExpander creates an expander. far may be nil, leaving only the
// in-memory tier. nearSize bounds the in-memory tier; zero or negative uses
// the default.
func NewURLExpander(far KVStore, nearSize int, log *logger.Logger) *URLExpander {
	if nearSize <= 0 {
		nearSize = defaultNearEntries
	}
	return &URLExpander{
		client: &http.Client{
			// Redirects are followed manually, one probe per hop.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		near: cache.NewLRU(nearSize),
		far:  far,
		log:  log.WithComponent("url_expander"),
	}
}

// Expand resolves rawURL's redirect chain. Cached, non-expired entries never
// touch the network. Both cache tiers are populated before return.
func (e *URLExpander) Expand(ctx context.Context, rawURL string) (*models.ExpandedURL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &models.ExpansionError{Kind: models.ExpansionInvalidURL, URL: rawURL, Err: err}
	}

	if cached, ok := e.near.Get(rawURL); ok {
		return cached.(*models.ExpandedURL), nil
	}

	cacheKey := expandCacheKey(rawURL)
	if e.far != nil {
		var stored models.ExpandedURL
		if err := e.far.GetJSON(ctx, cacheKey, &stored); err == nil && stored.FinalURL != "" {
			e.near.Set(rawURL, &stored, expandCacheTTL)
			return &stored, nil
		}
	}

	result, err := e.resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	e.near.Set(rawURL, result, expandCacheTTL)
	if e.far != nil {
		if err := e.far.SetJSON(ctx, cacheKey, result, expandCacheTTL); err != nil {
			e.log.Warn().Err(err).Str("url", rawURL).Msg("failed to populate far cache tier")
		}
	}
	return result, nil
}

// resolve walks the redirect chain hop by hop, up to maxRedirectHops.
func (e *URLExpander) resolve(ctx context.Context, rawURL string) (*models.ExpandedURL, error) {
	current := rawURL
	chain := make([]string, 0, maxRedirectHops)

	for {
		resp, err := e.probe(ctx, current)
		if err != nil {
			return nil, classifyTransportError(current, err)
		}
		resp.Body.Close()

		if !isRedirect(resp.StatusCode) {
			return &models.ExpandedURL{
				OriginalURL:   rawURL,
				FinalURL:      current,
				RedirectChain: chain,
				ResolvedAt:    time.Now().UTC(),
			}, nil
		}

		location := resp.Header.Get("Location")
		if location == "" {
			return nil, &models.ExpansionError{
				Kind: models.ExpansionNetwork,
				URL:  current,
				Err:  fmt.Errorf("redirect status %d without Location header", resp.StatusCode),
			}
		}
		next, err := resolveLocation(current, location)
		if err != nil {
			return nil, &models.ExpansionError{Kind: models.ExpansionInvalidURL, URL: current, Err: err}
		}
		if len(chain) >= maxRedirectHops {
			return nil, &models.ExpansionError{
				Kind: models.ExpansionTooManyRedirects,
				URL:  rawURL,
				Err:  fmt.Errorf("more than %d redirect hops", maxRedirectHops),
			}
		}

		chain = append(chain, next)
		current = next
	}
}

// probe issues a HEAD request with a per-probe deadline, retrying once with a
// GET on transport failure. Servers that reject HEAD outright still answer
// the GET.
func (e *URLExpander) probe(ctx context.Context, target string) (*http.Response, error) {
	resp, err := e.do(ctx, http.MethodHead, target)
	if err == nil {
		return resp, nil
	}
	e.log.Debug().Err(err).Str("url", target).Msg("HEAD probe failed, retrying with GET")
	return e.do(ctx, http.MethodGet, target)
}

func (e *URLExpander) do(ctx context.Context, method, target string) (*http.Response, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, method, target, nil)
	if err != nil {
		return nil, err
	}
	return e.client.Do(req)
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// resolveLocation resolves a Location header against the current URL:
// absolute URLs stand alone, absolute paths resolve against scheme+host,
// relative paths against the current URL's parent path.
func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// classifyTransportError maps a failed probe to the expansion error taxonomy.
func classifyTransportError(target string, err error) *models.ExpansionError {
	kind := models.ExpansionNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = models.ExpansionTimeout
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		kind = models.ExpansionTimeout
	}
	return &models.ExpansionError{Kind: kind, URL: target, Err: err}
}

func expandCacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return cache.KeyExpandPrefix + hex.EncodeToString(sum[:])[:16]
}
