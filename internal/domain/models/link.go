package models

import (
	"fmt"
	"time"
)

// Link is one URL occurrence extracted from a message body. Immutable once
// produced; one Link per URL occurrence.
type Link struct {
	Original         string            `json:"original"`
	Normalized       string            `json:"normalized"`
	Host             string            `json:"host"`
	RegisteredDomain string            `json:"registered_domain"`
	Scheme           string            `json:"scheme"`
	Port             string            `json:"port,omitempty"`
	Path             string            `json:"path"`
	Query            map[string]string `json:"query,omitempty"`
	HasUserInfo      bool              `json:"has_userinfo"`
}

// ExpandedURL is the result of resolving a redirect chain. RedirectChain holds
// every URL the chain passed through after the original, so its length equals
// the number of hops taken; the last element equals FinalURL.
type ExpandedURL struct {
	OriginalURL   string    `json:"original_url"`
	FinalURL      string    `json:"final_url"`
	RedirectChain []string  `json:"redirect_chain"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

// WasRedirected reports whether expansion moved the URL anywhere.
func (e *ExpandedURL) WasRedirected() bool {
	return len(e.RedirectChain) > 0 && e.FinalURL != e.OriginalURL
}

// ExpansionErrorKind classifies URL expansion failures.
type ExpansionErrorKind string

const (
	ExpansionTimeout          ExpansionErrorKind = "timeout"
	ExpansionNetwork          ExpansionErrorKind = "network"
	ExpansionTooManyRedirects ExpansionErrorKind = "too_many_redirects"
	ExpansionInvalidURL       ExpansionErrorKind = "invalid_url"
)

// ExpansionError is the typed failure returned by URL expansion.
type ExpansionError struct {
	Kind ExpansionErrorKind
	URL  string
	Err  error
}

func (e *ExpansionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("url expansion %s for %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("url expansion %s for %s", e.Kind, e.URL)
}

func (e *ExpansionError) Unwrap() error {
	return e.Err
}
