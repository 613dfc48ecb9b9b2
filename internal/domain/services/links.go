package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"phalanx/internal/domain/models"
)

// urlPattern finds http(s) URLs and bare domains with a path-looking tail in
// free text.
var urlPattern = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"']+|\bwww\.[^\s<>"']+`)

// LinkExtractor tokenizes message bodies into structured Link records.
type LinkExtractor struct {
	suffixes *SuffixList
}

func NewLinkExtractor(suffixes *SuffixList) *LinkExtractor {
	return &LinkExtractor{suffixes: suffixes}
}

// ExtractLinks returns one Link per URL occurrence in the body, in order of
// appearance. Unparseable candidates are skipped.
func (x *LinkExtractor) ExtractLinks(body string) []models.Link {
	var links []models.Link
	for _, raw := range urlPattern.FindAllString(body, -1) {
		raw = strings.TrimRight(raw, ".,;:!?)")
		link, err := x.ParseLink(raw)
		if err != nil {
			continue
		}
		links = append(links, link)
	}
	return links
}

// ParseLink normalizes one URL occurrence into a Link. Bare www. hosts get an
// https scheme.
func (x *LinkExtractor) ParseLink(raw string) (models.Link, error) {
	normalized := raw
	if !strings.Contains(normalized, "://") {
		normalized = "https://" + normalized
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return models.Link{}, fmt.Errorf("unparseable url %q: %w", raw, err)
	}
	if u.Host == "" {
		return models.Link{}, fmt.Errorf("url %q has no host", raw)
	}

	host := strings.ToLower(u.Hostname())
	link := models.Link{
		Original:         raw,
		Normalized:       u.String(),
		Host:             host,
		RegisteredDomain: x.suffixes.RegisteredDomain(host),
		Scheme:           strings.ToLower(u.Scheme),
		Port:             u.Port(),
		Path:             u.Path,
		HasUserInfo:      u.User != nil,
	}
	if q := u.Query(); len(q) > 0 {
		link.Query = make(map[string]string, len(q))
		for k, v := range q {
			if len(v) > 0 {
				link.Query[k] = v[0]
			}
		}
	}
	return link, nil
}
