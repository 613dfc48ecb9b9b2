package services

import (
	"bufio"
	"io"
	"net"
	"os"
	"strings"
)

// SuffixList resolves registered domains against public-suffix rules. Rules
// follow the publicsuffix.org file format: plain suffixes, "*.wildcard"
// lines, "!exception" lines, and "//" comments.
type SuffixList struct {
	exact      map[string]struct{}
	wildcards  map[string]struct{} // key is the suffix after "*."
	exceptions map[string]struct{}
}

// defaultSuffixRules covers the suffixes the analyzer most commonly sees.
// Used when no external rule file is configured.
var defaultSuffixRules = []string{
	"com", "org", "net", "edu", "gov", "mil", "int",
	"io", "co", "me", "app", "dev", "ly", "to",
	"uk", "co.uk", "org.uk", "ac.uk", "gov.uk",
	"de", "fr", "it", "es", "nl", "se", "no", "fi", "dk",
	"jp", "co.jp", "ne.jp", "or.jp",
	"au", "com.au", "net.au", "org.au",
	"br", "com.br", "net.br",
	"in", "co.in", "net.in",
	"cn", "com.cn", "net.cn",
	"ru", "com.ru",
	"tk", "ml", "ga", "cf", "gq",
	"top", "xyz", "buzz", "club", "work", "link", "click",
	"info", "online", "site", "live", "icu", "shop",
	"*.ck", "!www.ck",
}

// NewSuffixList builds a list from raw rule lines.
func NewSuffixList(rules []string) *SuffixList {
	s := &SuffixList{
		exact:      make(map[string]struct{}),
		wildcards:  make(map[string]struct{}),
		exceptions: make(map[string]struct{}),
	}
	for _, line := range rules {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		line = strings.ToLower(line)
		switch {
		case strings.HasPrefix(line, "!"):
			s.exceptions[line[1:]] = struct{}{}
		case strings.HasPrefix(line, "*."):
			s.wildcards[line[2:]] = struct{}{}
		default:
			s.exact[line] = struct{}{}
		}
	}
	return s
}

// NewDefaultSuffixList returns a list backed by the embedded rule table.
func NewDefaultSuffixList() *SuffixList {
	return NewSuffixList(defaultSuffixRules)
}

// LoadSuffixList reads a publicsuffix-format rule file from disk.
func LoadSuffixList(path string) (*SuffixList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSuffixList(f)
}

// ParseSuffixList reads rule lines from r.
func ParseSuffixList(r io.Reader) (*SuffixList, error) {
	var rules []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rules = append(rules, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewSuffixList(rules), nil
}

// RegisteredDomain returns the registrable domain for host: the public suffix
// plus one label. Exception rules beat wildcard rules beat exact rules. When
// no rule matches, the last two labels are returned. IP literals are returned
// unchanged.
func (s *SuffixList) RegisteredDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	bare := strings.Trim(host, "[]")
	if strings.Contains(bare, ":") || net.ParseIP(bare) != nil {
		return host
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}

	// Walk candidate suffixes longest-first so the longest matching rule wins.
	for i := 0; i < len(labels); i++ {
		suffix := strings.Join(labels[i:], ".")

		if _, ok := s.exceptions[suffix]; ok {
			// The exception rule itself is the registered domain.
			return suffix
		}
		// "*.suffix": the public suffix spans one label beyond the base, so
		// the registered domain needs two labels above it.
		if _, ok := s.wildcards[suffix]; ok && i >= 2 {
			return strings.Join(labels[i-2:], ".")
		}
		if _, ok := s.exact[suffix]; ok {
			if i == 0 {
				return host
			}
			return strings.Join(labels[i-1:], ".")
		}
	}

	// No rule matched: fall back to the last two labels.
	return strings.Join(labels[len(labels)-2:], ".")
}
