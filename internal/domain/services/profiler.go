package services

import (
	"net"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"phalanx/internal/domain/models"
	"phalanx/pkg/logger"
)

// suspiciousPathKeywords are matched case-insensitively as substrings of the
// URL path.
var suspiciousPathKeywords = []string{
	"login", "signin", "sign-in", "verify", "verification", "confirm",
	"reset", "password", "passwd", "otp", "2fa", "secure", "account",
	"update", "unlock", "suspend", "invoice", "payment", "refund",
	"wallet", "claim", "prize", "bonus",
}

// DomainProfiler characterizes a link's host. All sub-detectors fail open:
// on any internal error they report "not suspicious" and the profiler itself
// never returns an error.
type DomainProfiler struct {
	suffixes *SuffixList
	log      *logger.Logger
}

// NewDomainProfiler creates a profiler over the given public-suffix list.
func NewDomainProfiler(suffixes *SuffixList, log *logger.Logger) *DomainProfiler {
	return &DomainProfiler{
		suffixes: suffixes,
		log:      log.WithComponent("domain_profiler"),
	}
}

// Profile computes a fresh DomainProfile for one link.
func (p *DomainProfiler) Profile(link models.Link) models.DomainProfile {
	host := strings.ToLower(link.Host)
	registered := link.RegisteredDomain
	if registered == "" {
		registered = p.suffixes.RegisteredDomain(host)
	}

	profile := models.DomainProfile{
		RegisteredDomain: registered,
		Scheme:           link.Scheme,
		HasUserInfo:      link.HasUserInfo,
		Host:             host,
		IsPunycode:       strings.Contains(host, "xn--"),
		IsRawIP:          isRawIP(host),
		HomoglyphSuspect: isHomoglyphSuspect(host),
		SuspiciousPaths:  suspiciousPathMatches(link.Path),
		TLDRisk:          tldRiskOf(host),
	}
	if link.Port != "" && link.Port != "80" && link.Port != "443" {
		profile.NonStandardPort = link.Port
	}
	if !profile.IsRawIP {
		profile.Impersonation = detectImpersonation(registered, host)
	}

	if profile.Impersonation != nil {
		p.log.Debug().
			Str("host", host).
			Str("brand", profile.Impersonation.Brand).
			Str("type", string(profile.Impersonation.Type)).
			Msg("brand impersonation detected")
	}
	return profile
}

// isRawIP reports whether host is an IPv4 dotted-quad or contains a colon
// (IPv6), after stripping surrounding brackets.
func isRawIP(host string) bool {
	host = strings.Trim(host, "[]")
	if strings.Contains(host, ":") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() != nil
}

// foldDiacritics strips combining marks: NFD decompose, drop Mn, NFC
// recompose. So "pаypal" with a combining accent folds to its base letters.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// isHomoglyphSuspect flags hosts that mix Latin letters with non-Latin
// letters after punycode decoding and diacritic folding. Pure-Latin and
// pure-non-Latin hosts are never flagged; detection failures fail open.
func isHomoglyphSuspect(host string) bool {
	decoded := host
	if strings.Contains(host, "xn--") {
		u, err := idna.Lookup.ToUnicode(host)
		if err == nil {
			decoded = u
		}
	}
	folded, _, err := transform.String(foldDiacritics, decoded)
	if err != nil {
		folded = decoded
	}

	var hasLatin, hasOther bool
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLatin = true
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '_':
		case unicode.IsPunct(r) || unicode.IsSpace(r):
		default:
			hasOther = true
		}
	}
	return hasLatin && hasOther
}

// suspiciousPathMatches returns every path keyword found in the URL path.
func suspiciousPathMatches(path string) []string {
	if path == "" {
		return nil
	}
	lower := strings.ToLower(path)
	var matched []string
	for _, kw := range suspiciousPathKeywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// detectImpersonation checks the registered domain against the brand
// directory. A domain that is one of the brand's official domains is never an
// impersonation. Typosquatting is measured both against whole domains and
// against hyphen-separated tokens of the registrable label, so
// "paypa1-login.tk" still matches "paypal".
func detectImpersonation(registered, host string) *models.BrandImpersonation {
	b := matchBrand(registered)
	if b == nil {
		return nil
	}
	if b.isOfficialDomain(host) || b.isOfficialDomain(registered) {
		return nil
	}

	for _, official := range b.Domains {
		for _, candidate := range typosquatCandidates(registered) {
			if isTyposquatting(candidate, official) || isTyposquatting(candidate, sldOf(official)) {
				return &models.BrandImpersonation{
					Brand:           b.Name,
					AttemptedDomain: registered,
					OfficialDomain:  official,
					Type:            models.ImpersonationTyposquatting,
				}
			}
		}
	}

	impType := models.ImpersonationKeywordAbuse
	if sldOf(registered) == sldOf(b.Domains[0]) {
		impType = models.ImpersonationWrongTLD
	}
	return &models.BrandImpersonation{
		Brand:           b.Name,
		AttemptedDomain: registered,
		OfficialDomain:  b.Domains[0],
		Type:            impType,
	}
}

// typosquatCandidates lists the comparable fragments of a registered domain:
// the domain itself, its registrable label, and that label's hyphen tokens.
func typosquatCandidates(registered string) []string {
	candidates := []string{registered}
	sld := sldOf(registered)
	if sld != registered {
		candidates = append(candidates, sld)
	}
	for _, tok := range strings.Split(sld, "-") {
		if len(tok) >= 4 {
			candidates = append(candidates, tok)
		}
	}
	return candidates
}

// sldOf returns the first dot-separated label of a domain.
func sldOf(domain string) string {
	if idx := strings.Index(domain, "."); idx > 0 {
		return domain[:idx]
	}
	return domain
}
