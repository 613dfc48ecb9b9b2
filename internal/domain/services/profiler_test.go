package services

import (
	"testing"

	"phalanx/internal/domain/models"
	"phalanx/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func testProfiler(t *testing.T) (*DomainProfiler, *LinkExtractor) {
	t.Helper()
	suffixes := NewDefaultSuffixList()
	return NewDomainProfiler(suffixes, testLogger()), NewLinkExtractor(suffixes)
}

func mustParse(t *testing.T, x *LinkExtractor, raw string) models.Link {
	t.Helper()
	link, err := x.ParseLink(raw)
	if err != nil {
		t.Fatalf("ParseLink(%q): %v", raw, err)
	}
	return link
}

func TestProfileBasicFlags(t *testing.T) {
	p, x := testProfiler(t)

	tests := []struct {
		name  string
		url   string
		check func(t *testing.T, prof models.DomainProfile)
	}{
		{
			name: "clean https domain",
			url:  "https://example.com/about",
			check: func(t *testing.T, prof models.DomainProfile) {
				if prof.HasUserInfo || prof.IsPunycode || prof.IsRawIP || prof.HomoglyphSuspect {
					t.Errorf("clean domain flagged: %+v", prof)
				}
				if prof.TLDRisk != models.TLDRiskLow {
					t.Errorf("TLDRisk = %s, want LOW", prof.TLDRisk)
				}
				if len(prof.SuspiciousPaths) != 0 {
					t.Errorf("SuspiciousPaths = %v, want none", prof.SuspiciousPaths)
				}
			},
		},
		{
			name: "userinfo in url",
			url:  "https://admin@example.com/",
			check: func(t *testing.T, prof models.DomainProfile) {
				if !prof.HasUserInfo {
					t.Error("HasUserInfo = false, want true")
				}
			},
		},
		{
			name: "punycode host",
			url:  "https://xn--pypal-4ve.com/",
			check: func(t *testing.T, prof models.DomainProfile) {
				if !prof.IsPunycode {
					t.Error("IsPunycode = false, want true")
				}
			},
		},
		{
			name: "raw ipv4 host",
			url:  "http://192.168.1.10/login",
			check: func(t *testing.T, prof models.DomainProfile) {
				if !prof.IsRawIP {
					t.Error("IsRawIP = false, want true")
				}
				if prof.Impersonation != nil {
					t.Error("IP hosts must not run brand matching")
				}
			},
		},
		{
			name: "nonstandard port",
			url:  "https://example.com:8443/",
			check: func(t *testing.T, prof models.DomainProfile) {
				if prof.NonStandardPort != "8443" {
					t.Errorf("NonStandardPort = %q, want 8443", prof.NonStandardPort)
				}
			},
		},
		{
			name: "standard port not flagged",
			url:  "https://example.com:443/",
			check: func(t *testing.T, prof models.DomainProfile) {
				if prof.NonStandardPort != "" {
					t.Errorf("NonStandardPort = %q, want empty", prof.NonStandardPort)
				}
			},
		},
		{
			name: "suspicious path keywords",
			url:  "https://example.com/account/verify-login",
			check: func(t *testing.T, prof models.DomainProfile) {
				want := map[string]bool{"login": true, "verify": true, "account": true}
				for _, kw := range prof.SuspiciousPaths {
					delete(want, kw)
				}
				if len(want) != 0 {
					t.Errorf("missing path keywords %v in %v", want, prof.SuspiciousPaths)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, p.Profile(mustParse(t, x, tt.url)))
		})
	}
}

func TestProfileTLDRiskTiers(t *testing.T) {
	p, x := testProfiler(t)

	tests := []struct {
		url  string
		want models.TLDRisk
	}{
		{"https://paypa1-login.tk/", models.TLDRiskCritical},
		{"https://free-stuff.top/", models.TLDRiskHigh},
		{"https://deals.online/", models.TLDRiskMedium},
		{"https://example.org/", models.TLDRiskLow},
	}
	for _, tt := range tests {
		prof := p.Profile(mustParse(t, x, tt.url))
		if prof.TLDRisk != tt.want {
			t.Errorf("Profile(%s).TLDRisk = %s, want %s", tt.url, prof.TLDRisk, tt.want)
		}
	}
}

func TestProfileHomoglyph(t *testing.T) {
	p, x := testProfiler(t)

	// Cyrillic "а" mixed into Latin letters.
	prof := p.Profile(mustParse(t, x, "https://pаypal.com/"))
	if !prof.HomoglyphSuspect {
		t.Error("mixed-script host not flagged as homoglyph suspect")
	}

	prof = p.Profile(mustParse(t, x, "https://paypal.com/"))
	if prof.HomoglyphSuspect {
		t.Error("pure-Latin host flagged as homoglyph suspect")
	}
}

func TestDetectImpersonation(t *testing.T) {
	p, x := testProfiler(t)

	tests := []struct {
		url       string
		wantBrand string
		wantType  models.ImpersonationType
	}{
		{"https://paypa1-login.tk/verify", "PayPal", models.ImpersonationTyposquatting},
		{"https://paypa1.com/", "PayPal", models.ImpersonationTyposquatting},
		{"https://amazon.online/", "Amazon", models.ImpersonationWrongTLD},
		{"https://amaz0n.net/", "Amazon", models.ImpersonationTyposquatting},
		{"https://amazon-support-desk.com/", "Amazon", models.ImpersonationKeywordAbuse},
	}
	for _, tt := range tests {
		prof := p.Profile(mustParse(t, x, tt.url))
		if prof.Impersonation == nil {
			t.Errorf("Profile(%s): no impersonation detected", tt.url)
			continue
		}
		if prof.Impersonation.Brand != tt.wantBrand {
			t.Errorf("Profile(%s).Impersonation.Brand = %q, want %q", tt.url, prof.Impersonation.Brand, tt.wantBrand)
		}
		if prof.Impersonation.Type != tt.wantType {
			t.Errorf("Profile(%s).Impersonation.Type = %s, want %s", tt.url, prof.Impersonation.Type, tt.wantType)
		}
	}
}

func TestDetectImpersonationOfficialDomains(t *testing.T) {
	p, x := testProfiler(t)

	for _, u := range []string{
		"https://paypal.com/login",
		"https://www.paypal.com/",
		"https://accounts.google.com/signin",
		"https://unrelated-shop.com/",
	} {
		prof := p.Profile(mustParse(t, x, u))
		if prof.Impersonation != nil {
			t.Errorf("Profile(%s) flagged impersonation of %q", u, prof.Impersonation.Brand)
		}
	}
}
