package models

// TLDRisk classifies a top-level domain by observed abuse volume.
type TLDRisk string

const (
	TLDRiskCritical TLDRisk = "CRITICAL"
	TLDRiskHigh     TLDRisk = "HIGH"
	TLDRiskMedium   TLDRisk = "MEDIUM"
	TLDRiskLow      TLDRisk = "LOW"
)

// ImpersonationType distinguishes how a domain abuses a brand.
type ImpersonationType string

const (
	ImpersonationTyposquatting ImpersonationType = "typosquatting"
	ImpersonationWrongTLD      ImpersonationType = "wrong_tld"
	ImpersonationKeywordAbuse  ImpersonationType = "keyword_abuse"
)

// BrandImpersonation records a protected brand being abused by a domain.
type BrandImpersonation struct {
	Brand           string            `json:"brand"`
	AttemptedDomain string            `json:"attempted_domain"`
	OfficialDomain  string            `json:"official_domain"`
	Type            ImpersonationType `json:"type"`
}

// DomainProfile characterizes a single link's host. Computed fresh per Link;
// it has no persistent identity.
type DomainProfile struct {
	RegisteredDomain string              `json:"registered_domain"`
	Scheme           string              `json:"scheme"`
	NonStandardPort  string              `json:"non_standard_port,omitempty"`
	HasUserInfo      bool                `json:"has_userinfo"`
	IsPunycode       bool                `json:"is_punycode"`
	IsRawIP          bool                `json:"is_raw_ip"`
	SuspiciousPaths  []string            `json:"suspicious_paths,omitempty"`
	HomoglyphSuspect bool                `json:"homoglyph_suspect"`
	Host             string              `json:"host"`
	Impersonation    *BrandImpersonation `json:"impersonation,omitempty"`
	TLDRisk          TLDRisk             `json:"tld_risk"`
}
