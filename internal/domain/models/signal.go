package models

// SignalCode names a risk indicator.
type SignalCode string

const (
	SignalUserInfoInURL       SignalCode = "USERINFO_IN_URL"
	SignalBlockedByRule       SignalCode = "BLOCKED_BY_RULE"
	SignalReputationMalicious SignalCode = "REPUTATION_MALICIOUS"
	SignalBrandImpersonation  SignalCode = "BRAND_IMPERSONATION"
	SignalHomoglyphDomain     SignalCode = "HOMOGLYPH_DOMAIN"
	SignalRawIPHost           SignalCode = "RAW_IP_HOST"
	SignalSenderUnverified    SignalCode = "SENDER_UNVERIFIED"
	SignalHighRiskTLD         SignalCode = "HIGH_RISK_TLD"
	SignalShortenerExpanded   SignalCode = "SHORTENER_EXPANDED"
	SignalHTTPScheme          SignalCode = "HTTP_SCHEME"
	SignalPunycodeHost        SignalCode = "PUNYCODE_HOST"
	SignalSuspiciousPath      SignalCode = "SUSPICIOUS_PATH"
	SignalNonstandardPort     SignalCode = "NONSTANDARD_PORT"
)

// Signal is a single weighted risk indicator. Signals are value objects; they
// are never persisted outside a verdict's reason list.
type Signal struct {
	Code     SignalCode        `json:"code"`
	Weight   int               `json:"weight"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsCritical reports whether the signal forces a RED verdict on its own.
func (s Signal) IsCritical() bool {
	return s.Code == SignalUserInfoInURL
}
