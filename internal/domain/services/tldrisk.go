package services

import (
	"strings"

	"phalanx/internal/domain/models"
)

// tldRiskTable maps top-level domains to abuse-risk tiers. Tiers follow
// published abuse statistics for free and heavily abused registries;
// everything absent is LOW.
var tldRiskTable = map[string]models.TLDRisk{
	// Freenom free TLDs, dominant in phishing feeds
	"tk": models.TLDRiskCritical,
	"ml": models.TLDRiskCritical,
	"ga": models.TLDRiskCritical,
	"cf": models.TLDRiskCritical,
	"gq": models.TLDRiskCritical,

	"top":     models.TLDRiskHigh,
	"xyz":     models.TLDRiskHigh,
	"buzz":    models.TLDRiskHigh,
	"club":    models.TLDRiskHigh,
	"work":    models.TLDRiskHigh,
	"link":    models.TLDRiskHigh,
	"click":   models.TLDRiskHigh,
	"rest":    models.TLDRiskHigh,
	"monster": models.TLDRiskHigh,

	"info":   models.TLDRiskMedium,
	"online": models.TLDRiskMedium,
	"site":   models.TLDRiskMedium,
	"live":   models.TLDRiskMedium,
	"icu":    models.TLDRiskMedium,
	"cam":    models.TLDRiskMedium,
	"shop":   models.TLDRiskMedium,
}

// tldRiskOf returns the risk tier for the host's last label.
func tldRiskOf(host string) models.TLDRisk {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	idx := strings.LastIndex(host, ".")
	if idx < 0 || idx == len(host)-1 {
		return models.TLDRiskLow
	}
	if risk, ok := tldRiskTable[host[idx+1:]]; ok {
		return risk
	}
	return models.TLDRiskLow
}
