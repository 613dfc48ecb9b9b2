package models

import "time"

// ReputationResult is one threat-intelligence service's answer for one URL.
// Cached per URL per service with a 24-hour freshness window.
type ReputationResult struct {
	Malicious  bool              `json:"malicious"`
	ThreatType string            `json:"threat_type,omitempty"`
	Service    string            `json:"service"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}
