package models

import (
	"fmt"
	"time"
)

// SenderCategory classifies a sender pack entry.
type SenderCategory string

const (
	SenderCarrier    SenderCategory = "carrier"
	SenderBank       SenderCategory = "bank"
	SenderGovernment SenderCategory = "government"
	SenderEcommerce  SenderCategory = "e-commerce"
	SenderService    SenderCategory = "service"
	SenderPayment    SenderCategory = "payment"
	SenderOther      SenderCategory = "other"
)

// ValidSenderCategory reports whether c is a known category value.
func ValidSenderCategory(c SenderCategory) bool {
	switch c {
	case SenderCarrier, SenderBank, SenderGovernment, SenderEcommerce,
		SenderService, SenderPayment, SenderOther:
		return true
	}
	return false
}

// SenderPackEntry identifies one legitimate sender by pattern.
type SenderPackEntry struct {
	Pattern  string         `json:"pattern"`
	Brand    string         `json:"brand"`
	Type     SenderCategory `json:"type"`
	Keywords []string       `json:"keywords,omitempty"`
}

// SenderPack is a signed regional bundle of sender-identity intelligence.
// Version is date-encoded and monotonically increasing per region. Signature
// is hex-encoded Ed25519 over the pack's canonical JSON form.
type SenderPack struct {
	Region    string            `json:"region"`
	Version   int64             `json:"version"`
	Entries   []SenderPackEntry `json:"entries"`
	Signature string            `json:"signature"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}

// PackParseError reports a sender pack document that failed to decode or
// validate.
type PackParseError struct {
	Region string
	Err    error
}

func (e *PackParseError) Error() string {
	return fmt.Sprintf("sender pack parse failed for region %s: %v", e.Region, e.Err)
}

func (e *PackParseError) Unwrap() error { return e.Err }

// PackVerificationError reports a sender pack whose signature did not verify.
type PackVerificationError struct {
	Region  string
	Version int64
}

func (e *PackVerificationError) Error() string {
	return fmt.Sprintf("sender pack signature verification failed for region %s version %d", e.Region, e.Version)
}
