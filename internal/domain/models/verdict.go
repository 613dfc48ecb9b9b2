package models

import (
	"time"

	"github.com/google/uuid"
)

// VerdictLevel is the final message classification.
type VerdictLevel string

const (
	VerdictGreen VerdictLevel = "GREEN"
	VerdictAmber VerdictLevel = "AMBER"
	VerdictRed   VerdictLevel = "RED"
)

// Sensitivity adjusts how aggressively raw scores trigger AMBER/RED.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Reason is one human-readable explanation attached to a verdict.
type Reason struct {
	Code        SignalCode `json:"code"`
	Weight      int        `json:"weight"`
	Description string     `json:"description"`
}

// Verdict is the final classification of one message. Score is the raw
// pre-sensitivity sum of signal weights; Level reflects the
// sensitivity-adjusted score. Later verdicts replace earlier ones for the
// same message ID.
type Verdict struct {
	MessageID uuid.UUID    `json:"message_id"`
	Level     VerdictLevel `json:"level"`
	Score     int          `json:"score"`
	Reasons   []Reason     `json:"reasons"`
	CreatedAt time.Time    `json:"created_at"`
}
