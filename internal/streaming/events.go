package streaming

import (
	"time"

	"github.com/google/uuid"

	"phalanx/internal/domain/models"
)

// EventType represents the type of analysis event
type EventType string

const (
	EventTypeQuotaExceeded EventType = "quota_exceeded"
	EventTypeVerdictIssued EventType = "verdict_issued"
	EventTypePackLoaded    EventType = "pack_loaded"
)

// AnalysisEvent is a real-time event emitted by the analysis pipeline.
type AnalysisEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Quota events
	Service string `json:"service,omitempty"`

	// Verdict events
	MessageID string              `json:"message_id,omitempty"`
	Level     models.VerdictLevel `json:"level,omitempty"`
	Score     int                 `json:"score,omitempty"`

	// Pack events
	Region      string `json:"region,omitempty"`
	PackVersion int64  `json:"pack_version,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewQuotaExceededEvent creates the side-channel event for a reputation
// service that refused further lookups.
func NewQuotaExceededEvent(service string) *AnalysisEvent {
	return &AnalysisEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeQuotaExceeded,
		Timestamp: time.Now().UTC(),
		Service:   service,
	}
}

// NewVerdictIssuedEvent creates an event for a completed verdict.
func NewVerdictIssuedEvent(v *models.Verdict) *AnalysisEvent {
	return &AnalysisEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeVerdictIssued,
		Timestamp: time.Now().UTC(),
		MessageID: v.MessageID.String(),
		Level:     v.Level,
		Score:     v.Score,
	}
}

// NewPackLoadedEvent creates an event for a sender pack swap.
func NewPackLoadedEvent(region string, version int64) *AnalysisEvent {
	return &AnalysisEvent{
		ID:          uuid.New().String(),
		Type:        EventTypePackLoaded,
		Timestamp:   time.Now().UTC(),
		Region:      region,
		PackVersion: version,
	}
}
