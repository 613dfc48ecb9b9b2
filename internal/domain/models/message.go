package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one incoming text message submitted for analysis.
type Message struct {
	ID         uuid.UUID `json:"id"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	Links      []Link    `json:"links,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// LinkPreview is the auxiliary title/favicon preview for a single page.
type LinkPreview struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	FaviconURL string    `json:"favicon_url,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}
