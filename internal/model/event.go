package model

import "time"

type Event struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	EventDate     string    `json:"event_date"`
	CoverImage    *string   `json:"cover_image"`
	ShareableCode string    `json:"shareable_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// EventSummary is an event with the aggregates shown on the creator's
// dashboard list.
type EventSummary struct {
	Event
	MessageCount       int64   `json:"message_count"`
	ContributionCount  int64   `json:"contribution_count"`
	TotalContributions float64 `json:"total_contributions"`
}

// PublicEvent is the guest-facing view of an event, reached through its
// shareable code.
type PublicEvent struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventDate   string  `json:"event_date"`
	CoverImage  *string `json:"cover_image"`
	CreatorName string  `json:"creator_name"`
}
