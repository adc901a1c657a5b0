package model

import "time"

type Message struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	GuestName *string   `json:"guest_name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicMessage omits timestamps so the guest view of an event reveals
// nothing about when other guests signed.
type PublicMessage struct {
	ID        int64   `json:"id"`
	GuestName *string `json:"guest_name"`
	Body      string  `json:"body"`
}
