package model

import "time"

type Contribution struct {
	ID              int64     `json:"id"`
	EventID         int64     `json:"event_id"`
	ContributorName *string   `json:"contributor_name"`
	Amount          float64   `json:"amount"`
	CreatedAt       time.Time `json:"created_at"`
}
