package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/keepsake/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// EventWithCreator pairs an event with its creator's display name for
// the public guest view.
type EventWithCreator struct {
	model.Event
	CreatorName string
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	var description, coverImage sql.NullString

	err := scanner.Scan(
		&e.ID, &e.UserID, &e.Title, &description, &e.EventDate,
		&coverImage, &e.ShareableCode, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		e.Description = &description.String
	}
	if coverImage.Valid {
		e.CoverImage = &coverImage.String
	}
	return &e, nil
}

const eventCols = `id, user_id, title, description, event_date, cover_image, shareable_code, created_at`

// Create inserts an event with a caller-supplied shareable code. The
// code column is UNIQUE, so a code that was taken between the caller's
// availability check and the insert surfaces as an error.
func (s *EventStore) Create(userID int64, title string, description *string, eventDate string, coverImage *string, code string) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (user_id, title, description, event_date, cover_image, shareable_code) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, title, description, eventDate, coverImage, code,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// GetByCode returns the event behind a shareable code together with the
// creator's name, or nil if the code is unknown.
func (s *EventStore) GetByCode(code string) (*EventWithCreator, error) {
	row := s.db.QueryRow(
		`SELECT e.id, e.user_id, e.title, e.description, e.event_date, e.cover_image, e.shareable_code, e.created_at, u.name
		 FROM events e
		 JOIN users u ON e.user_id = u.id
		 WHERE e.shareable_code = ?`,
		code,
	)

	var ec EventWithCreator
	var description, coverImage sql.NullString
	err := row.Scan(
		&ec.ID, &ec.UserID, &ec.Title, &description, &ec.EventDate,
		&coverImage, &ec.ShareableCode, &ec.CreatedAt, &ec.CreatorName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event by code: %w", err)
	}

	if description.Valid {
		ec.Description = &description.String
	}
	if coverImage.Valid {
		ec.CoverImage = &coverImage.String
	}
	return &ec, nil
}

// GetForUser returns the event only when it is owned by userID. Absent
// and not-owned collapse to nil so handlers answer both with 404.
func (s *EventStore) GetForUser(id, userID int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event for user: %w", err)
	}
	return e, nil
}

// ListForUser returns the user's events, newest first, with guest
// message and contribution aggregates attached.
func (s *EventStore) ListForUser(userID int64) ([]model.EventSummary, error) {
	rows, err := s.db.Query(
		`SELECT e.id, e.user_id, e.title, e.description, e.event_date, e.cover_image, e.shareable_code, e.created_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.event_id = e.id),
		        (SELECT COUNT(*) FROM contributions c WHERE c.event_id = e.id),
		        (SELECT COALESCE(SUM(amount), 0) FROM contributions c WHERE c.event_id = e.id)
		 FROM events e
		 WHERE e.user_id = ?
		 ORDER BY e.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events for user: %w", err)
	}
	defer rows.Close()

	var summaries []model.EventSummary
	for rows.Next() {
		var es model.EventSummary
		var description, coverImage sql.NullString
		if err := rows.Scan(
			&es.ID, &es.UserID, &es.Title, &description, &es.EventDate,
			&coverImage, &es.ShareableCode, &es.CreatedAt,
			&es.MessageCount, &es.ContributionCount, &es.TotalContributions,
		); err != nil {
			return nil, fmt.Errorf("scan event summary: %w", err)
		}
		if description.Valid {
			es.Description = &description.String
		}
		if coverImage.Valid {
			es.CoverImage = &coverImage.String
		}
		summaries = append(summaries, es)
	}
	return summaries, rows.Err()
}

// CodeExists reports whether a shareable code is already taken.
func (s *EventStore) CodeExists(code string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE shareable_code = ?`, code).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check shareable code: %w", err)
	}
	return n > 0, nil
}
