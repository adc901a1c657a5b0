package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/keepsake/internal/model"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func scanMessage(scanner interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	var guestName sql.NullString

	err := scanner.Scan(&m.ID, &m.EventID, &guestName, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if guestName.Valid {
		m.GuestName = &guestName.String
	}
	return &m, nil
}

const messageCols = `id, event_id, guest_name, body, created_at`

func (s *MessageStore) Create(eventID int64, guestName *string, body string) (*model.Message, error) {
	result, err := s.db.Exec(
		`INSERT INTO messages (event_id, guest_name, body) VALUES (?, ?, ?)`,
		eventID, guestName, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+messageCols+` FROM messages WHERE id = ?`, id)
	return scanMessage(row)
}

// ListByEvent returns every message for the event, newest first. This
// is the creator's view and includes timestamps.
func (s *MessageStore) ListByEvent(eventID int64) ([]model.Message, error) {
	rows, err := s.db.Query(
		`SELECT `+messageCols+` FROM messages WHERE event_id = ? ORDER BY created_at DESC, id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// ListPublicByEvent returns the guest-facing messages, newest first,
// without timestamps.
func (s *MessageStore) ListPublicByEvent(eventID int64) ([]model.PublicMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, guest_name, body FROM messages WHERE event_id = ? ORDER BY created_at DESC, id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list public messages: %w", err)
	}
	defer rows.Close()

	var messages []model.PublicMessage
	for rows.Next() {
		var m model.PublicMessage
		var guestName sql.NullString
		if err := rows.Scan(&m.ID, &guestName, &m.Body); err != nil {
			return nil, fmt.Errorf("scan public message: %w", err)
		}
		if guestName.Valid {
			m.GuestName = &guestName.String
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
