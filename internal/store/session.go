package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/keepsake/internal/model"
	"github.com/dukerupert/keepsake/internal/token"
)

const sessionTTL = 30 * 24 * time.Hour

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var sess model.Session
	err := scanner.Scan(&sess.ID, &sess.UserID, &sess.Token, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

const sessionCols = `id, user_id, token, expires_at, created_at`

// Create mints a new session with a crypto-random 48-character token and
// a 30-day expiry. Many live sessions per user are allowed.
func (s *SessionStore) Create(userID int64) (*model.Session, error) {
	tok, err := token.SessionToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(sessionTTL)

	result, err := s.db.Exec(
		`INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)`,
		userID, tok, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the session for the given token, or nil if expired
// or not found. Callers cannot tell the two apart.
func (s *SessionStore) GetByToken(tok string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > datetime('now')`,
		tok,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// GetUserByToken resolves a live session token to its owning user in a
// single join, or nil when no live session matches.
func (s *SessionStore) GetUserByToken(tok string) (*model.User, error) {
	row := s.db.QueryRow(
		`SELECT u.id, u.email, u.name, u.magic_token, u.magic_token_expires_at, u.created_at, u.updated_at
		 FROM sessions s
		 JOIN users u ON s.user_id = u.id
		 WHERE s.token = ? AND s.expires_at > datetime('now')`,
		tok,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by session token: %w", err)
	}
	return u, nil
}

// DeleteByToken removes the session with the given token. Deleting a
// token that never existed is not an error.
func (s *SessionStore) DeleteByToken(tok string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, tok)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges dead session rows. Nothing in the request path
// calls this; the entrypoint runs it on a timer.
func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
