package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/keepsake/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var magicToken sql.NullString
	var magicExpires sql.NullTime

	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &magicToken, &magicExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if magicToken.Valid {
		u.MagicToken = &magicToken.String
	}
	if magicExpires.Valid {
		u.MagicTokenExpiresAt = &magicExpires.Time
	}
	return &u, nil
}

const userCols = `id, email, name, magic_token, magic_token_expires_at, created_at, updated_at`

func (s *UserStore) Create(email, name string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name) VALUES (?, ?)`,
		email, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// CreateWithMagicToken inserts a brand-new user together with their
// first pending magic token, so first-time issuance is a single write.
func (s *UserStore) CreateWithMagicToken(email, name, token string, expiresAt time.Time) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, magic_token, magic_token_expires_at) VALUES (?, ?, ?, ?)`,
		email, name, token, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user with magic token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// SetMagicToken overwrites the user's pending magic token. Whatever
// token was issued before becomes permanently unusable.
func (s *UserStore) SetMagicToken(id int64, token string, expiresAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users SET magic_token = ?, magic_token_expires_at = ?, updated_at = datetime('now') WHERE id = ?`,
		token, expiresAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set magic token: %w", err)
	}
	return nil
}

// ConsumeMagicToken resolves an unexpired magic token to its user and
// clears it in the same breath. The clear is a conditional update keyed
// on the token value, so two racing verifications cannot both succeed:
// the loser sees zero rows affected and gets nil back. Expired and
// already-consumed tokens are indistinguishable from unknown ones.
func (s *UserStore) ConsumeMagicToken(tok string) (*model.User, error) {
	row := s.db.QueryRow(
		`SELECT `+userCols+` FROM users WHERE magic_token = ? AND magic_token_expires_at > datetime('now') ORDER BY id LIMIT 1`,
		tok,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup magic token: %w", err)
	}

	result, err := s.db.Exec(
		`UPDATE users SET magic_token = NULL, magic_token_expires_at = NULL, updated_at = datetime('now') WHERE id = ? AND magic_token = ?`,
		u.ID, tok,
	)
	if err != nil {
		return nil, fmt.Errorf("clear magic token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Lost the race: someone consumed or reissued between lookup and
		// clear.
		return nil, nil
	}

	u.MagicToken = nil
	u.MagicTokenExpiresAt = nil
	return u, nil
}
