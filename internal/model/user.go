package model

import "time"

// User is an event creator. The magic token fields back the login flow
// and never appear in API responses.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MagicToken          *string    `json:"-"`
	MagicTokenExpiresAt *time.Time `json:"-"`
}

// PublicUser is the subset of user fields exposed to API callers.
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Public returns the fields safe to expose to API callers.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
