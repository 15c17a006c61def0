package domain

import "time"

// User represents a registered identity in the platform. PasswordHash is
// nil for accounts created through an OAuth provider.
type User struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash *string   `json:"-"`
	Bio          *string   `json:"bio,omitempty"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	IsBanned     bool      `json:"is_banned"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != ""
}
