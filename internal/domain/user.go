// Package domain holds the bot's persistent entities.
package domain

import (
	"strconv"
	"time"
)

// User is a chat user known to the bot, keyed by the transport's numeric id.
// Records are created on first interaction and never deleted by the bot.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	Blocked      bool      `json:"blocked"`
}

// NewUser returns an unblocked user registered at now.
func NewUser(id int64, username string, now time.Time) *User {
	return &User{
		ID:           id,
		Username:     username,
		RegisteredAt: now,
		LastActiveAt: now,
	}
}

// DisplayName returns the username with an @ prefix, or the numeric id when
// the user has no username.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "id" + strconv.FormatInt(u.ID, 10)
}
