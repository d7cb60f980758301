package model

import "time"

const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// UserEvent is published after a user row changes.
type UserEvent struct {
	Type       string    `json:"type"`
	User       UserOut   `json:"user"`
	OccurredAt time.Time `json:"occurred_at"`
}
