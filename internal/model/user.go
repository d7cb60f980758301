package model

import "time"

// User.Password holds the bcrypt digest, never the plaintext.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// UserOut is the public projection of a User returned to clients.
type UserOut struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() UserOut {
	return UserOut{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

func PublicUsers(users []User) []UserOut {
	out := make([]UserOut, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}
