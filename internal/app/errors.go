package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrUserNotFound      = errors.New("user not found")
)

// ConflictError names the unique field and value a write collided with.
// errors.Is matches it against ErrUsernameExists or ErrEmailExists.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s `%s` already exists", e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool {
	switch e.Field {
	case "username":
		return target == ErrUsernameExists
	case "email":
		return target == ErrEmailExists
	}
	return false
}

// NotFoundError carries the id that was looked up.
type NotFoundError struct {
	ID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user with id `%d` not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}
