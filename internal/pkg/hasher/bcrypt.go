// Package hasher wraps bcrypt behind the two operations the service needs.
package hasher

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrMismatch = errors.New("password does not match")
	ErrTooLong  = errors.New("password exceeds 72 bytes")
)

type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) error
}

type Bcrypt struct {
	cost int
}

// NewBcrypt falls back to bcrypt.DefaultCost for out-of-range costs.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

// Verify returns ErrMismatch when plain does not produce digest. Input longer
// than MaxPasswordBytes never matches. Malformed digests are reported as other
// errors.
func (b *Bcrypt) Verify(plain, digest string) error {
	if len(plain) > MaxPasswordBytes {
		return ErrMismatch
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return fmt.Errorf("verify password failed: %w", err)
}
