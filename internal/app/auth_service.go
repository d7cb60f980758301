package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"gopher-accounts/internal/logging"
	"gopher-accounts/internal/model"
	"gopher-accounts/internal/pkg/hasher"
	"gopher-accounts/internal/repository"
)

const TokenTypeBearer = "bearer"

type TokenIssuer interface {
	Issue(userID uint) (string, error)
}

type AuthService struct {
	db     *gorm.DB
	hasher hasher.Hasher
	issuer TokenIssuer
	events EventPublisher
	log    logging.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// SigninInput.Username carries the account email.
type SigninInput struct {
	Username string
	Password string
}

type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func NewAuthService(db *gorm.DB, h hasher.Hasher, issuer TokenIssuer, events EventPublisher, log logging.Logger) *AuthService {
	return &AuthService{
		db:     db,
		hasher: h,
		issuer: issuer,
		events: events,
		log:    log,
	}
}

// Signup checks the username before the email, so a request colliding on
// both reports the username. Checks and insert share one transaction; the
// unique indexes catch anything that slips past a concurrent request.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	username := normalizeUsername(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" || !validPassword(input.Password) {
		return nil, ErrInvalidInput
	}

	var created *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewUserRepository(tx, s.hasher)

		if _, err := repo.IsUsernameTaken(ctx, username); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return &ConflictError{Field: "username", Value: username}
			}
			return err
		}
		if _, err := repo.IsEmailTaken(ctx, email); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return &ConflictError{Field: "email", Value: email}
			}
			return err
		}

		user, err := repo.Create(ctx, repository.CreateUserInput{
			Username: username,
			Email:    email,
			Password: input.Password,
		})
		if err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, classifyConflict(ctx, s.db, s.hasher, &username, &email, 0)
		case errors.Is(err, hasher.ErrTooLong):
			return nil, ErrInvalidInput
		}
		return nil, err
	}

	s.log.Info(ctx, "user signed up", "user_id", created.ID)
	publish(ctx, s.events, s.log, model.UserCreated, created)
	return created, nil
}

// Signin reports an unknown email and a wrong password with the same error,
// and pays for one bcrypt compare in both cases. Store and hashing faults are
// returned as-is.
func (s *AuthService) Signin(ctx context.Context, input SigninInput) (*TokenResult, error) {
	email := normalizeEmail(input.Username)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredential
	}

	repo := repository.NewUserRepository(s.db, s.hasher)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnVerify(input.Password)
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	if err := s.hasher.Verify(input.Password, user.Password); err != nil {
		if errors.Is(err, hasher.ErrMismatch) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token failed: %w", err)
	}
	return &TokenResult{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// burnVerify compares against a digest of a fixed string so an unknown email
// costs as much as a wrong password.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("gopher-accounts-dummy-password")
		if err != nil {
			s.log.Warn(context.Background(), "build dummy digest failed", "error", err)
			return
		}
		s.dummyDigest = digest
	})
	if s.dummyDigest == "" {
		return
	}
	_ = s.hasher.Verify(password, s.dummyDigest)
}

// classifyConflict works out which unique field a rejected write hit. The
// rejected transaction has already rolled back, so it reads from db directly.
func classifyConflict(ctx context.Context, db *gorm.DB, h hasher.Hasher, username, email *string, selfID uint) error {
	repo := repository.NewUserRepository(db, h)
	if username != nil {
		if u, err := repo.GetByUsername(ctx, *username); err == nil && u.ID != selfID {
			return &ConflictError{Field: "username", Value: *username}
		}
	}
	if email != nil {
		if u, err := repo.GetByEmail(ctx, *email); err == nil && u.ID != selfID {
			return &ConflictError{Field: "email", Value: *email}
		}
	}
	if username != nil {
		return &ConflictError{Field: "username", Value: *username}
	}
	if email != nil {
		return &ConflictError{Field: "email", Value: *email}
	}
	return repository.ErrAlreadyExists
}

func validPassword(password string) bool {
	return password != "" && len(password) <= hasher.MaxPasswordBytes
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
