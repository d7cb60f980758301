package app

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gopher-accounts/internal/logging"
	"gopher-accounts/internal/model"
	"gopher-accounts/internal/pkg/hasher"
	"gopher-accounts/internal/repository"
)

type EventPublisher interface {
	Publish(ctx context.Context, event model.UserEvent) error
}

// UserCache holds public projections by id. A hit with a nil user marks an
// id whose row has been deleted. Fill must not overwrite an existing entry,
// so a read that raced a write cannot put the older projection back.
type UserCache interface {
	Get(ctx context.Context, id uint) (*model.UserOut, bool, error)
	Fill(ctx context.Context, user model.UserOut) error
	Set(ctx context.Context, user model.UserOut) error
	MarkDeleted(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// UserService leaves cache and events nil when those backends are disabled.
type UserService struct {
	db     *gorm.DB
	hasher hasher.Hasher
	cache  UserCache
	events EventPublisher
	log    logging.Logger
}

// UpdateInput leaves nil fields untouched.
type UpdateInput struct {
	Username *string
	Email    *string
	Password *string
}

func NewUserService(db *gorm.DB, h hasher.Hasher, cache UserCache, events EventPublisher, log logging.Logger) *UserService {
	return &UserService{
		db:     db,
		hasher: h,
		cache:  cache,
		events: events,
		log:    log,
	}
}

func (s *UserService) List(ctx context.Context) ([]model.UserOut, error) {
	users, err := repository.NewUserRepository(s.db, s.hasher).List(ctx)
	if err != nil {
		return nil, err
	}
	return model.PublicUsers(users), nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.UserOut, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		switch {
		case err != nil:
			s.log.Warn(ctx, "user cache read failed", "user_id", id, "error", err)
		case ok && cached == nil:
			return nil, &NotFoundError{ID: id}
		case ok:
			return cached, nil
		}
	}

	user, err := repository.NewUserRepository(s.db, s.hasher).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, err
	}

	out := user.Public()
	if s.cache != nil {
		if err := s.cache.Fill(ctx, out); err != nil {
			s.log.Warn(ctx, "user cache fill failed", "user_id", id, "error", err)
		}
	}
	return &out, nil
}

// Update acts on id, which callers take from the authenticated identity.
func (s *UserService) Update(ctx context.Context, id uint, input UpdateInput) (*model.UserOut, error) {
	patch := repository.UserPatch{Password: input.Password}
	if input.Username != nil {
		username := normalizeUsername(*input.Username)
		if username == "" {
			return nil, ErrInvalidInput
		}
		patch.Username = &username
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, ErrInvalidInput
		}
		patch.Email = &email
	}
	if input.Password != nil && !validPassword(*input.Password) {
		return nil, ErrInvalidInput
	}

	var updated *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := repository.NewUserRepository(tx, s.hasher).UpdateByID(ctx, id, patch)
		if err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{ID: id}
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, classifyConflict(ctx, s.db, s.hasher, patch.Username, patch.Email, id)
		case errors.Is(err, hasher.ErrTooLong):
			return nil, ErrInvalidInput
		default:
			return nil, err
		}
	}

	out := updated.Public()
	s.refresh(ctx, out)
	publish(ctx, s.events, s.log, model.UserUpdated, updated)
	return &out, nil
}

// Delete acts on id, which callers take from the authenticated identity.
func (s *UserService) Delete(ctx context.Context, id uint) (string, error) {
	repo := repository.NewUserRepository(s.db, s.hasher)

	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", &NotFoundError{ID: id}
		}
		return "", err
	}

	msg, err := repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", &NotFoundError{ID: id}
		}
		return "", err
	}

	s.markDeleted(ctx, id)
	s.log.Info(ctx, "user deleted", "user_id", id)
	publish(ctx, s.events, s.log, model.UserDeleted, user)
	return msg, nil
}

// refresh overwrites the entry with the committed projection. If that fails
// the entry is evicted instead.
func (s *UserService) refresh(ctx context.Context, user model.UserOut) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, user); err != nil {
		s.log.Warn(ctx, "user cache refresh failed", "user_id", user.ID, "error", err)
		s.evict(ctx, user.ID)
	}
}

func (s *UserService) markDeleted(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkDeleted(ctx, id); err != nil {
		s.log.Warn(ctx, "user cache tombstone failed", "user_id", id, "error", err)
		s.evict(ctx, id)
	}
}

func (s *UserService) evict(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn(ctx, "user cache evict failed", "user_id", id, "error", err)
	}
}

// publish never fails the caller; the row change is already committed.
func publish(ctx context.Context, events EventPublisher, log logging.Logger, eventType string, user *model.User) {
	if events == nil {
		return
	}
	event := model.UserEvent{
		Type:       eventType,
		User:       user.Public(),
		OccurredAt: time.Now().UTC(),
	}
	if err := events.Publish(ctx, event); err != nil {
		log.Warn(ctx, "publish user event failed", "type", eventType, "user_id", user.ID, "error", err)
	}
}
