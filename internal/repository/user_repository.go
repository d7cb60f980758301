package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gopher-accounts/internal/model"
	"gopher-accounts/internal/pkg/hasher"
)

var (
	ErrNotFound      = errors.New("entity does not exist")
	ErrAlreadyExists = errors.New("entity already exists")
)

type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// UserPatch leaves nil fields untouched.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
}

func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Password == nil
}

// UserRepository runs every call on the handle it was built with, so a
// repository built from a transaction takes part in that transaction.
type UserRepository struct {
	db     *gorm.DB
	hasher hasher.Hasher
}

func NewUserRepository(db *gorm.DB, h hasher.Hasher) *UserRepository {
	return &UserRepository{db: db, hasher: h}
}

func (r *UserRepository) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	hash, err := r.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hash,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create user `%s`: %w", input.Username, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create user failed: %w", err)
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with id `%d`: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with username `%s`: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email `%s`: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

// IsUsernameTaken reports a free username as (false, nil). A taken one is
// signalled through ErrAlreadyExists.
func (r *UserRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	taken, err := r.exists(ctx, "username = ?", username)
	if err != nil {
		return false, fmt.Errorf("check username failed: %w", err)
	}
	if taken {
		return true, fmt.Errorf("username `%s`: %w", username, ErrAlreadyExists)
	}
	return false, nil
}

// IsEmailTaken follows the same convention as IsUsernameTaken.
func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	taken, err := r.exists(ctx, "email = ?", email)
	if err != nil {
		return false, fmt.Errorf("check email failed: %w", err)
	}
	if taken {
		return true, fmt.Errorf("email `%s`: %w", email, ErrAlreadyExists)
	}
	return false, nil
}

func (r *UserRepository) UpdateByID(ctx context.Context, id uint, patch UserPatch) (*model.User, error) {
	db := r.db.WithContext(ctx)

	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with id `%d`: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	if patch.Empty() {
		return &user, nil
	}

	updates := map[string]interface{}{}
	if patch.Username != nil {
		updates["username"] = *patch.Username
	}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Password != nil {
		hash, err := r.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("update user `%d`: %w", id, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("update user failed: %w", err)
	}

	var updated model.User
	if err := db.First(&updated, id).Error; err != nil {
		return nil, fmt.Errorf("reload user failed: %w", err)
	}
	return &updated, nil
}

// DeleteByID hard-deletes the row and returns a confirmation for the client.
func (r *UserRepository) DeleteByID(ctx context.Context, id uint) (string, error) {
	result := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if result.Error != nil {
		return "", fmt.Errorf("delete user failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", fmt.Errorf("user with id `%d`: %w", id, ErrNotFound)
	}
	return fmt.Sprintf("Account with id `%d` has been deleted successfully!", id), nil
}

func (r *UserRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
