package sqlstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/normalize"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"gorm.io/gorm"
)

// UserStore implements store.Users.
type UserStore struct {
	db *gorm.DB
}

const (
	userNotFound   = "User not found"
	duplicateEmail = "User with this email already exists"
	badRole        = `role must be "admin" or "employee"`
)

func (s *UserStore) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = newID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleEmployee
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, apperr.Validation(badRole)
	}
	ts := now()
	u.CreatedAt = ts
	u.UpdatedAt = ts
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if isDup(err) {
			return models.User{}, apperr.Duplicate(duplicateEmail)
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return models.User{}, notFoundOr(err, userNotFound, "find user")
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalize.Email(email)).First(&u).Error; err != nil {
		return models.User{}, notFoundOr(err, userNotFound, "find user")
	}
	return u, nil
}

func (s *UserStore) GetMany(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0)
	if err := s.db.WithContext(ctx).Order(newestFirst).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return out, nil
}

func (s *UserStore) UpdateRole(ctx context.Context, id, role string) (models.User, error) {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return models.User{}, apperr.Validation(badRole)
	}
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return notFoundOr(err, userNotFound, "find user")
		}
		u.Role = role
		u.UpdatedAt = now()
		return tx.Save(&u).Error
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}
