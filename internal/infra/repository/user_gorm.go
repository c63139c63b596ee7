package repository

import (
	"authgate/internal/domain/model"
	domainrepo "authgate/internal/repository"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return domainrepo.ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// IDでユーザーを1件取得
func (r *userGormRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &u, nil
}

// (external_id, provider)でユーザーを1件取得
func (r *userGormRepository) FindByIdentity(ctx context.Context, externalID string, provider model.Provider) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("external_id = ? AND provider = ?", externalID, provider).
		First(&u).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by identity: %w", err)
	}

	return &u, nil
}

// プロフィール項目だけ更新。roleやidentityは触らない。
func (r *userGormRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"display_name": user.DisplayName,
			"email":        user.Email,
			"avatar":       user.Avatar,
			"updated_at":   user.UpdatedAt,
		})

	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return domainrepo.ErrDuplicate
		}
		return fmt.Errorf("update user: %w", res.Error)
	}

	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}
