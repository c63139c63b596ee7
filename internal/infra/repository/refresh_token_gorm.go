package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authgate/internal/domain/model"
	repo "authgate/internal/repository"

	"gorm.io/gorm"
)

type refreshTokenGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewRefreshTokenRepository(db *gorm.DB) repo.RefreshTokenRepository {
	return &refreshTokenGormRepository{db: db}
}

// リフレッシュトークンを保存する。
func (r *refreshTokenGormRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if isDuplicateKey(err) {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// token_hashで1件検索します。
func (r *refreshTokenGormRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	var token model.RefreshToken

	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&token).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

// is_revoked=false のときだけ失効にする。2回目以降はfalse。
func (r *refreshTokenGormRepository) RevokeByTokenHash(ctx context.Context, tokenHash string, revokedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("token_hash = ? AND is_revoked = ?", tokenHash, false).
		Updates(map[string]any{
			"is_revoked": true,
			"revoked_at": revokedAt,
		})

	if result.Error != nil {
		return false, fmt.Errorf("revoke refresh token: %w", result.Error)
	}

	// 更新件数が0なら「すでに失効/存在しない」
	return result.RowsAffected > 0, nil
}

// 指定ユーザーの未失効トークンを全部失効させる。
func (r *refreshTokenGormRepository) RevokeAllByUserID(ctx context.Context, userID string, revokedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Updates(map[string]any{
			"is_revoked": true,
			"revoked_at": revokedAt,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("revoke user refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// 期限切れ・失効済みを削除。
func (r *refreshTokenGormRepository) DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR is_revoked = ?", now, true).
		Delete(&model.RefreshToken{})

	if result.Error != nil {
		return 0, fmt.Errorf("sweep refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
