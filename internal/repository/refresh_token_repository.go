package repository

import (
	"authgate/internal/domain/model"
	"context"
	"errors"
	"time"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・取得・失効・削除
// 更新はすべて1レコード（または1文）の条件付きUPDATEで行う。
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// 未失効のものだけ失効させる。変更があればtrue。
	RevokeByTokenHash(ctx context.Context, tokenHash string, revokedAt time.Time) (bool, error)
	// ユーザーの未失効トークンを全部失効させ、件数を返す。
	RevokeAllByUserID(ctx context.Context, userID string, revokedAt time.Time) (int64, error)
	// expires_at < now または失効済みを削除し、件数を返す。
	DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error)
}
