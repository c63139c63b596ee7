package repository

import (
	"authgate/internal/domain/model"
	"context"
	"errors"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// email・(external_id, provider)の一意制約違反
var ErrDuplicate = errors.New("duplicate record")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	// (external_id, provider)からユーザーを1件取得する。
	FindByIdentity(ctx context.Context, externalID string, provider model.Provider) (*model.User, error)
	// 表示名・email・アバターの更新
	UpdateProfile(ctx context.Context, user *model.User) error
}
