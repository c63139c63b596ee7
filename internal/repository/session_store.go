package repository

import (
	"context"
	"errors"

	"authgate/internal/domain/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStateNotFound   = errors.New("oauth state not found")
)

// サーバー側セッションとOAuth stateの保存先
type SessionStore interface {
	Create(ctx context.Context, userID string, provider model.Provider) (*model.Session, error)
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Delete(ctx context.Context, sessionID string) error

	// stateは1回だけ使える
	SaveState(ctx context.Context, state string, provider model.Provider) error
	ConsumeState(ctx context.Context, state string) (model.Provider, error)
}
