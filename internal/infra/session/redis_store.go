package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"authgate/internal/domain/model"
	repo "authgate/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// OAuthのstateは10分で消す
const StateTTL = 10 * time.Minute

const (
	sessionKeyPrefix = "sess:"
	stateKeyPrefix   = "oauth_state:"
)

// redisにセッションとstateを置く実装
type RedisStore struct {
	rdb        *redis.Client
	sessionTTL time.Duration
	now        func() time.Time
	newID      func() string
}

// NewRedisStore はセッションストアを作る。
func NewRedisStore(rdb *redis.Client, sessionTTL time.Duration) *RedisStore {
	return &RedisStore{
		rdb:        rdb,
		sessionTTL: sessionTTL,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

var _ repo.SessionStore = (*RedisStore)(nil)

// NewRedisClient はREDIS_URLからクライアントを作る。
func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func (s *RedisStore) Create(ctx context.Context, userID string, provider model.Provider) (*model.Session, error) {
	sess := &model.Session{
		ID:        s.newID(),
		UserID:    userID,
		Provider:  provider,
		CreatedAt: s.now().UTC(),
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+sess.ID, b, s.sessionTTL).Err(); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, repo.ErrSessionNotFound
	}

	b, err := s.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repo.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// 無いセッションの削除もエラーにしない
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveState(ctx context.Context, state string, provider model.Provider) error {
	if err := s.rdb.Set(ctx, stateKeyPrefix+state, string(provider), StateTTL).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// GETDELで取り出すので同じstateは2回通らない
func (s *RedisStore) ConsumeState(ctx context.Context, state string) (model.Provider, error) {
	if state == "" {
		return "", repo.ErrStateNotFound
	}

	v, err := s.rdb.GetDel(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repo.ErrStateNotFound
		}
		return "", fmt.Errorf("consume oauth state: %w", err)
	}
	return model.Provider(v), nil
}
