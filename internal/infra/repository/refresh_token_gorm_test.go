package repository_test

import (
	"context"
	"testing"
	"time"

	"authgate/internal/domain/model"
	infrarepo "authgate/internal/infra/repository"
	repo "authgate/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedToken(t *testing.T, r repo.RefreshTokenRepository, userID, hash string, expiresAt time.Time) *model.RefreshToken {
	t.Helper()
	tok := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: baseTime(),
	}
	require.NoError(t, r.Create(context.Background(), tok))
	return tok
}

func TestRefreshTokenRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := infrarepo.NewRefreshTokenRepository(newTestDB(t))

	seedToken(t, r, "u1", "hash-1", baseTime().Add(7*24*time.Hour))

	got, err := r.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.IsRevoked)
	assert.Nil(t, got.RevokedAt)

	_, err = r.FindByTokenHash(ctx, "nope")
	assert.ErrorIs(t, err, repo.ErrRefreshTokenNotFound)
}

func TestRefreshTokenRepo_Create_DuplicateHash(t *testing.T) {
	r := infrarepo.NewRefreshTokenRepository(newTestDB(t))
	seedToken(t, r, "u1", "same", baseTime().Add(time.Hour))

	err := r.Create(context.Background(), &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    "u2",
		TokenHash: "same",
		ExpiresAt: baseTime().Add(time.Hour),
		CreatedAt: baseTime(),
	})
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestRefreshTokenRepo_RevokeByTokenHash_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	r := infrarepo.NewRefreshTokenRepository(newTestDB(t))
	seedToken(t, r, "u1", "hash-1", baseTime().Add(time.Hour))

	revokedAt := baseTime().Add(time.Minute)

	ok, err := r.RevokeByTokenHash(ctx, "hash-1", revokedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	//2回目は変化なし
	ok, err = r.RevokeByTokenHash(ctx, "hash-1", revokedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, got.IsRevoked)
	require.NotNil(t, got.RevokedAt)
	assert.True(t, got.RevokedAt.Equal(revokedAt))

	//存在しないものもfalse
	ok, err = r.RevokeByTokenHash(ctx, "unknown", revokedAt)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshTokenRepo_RevokeAllByUserID(t *testing.T) {
	ctx := context.Background()
	r := infrarepo.NewRefreshTokenRepository(newTestDB(t))

	seedToken(t, r, "u1", "a", baseTime().Add(time.Hour))
	seedToken(t, r, "u1", "b", baseTime().Add(time.Hour))
	seedToken(t, r, "u1", "c", baseTime().Add(time.Hour))
	seedToken(t, r, "u2", "d", baseTime().Add(time.Hour))

	_, err := r.RevokeByTokenHash(ctx, "c", baseTime())
	require.NoError(t, err)

	n, err := r.RevokeAllByUserID(ctx, "u1", baseTime())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	//他ユーザーは影響なし
	other, err := r.FindByTokenHash(ctx, "d")
	require.NoError(t, err)
	assert.False(t, other.IsRevoked)

	n, err = r.RevokeAllByUserID(ctx, "u1", baseTime())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRefreshTokenRepo_DeleteExpiredOrRevoked(t *testing.T) {
	ctx := context.Background()
	r := infrarepo.NewRefreshTokenRepository(newTestDB(t))
	now := baseTime()

	seedToken(t, r, "u1", "expired-1", now.Add(-2*time.Hour))
	seedToken(t, r, "u1", "expired-2", now.Add(-time.Hour))
	seedToken(t, r, "u1", "live", now.Add(time.Hour))

	n, err := r.DeleteExpiredOrRevoked(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = r.FindByTokenHash(ctx, "live")
	assert.NoError(t, err)
	_, err = r.FindByTokenHash(ctx, "expired-1")
	assert.ErrorIs(t, err, repo.ErrRefreshTokenNotFound)

	//失効済みは期限内でも消える
	_, err = r.RevokeByTokenHash(ctx, "live", now)
	require.NoError(t, err)
	n, err = r.DeleteExpiredOrRevoked(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.DeleteExpiredOrRevoked(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
