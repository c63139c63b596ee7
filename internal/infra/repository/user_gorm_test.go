package repository_test

import (
	"context"
	"testing"

	"authgate/internal/domain/model"
	infrarepo "authgate/internal/infra/repository"
	repo "authgate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(id, externalID string, p model.Provider, email string) *model.User {
	return &model.User{
		ID:          id,
		ExternalID:  externalID,
		Provider:    p,
		DisplayName: "name-" + id,
		Email:       email,
		Role:        model.RoleUser,
		CreatedAt:   baseTime(),
		UpdatedAt:   baseTime(),
	}
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := infrarepo.NewUserGormRepository(newTestDB(t))

	require.NoError(t, r.Create(ctx, newUser("u1", "100", model.ProviderGitHub, "a@example.com")))

	got, err := r.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	got, err = r.FindByIdentity(ctx, "100", model.ProviderGitHub)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	//同じexternal_idでもproviderが違えば別人
	_, err = r.FindByIdentity(ctx, "100", model.ProviderGoogle)
	assert.ErrorIs(t, err, repo.ErrUserNotFound)

	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrUserNotFound)
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	r := infrarepo.NewUserGormRepository(newTestDB(t))

	require.NoError(t, r.Create(ctx, newUser("u1", "100", model.ProviderGitHub, "a@example.com")))

	//identity重複
	err := r.Create(ctx, newUser("u2", "100", model.ProviderGitHub, "b@example.com"))
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	//email重複
	err = r.Create(ctx, newUser("u3", "200", model.ProviderGoogle, "a@example.com"))
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestUserRepo_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	r := infrarepo.NewUserGormRepository(newTestDB(t))

	u := newUser("u1", "100", model.ProviderGitHub, "a@example.com")
	require.NoError(t, r.Create(ctx, u))

	avatar := "https://example.com/a.png"
	u.DisplayName = "changed"
	u.Email = "changed@example.com"
	u.Avatar = &avatar
	require.NoError(t, r.UpdateProfile(ctx, u))

	got, err := r.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.DisplayName)
	assert.Equal(t, "changed@example.com", got.Email)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, avatar, *got.Avatar)
	assert.Equal(t, model.RoleUser, got.Role)

	err = r.UpdateProfile(ctx, newUser("ghost", "1", model.ProviderGoogle, "g@example.com"))
	assert.ErrorIs(t, err, repo.ErrUserNotFound)
}
