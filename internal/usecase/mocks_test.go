package usecase_test

import (
	"context"
	"strconv"
	"time"

	"authgate/internal/domain/model"
	repo "authgate/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByIdentity(ctx context.Context, externalID string, provider model.Provider) (*model.User, error) {
	args := m.Called(ctx, externalID, provider)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) UpdateProfile(ctx context.Context, u *model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

type RefreshRepoMock struct{ mock.Mock }

func (m *RefreshRepoMock) Create(ctx context.Context, t *model.RefreshToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *RefreshRepoMock) FindByTokenHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, hash)
	t, _ := args.Get(0).(*model.RefreshToken)
	return t, args.Error(1)
}

func (m *RefreshRepoMock) RevokeByTokenHash(ctx context.Context, hash string, at time.Time) (bool, error) {
	args := m.Called(ctx, hash, at)
	return args.Bool(0), args.Error(1)
}

func (m *RefreshRepoMock) RevokeAllByUserID(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RefreshRepoMock) DeleteExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// 固定時刻
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// 連番ID
type seqID struct {
	prefix string
	n      int
}

func (g *seqID) NewID() string {
	g.n++
	return g.prefix + strconv.Itoa(g.n)
}
