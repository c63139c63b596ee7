package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenStateAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token *RefreshToken
		want  RefreshTokenState
	}{
		{"nil is unknown", nil, RefreshTokenUnknown},
		{"live", &RefreshToken{ExpiresAt: now.Add(time.Hour)}, RefreshTokenUsable},
		{"expires exactly now", &RefreshToken{ExpiresAt: now}, RefreshTokenExpired},
		{"expired", &RefreshToken{ExpiresAt: now.Add(-time.Second)}, RefreshTokenExpired},
		{"revoked", &RefreshToken{ExpiresAt: now.Add(time.Hour), IsRevoked: true}, RefreshTokenRevoked},
		{"revoked wins over expired", &RefreshToken{ExpiresAt: now.Add(-time.Hour), IsRevoked: true}, RefreshTokenRevoked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.StateAt(now))
			assert.Equal(t, tt.want == RefreshTokenUsable, tt.token.UsableAt(now))
		})
	}
}

func TestUserRolesDefaultsToUser(t *testing.T) {
	assert.Equal(t, []string{"user"}, (&User{}).Roles())
	assert.Equal(t, []string{"admin"}, (&User{Role: RoleAdmin}).Roles())
}

func TestProviderValid(t *testing.T) {
	assert.True(t, ProviderGitHub.Valid())
	assert.True(t, ProviderGoogle.Valid())
	assert.False(t, Provider("gitlab").Valid())
}
