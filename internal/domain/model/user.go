package model

import "time"

// ログインに使ったOAuthプロバイダ
type Provider string

const (
	ProviderGitHub Provider = "github"
	ProviderGoogle Provider = "google"
)

func (p Provider) Valid() bool {
	return p == ProviderGitHub || p == ProviderGoogle
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// (external_id, provider)で一意、emailも全体で一意
type User struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ExternalID  string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_users_identity" json:"externalId"`
	Provider    Provider  `gorm:"type:varchar(20);not null;uniqueIndex:idx_users_identity" json:"provider"`
	DisplayName string    `gorm:"not null" json:"displayName"`
	Email       string    `gorm:"not null;uniqueIndex" json:"email"`
	Avatar      *string   `json:"avatar,omitempty"`
	Role        Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

// RolesはJWTに載せるロール一覧。未設定ならuser。
func (u *User) Roles() []string {
	if u.Role == "" {
		return []string{string(RoleUser)}
	}
	return []string{string(u.Role)}
}

// プロバイダから取れたプロフィール
type ExternalProfile struct {
	ExternalID  string
	Provider    Provider
	DisplayName string
	Email       string
	Avatar      string
}
