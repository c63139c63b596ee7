package model

import "time"

// 状態は usable / expired / revoked / unknown のどれか1つ
type RefreshTokenState string

const (
	RefreshTokenUsable  RefreshTokenState = "usable"
	RefreshTokenExpired RefreshTokenState = "expired"
	RefreshTokenRevoked RefreshTokenState = "revoked"
	RefreshTokenUnknown RefreshTokenState = "unknown"
)

// DBには平文ではなくSHA-256のhexを保存する。
// UserIDは参照だけ（外部キーなし）。
type RefreshToken struct {
	ID        string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID    string     `json:"userId" gorm:"type:varchar(36);not null;index"`
	TokenHash string     `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ExpiresAt time.Time  `json:"expiresAt" gorm:"not null;index"`
	IsRevoked bool       `json:"isRevoked" gorm:"not null;default:false;index"`
	RevokedAt *time.Time `json:"revokedAt"`
	UserAgent *string    `json:"userAgent"`
	IPAddress *string    `json:"ipAddress"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null"`
}

// revokedが優先。nilはunknown。
func (t *RefreshToken) StateAt(now time.Time) RefreshTokenState {
	switch {
	case t == nil:
		return RefreshTokenUnknown
	case t.IsRevoked:
		return RefreshTokenRevoked
	case !t.ExpiresAt.After(now):
		return RefreshTokenExpired
	default:
		return RefreshTokenUsable
	}
}

func (t *RefreshToken) UsableAt(now time.Time) bool {
	return t.StateAt(now) == RefreshTokenUsable
}
