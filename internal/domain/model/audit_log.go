package model

import "time"

// トークン発行・失効などの操作種別
type AuditAction string

const (
	AuditActionTokenIssued      AuditAction = "TOKEN_ISSUED"
	AuditActionTokenRotated     AuditAction = "TOKEN_ROTATED"
	AuditActionTokenRevoked     AuditAction = "TOKEN_REVOKED"
	AuditActionTokensRevokedAll AuditAction = "TOKENS_REVOKED_ALL"
	AuditActionTokensSwept      AuditAction = "TOKENS_SWEPT"
	AuditActionUserCreated      AuditAction = "USER_CREATED"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceRefreshToken AuditResourceType = "refresh_token"
	AuditResourceUser         AuditResourceType = "user"
)

// 監査ログ。
// 「誰が」「何を」「どの対象に」を残す。トークンの値は入れない。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。sweepなどシステム操作は空。
	ActorUserID string `gorm:"type:varchar(36);index" json:"actorUserId"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType"`

	ResourceID string `gorm:"type:varchar(36);index" json:"resourceId"`

	//UA・IP・件数などをJSON文字列で保存する。
	DetailJSON string `gorm:"type:text" json:"detailJson"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
