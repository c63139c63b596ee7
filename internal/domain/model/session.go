package model

import "time"

// OAuthログイン後のサーバー側セッション（redis）
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Provider  Provider  `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

// リクエスト元の情報（監査用）
type ClientMeta struct {
	UserAgent string
	IPAddress string
}
