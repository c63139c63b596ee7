package validator

import (
	"errors"
	"regexp"
	"strings"

	"authgate/internal/domain/model"
	"authgate/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// 未対応のプロバイダ
	ErrUnknownProvider = errors.New("unknown provider")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type profileValidator struct{}

// Usecaseは interface を依存注入
func NewProfileValidator() usecase.ProfileValidator {
	return profileValidator{}
}

// プロバイダから来たプロフィールを検証
func (profileValidator) ValidateProfile(p model.ExternalProfile) error {
	if !p.Provider.Valid() {
		return ErrUnknownProvider
	}

	// 必須チェック
	if strings.TrimSpace(p.ExternalID) == "" || strings.TrimSpace(p.DisplayName) == "" {
		return ErrInvalidInput
	}

	// email形式（GitHubの<login>@github.comもここを通る）
	if !isEmailLike(p.Email) {
		return ErrInvalidInput
	}
	return nil
}

// refresh tokenの形（hex 80文字）。違えば照合するまでもない。
func IsRefreshValueLike(s string) bool {
	if len(s) != 80 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}
