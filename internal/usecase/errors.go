package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"authgate/internal/token"
)

// AppError はhandlerがそのままJSONにできるエラー。
// CodeとStatusはクライアントに返す。Errはログ用でレスポンスには出さない。
type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// 同じCodeなら同じエラーとみなす（errors.Is用）
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap は原因を付けたコピーを返す。sentinel自体は書き換えない。
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

func newAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

var (
	//401 Authorizationが無い
	ErrMissingCredential = newAppError("MISSING_CREDENTIAL", http.StatusUnauthorized, "authentication required")
	//401 署名は正しいが期限切れ
	ErrExpiredCredential = newAppError("TOKEN_EXPIRED", http.StatusUnauthorized, "access token expired")
	//401 それ以外のトークン不正
	ErrInvalidCredential = newAppError("INVALID_TOKEN", http.StatusUnauthorized, "invalid access token")
	//401 refresh tokenが無い/失効/期限切れ
	ErrInvalidRefreshToken = newAppError("INVALID_REFRESH_TOKEN", http.StatusUnauthorized, "invalid refresh token")
	//401 トークンの持ち主がいない
	ErrUserNotFound = newAppError("USER_NOT_FOUND", http.StatusUnauthorized, "user not found")
	//500 DB/redisに届かない
	ErrStoreUnavailable = newAppError("STORE_UNAVAILABLE", http.StatusInternalServerError, "store unavailable")
	//403
	ErrForbidden = newAppError("FORBIDDEN", http.StatusForbidden, "forbidden")
	//409
	ErrConflict = newAppError("CONFLICT", http.StatusConflict, "conflict")
	//400
	ErrValidation = newAppError("VALIDATION_ERROR", http.StatusBadRequest, "validation error")
	//500
	ErrInternal = newAppError("INTERNAL", http.StatusInternalServerError, "internal error")
)

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

// FromTokenError はtokenパッケージのエラーをAppErrorにする。
func FromTokenError(err error) *AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrMissingCredential):
		return ErrMissingCredential
	case errors.Is(err, token.ErrExpiredCredential):
		return ErrExpiredCredential
	default:
		return ErrInvalidCredential
	}
}
