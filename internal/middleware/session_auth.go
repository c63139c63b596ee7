package middleware

import (
	"context"
	"errors"

	"authgate/internal/domain/model"
	repo "authgate/internal/repository"
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// セッションcookie名
const SessionCookieName = "sid"

// SessionReader はセッションを読むだけの約束
type SessionReader interface {
	Get(ctx context.Context, sessionID string) (*model.Session, error)
}

// sid cookieからセッションを引く。無ければ401。
func SessionAuth(store SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := LoadSession(c, store)
			if err != nil {
				return err
			}

			c.Set(CtxSessionKey, sess)
			return next(c)
		}
	}
}

// LoadSession はcookieのセッションを返す。ログイン状態の確認にも使う。
func LoadSession(c echo.Context, store SessionReader) (*model.Session, error) {
	ck, err := c.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return nil, usecase.ErrMissingCredential
	}

	sess, err := store.Get(c.Request().Context(), ck.Value)
	if err != nil {
		if errors.Is(err, repo.ErrSessionNotFound) {
			return nil, usecase.ErrMissingCredential
		}
		return nil, usecase.ErrStoreUnavailable.Wrap(err)
	}
	return sess, nil
}
