package middleware

import (
	"authgate/internal/token"
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AccessVerifier はアクセストークンを検証する約束（token.Verifierが実装）
type AccessVerifier interface {
	Verify(raw string) (*token.AccessClaims, error)
}

// bearerAuth用のJWT検証ミドルウェア。DBは見ない。
func AuthJWT(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Bearer形式か確認してtokenを抜く
			raw, err := token.ParseBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return usecase.ErrMissingCredential
			}

			//署名と期限を検証する
			claims, err := v.Verify(raw)
			if err != nil {
				return usecase.FromTokenError(err)
			}

			//contextへ保存
			c.Set(CtxClaimsKey, claims)
			return next(c)
		}
	}
}
