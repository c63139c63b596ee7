package middleware

import (
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// contextのclaimsがrolesのどれかを持っているか確認します。
// AuthJWTの後に置く。
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return usecase.ErrMissingCredential
			}

			if !claims.HasRole(roles...) {
				return usecase.ErrForbidden
			}

			return next(c)
		}
	}
}
