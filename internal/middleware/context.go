package middleware

import (
	"authgate/internal/domain/model"
	"authgate/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxClaimsKey  = "claims"  // *token.AccessClaims
	CtxSessionKey = "session" // *model.Session
)

// AuthJWTが入れたclaimsを取り出す
func ClaimsFrom(c echo.Context) (*token.AccessClaims, bool) {
	claims, ok := c.Get(CtxClaimsKey).(*token.AccessClaims)
	return claims, ok && claims != nil
}

// SessionAuthが入れたセッションを取り出す
func SessionFrom(c echo.Context) (*model.Session, bool) {
	sess, ok := c.Get(CtxSessionKey).(*model.Session)
	return sess, ok && sess != nil
}
