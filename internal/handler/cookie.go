package handler

import (
	"net/http"
	"time"

	"authgate/internal/middleware"

	"github.com/labstack/echo/v4"
)

const (
	RefreshCookieName = "refreshToken"
	// cookie自体の寿命（DB側の期限とは別）
	refreshCookieMaxAge = 7 * 24 * time.Hour
)

type cookieWriter struct {
	secure     bool
	sessionTTL time.Duration
}

// refreshtoken をCookieにセット。
func (w cookieWriter) setRefresh(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    plainRefresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(refreshCookieMaxAge.Seconds()),
	})
}

func (w cookieWriter) clearRefresh(c echo.Context) {
	w.clear(c, RefreshCookieName)
}

func (w cookieWriter) setSession(c echo.Context, sessionID string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(w.sessionTTL.Seconds()),
	})
}

func (w cookieWriter) clearSession(c echo.Context) {
	w.clear(c, middleware.SessionCookieName)
}

func (w cookieWriter) clear(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
