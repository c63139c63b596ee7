package handler

import (
	"context"
	"errors"
	"fmt"

	"authgate/internal/domain/model"
	"authgate/internal/middleware"
	"authgate/internal/usecase"
	"authgate/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// handlerが使うトークン操作
type TokenService interface {
	IssueForUser(ctx context.Context, userID string, meta model.ClientMeta) (usecase.IssueOutput, error)
	Refresh(ctx context.Context, value string, meta model.ClientMeta) (usecase.RefreshOutput, error)
	RevokeOne(ctx context.Context, value string) (bool, error)
	RevokeAll(ctx context.Context, userID string) (int64, error)
}

type TokenHandler struct {
	tokens   TokenService
	sessions middleware.SessionReader
	verifier middleware.AccessVerifier
	cookies  cookieWriter
}

// DIコンストラクタ
func NewTokenHandler(
	tokens TokenService,
	sessions middleware.SessionReader,
	verifier middleware.AccessVerifier,
	cookieSecure bool,
) *TokenHandler {
	return &TokenHandler{
		tokens:   tokens,
		sessions: sessions,
		verifier: verifier,
		cookies:  cookieWriter{secure: cookieSecure},
	}
}

func (h *TokenHandler) RegisterRoutes(e *echo.Echo) {
	session := middleware.SessionAuth(h.sessions)
	e.POST("/token", h.Create, session)
	e.POST("/generate-token", h.Create, session)

	e.POST("/token/refresh", h.Refresh)
	e.POST("/token/revoke", h.Revoke)
	e.POST("/token/revoke-all", h.RevokeAll, middleware.AuthJWT(h.verifier))
}

// /token/refresh, /token/revoke のリクエストボディ。
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

// CreateはPOST /token のハンドラ。ログイン中のセッションから発行する。
func (h *TokenHandler) Create(c echo.Context) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return usecase.ErrMissingCredential
	}

	out, err := h.tokens.IssueForUser(c.Request().Context(), sess.UserID, clientMeta(c))
	if err != nil {
		return err
	}

	// refresh cookie
	h.cookies.setRefresh(c, out.RefreshToken)

	return respondData(c, accessTokenResponse{
		AccessToken: out.AccessToken,
		ExpiresIn:   out.ExpiresIn,
	})
}

// RefreshはPOST /token/refresh のハンドラ。失敗したらcookieを消す。
func (h *TokenHandler) Refresh(c echo.Context) error {
	value := refreshValue(c)

	//形が違うものは照合しない
	if !validator.IsRefreshValueLike(value) {
		h.cookies.clearRefresh(c)
		return usecase.ErrInvalidRefreshToken
	}

	out, err := h.tokens.Refresh(c.Request().Context(), value, clientMeta(c))
	if err != nil {
		h.cookies.clearRefresh(c)
		// 持ち主がいない場合もクライアントには同じ応答
		if errors.Is(err, usecase.ErrUserNotFound) {
			return usecase.ErrInvalidRefreshToken.Wrap(err)
		}
		return err
	}

	if out.Rotated() {
		h.cookies.setRefresh(c, out.RefreshToken)
	}

	return respondData(c, accessTokenResponse{
		AccessToken: out.AccessToken,
		ExpiresIn:   out.ExpiresIn,
	})
}

// RevokeはPOST /token/revoke のハンドラ。結果に関係なく200。
func (h *TokenHandler) Revoke(c echo.Context) error {
	value := refreshValue(c)

	revoked := false
	if validator.IsRefreshValueLike(value) {
		ok, err := h.tokens.RevokeOne(c.Request().Context(), value)
		if err != nil {
			c.Logger().Warnj(log.JSON{"msg": "revoke failed", "error": err.Error()})
		}
		revoked = ok
	}

	h.cookies.clearRefresh(c)
	return respondMessage(c, "logged out", map[string]bool{"revoked": revoked})
}

// RevokeAllはPOST /token/revoke-all のハンドラ。全端末からログアウト。
func (h *TokenHandler) RevokeAll(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return usecase.ErrMissingCredential
	}

	count, err := h.tokens.RevokeAll(c.Request().Context(), claims.ID)
	if err != nil {
		return err
	}

	h.cookies.clearRefresh(c)
	return respondMessage(c, fmt.Sprintf("logged out from all devices (%d sessions)", count), map[string]int64{"count": count})
}

// cookieを優先し、無ければJSONボディから取る
func refreshValue(c echo.Context) string {
	if ck, err := c.Cookie(RefreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}
