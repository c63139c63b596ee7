package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"authgate/internal/domain/model"
	"authgate/internal/infra/oauth"
	"authgate/internal/middleware"
	repo "authgate/internal/repository"
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// 設定済みのOAuthプロバイダ一覧
type ProviderRegistry interface {
	Get(name model.Provider) (oauth.Provider, error)
	Names() []model.Provider
}

// handlerが使うユーザー操作
type IdentityService interface {
	Upsert(ctx context.Context, p model.ExternalProfile) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

type AuthHandler struct {
	providers   ProviderRegistry
	sessions    repo.SessionStore
	identity    IdentityService
	cookies     cookieWriter
	frontendURL string
	baseURL     string
}

type AuthHandlerOptions struct {
	CookieSecure bool
	SessionTTL   time.Duration
	FrontendURL  string
	// CALLBACK_URL（/auth/callback）から公開URLを作る
	CallbackURL string
}

// DIコンストラクタ
func NewAuthHandler(
	providers ProviderRegistry,
	sessions repo.SessionStore,
	identity IdentityService,
	opts AuthHandlerOptions,
) *AuthHandler {
	base := opts.CallbackURL
	if i := strings.Index(base, "/auth/callback"); i >= 0 {
		base = base[:i]
	}
	return &AuthHandler{
		providers:   providers,
		sessions:    sessions,
		identity:    identity,
		cookies:     cookieWriter{secure: opts.CookieSecure, sessionTTL: opts.SessionTTL},
		frontendURL: opts.FrontendURL,
		baseURL:     strings.TrimRight(base, "/"),
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Banner)
	e.GET("/profile", h.Profile, middleware.SessionAuth(h.sessions))

	g := e.Group("/auth")
	g.GET("/status", h.Status)
	g.GET("/urls", h.URLs)
	g.GET("/logout", h.Logout)
	g.GET("/error", h.Error)
	g.GET("/:provider", h.Start)
	g.GET("/callback/:provider", h.Callback)
}

// GET / サービス情報
func (h *AuthHandler) Banner(c echo.Context) error {
	return respondData(c, map[string]string{
		"message": "Authentication service API",
		"version": "1.0.0",
		"status":  "online",
	})
}

// GET /auth/:provider stateを保存してプロバイダへリダイレクト
func (h *AuthHandler) Start(c echo.Context) error {
	p, err := h.providers.Get(model.Provider(c.Param("provider")))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}

	state, err := oauth.NewState()
	if err != nil {
		return usecase.ErrInternal.Wrap(err)
	}
	if err := h.sessions.SaveState(c.Request().Context(), state, p.Name()); err != nil {
		return usecase.ErrStoreUnavailable.Wrap(err)
	}

	return c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

// GET /auth/callback/:provider 失敗は /auth/error にリダイレクト
func (h *AuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := h.providers.Get(model.Provider(c.Param("provider")))
	if err != nil {
		return h.failRedirect(c, "unknown provider", err)
	}

	if msg := c.QueryParam("error"); msg != "" {
		return h.failRedirect(c, msg, nil)
	}

	//stateは1回だけ。別プロバイダのstateも拒否
	provider, err := h.sessions.ConsumeState(ctx, c.QueryParam("state"))
	if err != nil || provider != p.Name() {
		return h.failRedirect(c, "invalid state", err)
	}

	code := c.QueryParam("code")
	if code == "" {
		return h.failRedirect(c, "missing code", nil)
	}

	profile, err := p.Authenticate(ctx, code)
	if err != nil {
		return h.failRedirect(c, "authentication failed", err)
	}

	user, err := h.identity.Upsert(ctx, *profile)
	if err != nil {
		if errors.Is(err, usecase.ErrConflict) {
			return h.failRedirect(c, "email already linked to another account", err)
		}
		return h.failRedirect(c, "login failed", err)
	}

	//古いセッションは捨てて作り直す
	if old, cerr := c.Cookie(middleware.SessionCookieName); cerr == nil && old.Value != "" {
		if derr := h.sessions.Delete(ctx, old.Value); derr != nil {
			c.Logger().Warnj(log.JSON{"msg": "old session delete failed", "error": derr.Error()})
		}
	}

	sess, err := h.sessions.Create(ctx, user.ID, user.Provider)
	if err != nil {
		return h.failRedirect(c, "session unavailable", err)
	}
	h.cookies.setSession(c, sess.ID)

	return c.Redirect(http.StatusFound, "/profile")
}

func (h *AuthHandler) failRedirect(c echo.Context, msg string, cause error) error {
	fields := log.JSON{"msg": "oauth callback failed", "reason": msg, "provider": c.Param("provider")}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	c.Logger().Warnj(fields)

	return c.Redirect(http.StatusFound, "/auth/error?message="+url.QueryEscape(msg))
}

// GET /auth/error
func (h *AuthHandler) Error(c echo.Context) error {
	msg := c.QueryParam("message")
	if msg == "" {
		msg = "an error occurred"
	}
	return c.JSON(http.StatusBadRequest, middleware.ErrorBody{
		Success: false,
		Code:    "OAUTH_FAILED",
		Message: msg,
	})
}

type authStatusResponse struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            *model.User `json:"user,omitempty"`
}

// GET /auth/status
func (h *AuthHandler) Status(c echo.Context) error {
	sess, err := middleware.LoadSession(c, h.sessions)
	if err != nil {
		if errors.Is(err, usecase.ErrMissingCredential) {
			return respondData(c, authStatusResponse{IsAuthenticated: false})
		}
		return err
	}

	user, err := h.identity.GetUser(c.Request().Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			return respondData(c, authStatusResponse{IsAuthenticated: false})
		}
		return err
	}
	return respondData(c, authStatusResponse{IsAuthenticated: true, User: user})
}

// GET /auth/urls 有効なプロバイダのログインURL
func (h *AuthHandler) URLs(c echo.Context) error {
	urls := make(map[string]string)
	for _, name := range h.providers.Names() {
		urls[string(name)] = h.baseURL + "/auth/" + string(name)
	}
	return respondData(c, urls)
}

// GET /auth/logout セッションを消してフロントへ戻す
func (h *AuthHandler) Logout(c echo.Context) error {
	if ck, err := c.Cookie(middleware.SessionCookieName); err == nil && ck.Value != "" {
		if err := h.sessions.Delete(c.Request().Context(), ck.Value); err != nil {
			return usecase.ErrStoreUnavailable.Wrap(err)
		}
	}
	h.cookies.clearSession(c)

	dest := h.frontendURL
	if dest == "" {
		dest = "/"
	}
	return c.Redirect(http.StatusFound, dest)
}

// GET /profile セッション必須
func (h *AuthHandler) Profile(c echo.Context) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return usecase.ErrMissingCredential
	}

	user, err := h.identity.GetUser(c.Request().Context(), sess.UserID)
	if err != nil {
		return err
	}
	return respondData(c, map[string]any{"user": user})
}
