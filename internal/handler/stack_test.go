package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"authgate/internal/config"
	"authgate/internal/domain/model"
	"authgate/internal/handler"
	"authgate/internal/infra/db"
	"authgate/internal/infra/oauth"
	infrarepo "authgate/internal/infra/repository"
	"authgate/internal/infra/session"
	"authgate/internal/middleware"
	"authgate/internal/token"
	"authgate/internal/usecase"
	"authgate/internal/validator"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "handler_secret"

// プロバイダの代わり。code=goodだけ通す
type fakeProvider struct {
	name    model.Provider
	profile model.ExternalProfile
}

func (p *fakeProvider) Name() model.Provider { return p.name }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.test/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Authenticate(ctx context.Context, code string) (*model.ExternalProfile, error) {
	if code != "good" {
		return nil, errors.New("bad code")
	}
	prof := p.profile
	return &prof, nil
}

type stack struct {
	e        *echo.Echo
	gdb      *gorm.DB
	mr       *miniredis.Miniredis
	provider *fakeProvider
}

func newStack(t *testing.T) *stack {
	t.Helper()

	gdb, err := db.Connect(config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := session.NewRedisStore(rdb, time.Hour)

	users := infrarepo.NewUserGormRepository(gdb)
	rts := infrarepo.NewRefreshTokenRepository(gdb)
	audits := infrarepo.NewAuditLogGormRepository(gdb)

	issuer := token.NewIssuer(testSecret, 15*time.Minute, nil)
	verifier := token.NewVerifier(testSecret, nil)
	clock := usecase.SystemClock{}
	ids := usecase.UUIDGenerator{}

	tokenUC := usecase.NewTokenUsecase(users, rts, audits, issuer, ids, clock, usecase.TokenOptions{RefreshTTL: 7 * 24 * time.Hour})
	identityUC := usecase.NewIdentityUsecase(users, audits, validator.NewProfileValidator(), ids, clock)
	auditUC := usecase.NewAuditUsecase(audits)

	provider := &fakeProvider{
		name: model.ProviderGitHub,
		profile: model.ExternalProfile{
			ExternalID:  "42",
			Provider:    model.ProviderGitHub,
			DisplayName: "octo",
			Email:       "a@b.com",
		},
	}

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewHTTPErrorHandler(false)

	handler.NewAuthHandler(oauth.NewRegistry(provider), sessions, identityUC, handler.AuthHandlerOptions{
		SessionTTL:  time.Hour,
		FrontendURL: "http://localhost:3000",
		CallbackURL: "http://localhost:8080/auth/callback",
	}).RegisterRoutes(e)
	handler.NewTokenHandler(tokenUC, sessions, verifier, false).RegisterRoutes(e)
	handler.NewAdminHandler(tokenUC, auditUC, verifier).RegisterRoutes(e)
	handler.NewAPIHandler(verifier).RegisterRoutes(e)

	return &stack{e: e, gdb: gdb, mr: mr, provider: provider}
}

type reqOpt func(*http.Request)

func withCookie(name, value string) reqOpt {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func withBearer(tok string) reqOpt {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func withJSON(body string) reqOpt {
	return func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
}

func (s *stack) do(method, target string, opts ...reqOpt) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// OAuthログインしてsidを返す
func (s *stack) login(t *testing.T) string {
	t.Helper()

	rec := s.do(http.MethodGet, "/auth/github")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	rec = s.do(http.MethodGet, "/auth/callback/github?code=good&state="+url.QueryEscape(state))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/profile", rec.Header().Get(echo.HeaderLocation))

	c := findCookie(rec, middleware.SessionCookieName)
	require.NotNil(t, c)
	return c.Value
}

type tokenPair struct {
	access  string
	refresh string
}

// POST /token
func (s *stack) issue(t *testing.T, sid string) tokenPair {
	t.Helper()

	rec := s.do(http.MethodPost, "/token", withCookie(middleware.SessionCookieName, sid))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken string `json:"accessToken"`
			ExpiresIn   int    `json:"expiresIn"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	c := findCookie(rec, handler.RefreshCookieName)
	require.NotNil(t, c)
	return tokenPair{access: body.Data.AccessToken, refresh: c.Value}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}
