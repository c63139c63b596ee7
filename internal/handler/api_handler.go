package handler

import (
	"authgate/internal/middleware"
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
)

// アクセストークンで守られたAPIの例
type APIHandler struct {
	verifier middleware.AccessVerifier
}

func NewAPIHandler(verifier middleware.AccessVerifier) *APIHandler {
	return &APIHandler{verifier: verifier}
}

func (h *APIHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", middleware.AuthJWT(h.verifier))
	api.GET("/me", h.Me)
}

// GET /api/me トークンの中身を返す
func (h *APIHandler) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return usecase.ErrMissingCredential
	}
	return respondData(c, claims)
}
