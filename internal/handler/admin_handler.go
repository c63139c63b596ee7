package handler

import (
	"context"
	"strconv"
	"time"

	"authgate/internal/domain/model"
	"authgate/internal/middleware"
	repo "authgate/internal/repository"
	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
)

type TokenSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

type AuditService interface {
	List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error)
}

type AdminHandler struct {
	sweeper  TokenSweeper
	audit    AuditService
	verifier middleware.AccessVerifier
}

func NewAdminHandler(sweeper TokenSweeper, audit AuditService, verifier middleware.AccessVerifier) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, audit: audit, verifier: verifier}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo) {
	// /admin 配下は全部「JWT必須 + admin限定」
	admin := e.Group(
		"/admin",
		middleware.AuthJWT(h.verifier),
		middleware.RequireRole(string(model.RoleAdmin)),
	)

	admin.POST("/tokens/sweep", h.Sweep)
	admin.GET("/audit-logs", h.ListAuditLogs)
}

// POST /admin/tokens/sweep
func (h *AdminHandler) Sweep(c echo.Context) error {
	deleted, err := h.sweeper.Sweep(c.Request().Context())
	if err != nil {
		return err
	}
	return respondData(c, map[string]int64{"deleted": deleted})
}

// GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c echo.Context) error {
	filter, err := parseAuditFilter(c)
	if err != nil {
		return usecase.ErrValidation.Wrap(err)
	}

	logs, err := h.audit.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respondData(c, map[string]any{"items": logs})
}

func parseAuditFilter(c echo.Context) (repo.AuditLogFilter, error) {
	var f repo.AuditLogFilter

	if v := c.QueryParam("actor_user_id"); v != "" {
		f.ActorUserID = &v
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resource_type"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if v := c.QueryParam("resource_id"); v != "" {
		f.ResourceID = &v
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.CreatedFrom = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, err
		}
		f.CreatedTo = &t
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, err
		}
		f.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, err
		}
		f.Offset = n
	}
	return f, nil
}
