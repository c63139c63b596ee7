package handler

import (
	"net/http"

	"authgate/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// 成功時のレスポンス形
type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondData(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, successBody{Success: true, Data: data})
}

func respondMessage(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, successBody{Success: true, Message: msg, Data: data})
}

// リクエスト元（refresh tokenと監査に残す）
func clientMeta(c echo.Context) model.ClientMeta {
	return model.ClientMeta{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}
