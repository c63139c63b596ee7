package middleware

import (
	"errors"
	"net/http"
	"strings"

	"authgate/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// エラー時のレスポンス形
type ErrorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// NewHTTPErrorHandler はAppError/echo.HTTPError/その他を1か所でJSONにする。
// production以外では5xxにdetailを付ける。
func NewHTTPErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body, status, cause := toErrorBody(err)

		if status >= http.StatusInternalServerError {
			c.Logger().Errorj(log.JSON{
				"msg":    "request failed",
				"method": c.Request().Method,
				"path":   c.Path(),
				"code":   body.Code,
				"error":  errString(cause),
			})
			if !production && cause != nil {
				body.Detail = cause.Error()
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			c.Logger().Error(werr)
		}
	}
}

func toErrorBody(err error) (ErrorBody, int, error) {
	if ae, ok := usecase.AsAppError(err); ok {
		return ErrorBody{Code: ae.Code, Message: ae.Message}, ae.Status, ae.Err
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		return ErrorBody{Code: statusCode(he.Code), Message: msg}, he.Code, he.Internal
	}

	return ErrorBody{Code: usecase.ErrInternal.Code, Message: usecase.ErrInternal.Message}, http.StatusInternalServerError, err
}

// 404 -> NOT_FOUND のようにする
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return usecase.ErrInternal.Code
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
