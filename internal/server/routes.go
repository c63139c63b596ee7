package server

import (
	"github.com/labstack/echo/v4"
)

// 各handlerは自分のルートを持つ
type routeRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

// Handlersはmain.goで組み立てたhandler群
type Handlers struct {
	Auth  routeRegistrar
	Token routeRegistrar
	Admin routeRegistrar
	API   routeRegistrar
}

func (h Handlers) register(e *echo.Echo) {
	for _, r := range []routeRegistrar{h.Auth, h.Token, h.Admin, h.API} {
		if r != nil {
			r.RegisterRoutes(e)
		}
	}
}
