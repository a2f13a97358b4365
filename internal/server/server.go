package server

import (
	"bookstore/internal/config"
	"bookstore/internal/handler"
	"bookstore/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ハンドラ一式。mainで組み立ててここへ渡す。
type Handlers struct {
	Auth     *handler.AuthHandler
	Book     *handler.BookHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Events   *handler.EventsHandler
}

// New はルーティング済みのechoを返す（テストからも使う）。
func New(cfg config.Config, resolver middleware.IdentityResolver, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	// 全ルートでcookieから利用者を解決する
	e.Use(middleware.SessionCookie(resolver, cfg))

	RegisterRoutes(e, h)
	return e
}

// Start はサーバーを起動する。
func Start(cfg config.Config, resolver middleware.IdentityResolver, h Handlers) error {
	e := New(cfg, resolver, h)
	return e.Start(":" + cfg.Port)
}
