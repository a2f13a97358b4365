package middleware

import (
	"context"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"

	"github.com/labstack/echo/v4"
)

const (
	CtxIdentityKey = "identity" // model.Identity
	CtxTokenKey    = "token"    // string（ゲストなら空）
)

// 資格情報から現在の利用者を判定する約束
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) model.Identity
}

// SessionCookie はtokenクッキーを読んで利用者をcontextへ入れる。
// トークンが無効・期限切れならクッキーを破棄してゲスト扱いにする
// （古いトークンのせいでカートが空に見える事故を防ぐ）。
func SessionCookie(resolver IdentityResolver, cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieToken)
			if err != nil || cookie.Value == "" {
				c.Set(CtxIdentityKey, model.Anonymous)
				c.Set(CtxTokenKey, "")
				return next(c)
			}

			identity := resolver.ResolveIdentity(c.Request().Context(), cookie.Value)
			if identity.IsAnonymous() {
				// 無効な資格情報は破棄する
				ClearCredentialCookies(c, cfg)
				c.Set(CtxTokenKey, "")
			} else {
				c.Set(CtxTokenKey, cookie.Value)
			}

			c.Set(CtxIdentityKey, identity)
			return next(c)
		}
	}
}

// contextから利用者を取り出す
func IdentityFromContext(c echo.Context) model.Identity {
	if v, ok := c.Get(CtxIdentityKey).(model.Identity); ok {
		return v
	}
	return model.Anonymous
}

// contextからトークンを取り出す（ゲストなら空）
func TokenFromContext(c echo.Context) string {
	if v, ok := c.Get(CtxTokenKey).(string); ok {
		return v
	}
	return ""
}
