package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/middleware"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type stubResolver struct {
	byToken map[string]model.Identity
}

func (s *stubResolver) ResolveIdentity(ctx context.Context, token string) model.Identity {
	return s.byToken[token]
}

func newSessionEcho(cfg config.Config, resolver middleware.IdentityResolver) *echo.Echo {
	e := echo.New()
	e.Use(middleware.SessionCookie(resolver, cfg))
	e.GET("/whoami", func(c echo.Context) error {
		identity := middleware.IdentityFromContext(c)
		return c.JSON(http.StatusOK, map[string]string{
			"user_id": identity.UserID,
			"token":   middleware.TokenFromContext(c),
		})
	})
	return e
}

func TestSessionCookie_NoCookieIsGuest(t *testing.T) {
	e := newSessionEcho(config.Config{GoEnv: "dev"}, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":""`)
}

func TestSessionCookie_ValidTokenResolvesIdentity(t *testing.T) {
	resolver := &stubResolver{byToken: map[string]model.Identity{
		"tok": {UserID: "7", Email: "taro@example.com"},
	}}
	e := newSessionEcho(config.Config{GoEnv: "dev"}, resolver)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieToken, Value: "tok"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `"user_id":"7"`)
	assert.Contains(t, rec.Body.String(), `"token":"tok"`)
}

func TestSessionCookie_StaleTokenIsDiscarded(t *testing.T) {
	e := newSessionEcho(config.Config{GoEnv: "dev"}, &stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieToken, Value: "stale"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// ゲストへフォールバックし、資格情報cookieは失効させる
	assert.Contains(t, rec.Body.String(), `"user_id":""`)
	assert.Contains(t, rec.Body.String(), `"token":""`)

	cleared := map[string]bool{}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Value == "" && cookie.Expires.Unix() <= 0 {
			cleared[cookie.Name] = true
		}
	}
	assert.True(t, cleared[middleware.CookieToken])
	assert.True(t, cleared[middleware.CookieUserID])
}

func TestCredentialCookies_ProductionIsSecureStrict(t *testing.T) {
	e := echo.New()
	e.GET("/login", func(c echo.Context) error {
		middleware.SetCredentialCookies(c, config.Config{GoEnv: "prod"}, "tok", model.Identity{
			UserID: "7", Email: "taro@example.com", FirstName: "Taro", LastName: "Yamada",
		})
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	assert.Len(t, cookies, 5)

	names := map[string]*http.Cookie{}
	for _, cookie := range cookies {
		names[cookie.Name] = cookie
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	}

	assert.Equal(t, "tok", names[middleware.CookieToken].Value)
	assert.True(t, names[middleware.CookieToken].HttpOnly)
	assert.Equal(t, "7", names[middleware.CookieUserID].Value)
	assert.Equal(t, "taro@example.com", names[middleware.CookieUserEmail].Value)
	assert.False(t, names[middleware.CookieUserEmail].HttpOnly)
}
