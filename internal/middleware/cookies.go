package middleware

import (
	"net/http"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"

	"github.com/labstack/echo/v4"
)

const (
	CookieToken     = "token"
	CookieUserID    = "userId"
	CookieUserEmail = "userEmail"
	CookieFirstName = "firstName"
	CookieLastName  = "lastName"

	cookieMaxAge = 7 * 24 * time.Hour
)

var credentialCookies = []string{
	CookieToken, CookieUserID, CookieUserEmail, CookieFirstName, CookieLastName,
}

// SetCredentialCookies はログイン成功時にトークンと表示用情報をクッキーへ保存する
func SetCredentialCookies(c echo.Context, cfg config.Config, token string, identity model.Identity) {
	expires := time.Now().Add(cookieMaxAge)
	setCookie(c, cfg, CookieToken, token, expires)
	setCookie(c, cfg, CookieUserID, identity.UserID, expires)
	setCookie(c, cfg, CookieUserEmail, identity.Email, expires)
	setCookie(c, cfg, CookieFirstName, identity.FirstName, expires)
	setCookie(c, cfg, CookieLastName, identity.LastName, expires)
}

// ClearCredentialCookies はログアウトやトークン失効時に資格情報クッキーを消す
func ClearCredentialCookies(c echo.Context, cfg config.Config) {
	expired := time.Unix(0, 0)
	for _, name := range credentialCookies {
		setCookie(c, cfg, name, "", expired)
	}
}

func setCookie(c echo.Context, cfg config.Config, name, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: name == CookieToken,
	}
	if cfg.IsProduction() {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	c.SetCookie(cookie)
}
