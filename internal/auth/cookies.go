package auth

import (
	"net/http"
	"time"

	"booking-platform/internal/token"

	"github.com/gin-gonic/gin"
)

// Cookie names. Access and refresh are shared across principal types
// because admin and customer sessions live on different hosts; the
// stage cookie is per type so a customer mid-OTP cannot collide with an
// admin mid-OTP during local development.
const (
	CookieAccess  = "accessToken"
	CookieRefresh = "refreshToken"
)

func StageCookieName(typ token.PrincipalType) string {
	if typ == token.TypeAdmin {
		return "admin_verify_stage"
	}
	return "customer_verify_stage"
}

// CookieWriter applies credential cookies with consistent attributes.
type CookieWriter struct {
	Domain string
	Secure bool
}

func (w CookieWriter) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", w.Domain, w.Secure, true)
}

func (w CookieWriter) SetAccess(c *gin.Context, tok string, ttl time.Duration) {
	w.set(c, CookieAccess, tok, int(ttl.Seconds()))
}

// SetRefresh sets the refresh cookie. Without remember the cookie is
// session-scoped: the credential survives server-side but the browser
// drops it when the session ends.
func (w CookieWriter) SetRefresh(c *gin.Context, tok string, ttl time.Duration, remember bool) {
	maxAge := 0
	if remember {
		maxAge = int(ttl.Seconds())
	}
	w.set(c, CookieRefresh, tok, maxAge)
}

func (w CookieWriter) SetStage(c *gin.Context, typ token.PrincipalType, tok string, ttl time.Duration) {
	w.set(c, StageCookieName(typ), tok, int(ttl.Seconds()))
}

func (w CookieWriter) ClearAuth(c *gin.Context) {
	w.set(c, CookieAccess, "", -1)
	w.set(c, CookieRefresh, "", -1)
}

func (w CookieWriter) ClearStage(c *gin.Context, typ token.PrincipalType) {
	w.set(c, StageCookieName(typ), "", -1)
}
