package auth

import (
	"net/http"
	"strings"
	"time"

	"booking-platform/internal/token"
	"booking-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireAuth is the full-auth gate. It accepts the access credential
// from the Authorization header or the accessToken cookie, silently
// renews it from the refreshToken cookie when expired, and rejects
// otherwise. The failed branch is logged; the client sees a uniform
// 401 either way.
func RequireAuth(a *Authenticator, typ token.PrincipalType, cookies CookieWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := bearerToken(c)
		if accessToken == "" {
			accessToken, _ = c.Cookie(CookieAccess)
		}
		refreshToken, _ := c.Cookie(CookieRefresh)

		if accessToken == "" || refreshToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no credential"})
			return
		}

		res := a.Check(c.Request.Context(), typ, accessToken, refreshToken, time.Now())
		switch res.Kind {
		case Authenticated:
			// nothing to apply

		case Reissued:
			cookies.SetAccess(c, res.NewAccessToken, res.NewAccessTTL)
			logger.FromGin(c).Info("access token reissued",
				"principal_type", string(typ),
				"principal_id", res.Identity.PrincipalID,
			)

		default:
			logger.FromGin(c).Warn("authentication rejected",
				"principal_type", string(typ),
				"reason", res.Reason,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), res.Identity))
		c.Set("principal_id", res.Identity.PrincipalID)
		c.Next()
	}
}

// RequireStage is the partial-auth gate for endpoints reachable
// mid-flow (resend code, complete verification). It accepts only the
// per-type stage cookie; a full access credential never passes here,
// and a stage credential never passes RequireAuth — the two gates share
// no secrets and no cookie names.
func RequireStage(tokens *token.Manager, typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(StageCookieName(typ))
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "verification required"})
			return
		}

		claims, err := tokens.Verify(raw, typ, token.ClassStage, time.Now())
		if err != nil {
			logger.FromGin(c).Warn("stage credential rejected",
				"principal_type", string(typ),
				"reason", err.Error(),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "verification required"})
			return
		}

		stage := StageIdentity{
			PrincipalID: claims.PrincipalID,
			Identity:    claims.Identity,
			Remember:    claims.Remember,
			Type:        typ,
		}
		c.Request = c.Request.WithContext(WithStage(c.Request.Context(), stage))
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(raw, bearerPrefix)
}
