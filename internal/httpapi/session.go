package httpapi

import (
	"net/http"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/auth"
	"booking-platform/internal/token"
	"booking-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Logout revokes the presented refresh credential and clears the auth
// cookies. It deliberately sits outside the full-auth gate: a caller
// with an expired access token can still end their session.
func (h *Handlers) Logout(typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if refreshTok, err := c.Cookie(auth.CookieRefresh); err == nil && refreshTok != "" {
			if err := h.Refresh.Delete(c.Request.Context(), refreshTok); err != nil {
				logger.FromGin(c).Warn("refresh row delete on logout failed", "err", err)
			}
			claims, verr := h.Tokens.Verify(refreshTok, typ, token.ClassRefresh, time.Now())
			if verr == nil {
				_ = h.Audit.Append(c.Request.Context(), audit.Event{
					Type:          audit.EventTypeTokenRevoked,
					PrincipalType: string(typ),
					PrincipalID:   claims.PrincipalID,
					Identity:      claims.Identity,
					IPAddress:     c.ClientIP(),
					Message:       "logout",
				})
			}
		}

		h.Cookies.ClearAuth(c)
		h.Cookies.ClearStage(c, typ)
		respondData(c, http.StatusOK, gin.H{"loggedOut": true})
	}
}

// Me echoes the authenticated identity. The client flow machinery polls
// this endpoint to reconcile its local login hint with server truth.
func (h *Handlers) Me(typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := auth.IdentityFrom(c.Request.Context())
		if err != nil || id.Type != typ {
			respondError(c, http.StatusUnauthorized, "authentication failed")
			return
		}

		p, err := h.repoFor(typ).FindByID(c.Request.Context(), id.PrincipalID)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "authentication failed")
			return
		}

		respondData(c, http.StatusOK, gin.H{
			"user":     userView(p),
			"userType": string(typ),
		})
	}
}
