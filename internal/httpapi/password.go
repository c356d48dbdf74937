package httpapi

import (
	"net/http"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/auth"
	"booking-platform/internal/principal"
	"booking-platform/internal/token"
	"booking-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Forgot starts a password reset. The response is identical whether or
// not the identity exists; only real accounts get a stage cookie and a
// code.
func (h *Handlers) Forgot(typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Identity string `json:"identity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Identity == "" {
			respondErrors(c, http.StatusBadRequest, []string{"identity is required"})
			return
		}

		p, err := h.repoFor(typ).FindByIdentity(c.Request.Context(), req.Identity)
		if err != nil {
			respondData(c, http.StatusOK, gin.H{"sent": true})
			return
		}

		if err := h.sendNewCode(c.Request.Context(), purposeForgot, typ, p.ID, p.Identity); err != nil {
			logger.FromGin(c).Error("forgot code dispatch failed", "err", err)
			respondError(c, http.StatusInternalServerError, "could not send verification code")
			return
		}
		if err := h.issueStage(c, typ, p, false); err != nil {
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		h.logEvent(c.Request.Context(), audit.EventTypeStageIssued, typ, p, "forgot-password stage issued")
		respondData(c, http.StatusOK, gin.H{"sent": true})
	}
}

// ForgotVerify consumes the forgot code and records a short-lived reset
// grant. The stage credential alone never unlocks the reset endpoint;
// only this grant does.
func (h *Handlers) ForgotVerify(typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		stage, err := auth.StageFrom(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusUnauthorized, "verification required")
			return
		}

		var req struct {
			Code string `json:"code"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
			respondErrors(c, http.StatusBadRequest, []string{"code is required"})
			return
		}

		ok, err := h.Codes.Check(c.Request.Context(), purposeForgot, string(typ), stage.PrincipalID, req.Code)
		if err != nil {
			logger.FromGin(c).Error("otp check failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		if !ok {
			_ = h.Audit.LogAuthFailure(c.Request.Context(), string(typ), stage.Identity, c.ClientIP(), "forgot otp mismatch")
			respondError(c, http.StatusUnauthorized, "invalid or expired code")
			return
		}

		if err := h.Codes.Put(c.Request.Context(), purposeReset, string(typ), stage.PrincipalID, resetGrant, h.CodeTTL); err != nil {
			logger.FromGin(c).Error("reset grant store failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		respondData(c, http.StatusOK, gin.H{"stage": "new-password"})
	}
}

// ForgotReset sets a new password. It requires both the stage credential
// and the reset grant, replaces the secret hash, and revokes every
// outstanding session for the principal.
func (h *Handlers) ForgotReset(typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		stage, err := auth.StageFrom(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusUnauthorized, "verification required")
			return
		}

		var req struct {
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
			respondErrors(c, http.StatusBadRequest, []string{"password is required"})
			return
		}

		ok, err := h.Codes.Check(c.Request.Context(), purposeReset, string(typ), stage.PrincipalID, resetGrant)
		if err != nil {
			logger.FromGin(c).Error("reset grant check failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		if !ok {
			_ = h.Audit.LogAuthFailure(c.Request.Context(), string(typ), stage.Identity, c.ClientIP(), "reset without verified forgot code")
			respondError(c, http.StatusUnauthorized, "verification required")
			return
		}

		hash, err := principal.HashSecret(req.Password)
		if err != nil {
			logger.FromGin(c).Error("password hash failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		if err := h.repoFor(typ).UpdateSecret(c.Request.Context(), stage.PrincipalID, hash); err != nil {
			logger.FromGin(c).Error("secret update failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		// Old sessions die with the old password.
		if err := h.Refresh.DeleteByPrincipal(c.Request.Context(), string(typ), stage.PrincipalID); err != nil {
			logger.FromGin(c).Error("session revocation failed", "err", err)
		}

		h.Cookies.ClearStage(c, typ)
		h.Cookies.ClearAuth(c)

		_ = h.Audit.Append(c.Request.Context(), audit.Event{
			Type:          audit.EventTypePasswordReset,
			PrincipalType: string(typ),
			PrincipalID:   stage.PrincipalID,
			Identity:      stage.Identity,
			IPAddress:     c.ClientIP(),
			Message:       "password reset, all sessions revoked",
			CreatedAt:     time.Now(),
		})
		respondData(c, http.StatusOK, gin.H{"reset": true})
	}
}
