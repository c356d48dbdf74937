package httpapi

import (
	"errors"
	"net/http"

	"booking-platform/internal/audit"
	"booking-platform/internal/auth"
	"booking-platform/internal/principal"
	"booking-platform/internal/token"
	"booking-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// Login checks the password and, when it holds, issues a stage
// credential plus a one-time code. Full tokens only appear after the
// OTP step.
func (h *Handlers) Login(typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Identity == "" || req.Password == "" {
			respondErrors(c, http.StatusBadRequest, []string{"identity and password are required"})
			return
		}

		p, err := h.repoFor(typ).FindByIdentity(c.Request.Context(), req.Identity)
		if err != nil {
			if !errors.Is(err, principal.ErrNotFound) {
				logger.FromGin(c).Error("principal lookup failed", "err", err)
				respondError(c, http.StatusInternalServerError, "something went wrong")
				return
			}
			// Fall through to the uniform rejection below.
			p = nil
		}
		if p == nil || !principal.VerifySecret(req.Password, p.SecretHash) {
			_ = h.Audit.LogAuthFailure(c.Request.Context(), string(typ), req.Identity, c.ClientIP(), "password check failed")
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if typ == token.TypeCustomer && !p.Verified {
			respondError(c, http.StatusUnauthorized, "account not verified")
			return
		}

		if err := h.sendNewCode(c.Request.Context(), purposeLogin, typ, p.ID, p.Identity); err != nil {
			logger.FromGin(c).Error("login code dispatch failed", "err", err)
			respondError(c, http.StatusInternalServerError, "could not send verification code")
			return
		}
		if err := h.issueStage(c, typ, p, req.Remember); err != nil {
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		h.logEvent(c.Request.Context(), audit.EventTypeStageIssued, typ, p, "stage credential issued")
		respondData(c, http.StatusOK, gin.H{"stage": "verify-otp"})
	}
}

// LoginVerify completes the flow: it consumes the OTP under the stage
// credential and trades it for the full access+refresh pair.
func (h *Handlers) LoginVerify(typ token.PrincipalType) gin.HandlerFunc {
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

		ok, err := h.Codes.Check(c.Request.Context(), purposeLogin, string(typ), stage.PrincipalID, req.Code)
		if err != nil {
			logger.FromGin(c).Error("otp check failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		if !ok {
			_ = h.Audit.LogAuthFailure(c.Request.Context(), string(typ), stage.Identity, c.ClientIP(), "login otp mismatch")
			respondError(c, http.StatusUnauthorized, "invalid or expired code")
			return
		}

		p, err := h.repoFor(typ).FindByID(c.Request.Context(), stage.PrincipalID)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid or expired code")
			return
		}

		data, err := h.issueFullSession(c, typ, p, stage.Remember)
		if err != nil {
			logger.FromGin(c).Error("session issuance failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		h.Cookies.ClearStage(c, typ)

		h.logEvent(c.Request.Context(), audit.EventTypeLoginSuccess, typ, p, "login completed")
		respondData(c, http.StatusOK, data)
	}
}

// LoginResend re-issues the pending code for a caller stuck mid-flow.
func (h *Handlers) LoginResend(typ token.PrincipalType) gin.HandlerFunc {
	return func(c *gin.Context) {
		stage, err := auth.StageFrom(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusUnauthorized, "verification required")
			return
		}
		if err := h.sendNewCode(c.Request.Context(), purposeLogin, typ, stage.PrincipalID, stage.Identity); err != nil {
			logger.FromGin(c).Error("code resend failed", "err", err)
			respondError(c, http.StatusInternalServerError, "could not send verification code")
			return
		}
		respondData(c, http.StatusOK, gin.H{"resent": true})
	}
}
