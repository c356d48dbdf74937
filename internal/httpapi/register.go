package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/otp"
	"booking-platform/internal/principal"
	"booking-platform/internal/register"
	"booking-platform/internal/token"
	"booking-platform/pkg/logger"
	"booking-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerRequest struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register opens a customer sign-up. The account stays in the pending
// store until the emailed code is entered; re-registering the same
// identity before that replaces the earlier attempt.
func (h *Handlers) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Identity == "" || req.Password == "" {
			respondErrors(c, http.StatusBadRequest, []string{"identity and password are required"})
			return
		}

		// An identity that already completed registration cannot re-enter
		// the pending pipeline.
		if _, err := h.Customers.FindByIdentity(c.Request.Context(), req.Identity); err == nil {
			respondError(c, http.StatusConflict, "account already exists")
			return
		} else if !errors.Is(err, principal.ErrNotFound) {
			logger.FromGin(c).Error("customer lookup failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		hash, err := principal.HashSecret(req.Password)
		if err != nil {
			logger.FromGin(c).Error("password hash failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		code, err := otp.NewCode()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		now := time.Now()
		p := &register.Pending{
			ID:            uuid.NewString(),
			Identity:      req.Identity,
			Name:          req.Name,
			SecretHash:    hash,
			Code:          code,
			CodeExpiresAt: now.Add(h.CodeTTL),
			CreatedAt:     now,
		}
		if err := h.Pending.Create(c.Request.Context(), p); err != nil {
			logger.FromGin(c).Error("pending registration create failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		if err := h.Notifier.SendCode(c.Request.Context(), p.Identity, code); err != nil {
			logger.FromGin(c).Error("registration code dispatch failed", "err", err)
			respondError(c, http.StatusInternalServerError, "could not send verification code")
			return
		}

		respondData(c, http.StatusAccepted, gin.H{"identity": p.Identity, "stage": "verify-registration"})
	}
}

// RegisterVerify consumes the sign-up code and promotes the pending row
// to a real customer. The promotion is transactional when a database
// handle is configured; a crash between insert and delete must not
// leave both rows behind.
func (h *Handlers) RegisterVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Identity string `json:"identity"`
			Code     string `json:"code"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Identity == "" || req.Code == "" {
			respondErrors(c, http.StatusBadRequest, []string{"identity and code are required"})
			return
		}

		pending, err := h.Pending.FindByIdentity(c.Request.Context(), req.Identity)
		if err != nil {
			if errors.Is(err, register.ErrNotFound) {
				respondError(c, http.StatusUnauthorized, "invalid or expired code")
				return
			}
			logger.FromGin(c).Error("pending lookup failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		now := time.Now()
		if pending.Code != req.Code || now.After(pending.CodeExpiresAt) {
			_ = h.Audit.LogAuthFailure(c.Request.Context(), string(token.TypeCustomer), req.Identity, c.ClientIP(), "registration code mismatch")
			respondError(c, http.StatusUnauthorized, "invalid or expired code")
			return
		}

		cust := &principal.Principal{
			ID:         pending.ID,
			Identity:   pending.Identity,
			Name:       pending.Name,
			SecretHash: pending.SecretHash,
			Verified:   true,
			CreatedAt:  now,
		}
		if err := h.promote(c, cust, pending.ID); err != nil {
			logger.FromGin(c).Error("pending promotion failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		// The new customer is logged in straight away; the code entry
		// already proved control of the identity.
		data, err := h.issueFullSession(c, token.TypeCustomer, cust, false)
		if err != nil {
			logger.FromGin(c).Error("session issuance failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}

		h.logEvent(c.Request.Context(), audit.EventTypeRegistration, token.TypeCustomer, cust, "registration verified")
		respondData(c, http.StatusCreated, data)
	}
}

// promote moves a verified pending row into the customers table.
func (h *Handlers) promote(c *gin.Context, cust *principal.Principal, pendingID string) error {
	ctx := c.Request.Context()

	customers, custOK := h.Customers.(*principal.PostgresRepository)
	pendings, pendOK := h.Pending.(*register.PostgresStore)
	if h.DB != nil && custOK && pendOK {
		return utils.WithTx(ctx, h.DB, nil, func(ctx context.Context, tx *sql.Tx) error {
			if err := customers.WithDB(tx).Create(ctx, cust); err != nil {
				return err
			}
			return pendings.WithDB(tx).Delete(ctx, pendingID)
		})
	}

	if err := h.Customers.Create(ctx, cust); err != nil {
		return err
	}
	return h.Pending.Delete(ctx, pendingID)
}

// RegisterResend replaces the pending code for an identity that never
// received (or lost) the first one.
func (h *Handlers) RegisterResend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Identity string `json:"identity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Identity == "" {
			respondErrors(c, http.StatusBadRequest, []string{"identity is required"})
			return
		}

		pending, err := h.Pending.FindByIdentity(c.Request.Context(), req.Identity)
		if err != nil {
			// Do not reveal whether a sign-up exists.
			respondData(c, http.StatusOK, gin.H{"resent": true})
			return
		}

		code, err := otp.NewCode()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		if err := h.Pending.UpdateCode(c.Request.Context(), pending.ID, code, time.Now().Add(h.CodeTTL)); err != nil {
			logger.FromGin(c).Error("pending code update failed", "err", err)
			respondError(c, http.StatusInternalServerError, "something went wrong")
			return
		}
		if err := h.Notifier.SendCode(c.Request.Context(), pending.Identity, code); err != nil {
			logger.FromGin(c).Error("registration code dispatch failed", "err", err)
			respondError(c, http.StatusInternalServerError, "could not send verification code")
			return
		}
		respondData(c, http.StatusOK, gin.H{"resent": true})
	}
}
