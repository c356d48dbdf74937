// Package httpapi implements the auth endpoints: login and
// registration with OTP verification, forgot-password, logout and the
// authenticated identity echo. Entity CRUD controllers live outside
// this module and consume the identity the middleware attaches.
package httpapi

import (
	"context"
	"database/sql"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/auth"
	"booking-platform/internal/notify"
	"booking-platform/internal/otp"
	"booking-platform/internal/principal"
	"booking-platform/internal/refresh"
	"booking-platform/internal/register"
	"booking-platform/internal/token"

	"github.com/gin-gonic/gin"
)

const (
	purposeLogin  = "login"
	purposeForgot = "forgot"

	// purposeReset marks "forgot OTP verified"; the reset endpoint
	// requires this grant on top of the stage credential so a pre-OTP
	// stage token alone cannot change a password.
	purposeReset = "reset"
	resetGrant   = "granted"
)

// Handlers carries the auth core's collaborators. All endpoints are
// parameterized by principal type; admin and customer differ only in
// which repository and secret family back them.
type Handlers struct {
	Tokens    *token.Manager
	Refresh   refresh.Store
	Pending   register.Store
	Admins    principal.Repository
	Customers principal.Repository
	Codes     *otp.Store
	Notifier  notify.Notifier
	Audit     *audit.Service
	Cookies   auth.CookieWriter

	// DB, when set, makes pending-registration promotion transactional.
	// Tests with in-memory stores leave it nil and get the sequential
	// path.
	DB *sql.DB

	CodeTTL time.Duration
}

func (h *Handlers) repoFor(typ token.PrincipalType) principal.Repository {
	if typ == token.TypeAdmin {
		return h.Admins
	}
	return h.Customers
}

// sendNewCode generates, stores and dispatches a fresh one-time code.
func (h *Handlers) sendNewCode(ctx context.Context, purpose string, typ token.PrincipalType, principalID, identity string) error {
	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	if err := h.Codes.Put(ctx, purpose, string(typ), principalID, code, h.CodeTTL); err != nil {
		return err
	}
	return h.Notifier.SendCode(ctx, identity, code)
}

// issueStage sets the per-type stage cookie representing "password
// verified, OTP pending".
func (h *Handlers) issueStage(c *gin.Context, typ token.PrincipalType, p *principal.Principal, remember bool) error {
	stageTok, ttl, err := h.Tokens.Issue(time.Now(), typ, token.ClassStage, token.Subject{
		ID:       p.ID,
		Identity: p.Identity,
		Remember: remember,
	})
	if err != nil {
		return err
	}
	h.Cookies.SetStage(c, typ, stageTok, ttl)
	return nil
}

// issueFullSession mints the access+refresh pair, persists the refresh
// row and applies both cookies. It returns the envelope payload.
func (h *Handlers) issueFullSession(c *gin.Context, typ token.PrincipalType, p *principal.Principal, remember bool) (gin.H, error) {
	now := time.Now()
	subj := token.Subject{ID: p.ID, Identity: p.Identity}

	access, accessTTL, err := h.Tokens.Issue(now, typ, token.ClassAccess, subj)
	if err != nil {
		return nil, err
	}
	refreshTok, refreshTTL, err := h.Tokens.Issue(now, typ, token.ClassRefresh, subj)
	if err != nil {
		return nil, err
	}
	err = h.Refresh.Create(c.Request.Context(), refresh.Token{
		Token:         refreshTok,
		PrincipalID:   p.ID,
		PrincipalType: string(typ),
		ExpiresAt:     now.Add(refreshTTL),
	})
	if err != nil {
		return nil, err
	}

	h.Cookies.SetAccess(c, access, accessTTL)
	h.Cookies.SetRefresh(c, refreshTok, refreshTTL, remember)

	return gin.H{
		"user":         userView(p),
		"accessToken":  access,
		"refreshToken": refreshTok,
		"userType":     string(typ),
	}, nil
}

// logEvent records a best-effort audit entry for a known principal.
func (h *Handlers) logEvent(ctx context.Context, t audit.EventType, typ token.PrincipalType, p *principal.Principal, msg string) {
	_ = h.Audit.Append(ctx, audit.Event{
		Type:          t,
		PrincipalType: string(typ),
		PrincipalID:   p.ID,
		Identity:      p.Identity,
		Message:       msg,
	})
}

func userView(p *principal.Principal) gin.H {
	return gin.H{
		"id":       p.ID,
		"identity": p.Identity,
		"name":     p.Name,
	}
}
