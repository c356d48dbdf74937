package httpapi

import (
	"booking-platform/internal/auth"
	"booking-platform/internal/token"

	"github.com/gin-gonic/gin"
)

// RouterDeps bundles what route registration needs beyond the handlers
// themselves.
type RouterDeps struct {
	Handlers *Handlers
	Tokens   *token.Manager
	Auth     *auth.Authenticator

	// LoginLimiter, when non-nil, throttles the credential-bearing
	// entry points (login, forgot).
	LoginLimiter gin.HandlerFunc
}

// Mount registers the auth API under /v1/auth. Admin and customer get
// parallel groups backed by their own secret families; only customers
// can self-register.
func Mount(r gin.IRouter, d RouterDeps) {
	h := d.Handlers

	limited := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if d.LoginLimiter == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{d.LoginLimiter, fn}
	}

	for _, typ := range []token.PrincipalType{token.TypeAdmin, token.TypeCustomer} {
		g := r.Group("/v1/auth/" + string(typ))

		stageGate := auth.RequireStage(d.Tokens, typ)
		fullGate := auth.RequireAuth(d.Auth, typ, h.Cookies)

		g.POST("/login", limited(h.Login(typ))...)
		g.POST("/login/verify", stageGate, h.LoginVerify(typ))
		g.POST("/login/resend", stageGate, h.LoginResend(typ))

		g.POST("/forgot", limited(h.Forgot(typ))...)
		g.POST("/forgot/verify", stageGate, h.ForgotVerify(typ))
		g.POST("/forgot/reset", stageGate, h.ForgotReset(typ))

		g.POST("/logout", h.Logout(typ))
		g.GET("/me", fullGate, h.Me(typ))

		if typ == token.TypeCustomer {
			g.POST("/register", limited(h.Register())...)
			g.POST("/register/verify", h.RegisterVerify())
			g.POST("/register/resend", h.RegisterResend())
		}
	}
}
