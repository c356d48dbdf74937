package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booking-platform/internal/audit"
	"booking-platform/internal/auth"
	"booking-platform/internal/config"
	"booking-platform/internal/httpapi"
	"booking-platform/internal/janitor"
	"booking-platform/internal/migrations"
	"booking-platform/internal/notify"
	"booking-platform/internal/otp"
	"booking-platform/internal/principal"
	"booking-platform/internal/ratelimit"
	"booking-platform/internal/refresh"
	"booking-platform/internal/register"
	"booking-platform/internal/token"
	"booking-platform/pkg/logger"
	"booking-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional local env file; real deployments inject env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := token.NewManager(cfg.Auth)
	if err != nil {
		log.Error("token manager init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(rootCtx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	refreshStore := refresh.NewPostgresStore(db)
	pendingStore := register.NewPostgresStore(db)

	handlers := &httpapi.Handlers{
		Tokens:    tokens,
		Refresh:   refreshStore,
		Pending:   pendingStore,
		Admins:    principal.NewAdminRepository(db),
		Customers: principal.NewCustomerRepository(db),
		Codes:     otp.NewStore(rdb),
		Notifier:  notify.NewLoggerNotifier(log),
		Audit:     audit.NewService(audit.NewPostgresRepo(db)),
		Cookies: auth.CookieWriter{
			Domain: cfg.Auth.CookieDomain,
			Secure: cfg.Auth.CookieSecure,
		},
		DB:      db,
		CodeTTL: cfg.Auth.OTPCodeTTL,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpapi.Mount(r, httpapi.RouterDeps{
		Handlers:     handlers,
		Tokens:       tokens,
		Auth:         auth.NewAuthenticator(tokens, refreshStore),
		LoginLimiter: ratelimit.PerIP(rdb, "auth", 10, time.Minute),
	})

	// Background reclamation of expired refresh rows and stale sign-ups.
	jan := janitor.New(cfg.Janitor, refreshStore, pendingStore, log)
	go jan.Run(rootCtx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
