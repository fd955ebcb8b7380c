package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"

	"github.com/Skotchmaster/quota_portal/internal/apiclient"
	"github.com/Skotchmaster/quota_portal/internal/audit"
	"github.com/Skotchmaster/quota_portal/internal/config"
	"github.com/Skotchmaster/quota_portal/internal/handlers"
	"github.com/Skotchmaster/quota_portal/internal/logging"
	"github.com/Skotchmaster/quota_portal/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/quota_portal/internal/middleware/logging"
	"github.com/Skotchmaster/quota_portal/internal/session"
	httpserver "github.com/Skotchmaster/quota_portal/internal/transport/http"
	"github.com/Skotchmaster/quota_portal/internal/web"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to an optional .env file")
	addr := pflag.String("addr", "", "listen address, overrides WEB_ADDR")
	pflag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		log.Fatal(err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := session.Open(ctx, cfg.SessionDSN)
	cancel()
	if err != nil {
		logger.Error("session store init failed", "error", err)
		os.Exit(1)
	}
	store := session.NewGormStore(db)

	var publisher audit.Publisher = audit.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("audit events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	api := apiclient.New(cfg.APIURL, nil, apiclient.WithTimeout(cfg.APITimeout))

	e := echo.New()
	e.HideBanner = true
	e.Renderer = web.MustRenderer()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Secure(),
		loggingmw.RequestLogger(logger),
		csrf.Middleware(csrf.Config{Secure: cfg.CookieSecure, EnforceSameOrigin: true}),
	)

	deps := httpserver.Deps{
		Handler: &handlers.Handler{
			API:          api,
			Sessions:     store,
			Audit:        publisher,
			CookieSecure: cfg.CookieSecure,
		},
		Sessions: store,
		Ready: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("portal listening", "addr", cfg.ListenAddr, "api", api.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := store.Close(); err != nil {
		logger.Error("session store close error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("audit publisher close error", "error", err)
	}

	logger.Info("shutdown complete")
}
