package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/joho/godotenv"

	"github.com/welldanyogia/seatea-inbox/internal/api"
	"github.com/welldanyogia/seatea-inbox/internal/api/middleware"
	"github.com/welldanyogia/seatea-inbox/internal/auth"
	"github.com/welldanyogia/seatea-inbox/internal/cache"
	"github.com/welldanyogia/seatea-inbox/internal/config"
	"github.com/welldanyogia/seatea-inbox/internal/database"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
	"github.com/welldanyogia/seatea-inbox/internal/notify"
	"github.com/welldanyogia/seatea-inbox/internal/repository"
	"github.com/welldanyogia/seatea-inbox/internal/services"
	"github.com/welldanyogia/seatea-inbox/internal/smtp"
	"github.com/welldanyogia/seatea-inbox/internal/websocket"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	secLogger := logger.NewSecurityLoggerFrom(log)

	log.Info("starting Sea & Tea inbox server")
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	// Unread count cache
	var unreadCache cache.UnreadCache = cache.Noop{}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		unreadCache = cache.NewRedisUnreadCache(client, cfg.UnreadCacheTTL)
	}

	tokens, err := auth.NewManager(cfg.JWTSecret)
	if err != nil {
		return err
	}

	// Websocket hub
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	// First-contact notifications and reply addresses
	replies := notify.NewReplyAddresses(cfg.ReplyDomain, cfg.JWTSecret)
	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTPAddr != "" {
		notifier = notify.NewEmailNotifier(notify.EmailConfig{
			SMTPAddr: cfg.SMTPAddr,
			From:     cfg.SMTPFrom,
			BaseURL:  cfg.AppBaseURL,
			Replies:  replies,
			Logger:   log,
		})
	}

	service := services.NewMessageService(services.MessageServiceConfig{
		Users:     repository.NewUserRepository(db),
		Messages:  repository.NewMessageRepository(db),
		Cache:     unreadCache,
		Publisher: hub,
		Notifier:  notifier,
		Logger:    log,
	})

	// HTTP server
	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, 3*time.Minute)

	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Service:        service,
		Tokens:         tokens,
		Hub:            hub,
		Logger:         log,
		SecLogger:      secLogger,
		AllowedOrigins: cfg.Origins(),
		Production:     cfg.AppEnv == "production",
		Limiter:        limiter,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Inbound reply server
	var smtpServer *gosmtp.Server
	if cfg.RepliesEnabled() {
		backend := smtp.NewBackend(&smtp.BackendConfig{
			Replies:   replies,
			Sender:    service,
			Logger:    log,
			SecLogger: secLogger,
		})
		serverCfg := &smtp.ServerConfig{
			Addr:   cfg.InboundSMTPAddr,
			Domain: cfg.ReplyDomain,
		}
		if cfg.InboundTLSCert != "" {
			tlsConfig, expiresAt, err := smtp.LoadTLSConfig(cfg.InboundTLSCert, cfg.InboundTLSKey)
			if err != nil {
				return err
			}
			smtp.CheckExpiry(log, expiresAt, time.Now())
			serverCfg.TLSConfig = tlsConfig
		}
		smtpServer = smtp.NewSecureServer(backend, serverCfg)
		go func() {
			log.Info("inbound reply server listening", slog.String("addr", smtpServer.Addr))
			if err := smtpServer.ListenAndServe(); err != nil && !errors.Is(err, gosmtp.ErrServerClosed) {
				errCh <- fmt.Errorf("smtp server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", slog.Any("error", err))
	}
	if smtpServer != nil {
		if err := smtpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("SMTP shutdown failed", slog.Any("error", err))
		}
	}

	log.Info("server stopped")
	return runErr
}
