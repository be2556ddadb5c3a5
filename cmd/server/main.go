package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/portfolio/internal"
	"github.com/dukerupert/portfolio/internal/email"
	"github.com/dukerupert/portfolio/internal/handler"
	"github.com/dukerupert/portfolio/internal/handler/api"
	"github.com/dukerupert/portfolio/internal/handler/site"
	"github.com/dukerupert/portfolio/internal/middleware"
	"github.com/dukerupert/portfolio/internal/router"
	"github.com/dukerupert/portfolio/internal/routes"
	"github.com/dukerupert/portfolio/internal/service"
	"github.com/dukerupert/portfolio/internal/telemetry"
	"github.com/dukerupert/portfolio/web"
)

// shutdownTimeout bounds draining requests and pending confirmations.
const shutdownTimeout = 30 * time.Second

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled && cfg.Sentry.DSN != "",
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics("portfolio", registry)
	contactMetrics := telemetry.NewContactMetrics("portfolio", registry)

	// Rate limiter store: Redis when configured so every instance shares one
	// count, otherwise in memory.
	var (
		store  middleware.Store
		health func() error
	)
	if cfg.Redis.URL != "" {
		logger.Info("Connecting to Redis...")
		rdb, err := middleware.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Password, logger)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer rdb.Close()
		store = middleware.NewRedisStore(rdb, "portfolio:ratelimit:")
		health = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Ping(pingCtx).Err()
		}
	} else {
		memStore := middleware.NewMemoryStore(cfg.RateLimit.Window)
		defer memStore.Close()
		store = memStore
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Window:  cfg.RateLimit.Window,
		Max:     cfg.RateLimit.MaxRequests,
		KeyFunc: middleware.ClientIPFunc(cfg.RateLimit.TrustProxy),
		Store:   store,
		OnLimited: func(r *http.Request) {
			contactMetrics.RecordSubmission(telemetry.OutcomeRateLimited)
		},
	})
	logger.Info("Rate limiter configured",
		"window", cfg.RateLimit.Window,
		"max", cfg.RateLimit.MaxRequests,
		"trust_proxy", cfg.RateLimit.TrustProxy,
		"shared", cfg.Redis.URL != "",
	)

	// Mail
	smtpSender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
		Timeout:  cfg.Email.SendTimeout,
	}, logger)
	sender := email.NewBreakerSender(smtpSender, email.DefaultBreakerConfig(), logger)

	mailer, err := email.NewService(sender, email.ServiceConfig{
		FromAddress: cfg.Email.From,
		FromName:    cfg.Email.FromName,
		ForwardTo:   cfg.Email.ForwardTo,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	contactService := service.NewContactService(mailer, service.ContactConfig{
		ConfirmationTimeout: cfg.Email.SendTimeout,
		Metrics:             contactMetrics,
		Logger:              logger,
	})

	// Load templates with renderer
	renderer, err := handler.NewRenderer(web.Templates())
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	csrfConfig := middleware.DefaultCSRFConfig()
	csrfConfig.Secure = cfg.Env != "dev"

	// Configure security headers
	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP(middleware.ClientIPFunc(cfg.RateLimit.TrustProxy)),
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		httpMetrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		router.Logger(logger),
	)

	routes.Register(r, routes.Deps{
		Site: routes.SiteDeps{
			Pages:  site.NewPageHandler(renderer, contactService, contactMetrics, cfg.OwnerName, logger),
			Static: web.Static(),
			CSRF:   csrfConfig,
		},
		API: routes.APIDeps{
			ContactHandler: api.NewContactHandler(contactService, contactMetrics, logger),
			AllowedOrigins: cfg.CORSOrigins,
		},
		RateLimiter: limiter,
		Metrics:     httpMetrics,
		Health:      health,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
		if err := contactService.Wait(shutdownCtx); err != nil {
			logger.Warn("pending confirmations abandoned", "error", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
