package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/open-builders/contestlet/internal/approvalqueue"
	"github.com/open-builders/contestlet/internal/config"
	"github.com/open-builders/contestlet/internal/contestsvc"
	"github.com/open-builders/contestlet/internal/entrysvc"
	"github.com/open-builders/contestlet/internal/geo"
	"github.com/open-builders/contestlet/internal/httpapi"
	"github.com/open-builders/contestlet/internal/logging"
	"github.com/open-builders/contestlet/internal/notify"
	"github.com/open-builders/contestlet/internal/otp"
	"github.com/open-builders/contestlet/internal/platform/clock"
	"github.com/open-builders/contestlet/internal/platform/db"
	"github.com/open-builders/contestlet/internal/platform/random"
	"github.com/open-builders/contestlet/internal/platform/redisx"
	"github.com/open-builders/contestlet/internal/ratelimit"
	"github.com/open-builders/contestlet/internal/scheduler"
	"github.com/open-builders/contestlet/internal/session"
	"github.com/open-builders/contestlet/internal/sms"
	pgstore "github.com/open-builders/contestlet/internal/store/postgres"
	migfs "github.com/open-builders/contestlet/migrations"
)

const (
	notifyQueueSize  = 256
	notifyWorkers    = 4
	shutdownDeadline = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger := logging.Init("contestlet", cfg.Debug)

	pg, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres open: %v", err)
	}
	defer pg.Close()

	if cfg.DBAutoMigrate {
		if err := goose.SetDialect("postgres"); err != nil {
			log.Fatalf("goose dialect: %v", err)
		}
		goose.SetBaseFS(migfs.Files)
		if err := goose.Up(pg, "."); err != nil {
			log.Fatalf("migrations up: %v", err)
		}
	}

	rdb, err := redisx.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis open: %v", err)
	}
	defer rdb.Close()

	clk := clock.System{}
	rnd := random.Secure{}
	st := pgstore.New(pg, clk)

	memLimiter := ratelimit.NewMemory(clk)
	var limiter ratelimit.Limiter = memLimiter
	if cfg.RateLimitBackend == "external-kv" {
		limiter = ratelimit.NewExternal(rdb, memLimiter)
	}

	var smsGateway sms.Gateway
	if cfg.SmsBackend == "twilio" {
		smsGateway = sms.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		smsGateway = sms.NewMock()
	}

	sessions := session.New(cfg.SessionSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, clk)

	otpSvc := otp.New(st, limiter, smsGateway, sessions, clk, otp.Config{
		OtpTTL:        cfg.OtpTTL,
		MaxAttempts:   cfg.OtpMaxAttempts,
		RequestLimit:  cfg.OtpRequestLimit,
		RequestWindow: cfg.OtpRequestWindow,
		VerifyLimit:   cfg.OtpVerifyLimit,
		VerifyWindow:  cfg.OtpVerifyWindow,
		AdminPhones:   cfg.AdminPhoneList(),
	})

	notifier := notify.New(st, smsGateway, logger, notifyQueueSize)
	notifier.Start(ctx, notifyWorkers)
	defer notifier.Stop()

	geoSvc := geo.NewMock()

	contests := contestsvc.New(st, clk, rnd, notifier)
	entries := entrysvc.New(st, clk, geoSvc, notifier)
	approvalQueue := approvalqueue.New(st, clk)

	sched := scheduler.New(st, contests, clk, logger)
	sched.SetTickInterval(time.Duration(cfg.SchedulerTickSeconds) * time.Second)
	if cfg.SchedulerEnabled {
		sched.Start(ctx)
		defer sched.Stop()
	}

	router := httpapi.NewRouter(httpapi.Deps{
		DB:                 pg,
		Redis:              rdb,
		Store:              st,
		Sessions:           sessions,
		Otp:                otpSvc,
		Contests:           contests,
		Entries:            entries,
		ApprovalQueue:      approvalQueue,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		MaxPageSize:        cfg.MaxPageSize,
		DefaultPageSize:    cfg.DefaultPageSize,
		SupportedTimezones: cfg.SupportedTimezones(),
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("httpapi: listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("httpapi: graceful shutdown failed")
	}
}
