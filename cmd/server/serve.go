package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fundsledger/internal/config"
	"fundsledger/internal/gateway/email"
	"fundsledger/internal/gateway/identity"
	"fundsledger/internal/gateway/payment"
	"fundsledger/internal/handler"
	"fundsledger/internal/infrastructure/cache"
	"fundsledger/internal/infrastructure/database"
	"fundsledger/internal/infrastructure/mq"
	"fundsledger/internal/infrastructure/ratelimit"
	"fundsledger/internal/job"
	"fundsledger/internal/repository"
	"fundsledger/internal/service"
	"fundsledger/pkg/idgen"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := newLogger(&cfg.Log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := idgen.Init(cfg.Server.WorkerID); err != nil {
		return err
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := cache.NewRedis(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	firebase, err := identity.NewFirebaseGateway(ctx, &cfg.Identity, logger)
	if err != nil {
		return err
	}
	signIn := identity.NewPasswordClient(cfg.Identity.SignInURL, cfg.Identity.APIKey)
	stripeGateway := payment.NewStripeGateway(&cfg.Payment)
	mailer := email.NewSendGridSender(&cfg.Email)

	store := repository.NewAccountRepository(db)
	funds := service.NewFundsService(store, logger, cfg.Kafka.Topic.BalanceChanged, cfg.Business.MaxRetryCount)
	checkout := service.NewCheckoutService(stripeGateway, funds, logger, cfg.Business.MinCheckoutAmount)
	accounts := service.NewAccountService(store, signIn, firebase, mailer, logger)

	if cfg.Kafka.Enabled {
		producer, err := mq.NewKafkaProducer(&cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()

		sender := job.NewOutboxSender(repository.NewOutboxRepository(db), producer, logger,
			cfg.Business.OutboxBatchSize, cfg.Business.MaxRetryCount)
		go sender.Start(ctx)
	} else {
		logger.Warn("kafka disabled, balance events stay in the outbox")
	}

	gin.SetMode(gin.ReleaseMode)
	limiter := ratelimit.NewLimiter(rdb, "auth", cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	router, err := handler.SetupRouter(handler.RouterDeps{
		Handler:        handler.NewHandler(funds, checkout, accounts, logger),
		Verifier:       firebase,
		Limiter:        limiter,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		StaticDir:      cfg.Server.StaticDir,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
		return err
	}
	logger.Info("server stopped")
	return nil
}
