package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"betbook/cache"
	"betbook/config"
	"betbook/database"
	"betbook/events"
	"betbook/metrics"
	"betbook/repository"
	"betbook/service"
)

// Services bundles everything Run wires together, for embedding callers
// (games, admin consoles) that drive the ledger in-process.
type Services struct {
	Account service.AccountService
	Ledger  service.LedgerService
	Payment service.PaymentService
	Match   service.MatchService
	Admin   service.AdminService
}

// Run initializes the ledger daemon and blocks until the context is
// cancelled
func Run(ctx context.Context) error {
	cfg := config.Get()

	log.WithField("environment", cfg.Environment).Info("Starting betbook")

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	metrics.Subscribe(eventBus)

	// Kafka relay is optional; without brokers events stay in-process
	if len(cfg.KafkaBrokers) > 0 {
		writer := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		relay := events.NewKafkaRelay(eventBus, writer)
		defer relay.Close()
		log.WithField("topic", cfg.KafkaTopic).Info("Kafka relay enabled")
	}

	// Redis claim limiter is optional; without it every claim is allowed
	var limiter service.ClaimLimiter = cache.NoopLimiter{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		limiter = cache.NewClaimLimiter(rdb, cfg.GlobalClaimCooldown)
		log.WithField("cooldown", cfg.GlobalClaimCooldown).Info("Redis claim limiter enabled")
	} else {
		log.Warn("No REDIS_ADDR configured, global bonus claims are not rate limited")
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	svcs := Services{
		Account: service.NewAccountService(uowFactory),
		Ledger:  service.NewLedgerService(uowFactory, limiter),
		Payment: service.NewPaymentService(uowFactory),
		Match:   service.NewMatchService(uowFactory),
		Admin:   service.NewAdminService(uowFactory),
	}

	if _, err := svcs.Account.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	log.WithField("port", cfg.MetricsPort).Info("Metrics server started")

	log.Info("betbook is running")
	<-ctx.Done()

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Metrics server shutdown failed")
	}

	return nil
}
