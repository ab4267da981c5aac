package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailytrack/internal/config"
	"dailytrack/internal/handler"
	"dailytrack/internal/infrastructure/cache"
	"dailytrack/internal/infrastructure/database"
	"dailytrack/internal/infrastructure/lock"
	"dailytrack/internal/infrastructure/logging"
	"dailytrack/internal/infrastructure/metrics"
	"dailytrack/internal/infrastructure/mq"
	"dailytrack/internal/job"
	"dailytrack/internal/ledger"
	"dailytrack/internal/service"
	"dailytrack/pkg/amount"
	"dailytrack/pkg/idgen"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("failed to load .env")
	}

	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	logging.Init(&cfg.Log)
	log := logging.Component("main")

	idgen.Init(cfg.Server.WorkerID)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		rdb, err := cache.InitRedis(&cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, lock.RetryPolicy{
			Expiration:    time.Duration(cfg.Lock.ExpirationSeconds) * time.Second,
			RetryInterval: time.Duration(cfg.Lock.RetryIntervalMs) * time.Millisecond,
			MaxRetries:    cfg.Lock.MaxRetries,
		})
	}

	var publisher mq.Publisher = mq.NewLogPublisher(logging.Component("outbox"))
	if cfg.Kafka.Enabled {
		producer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.WithError(err).Fatal("failed to create kafka producer")
		}
		publisher = mq.NewKafkaPublisher(producer)
	}
	defer publisher.Close()

	m := metrics.New()
	exec := service.NewExecutor(db,
		service.WithLocker(locker, cfg.Lock.Key),
		service.WithMetrics(m),
	)
	token := ledger.NewToken(db, common.HexToAddress(cfg.Ledger.Issuer))
	registry := ledger.NewRegistry(db, common.HexToAddress(cfg.Ledger.Issuer))
	events := service.NewEventWriter(db, cfg.Kafka.Topic.Events)

	rewards := service.NewRewardService(exec, token, events)
	exchange := service.NewExchangeService(exec, token, registry, events)
	custody := service.NewCustodyService(exec, token)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bootstrap(ctx, cfg, rewards, exchange); err != nil {
		log.WithError(err).Fatal("failed to deploy components")
	}

	outboxSender := job.NewOutboxSender(db, publisher, &cfg.Jobs, m)
	go outboxSender.Start(ctx)

	reconcile := job.NewCustodyReconcileJob(custody, time.Duration(cfg.Jobs.ReconcileIntervalSeconds)*time.Second, m)
	if err := reconcile.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to schedule custody reconciliation")
	}

	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(service.NewLedgerService(exec, token, registry), rewards, exchange, custody)
	router := handler.SetupRouter(h, m, &cfg.Server)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	cancel()
	reconcile.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}

	log.Info("stopped")
}

// bootstrap deploys both components on first start. Existing rows win over
// the configuration.
func bootstrap(ctx context.Context, cfg *config.Config, rewards *service.RewardService, exchange *service.ExchangeService) error {
	dailyReward, err := amount.Parse(cfg.Reward.DailyReward)
	if err != nil {
		return fmt.Errorf("reward.daily_reward: %w", err)
	}

	if _, err := rewards.Bootstrap(ctx, service.RewardDeployment{
		Owner:       common.HexToAddress(cfg.Reward.Owner),
		Token:       cfg.Reward.Token,
		Address:     common.HexToAddress(cfg.Reward.Address),
		DailyReward: dailyReward,
	}); err != nil {
		return fmt.Errorf("deploy reward tracker: %w", err)
	}

	if _, err := exchange.Bootstrap(ctx, service.ExchangeDeployment{
		Owner:        common.HexToAddress(cfg.Exchange.Owner),
		PaymentToken: cfg.Exchange.PaymentToken,
		Address:      common.HexToAddress(cfg.Exchange.Address),
		FeePercent:   cfg.Exchange.PlatformFeePercent,
	}); err != nil {
		return fmt.Errorf("deploy exchange escrow: %w", err)
	}
	return nil
}
