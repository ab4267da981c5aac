package job

import (
	"context"
	"testing"
	"time"

	"dailytrack/internal/config"
	"dailytrack/internal/infrastructure/database"
	"dailytrack/internal/infrastructure/metrics"
	"dailytrack/internal/infrastructure/mq"
	"dailytrack/internal/ledger"
	"dailytrack/internal/model"
	"dailytrack/internal/repository"
	"dailytrack/internal/service"
	"dailytrack/pkg/amount"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	issuer  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	owner   = common.HexToAddress("0x000000000000000000000000000000000000000f")
	tracker = common.HexToAddress("0x0000000000000000000000000000000000000d71")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: "silent",
	})
	require.NoError(t, err)
	return db
}

func seedOutbox(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	repo := repository.NewOutboxRepository(db)
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), nil, &model.OutboxMessage{
			MessageKey: uuid.NewString(),
			Topic:      "dailytrack-events",
			EventType:  service.EventLogin,
			Payload:    `{"type":"Login"}`,
			Status:     model.OutboxStatusPending,
		}))
	}
}

func TestOutboxSenderPublishesPending(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedOutbox(t, db, 2)

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	sender := NewOutboxSender(db, mq.NewKafkaPublisher(producer),
		&config.JobsConfig{OutboxIntervalMs: 10, OutboxBatchSize: 10, MaxRetryCount: 3}, metrics.New())
	assert.Equal(t, 2, sender.ProcessPending(ctx))
	assert.Equal(t, 0, sender.ProcessPending(ctx))

	repo := repository.NewOutboxRepository(db)
	sent, err := repo.CountByStatus(ctx, model.OutboxStatusSent)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sent)
	require.NoError(t, producer.Close())
}

func TestOutboxSenderMarksFailedAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedOutbox(t, db, 1)

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sender := NewOutboxSender(db, mq.NewKafkaPublisher(producer),
		&config.JobsConfig{OutboxIntervalMs: 10, OutboxBatchSize: 10, MaxRetryCount: 2}, nil)

	assert.Equal(t, 0, sender.ProcessPending(ctx))
	assert.Equal(t, 0, sender.ProcessPending(ctx))
	// nothing pending any more, so the producer is not called again
	assert.Equal(t, 0, sender.ProcessPending(ctx))

	repo := repository.NewOutboxRepository(db)
	failed, err := repo.CountByStatus(ctx, model.OutboxStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed)

	msgs, err := repo.ListByType(ctx, service.EventLogin)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 2, msgs[0].RetryCount)
	require.NoError(t, producer.Close())
}

func TestOutboxSenderStops(t *testing.T) {
	db := newTestDB(t)
	sender := NewOutboxSender(db, mq.NewLogPublisher(logrusEntry()),
		&config.JobsConfig{OutboxIntervalMs: 5, OutboxBatchSize: 10, MaxRetryCount: 2}, nil)

	done := make(chan struct{})
	go func() {
		sender.Start(context.Background())
		close(done)
	}()
	sender.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not stop")
	}
}

func TestCustodyReconcileDetectsTampering(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	exec := service.NewExecutor(db)
	token := ledger.NewToken(db, issuer)
	rewards := service.NewRewardService(exec, token, service.NewEventWriter(db, "events"))
	_, err := rewards.Bootstrap(ctx, service.RewardDeployment{
		Owner:       owner,
		Token:       "HTO",
		Address:     tracker,
		DailyReward: amount.Tokens(1),
	})
	require.NoError(t, err)
	require.NoError(t, token.Mint(ctx, nil, "HTO", issuer, tracker, amount.Tokens(10)))
	_, err = rewards.DailyLogin(ctx, alice)
	require.NoError(t, err)

	m := metrics.New()
	j := NewCustodyReconcileJob(service.NewCustodyService(exec, token), time.Minute, m)
	assert.Equal(t, 0, j.RunOnce(ctx))

	// a write that bypassed the ledger
	require.NoError(t, db.Model(&model.TokenBalance{}).
		Where("token = ? AND owner = ?", "HTO", tracker.Hex()).
		Update("amount", amount.Tokens(100)).Error)
	assert.Equal(t, 1, j.RunOnce(ctx))
}

func TestCustodyReconcileSchedules(t *testing.T) {
	db := newTestDB(t)
	exec := service.NewExecutor(db)
	j := NewCustodyReconcileJob(service.NewCustodyService(exec, ledger.NewToken(db, issuer)), time.Hour, nil)
	require.NoError(t, j.Start(context.Background()))
	j.Stop()
}

func logrusEntry() *logrus.Entry {
	return logrus.WithField("test", true)
}
