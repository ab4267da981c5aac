package job

import (
	"context"
	"time"

	"dailytrack/internal/config"
	"dailytrack/internal/infrastructure/metrics"
	"dailytrack/internal/infrastructure/mq"
	"dailytrack/internal/model"
	"dailytrack/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OutboxSender publishes pending outbox messages. A message that fails
// MaxRetryCount times is marked FAILED and left for an operator.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  mq.Publisher
	metrics    *metrics.Metrics
	log        *logrus.Entry
	stopCh     chan struct{}
	interval   time.Duration
	batchSize  int
	maxRetry   int
}

func NewOutboxSender(db *gorm.DB, publisher mq.Publisher, cfg *config.JobsConfig, m *metrics.Metrics) *OutboxSender {
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		metrics:    m,
		log:        logrus.WithField("job", "outbox_sender"),
		stopCh:     make(chan struct{}),
		interval:   time.Duration(cfg.OutboxIntervalMs) * time.Millisecond,
		batchSize:  cfg.OutboxBatchSize,
		maxRetry:   cfg.MaxRetryCount,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("context done, outbox sender exiting")
			return
		case <-s.stopCh:
			s.log.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// ProcessPending sends one batch and returns how many messages were sent.
func (s *OutboxSender) ProcessPending(ctx context.Context) int {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.WithError(err).Error("load pending messages")
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.sendMessage(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) bool {
	fields := logrus.Fields{
		"id":    msg.ID,
		"topic": msg.Topic,
		"key":   msg.MessageKey,
		"type":  msg.EventType,
	}

	err := s.publisher.Publish(ctx, msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if updateErr := s.outboxRepo.MarkAsSent(ctx, msg.ID); updateErr != nil {
			s.log.WithFields(fields).WithError(updateErr).Error("mark message sent")
		} else {
			s.log.WithFields(fields).Debug("message sent")
		}
		s.metrics.IncOutbox("sent")
		return true
	}

	s.log.WithFields(fields).WithError(err).Warn("publish message")

	if msg.RetryCount+1 >= s.maxRetry {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			s.log.WithFields(fields).WithError(err).Error("mark message failed")
		} else {
			s.log.WithFields(fields).Error("message exceeded max retries, marked failed")
		}
		s.metrics.IncOutbox("failed")
		return false
	}

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		s.log.WithFields(fields).WithError(err).Error("increment retry count")
	}
	s.metrics.IncOutbox("retry")
	return false
}
