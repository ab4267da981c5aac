package job

import (
	"context"
	"math"
	"time"

	"dailytrack/internal/infrastructure/metrics"
	"dailytrack/internal/service"
	"dailytrack/pkg/amount"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// CustodyReconcileJob periodically checks that every component's custody
// balance agrees with the ledger journal.
type CustodyReconcileJob struct {
	custody   *service.CustodyService
	metrics   *metrics.Metrics
	interval  time.Duration
	log       *logrus.Entry
	scheduler gocron.Scheduler
}

func NewCustodyReconcileJob(custody *service.CustodyService, interval time.Duration, m *metrics.Metrics) *CustodyReconcileJob {
	return &CustodyReconcileJob{
		custody:  custody,
		metrics:  m,
		interval: interval,
		log:      logrus.WithField("job", "custody_reconcile"),
	}
}

func (j *CustodyReconcileJob) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(func() {
			j.RunOnce(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}

	sched.Start()
	j.scheduler = sched
	j.log.WithField("interval", j.interval.String()).Info("custody reconciliation scheduled")
	return nil
}

func (j *CustodyReconcileJob) Stop() {
	if j.scheduler == nil {
		return
	}
	if err := j.scheduler.Shutdown(); err != nil {
		j.log.WithError(err).Warn("scheduler shutdown")
	}
}

// RunOnce reconciles every component and returns the number of mismatches.
func (j *CustodyReconcileJob) RunOnce(ctx context.Context) int {
	reports, err := j.custody.Reconcile(ctx)
	if err != nil {
		j.log.WithError(err).Error("reconcile custody")
		return 0
	}

	mismatches := 0
	for _, r := range reports {
		j.metrics.SetCustodyBalance(r.Component, r.Token, r.Balance.Float64()/math.Pow10(amount.Decimals))

		fields := logrus.Fields{
			"component":     r.Component,
			"token":         r.Token,
			"address":       r.Address,
			"balance":       r.Balance.String(),
			"journal_net":   r.JournalNet.String(),
			"last_recorded": r.LastRecorded.String(),
		}
		if !r.Consistent {
			mismatches++
			j.metrics.IncReconcileMismatch(r.Component)
			j.log.WithFields(fields).Error("custody balance disagrees with journal")
			continue
		}
		j.log.WithFields(fields).Debug("custody balance reconciled")
	}
	return mismatches
}
