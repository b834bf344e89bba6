package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/gstbook/internal/clock"
	"github.com/smallbiznis/gstbook/internal/config"
	invoicedomain "github.com/smallbiznis/gstbook/internal/invoice/domain"
	obscontext "github.com/smallbiznis/gstbook/internal/observability/context"
	obslogger "github.com/smallbiznis/gstbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gstbook/internal/observability/metrics"
	"github.com/smallbiznis/gstbook/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobInvoiceOverdue = "invoice_overdue"
	jobTimeout        = 30 * time.Second
	// maxBatchesPerRun bounds one sweep so a large backlog drains over several ticks.
	maxBatchesPerRun = 10
	lockKeyPrefix    = "gstbook:scheduler:"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Policy     *config.GSTPolicyHolder
	InvoiceSvc invoicedomain.Service
	Metrics    *obsmetrics.SweepMetrics `optional:"true"`
	// Locker keeps replicas from sweeping at the same time. Without redis
	// every instance sweeps; MarkOverdue is idempotent so that is safe.
	Locker *ratelimit.Locker `optional:"true"`
}

// Scheduler runs the periodic status sweeps.
type Scheduler struct {
	log        *zap.Logger
	clock      clock.Clock
	policy     *config.GSTPolicyHolder
	invoiceSvc invoicedomain.Service
	metrics    *obsmetrics.SweepMetrics
	locker     *ratelimit.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.Policy == nil || p.InvoiceSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:      p.Clock,
		policy:     p.Policy,
		invoiceSvc: p.InvoiceSvc,
		metrics:    p.Metrics,
		locker:     p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) (int, error),
) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = obscontext.WithActor(ctx, obscontext.ActorTypeSystem, "scheduler")
	ctx, _ = obscontext.EnsureCorrelationID(ctx)
	log := obslogger.WithContext(ctx, s.log).With(zap.String("job", name))

	processed, err := fn(ctx)
	elapsed := time.Since(start)
	s.metrics.Observe(name, processed, elapsed, err)

	if err == nil {
		if processed > 0 {
			log.Info("job finished", zap.Int("processed", processed), zap.Duration("elapsed", elapsed))
		}
		return nil
	}

	// deadline is a soft timeout; the next tick picks up the rest
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Int("processed", processed),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	if s.locker == nil {
		return s.runJob(parent, jobInvoiceOverdue, jobTimeout, s.OverdueJob)
	}

	// the lock outlives the job timeout so it cannot lapse mid-run
	err := s.locker.WithLock(parent, lockKeyPrefix+jobInvoiceOverdue, 2*jobTimeout, func(ctx context.Context) error {
		return s.runJob(ctx, jobInvoiceOverdue, jobTimeout, s.OverdueJob)
	})
	if errors.Is(err, ratelimit.ErrLockHeld) {
		s.log.Debug("sweep skipped, another instance holds the lock", zap.String("job", jobInvoiceOverdue))
		return nil
	}
	return err
}

// OverdueJob promotes sent invoices past their due date to overdue, in
// batches sized by the current policy.
func (s *Scheduler) OverdueJob(ctx context.Context) (int, error) {
	batchSize := s.policy.Get().Overdue.BatchSize
	now := s.clock.Now()

	total := 0
	for i := 0; i < maxBatchesPerRun; i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		marked, err := s.invoiceSvc.MarkOverdue(ctx, now, batchSize)
		total += marked
		if err != nil {
			return total, err
		}
		if marked < batchSize {
			break
		}
	}
	return total, nil
}

// RunForever sweeps until ctx is cancelled. The interval is re-read from
// the policy after every run so config reloads apply without a restart.
func (s *Scheduler) RunForever(ctx context.Context) {
	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		timer := time.NewTimer(s.policy.Get().Overdue.SweepInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
