package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pyar/asocmembers/internal/clock"
	"github.com/pyar/asocmembers/internal/gateway/mercadopago"
	invoicedomain "github.com/pyar/asocmembers/internal/invoice/domain"
	"github.com/pyar/asocmembers/internal/observability/metrics"
	"github.com/pyar/asocmembers/internal/reconcile"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const tracerName = "asocmembers/scheduler"

const (
	JobRecurringImport = "recurring_import"
	JobMemberInvoices  = "member_invoices"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type recordSource interface {
	FetchRecords(ctx context.Context, filter mercadopago.Filter) ([]reconcile.Record, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, records []reconcile.Record, customFee *decimal.Decimal) (reconcile.Summary, error)
}

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     Config
	Gateway    *mercadopago.Client
	Reconciler *reconcile.Reconciler
	InvoiceSvc invoicedomain.Service
	Metrics    *metrics.SchedulerMetrics `optional:"true"`
	Tracing    trace.TracerProvider      `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	source     recordSource
	reconciler reconciler
	invoiceSvc invoicedomain.Service
	metrics    *metrics.SchedulerMetrics
	tracer     trace.Tracer
	cron       *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Gateway == nil || p.Reconciler == nil || p.InvoiceSvc == nil {
		return nil, ErrInvalidConfig
	}
	return newScheduler(p.Log, p.Config, p.GenID, p.Clock, p.Gateway, p.Reconciler, p.InvoiceSvc, p.Metrics, p.Tracing), nil
}

func newScheduler(
	log *zap.Logger,
	cfg Config,
	genID *snowflake.Node,
	clk clock.Clock,
	source recordSource,
	rec reconciler,
	invoiceSvc invoicedomain.Service,
	schedMetrics *metrics.SchedulerMetrics,
	tp trace.TracerProvider,
) *Scheduler {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	log = log.Named("scheduler").With(zap.String("component", "scheduler"))
	cronLog := cronLogger{log: log.Sugar()}
	return &Scheduler{
		log:        log,
		cfg:        cfg.withDefaults(),
		genID:      genID,
		clock:      clk,
		source:     source,
		reconciler: rec,
		invoiceSvc: invoiceSvc,
		metrics:    schedMetrics,
		tracer:     tp.Tracer(tracerName),
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
}

// Register adds the enabled jobs to the cron table. A run that is still in
// progress when its next tick arrives causes that tick to be skipped.
func (s *Scheduler) Register(parent context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("scheduled jobs disabled")
		return nil
	}

	jobs := []struct {
		Name    string
		Spec    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{JobRecurringImport, s.cfg.ImportCron, true, s.RecurringImportJob},
		{JobMemberInvoices, s.cfg.InvoiceCron, s.cfg.InvoicesEnabled, s.MemberInvoicesJob},
	}

	for _, job := range jobs {
		if !job.Enabled {
			s.log.Info("job not scheduled", zap.String("job", job.Name))
			continue
		}
		job := job
		_, err := s.cron.AddFunc(job.Spec, func() {
			if err := s.runJob(parent, job.Name, s.cfg.Timeout, job.Run); err != nil {
				s.log.Warn("scheduler run failed", zap.String("job", job.Name), zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
		}
		s.log.Info("job scheduled", zap.String("job", job.Name), zap.String("spec", job.Spec))
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for the running ones or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	ctx, span := s.tracer.Start(ctx, "job "+name, trace.WithAttributes(
		attribute.String("job", name),
		attribute.String("run_id", run.runID),
	))
	defer span.End()
	if owner {
		s.logJobStart(ctx, run)
	}
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	span.SetAttributes(
		attribute.Int("processed_count", run.processedCount),
		attribute.Int("error_count", run.errorCount),
	)
	if err == nil {
		return nil
	}

	// deadline is a soft timeout
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	span.RecordError(err)
	if isTimeout {
		span.SetStatus(codes.Error, "timeout")
		s.metrics.IncJobTimeout(name)
	} else {
		span.SetStatus(codes.Error, "job failed")
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		s.logger(ctx).Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every enabled job immediately, one after the other.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	err = errors.Join(err, s.runJob(parent, JobRecurringImport, s.cfg.Timeout, s.RecurringImportJob))
	if s.cfg.InvoicesEnabled {
		err = errors.Join(err, s.runJob(parent, JobMemberInvoices, s.cfg.Timeout, s.MemberInvoicesJob))
	}
	return err
}

// RecurringImportJob pulls approved recurring payments from the gateway and
// records the new ones.
func (s *Scheduler) RecurringImportJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)

	records, err := s.source.FetchRecords(ctx, mercadopago.Filter{})
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.import.fetch.failed", err)
		return err
	}

	summary, err := s.reconciler.Reconcile(ctx, records, nil)
	if errors.Is(err, reconcile.ErrRunInProgress) {
		s.logger(ctx).Info("scheduler.import.skipped", zap.String("reason", "reconcile_in_progress"))
		return nil
	}
	run.AddProcessed(summary.Recorded)
	s.metrics.AddBatchProcessed(JobRecurringImport, "payments", summary.Recorded)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.import.reconcile.failed", err,
			zap.Int("records", len(records)),
		)
		return err
	}
	return nil
}

// MemberInvoicesJob issues receipts for payments that still lack one.
func (s *Scheduler) MemberInvoicesJob(ctx context.Context) error {
	run := jobRunFromContext(ctx)

	summary, err := s.invoiceSvc.GenerateMissing(ctx, s.cfg.InvoiceBatchLimit)
	run.AddProcessed(summary.Generated)
	s.metrics.AddBatchProcessed(JobMemberInvoices, "invoices", summary.Generated)
	for i := 0; i < summary.Failed; i++ {
		run.IncError()
	}
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.invoice.failed", err)
		return err
	}
	return nil
}
