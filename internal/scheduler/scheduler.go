// Package scheduler runs the background reconciliation worker. Completed
// work orders are re-priced from their stored schedule, tallied against the
// technician time log, and frozen into billing snapshots.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldrate/internal/clock"
	obsmetrics "github.com/smallbiznis/fieldrate/internal/observability/metrics"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
	snapshotdomain "github.com/smallbiznis/fieldrate/internal/snapshot/domain"
	workorderdomain "github.com/smallbiznis/fieldrate/internal/workorder/domain"
	workordersvc "github.com/smallbiznis/fieldrate/internal/workorder/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobReconcileCompletedOrders = "reconcile_completed_orders"
	JobPushUsageTelemetry       = "push_usage_telemetry"
)

var ErrInvalidConfig = errors.New("scheduler: missing required dependency")

// UsageReporter pushes usage telemetry to the hosted control plane. The
// worker only drives the push cadence; what gets reported lives elsewhere.
type UsageReporter interface {
	Push(ctx context.Context) error
}

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	RatingSvc     ratingdomain.Service
	RatecardSvc   ratecarddomain.Service
	SnapshotSvc   snapshotdomain.Service
	WorkOrderRepo workorderdomain.Repository
	GenID         *snowflake.Node
	Clock         clock.Clock

	Reporter UsageReporter       `optional:"true"`
	Locker   *Locker             `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Config   Config              `optional:"true"`
}

type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	ratingSvc     ratingdomain.Service
	ratecardSvc   ratecarddomain.Service
	snapshotSvc   snapshotdomain.Service
	workOrderRepo workorderdomain.Repository
	reporter      UsageReporter
	locker        *Locker
	metrics       *obsmetrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.RatingSvc == nil || p.RatecardSvc == nil || p.SnapshotSvc == nil || p.WorkOrderRepo == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	cfg := p.Config.withDefaults()
	return &Scheduler{
		db:            p.DB,
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           cfg,
		genID:         p.GenID,
		clock:         p.Clock,
		ratingSvc:     p.RatingSvc,
		ratecardSvc:   p.RatecardSvc,
		snapshotSvc:   p.SnapshotSvc,
		workOrderRepo: p.WorkOrderRepo,
		reporter:      p.Reporter,
		locker:        p.Locker,
		metrics:       p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	token, acquired, lockErr := s.locker.TryLock(ctx, "fieldrate:scheduler:"+name, s.cfg.LockTTL)
	if lockErr != nil {
		return fmt.Errorf("%s: %w", name, lockErr)
	}
	if !acquired {
		// Another replica holds the lease for this job.
		obsmetrics.Scheduler().IncBatchDeferred(name, obsmetrics.SchedulerBatchDeferredReasonSkipLockedEmpty)
		return nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), "fieldrate:scheduler:"+name, token); err != nil {
			s.log.Warn("scheduler lock release failed", zap.String("job", name), zap.Error(err))
		}
	}()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	if s.isJobEnabled(JobReconcileCompletedOrders) {
		err = errors.Join(err, s.runJob(parent, JobReconcileCompletedOrders, s.cfg.BatchSize, s.cfg.JobTimeout, s.ReconcileCompletedOrdersJob))
	}
	if s.reporter != nil && s.isJobEnabled(JobPushUsageTelemetry) {
		err = errors.Join(err, s.runJob(parent, JobPushUsageTelemetry, 1, s.cfg.JobTimeout, s.reporter.Push))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// Empty EnabledJobs means every job runs (monolith mode).
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ReconcileCompletedOrdersJob drains completed, unsnapshotted work orders in
// claim batches. Each order is estimated from its stored schedule, its time
// log is tallied per tier, and both are frozen into a snapshot before the
// order is marked snapshotted. The checksum-keyed write makes a crashed run
// safe to repeat.
func (s *Scheduler) ReconcileCompletedOrdersJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, JobReconcileCompletedOrders, s.cfg.BatchSize)
	if owner {
		s.logJobStart(ctx, run)
		defer s.logJobFinish(ctx, run)
	}
	var jobErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		orders, err := s.FetchCompletedOrdersForSnapshot(ctx, s.cfg.BatchSize)
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.order.claim.failed", JobReconcileCompletedOrders, 0, err)
			return errors.Join(jobErr, err)
		}
		if len(orders) == 0 {
			break
		}

		for _, order := range orders {
			s.logOrderClaimed(ctx, JobReconcileCompletedOrders, order)
			if err := s.snapshotOrder(ctx, order); err != nil {
				jobErr = errors.Join(jobErr, err)
				s.logSchedulerError(ctx, run, "scheduler.order.process.failed", JobReconcileCompletedOrders, order.OrgID, err,
					zap.String("work_order_id", idString(order.ID)),
				)
				continue
			}
			run.AddProcessed(1)
		}
		obsmetrics.Scheduler().AddBatchProcessed(JobReconcileCompletedOrders, obsmetrics.LockResourceWorkOrdersForSnapshot, len(orders))

		if len(orders) < s.cfg.BatchSize {
			break
		}
	}

	return jobErr
}

func (s *Scheduler) snapshotOrder(ctx context.Context, order WorkOrderForSnapshot) error {
	table, err := s.ratecardSvc.TableForOrg(ctx, order.OrgID.String())
	if err != nil {
		return err
	}

	estimate, err := s.ratingSvc.EstimateScheduledCost(workordersvc.EstimateRequestFor(order.toDomain(), table))
	if err != nil {
		s.metrics.RecordReconciliation(ctx, "estimate_failed")
		return err
	}
	if estimate == nil {
		s.metrics.RecordReconciliation(ctx, "incomplete_order")
		return fmt.Errorf("work order %s missing schedule fields", order.ID)
	}

	entries, err := s.workOrderRepo.TimeEntries(ctx, s.db, order.OrgID, order.ID)
	if err != nil {
		return err
	}
	worked := make([]ratingdomain.WorkedInterval, 0, len(entries))
	for _, entry := range entries {
		worked = append(worked, ratingdomain.WorkedInterval{Start: entry.StartAt, End: entry.EndAt})
	}
	actual := s.ratingSvc.ReconcileActualHours(worked, table)

	snapshot, err := s.snapshotSvc.Freeze(ctx, snapshotdomain.FreezeRequest{
		OrgID:       order.OrgID,
		WorkOrderID: order.ID,
		Tiers:       table,
		Estimate:    estimate,
		ActualHours: actual,
	})
	if err != nil {
		s.metrics.RecordSnapshotWrite(ctx, "error")
		return err
	}
	s.metrics.RecordSnapshotWrite(ctx, "ok")
	s.logSnapshotWritten(ctx, order, snapshot.Checksum)

	updated, err := s.markOrderSnapshotted(ctx, order)
	if err != nil {
		return err
	}
	if !updated {
		// Another replica got there first; the snapshot write above was a
		// checksum no-op, so nothing is duplicated.
		s.metrics.RecordReconciliation(ctx, "already_claimed")
		return nil
	}
	s.metrics.RecordReconciliation(ctx, "ok")
	return nil
}
