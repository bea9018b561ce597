package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fieldrate/internal/config"
	obsmetrics "github.com/smallbiznis/fieldrate/internal/observability/metrics"
	workorderdomain "github.com/smallbiznis/fieldrate/internal/workorder/domain"
	"gorm.io/gorm"
)

// WorkOrderForSnapshot is the claim row pulled out of work_orders. Only the
// columns the reconcile job needs are selected.
type WorkOrderForSnapshot struct {
	ID           snowflake.ID
	OrgID        snowflake.ID
	ServiceDate  time.Time
	StartMinute  int
	EndMinute    int
	BaseRate     decimal.Decimal
	CategoryName string
	FirstRequest bool
	DeviceCount  int64
}

func (w WorkOrderForSnapshot) toDomain() *workorderdomain.WorkOrder {
	return &workorderdomain.WorkOrder{
		ID:           w.ID,
		OrgID:        w.OrgID,
		ServiceDate:  w.ServiceDate,
		StartMinute:  w.StartMinute,
		EndMinute:    w.EndMinute,
		BaseRate:     w.BaseRate,
		CategoryName: w.CategoryName,
		FirstRequest: w.FirstRequest,
		DeviceCount:  w.DeviceCount,
		Status:       workorderdomain.WorkOrderStatusCompleted,
	}
}

// FetchCompletedOrdersForSnapshot claims a batch of completed, not yet
// snapshotted orders. The claim runs in a short transaction so a slow batch
// never holds row locks across the whole job.
func (s *Scheduler) FetchCompletedOrdersForSnapshot(ctx context.Context, limit int) ([]WorkOrderForSnapshot, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var orders []WorkOrderForSnapshot
	err := s.db.WithContext(claimCtx).Transaction(func(tx *gorm.DB) error {
		var err error
		orders, err = s.fetchCompletedOrdersForSnapshot(claimCtx, tx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Scheduler) fetchCompletedOrdersForSnapshot(ctx context.Context, tx *gorm.DB, limit int) ([]WorkOrderForSnapshot, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	var orders []WorkOrderForSnapshot
	schedMetrics := obsmetrics.Scheduler()
	lockStart := time.Now()
	err := tx.WithContext(ctx).Raw(
		`SELECT id, org_id, service_date, start_minute, end_minute,
		        base_rate, category_name, first_request, device_count
		 FROM work_orders
		 WHERE status = ?
		 ORDER BY id
		 FOR UPDATE SKIP LOCKED
		 LIMIT ?`,
		workorderdomain.WorkOrderStatusCompleted,
		limit,
	).Scan(&orders).Error
	schedMetrics.ObserveDBLockWait(obsmetrics.LockResourceWorkOrdersForSnapshot, time.Since(lockStart))
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Scheduler) markOrderSnapshotted(ctx context.Context, order WorkOrderForSnapshot) (bool, error) {
	schedMetrics := obsmetrics.Scheduler()
	lockStart := time.Now()
	updated, err := s.workOrderRepo.UpdateStatus(ctx, s.db, order.OrgID, order.ID,
		workorderdomain.WorkOrderStatusCompleted, workorderdomain.WorkOrderStatusSnapshotted)
	schedMetrics.ObserveDBLockWait(obsmetrics.LockResourceWorkOrderStatus, time.Since(lockStart))
	return updated, err
}

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker serializes jobs across worker replicas with a redis SetNX lease.
// A nil Locker means single-instance mode and every TryLock succeeds.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

// NewLocker builds the replica lock from the redis settings. Installations
// without redis run unlocked, which is fine for a single worker.
func NewLocker(cfg config.Config) *Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", true, nil
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}
