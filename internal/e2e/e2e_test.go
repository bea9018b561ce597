package e2e

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fieldrate/internal/clock"
	organizationdomain "github.com/smallbiznis/fieldrate/internal/organization/domain"
	organizationrepo "github.com/smallbiznis/fieldrate/internal/organization/repository"
	organizationsvc "github.com/smallbiznis/fieldrate/internal/organization/service"
	pricetierdomain "github.com/smallbiznis/fieldrate/internal/pricetier/domain"
	pricetierrepo "github.com/smallbiznis/fieldrate/internal/pricetier/repository"
	pricetiersvc "github.com/smallbiznis/fieldrate/internal/pricetier/service"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	ratecardrepo "github.com/smallbiznis/fieldrate/internal/ratecard/repository"
	ratecardsvc "github.com/smallbiznis/fieldrate/internal/ratecard/service"
	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
	ratingsvc "github.com/smallbiznis/fieldrate/internal/rating/service"
	"github.com/smallbiznis/fieldrate/internal/scheduler"
	"github.com/smallbiznis/fieldrate/internal/seed"
	snapshotdomain "github.com/smallbiznis/fieldrate/internal/snapshot/domain"
	snapshotrepo "github.com/smallbiznis/fieldrate/internal/snapshot/repository"
	snapshotsvc "github.com/smallbiznis/fieldrate/internal/snapshot/service"
	workorderdomain "github.com/smallbiznis/fieldrate/internal/workorder/domain"
	workorderrepo "github.com/smallbiznis/fieldrate/internal/workorder/repository"
	workordersvc "github.com/smallbiznis/fieldrate/internal/workorder/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env wires the full service graph over an in-memory database, the same
// shape cmd/fieldrate assembles through fx.
type env struct {
	db           *gorm.DB
	orgs         organizationdomain.Service
	ratecards    ratecarddomain.Service
	pricetiers   pricetierdomain.Service
	workorders   workorderdomain.Service
	snapshots    snapshotdomain.Service
	sched        *scheduler.Scheduler
	clock        *clock.FakeClock
	defaultOrgID string
	serviceDate  string // a Wednesday covered by the seeded rate card
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	// SQLite has no row locks; strip the clause so claim queries still run.
	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripForUpdate))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripForUpdate))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&organizationdomain.Organization{},
		&ratecarddomain.RateTier{},
		&pricetierdomain.PricingRange{},
		&workorderdomain.WorkOrder{},
		&workorderdomain.TimeEntry{},
		&snapshotdomain.Snapshot{},
	))

	require.NoError(t, seed.EnsureDemoData(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	orgs := organizationsvc.New(organizationsvc.Params{
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  organizationrepo.NewRepository(db),
	})
	ratecards := ratecardsvc.New(ratecardsvc.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  ratecardrepo.Provide(),
	})
	rating := ratingsvc.NewService(ratingsvc.ServiceParam{Log: log})
	pricetiers := pricetiersvc.New(pricetiersvc.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  pricetierrepo.Provide(),
	})
	workorders := workordersvc.New(workordersvc.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Repo:        workorderrepo.Provide(),
		RatecardSvc: ratecards,
		RatingSvc:   rating,
	})
	writer, reader := snapshotrepo.Provide(db)
	snapshots := snapshotsvc.New(snapshotsvc.Params{
		Log:    log,
		GenID:  node,
		Clock:  fake,
		Writer: writer,
		Reader: reader,
	})

	sched, err := scheduler.New(scheduler.Params{
		DB:            db,
		Log:           log,
		RatingSvc:     rating,
		RatecardSvc:   ratecards,
		SnapshotSvc:   snapshots,
		WorkOrderRepo: workorderrepo.Provide(),
		GenID:         node,
		Clock:         fake,
		Config:        scheduler.Config{BatchSize: 10},
	})
	require.NoError(t, err)

	list, err := orgs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	return &env{
		db:            db,
		orgs:          orgs,
		ratecards:     ratecards,
		pricetiers:    pricetiers,
		workorders:    workorders,
		snapshots:     snapshots,
		sched:         sched,
		clock:         fake,
		defaultOrgID: list[0].ID,
		serviceDate:  "2026-03-04",
	}
}

func (e *env) createOrder(t *testing.T, startMinute, endMinute int) *workorderdomain.Response {
	t.Helper()
	start, end := startMinute, endMinute
	order, err := e.workorders.Create(context.Background(), workorderdomain.CreateRequest{
		OrganizationID: e.defaultOrgID,
		ClientName:     "Acme Dental",
		ServiceDate:    e.serviceDate,
		StartMinute:    &start,
		EndMinute:      &end,
		BaseRate:       "100",
		CategoryName:   "Standard",
	})
	require.NoError(t, err)
	return order
}

// Scheduling an order against the seeded weekday card, estimating it,
// completing it and running the worker must leave exactly one snapshot
// that survives a later rate card edit.
func TestFullFlowSnapshotSurvivesRateCardEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// 16:00-19:00 spans the seeded Standard (8-18, x1.0) and Premium
	// (18-22, x1.5) windows: 2h*100 + 1h*150 = 350.
	order := e.createOrder(t, 16*60, 19*60)

	estimate, err := e.workorders.Estimate(ctx, e.defaultOrgID, order.ID)
	require.NoError(t, err)
	require.NotNil(t, estimate)
	assert.True(t, estimate.Total.Equal(decimal.NewFromInt(350)),
		"estimate total = %s", estimate.Total)

	require.NoError(t, e.workorders.AddTimeEntry(ctx, workorderdomain.TimeEntryRequest{
		OrganizationID: e.defaultOrgID,
		WorkOrderID:    order.ID,
		StartAt:        time.Date(2026, 3, 4, 16, 4, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 3, 4, 18, 52, 0, 0, time.UTC),
	}))
	require.NoError(t, e.workorders.Complete(ctx, e.defaultOrgID, order.ID))

	require.NoError(t, e.sched.RunOnce(ctx))

	orgID, err := snowflake.ParseString(e.defaultOrgID)
	require.NoError(t, err)
	orderID, err := snowflake.ParseString(order.ID)
	require.NoError(t, err)

	frozen, err := e.snapshots.ByWorkOrder(ctx, orgID, orderID)
	require.NoError(t, err)
	require.NotNil(t, frozen)

	// Replace the Wednesday Premium window with a doubled multiplier.
	tiers, err := e.ratecards.List(ctx, e.defaultOrgID)
	require.NoError(t, err)
	for _, tier := range tiers {
		if tier.Name == "Premium" && tier.DayOfWeek == int(time.Wednesday) {
			require.NoError(t, e.ratecards.Delete(ctx, e.defaultOrgID, tier.ID))
		}
	}
	_, err = e.ratecards.Create(ctx, ratecarddomain.CreateRequest{
		OrganizationID: e.defaultOrgID,
		Name:           "Premium",
		DayOfWeek:      int(time.Wednesday),
		StartMinute:    18 * 60,
		EndMinute:      22 * 60,
		Multiplier:     "2.0",
	})
	require.NoError(t, err)

	// Fresh orders price against the edited card.
	second := e.createOrder(t, 16*60, 19*60)
	reEstimate, err := e.workorders.Estimate(ctx, e.defaultOrgID, second.ID)
	require.NoError(t, err)
	require.NotNil(t, reEstimate)
	assert.True(t, reEstimate.Total.Equal(decimal.NewFromInt(400)),
		"re-estimate total = %s", reEstimate.Total)

	// The frozen record still carries the pre-edit figures.
	after, err := e.snapshots.ByWorkOrder(ctx, orgID, orderID)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, frozen.Checksum, after.Checksum)

	var stored ratingdomain.CostEstimate
	require.NoError(t, json.Unmarshal(after.Estimate, &stored))
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(350)),
		"frozen total = %s", stored.Total)

	// Another worker pass leaves the already-snapshotted order alone.
	require.NoError(t, e.sched.RunOnce(ctx))
	var count int64
	require.NoError(t, e.db.Model(&snapshotdomain.Snapshot{}).
		Where("work_order_id = ?", orderID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFullFlowDeviceChargesUseSeededRanges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// Seeded ranges: units 1-2 free, unit 3 onward at 9.99.
	result, err := e.pricetiers.PriceForDevices(ctx, e.defaultOrgID, 5)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.TotalCost.Equal(decimal.RequireFromString("29.97")),
		"device total = %s", result.TotalCost)
	assert.Len(t, result.Breakdown, 2)
}

func TestFullFlowSeedIsIdempotentAcrossRestarts(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, seed.EnsureDemoData(e.db))

	list, err := e.orgs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
