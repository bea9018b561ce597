package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldrate/internal/clock"
	snapshotdomain "github.com/smallbiznis/fieldrate/internal/snapshot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Writer snapshotdomain.Writer
	Reader snapshotdomain.Reader
}

type Service struct {
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	writer snapshotdomain.Writer
	reader snapshotdomain.Reader
}

func New(p Params) snapshotdomain.Service {
	return &Service{
		log:    p.Log.Named("snapshot.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		writer: p.Writer,
		reader: p.Reader,
	}
}

// Freeze serializes the full rate table, the estimate and the actual-hours
// breakdown and persists them under a content checksum. Because the engine
// is pure, re-running the same reconcile produces the same checksum and the
// write is a no-op, never a second snapshot.
func (s *Service) Freeze(ctx context.Context, req snapshotdomain.FreezeRequest) (*snapshotdomain.Snapshot, error) {
	if req.Estimate == nil {
		return nil, snapshotdomain.ErrMissingEstimate
	}
	if req.Tiers == nil {
		return nil, snapshotdomain.ErrMissingTiers
	}

	rateTable, err := json.Marshal(req.Tiers.All())
	if err != nil {
		return nil, err
	}
	estimate, err := json.Marshal(req.Estimate)
	if err != nil {
		return nil, err
	}
	actualHours, err := json.Marshal(req.ActualHours)
	if err != nil {
		return nil, err
	}

	snapshot := &snapshotdomain.Snapshot{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		WorkOrderID: req.WorkOrderID,
		RateTable:   rateTable,
		Estimate:    estimate,
		ActualHours: actualHours,
		Checksum:    checksum(req.OrgID, req.WorkOrderID, rateTable, estimate, actualHours),
		CreatedAt:   s.clock.Now(),
	}

	if err := s.writer.Write(ctx, snapshot); err != nil {
		return nil, err
	}

	s.log.Info("billing snapshot written",
		zap.String("org_id", req.OrgID.String()),
		zap.String("work_order_id", req.WorkOrderID.String()),
		zap.String("checksum", snapshot.Checksum),
	)
	return snapshot, nil
}

func (s *Service) ByWorkOrder(ctx context.Context, orgID, workOrderID snowflake.ID) (*snapshotdomain.Snapshot, error) {
	return s.reader.ByWorkOrder(ctx, orgID, workOrderID)
}

func checksum(orgID, workOrderID snowflake.ID, parts ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(orgID.String()))
	h.Write([]byte{'|'})
	h.Write([]byte(workOrderID.String()))
	for _, part := range parts {
		h.Write([]byte{'|'})
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
