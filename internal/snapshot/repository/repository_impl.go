package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	snapshotdomain "github.com/smallbiznis/fieldrate/internal/snapshot/domain"
	dbpkg "github.com/smallbiznis/fieldrate/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) (snapshotdomain.Writer, snapshotdomain.Reader) {
	r := &repo{db: db}
	return r, r
}

// Write inserts append-only: a conflicting checksum means the identical
// snapshot already exists and the insert silently does nothing.
func (r *repo) Write(ctx context.Context, snapshot *snapshotdomain.Snapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "checksum"}},
			DoNothing: true,
		}).
		Create(snapshot).Error
}

func (r *repo) ByWorkOrder(ctx context.Context, orgID, workOrderID snowflake.ID) (*snapshotdomain.Snapshot, error) {
	var snapshot snapshotdomain.Snapshot
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND work_order_id = ?", orgID, workOrderID).
		Order("created_at ASC").
		First(&snapshot).Error
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
