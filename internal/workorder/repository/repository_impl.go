package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	workorderdomain "github.com/smallbiznis/fieldrate/internal/workorder/domain"
	dbpkg "github.com/smallbiznis/fieldrate/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() workorderdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *workorderdomain.WorkOrder) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*workorderdomain.WorkOrder, error) {
	var order workorderdomain.WorkOrder
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&order).Error
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) InsertTimeEntry(ctx context.Context, db *gorm.DB, entry *workorderdomain.TimeEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) TimeEntries(ctx context.Context, db *gorm.DB, orgID, workOrderID snowflake.ID) ([]workorderdomain.TimeEntry, error) {
	var entries []workorderdomain.TimeEntry
	err := db.WithContext(ctx).
		Where("org_id = ? AND work_order_id = ?", orgID, workOrderID).
		Order("start_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateStatus moves an order between statuses with a guarded transition so
// two worker replicas cannot both claim the same order.
func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, from, to workorderdomain.WorkOrderStatus) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE work_orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE org_id = ? AND id = ? AND status = ?`,
		to, orgID, id, from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
