package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ErrWorkOrderNotFound is returned when a work order lookup yields no rows.
var ErrWorkOrderNotFound = errors.New("work order not found")

// WorkOrderFilter narrows List.  Empty fields are ignored; AssignedTo is a
// case-insensitive substring match.
type WorkOrderFilter struct {
	Status     string
	AssignedTo string
}

// WorkOrderRepo provides CRUD operations for work orders.
type WorkOrderRepo struct{ db *gorm.DB }

func NewWorkOrderRepo(db *gorm.DB) *WorkOrderRepo { return &WorkOrderRepo{db: db} }

// Create inserts a work order; ID, priority and status defaults are filled
// by the model hook.
func (r *WorkOrderRepo) Create(ctx context.Context, w *model.WorkOrder) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// List returns work orders newest first.
func (r *WorkOrderRepo) List(ctx context.Context, f WorkOrderFilter) ([]model.WorkOrder, error) {
	q := r.db.WithContext(ctx).Model(&model.WorkOrder{})
	if s := strings.TrimSpace(f.Status); s != "" {
		q = q.Where("status = ?", s)
	}
	if a := strings.TrimSpace(f.AssignedTo); a != "" {
		q = q.Where("LOWER(assigned_to) LIKE ?", "%"+strings.ToLower(a)+"%")
	}
	out := []model.WorkOrder{}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single work order.
func (r *WorkOrderRepo) GetByID(ctx context.Context, id string) (model.WorkOrder, error) {
	var w model.WorkOrder
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return w, ErrWorkOrderNotFound
	}
	return w, err
}

// Update applies the given column changes and returns the updated row.
func (r *WorkOrderRepo) Update(ctx context.Context, id string, changes map[string]interface{}) (model.WorkOrder, error) {
	var out model.WorkOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkOrderNotFound
			}
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&out).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Take(&out).Error
	})
	return out, err
}

// Complete marks the order completed and stamps completed_at.
func (r *WorkOrderRepo) Complete(ctx context.Context, id string, actualHours *float64, at time.Time) (model.WorkOrder, error) {
	changes := map[string]interface{}{
		"status":       model.StatusCompleted,
		"completed_at": at.UTC(),
	}
	if actualHours != nil {
		changes["actual_hours"] = *actualHours
	}
	return r.Update(ctx, id, changes)
}

// Delete removes the order and returns it.
func (r *WorkOrderRepo) Delete(ctx context.Context, id string) (model.WorkOrder, error) {
	var out model.WorkOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkOrderNotFound
			}
			return err
		}
		return tx.Delete(&model.WorkOrder{}, "id = ?", id).Error
	})
	return out, err
}

// Stats counts work orders per status.
func (r *WorkOrderRepo) Stats(ctx context.Context) (model.WorkOrderStats, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&model.WorkOrder{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return model.WorkOrderStats{}, err
	}
	var s model.WorkOrderStats
	for _, row := range rows {
		s.Total += row.N
		switch row.Status {
		case model.StatusPending:
			s.Pending = row.N
		case model.StatusInProgress:
			s.InProgress = row.N
		case model.StatusCompleted:
			s.Completed = row.N
		case model.StatusCancelled:
			s.Cancelled = row.N
		}
	}
	return s, nil
}
