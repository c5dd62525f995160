package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/db"
	"maintenance-service/internal/model"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

type WorkOrderFilter struct {
	States       []model.WorkOrderState
	Types        []model.WorkOrderType
	VehicleID    *uuid.UUID
	TechnicianID *uuid.UUID
	CreatedBy    *uuid.UUID
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

func (r *WorkOrderRepository) List(ctx context.Context, filter WorkOrderFilter) ([]model.WorkOrder, error) {
	query := db.Conn(ctx, r.db).Model(&model.WorkOrder{})

	if len(filter.States) > 0 {
		query = query.Where("state IN ?", filter.States)
	}
	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}
	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.TechnicianID != nil {
		query = query.Where("technician_id = ?", *filter.TechnicianID)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var orders []model.WorkOrder
	if err := query.
		Order("created_at DESC").
		Preload("Vehicle").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *WorkOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var order model.WorkOrder
	err := db.Conn(ctx, r.db).
		Preload("Vehicle").
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("Tasks.PartUsages").
		Preload("Tasks.PartUsages.Part").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *WorkOrderRepository) Create(ctx context.Context, order *model.WorkOrder) error {
	return db.Conn(ctx, r.db).Omit("Vehicle", "Tasks").Create(order).Error
}

// LastNumberForYear returns the highest order number issued in year, or an
// empty string when none exists. Sequences past five digits make the number
// longer, so length is compared before the text.
func (r *WorkOrderRepository) LastNumberForYear(ctx context.Context, year int) (string, error) {
	var numbers []string
	err := db.Conn(ctx, r.db).
		Model(&model.WorkOrder{}).
		Where("number LIKE ?", fmt.Sprintf("OT-%04d-%%", year)).
		Order("LENGTH(number) DESC, number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// Transition moves an order from one state to another. It fails with
// ErrStaleWrite when the stored state is no longer from.
func (r *WorkOrderRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.WorkOrderState, fields map[string]interface{}) error {
	updates := map[string]interface{}{"state": to}
	for key, value := range fields {
		updates[key] = value
	}

	result := db.Conn(ctx, r.db).
		Model(&model.WorkOrder{}).
		Where("id = ? AND state = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (r *WorkOrderRepository) LogStatusChange(ctx context.Context, entry *model.WorkOrderStatusLog) error {
	return db.Conn(ctx, r.db).Create(entry).Error
}

func (r *WorkOrderRepository) ListStatusLog(ctx context.Context, orderID uuid.UUID) ([]model.WorkOrderStatusLog, error) {
	var entries []model.WorkOrderStatusLog
	if err := db.Conn(ctx, r.db).
		Where("work_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *WorkOrderRepository) NextTaskPosition(ctx context.Context, orderID uuid.UUID) (int, error) {
	var position int
	err := db.Conn(ctx, r.db).
		Model(&model.Task{}).
		Where("work_order_id = ?", orderID).
		Select("COALESCE(MAX(position), 0) + 1").
		Scan(&position).Error
	return position, err
}

func (r *WorkOrderRepository) CreateTask(ctx context.Context, task *model.Task) error {
	return db.Conn(ctx, r.db).Omit("PartUsages").Create(task).Error
}

func (r *WorkOrderRepository) UpdateTask(ctx context.Context, task *model.Task) error {
	return db.Conn(ctx, r.db).
		Model(task).
		Select("description", "completed", "technician_id", "hours_worked").
		Updates(task).Error
}

func (r *WorkOrderRepository) CreatePartUsage(ctx context.Context, usage *model.PartUsage) error {
	return db.Conn(ctx, r.db).Omit("Part").Create(usage).Error
}
