package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/db"
	"maintenance-service/internal/model"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

type AlertFilter struct {
	VehicleID   *uuid.UUID
	PendingOnly bool
	Limit       int
	Offset      int
}

func (r *AlertRepository) List(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	query := db.Conn(ctx, r.db).Model(&model.Alert{})

	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if filter.PendingOnly {
		query = query.Where("notified = ?", false)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var alerts []model.Alert
	if err := query.
		Order("created_at DESC").
		Preload("Vehicle").
		Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// PendingByVehicleIDs loads the un-notified alerts of the given vehicles in a
// single query, keyed by vehicle.
func (r *AlertRepository) PendingByVehicleIDs(ctx context.Context, vehicleIDs []uuid.UUID) (map[uuid.UUID]model.Alert, error) {
	result := make(map[uuid.UUID]model.Alert)
	if len(vehicleIDs) == 0 {
		return result, nil
	}

	var alerts []model.Alert
	if err := db.Conn(ctx, r.db).
		Where("vehicle_id IN ? AND notified = ?", vehicleIDs, false).
		Order("created_at ASC").
		Find(&alerts).Error; err != nil {
		return nil, err
	}

	for _, alert := range alerts {
		if _, ok := result[alert.VehicleID]; !ok {
			result[alert.VehicleID] = alert
		}
	}
	return result, nil
}

func (r *AlertRepository) Create(ctx context.Context, alert *model.Alert) error {
	return db.Conn(ctx, r.db).Omit("Vehicle").Create(alert).Error
}

func (r *AlertRepository) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Conn(ctx, r.db).
		Model(&model.Alert{}).
		Where("id IN ?", ids).
		Update("notified", true).Error
}

// DeleteByVehicle removes every alert of the vehicle and reports how many
// rows were deleted.
func (r *AlertRepository) DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	result := db.Conn(ctx, r.db).
		Where("vehicle_id = ?", vehicleID).
		Delete(&model.Alert{})
	return result.RowsAffected, result.Error
}
