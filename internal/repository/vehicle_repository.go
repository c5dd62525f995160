package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/db"
	"maintenance-service/internal/model"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

type VehicleFilter struct {
	Statuses []model.VehicleStatus
	Search   string
	Limit    int
	Offset   int
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return db.Conn(ctx, r.db).Create(vehicle).Error
}

func (r *VehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := db.Conn(ctx, r.db).
		Preload("Plan").
		Where("archived = ?", false).
		First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *VehicleRepository) List(ctx context.Context, filter VehicleFilter) ([]model.Vehicle, error) {
	query := db.Conn(ctx, r.db).
		Model(&model.Vehicle{}).
		Where("archived = ?", false)

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Search != "" {
		search := "%" + strings.ToUpper(filter.Search) + "%"
		query = query.Where("(UPPER(plate_number) LIKE ? OR UPPER(make) LIKE ? OR UPPER(model) LIKE ?)", search, search, search)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var vehicles []model.Vehicle
	if err := query.Order("plate_number ASC").Preload("Plan").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdateOdometer stores a new reading only if it does not go below the stored one.
func (r *VehicleRepository) UpdateOdometer(ctx context.Context, id uuid.UUID, odometer int64) error {
	result := db.Conn(ctx, r.db).
		Model(&model.Vehicle{}).
		Where("id = ? AND archived = ? AND odometer <= ?", id, false, odometer).
		Update("odometer", odometer)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (r *VehicleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.VehicleStatus) error {
	return db.Conn(ctx, r.db).
		Model(&model.Vehicle{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// MarkServiced returns the vehicle to service after a closed work order.
func (r *VehicleRepository) MarkServiced(ctx context.Context, id uuid.UUID, at time.Time) error {
	return db.Conn(ctx, r.db).
		Model(&model.Vehicle{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          model.VehicleStatusActive,
			"last_service_at": at,
		}).Error
}

func (r *VehicleRepository) Archive(ctx context.Context, id uuid.UUID) error {
	result := db.Conn(ctx, r.db).
		Model(&model.Vehicle{}).
		Where("id = ? AND archived = ?", id, false).
		Updates(map[string]interface{}{
			"archived": true,
			"status":   model.VehicleStatusInactive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDueCandidates returns active, non-archived vehicles that have an active
// preventive plan, with the plan preloaded.
func (r *VehicleRepository) ListDueCandidates(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := db.Conn(ctx, r.db).
		Model(&model.Vehicle{}).
		Joins("JOIN preventive_plans p ON p.vehicle_id = vehicles.id AND p.is_active = ?", true).
		Where("vehicles.status = ? AND vehicles.archived = ?", model.VehicleStatusActive, false).
		Order("vehicles.plate_number ASC").
		Preload("Plan").
		Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}
