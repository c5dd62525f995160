package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/db"
	"maintenance-service/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetByVehicleID(ctx context.Context, vehicleID uuid.UUID) (*model.PreventivePlan, error) {
	var plan model.PreventivePlan
	if err := db.Conn(ctx, r.db).First(&plan, "vehicle_id = ?", vehicleID).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) Create(ctx context.Context, plan *model.PreventivePlan) error {
	return db.Conn(ctx, r.db).Create(plan).Error
}

// Update writes every mutable column, including cleared thresholds.
func (r *PlanRepository) Update(ctx context.Context, plan *model.PreventivePlan) error {
	return db.Conn(ctx, r.db).
		Model(plan).
		Select("kind", "interval_km", "interval_days", "next_due_km", "next_due_date", "is_active").
		Updates(plan).Error
}

func (r *PlanRepository) UpdateThreshold(ctx context.Context, plan *model.PreventivePlan) error {
	return db.Conn(ctx, r.db).
		Model(plan).
		Select("next_due_km", "next_due_date").
		Updates(plan).Error
}

func (r *PlanRepository) Deactivate(ctx context.Context, vehicleID uuid.UUID) error {
	result := db.Conn(ctx, r.db).
		Model(&model.PreventivePlan{}).
		Where("vehicle_id = ?", vehicleID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
