package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"maintenance-service/internal/db"
	"maintenance-service/internal/model"
)

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

type PartFilter struct {
	Search   string
	LowStock *int64
	Limit    int
	Offset   int
}

func (r *PartRepository) Create(ctx context.Context, part *model.Part) error {
	return db.Conn(ctx, r.db).Create(part).Error
}

func (r *PartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	var part model.Part
	if err := db.Conn(ctx, r.db).
		Where("archived = ?", false).
		First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *PartRepository) List(ctx context.Context, filter PartFilter) ([]model.Part, error) {
	query := db.Conn(ctx, r.db).
		Model(&model.Part{}).
		Where("archived = ?", false)

	if filter.Search != "" {
		search := "%" + strings.ToUpper(filter.Search) + "%"
		query = query.Where("(UPPER(code) LIKE ? OR UPPER(name) LIKE ?)", search, search)
	}
	if filter.LowStock != nil {
		query = query.Where("stock <= ?", *filter.LowStock)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var parts []model.Part
	if err := query.Order("code ASC").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

// Deduct decrements stock only when enough units are on hand. The check and
// the write are one statement, so two concurrent deductions cannot both pass.
func (r *PartRepository) Deduct(ctx context.Context, id uuid.UUID, quantity int64) error {
	result := db.Conn(ctx, r.db).
		Model(&model.Part{}).
		Where("id = ? AND archived = ? AND stock >= ?", id, false, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *PartRepository) Restock(ctx context.Context, id uuid.UUID, quantity int64) error {
	result := db.Conn(ctx, r.db).
		Model(&model.Part{}).
		Where("id = ? AND archived = ?", id, false).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PartRepository) LogMovement(ctx context.Context, movement *model.PartMovement) error {
	return db.Conn(ctx, r.db).Create(movement).Error
}

func (r *PartRepository) ListMovements(ctx context.Context, partID uuid.UUID) ([]model.PartMovement, error) {
	var movements []model.PartMovement
	if err := db.Conn(ctx, r.db).
		Where("part_id = ?", partID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *PartRepository) Archive(ctx context.Context, id uuid.UUID) error {
	result := db.Conn(ctx, r.db).
		Model(&model.Part{}).
		Where("id = ? AND archived = ?", id, false).
		Update("archived", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
