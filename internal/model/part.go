package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Part struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Stock     int64           `gorm:"not null;default:0" json:"stock"`
	Archived  bool            `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Part) TableName() string {
	return "parts"
}

func (p *Part) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type MovementType string

const (
	MovementDeduct  MovementType = "DEDUCT"
	MovementRestock MovementType = "RESTOCK"
)

// PartMovement records one stock change. Quantity is negative for deductions.
type PartMovement struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PartID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"part_id"`
	Type        MovementType `gorm:"type:varchar(16);not null" json:"type"`
	Quantity    int64        `gorm:"not null" json:"quantity"`
	WorkOrderID *uuid.UUID   `gorm:"type:uuid" json:"work_order_id"`
	CreatedBy   *uuid.UUID   `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (PartMovement) TableName() string {
	return "part_movements"
}

func (m *PartMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
