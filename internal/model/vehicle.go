package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleStatus string

const (
	VehicleStatusActive           VehicleStatus = "ACTIVE"
	VehicleStatusUnderMaintenance VehicleStatus = "UNDER_MAINTENANCE"
	VehicleStatusInactive         VehicleStatus = "INACTIVE"
)

type Vehicle struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PlateNumber   string        `gorm:"type:varchar(32);not null;uniqueIndex" json:"plate_number"`
	Make          string        `gorm:"type:varchar(64)" json:"make"`
	Model         string        `gorm:"type:varchar(64)" json:"model"`
	Year          int           `json:"year"`
	Odometer      int64         `gorm:"not null;default:0" json:"odometer"`
	Status        VehicleStatus `gorm:"type:varchar(32);not null;default:'ACTIVE'" json:"status"`
	LastServiceAt *time.Time    `json:"last_service_at"`
	Archived      bool          `gorm:"not null;default:false" json:"-"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	Plan *PreventivePlan `gorm:"foreignKey:VehicleID" json:"plan,omitempty"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
