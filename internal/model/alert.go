package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertSeverity string

const (
	AlertSeverityDueSoon AlertSeverity = "DUE_SOON"
	AlertSeverityOverdue AlertSeverity = "OVERDUE"
)

type Alert struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID uuid.UUID     `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Kind      IntervalKind  `gorm:"type:varchar(16);not null" json:"kind"`
	Severity  AlertSeverity `gorm:"type:varchar(16);not null" json:"severity"`
	Message   string        `gorm:"type:text;not null" json:"message"`
	Notified  bool          `gorm:"not null;default:false" json:"notified"`
	CreatedAt time.Time     `json:"created_at"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
}

func (Alert) TableName() string {
	return "alerts"
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
