package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IntervalKind string

const (
	IntervalKindDistance IntervalKind = "DISTANCE"
	IntervalKindTime     IntervalKind = "TIME"
)

func (k IntervalKind) Valid() bool {
	return k == IntervalKindDistance || k == IntervalKindTime
}

// PreventivePlan holds the maintenance cadence of one vehicle. Exactly one of
// NextDueKm and NextDueDate is set, depending on Kind.
type PreventivePlan struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"vehicle_id"`
	Kind         IntervalKind `gorm:"type:varchar(16);not null" json:"kind"`
	IntervalKm   int64        `json:"interval_km,omitempty"`
	IntervalDays int          `json:"interval_days,omitempty"`
	NextDueKm    *int64       `json:"next_due_km,omitempty"`
	NextDueDate  *time.Time   `json:"next_due_date,omitempty"`
	IsActive     bool         `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PreventivePlan) TableName() string {
	return "preventive_plans"
}

func (p *PreventivePlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Recalculate moves the next-due threshold one interval past the given
// odometer reading or calendar day.
func (p *PreventivePlan) Recalculate(odometer int64, today time.Time) {
	switch p.Kind {
	case IntervalKindDistance:
		next := odometer + p.IntervalKm
		p.NextDueKm = &next
		p.NextDueDate = nil
	case IntervalKindTime:
		next := today.AddDate(0, 0, p.IntervalDays)
		p.NextDueDate = &next
		p.NextDueKm = nil
	}
}
