package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WorkOrderType string

const (
	WorkOrderTypePreventive WorkOrderType = "PREVENTIVE"
	WorkOrderTypeCorrective WorkOrderType = "CORRECTIVE"
)

func (t WorkOrderType) Valid() bool {
	return t == WorkOrderTypePreventive || t == WorkOrderTypeCorrective
}

type WorkOrderState string

const (
	WorkOrderStatePending    WorkOrderState = "PENDING"
	WorkOrderStateAssigned   WorkOrderState = "ASSIGNED"
	WorkOrderStateInProgress WorkOrderState = "IN_PROGRESS"
	WorkOrderStateClosed     WorkOrderState = "CLOSED"
)

// Next returns the only state reachable from s. Closed has no successor.
func (s WorkOrderState) Next() (WorkOrderState, bool) {
	switch s {
	case WorkOrderStatePending:
		return WorkOrderStateAssigned, true
	case WorkOrderStateAssigned:
		return WorkOrderStateInProgress, true
	case WorkOrderStateInProgress:
		return WorkOrderStateClosed, true
	default:
		return "", false
	}
}

type WorkOrder struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Number       string          `gorm:"type:varchar(16);not null;uniqueIndex" json:"number"`
	VehicleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Type         WorkOrderType   `gorm:"type:varchar(16);not null" json:"type"`
	Description  string          `gorm:"type:text" json:"description"`
	State        WorkOrderState  `gorm:"type:varchar(16);not null;default:'PENDING'" json:"state"`
	TechnicianID *uuid.UUID      `gorm:"type:uuid" json:"technician_id"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_cost"`
	CreatedBy    uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	ClosedAt     *time.Time      `json:"closed_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Tasks   []Task   `gorm:"foreignKey:WorkOrderID" json:"tasks"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

func (o *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// AssignedTo reports whether userID is the order's technician.
func (o WorkOrder) AssignedTo(userID uuid.UUID) bool {
	return o.TechnicianID != nil && *o.TechnicianID == userID
}

// TasksComplete reports whether every task of the order is completed.
func (o WorkOrder) TasksComplete() bool {
	for _, task := range o.Tasks {
		if !task.Completed {
			return false
		}
	}
	return true
}

type Task struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"work_order_id"`
	Position     int             `gorm:"not null" json:"position"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	Completed    bool            `gorm:"not null;default:false" json:"completed"`
	TechnicianID *uuid.UUID      `gorm:"type:uuid" json:"technician_id"`
	HoursWorked  decimal.Decimal `gorm:"type:decimal(8,2);not null;default:0" json:"hours_worked"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	PartUsages []PartUsage `gorm:"foreignKey:TaskID" json:"part_usages"`
}

func (Task) TableName() string {
	return "work_order_tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// PartUsage keeps the unit price the part had when it was consumed; it is
// never refreshed from the catalog.
type PartUsage struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"task_id"`
	PartID    uuid.UUID       `gorm:"type:uuid;not null" json:"part_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Part *Part `gorm:"foreignKey:PartID" json:"part,omitempty"`
}

func (PartUsage) TableName() string {
	return "part_usages"
}

func (u *PartUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
