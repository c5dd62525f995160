package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkOrderStatusLog struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	WorkOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"work_order_id"`
	OldState    *WorkOrderState `gorm:"type:varchar(16)" json:"old_state"`
	NewState    WorkOrderState  `gorm:"type:varchar(16);not null" json:"new_state"`
	Note        string          `gorm:"type:text" json:"note"`
	ChangedBy   *uuid.UUID      `gorm:"type:uuid" json:"changed_by"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (WorkOrderStatusLog) TableName() string {
	return "work_order_status_log"
}

func (l *WorkOrderStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
