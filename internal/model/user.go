package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the read model of an account managed by the identity service.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Role      UserRole  `gorm:"type:varchar(32);not null" json:"role"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// CanBeAssigned reports whether work orders may be assigned to the user.
func (u User) CanBeAssigned() bool {
	return u.IsActive && (u.Role == UserRoleTechnician || u.Role == UserRoleSupervisor)
}
