package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleSupervisor UserRole = "SUPERVISOR"
	UserRoleTechnician UserRole = "TECHNICIAN"
	UserRoleDriver     UserRole = "DRIVER"
)

type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// IsSupervisor reports whether the caller may act on any work order.
// Administrators are treated as supervisors.
func (p Principal) IsSupervisor() bool {
	return p.Role == UserRoleSupervisor || p.Role == UserRoleAdmin
}

func (p Principal) IsTechnician() bool {
	return p.Role == UserRoleTechnician
}

func (p Principal) IsDriver() bool {
	return p.Role == UserRoleDriver
}
