package binding

import (
	"strings"
	"time"
)

type Role string

const (
	RoleEmployee   Role = "employee"
	RoleSupervisor Role = "supervisor"
	RoleHR         Role = "hr"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSupervisor, RoleHR:
		return true
	}
	return false
}

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// UserBinding ties a chat user id to a real name and role. Rows are
// append-only: there is no rebind flow.
type UserBinding struct {
	UserID      string    `gorm:"column:user_id;type:varchar(64);primaryKey" json:"user_id"`
	DisplayName string    `gorm:"column:display_name;type:varchar(255);not null" json:"display_name"`
	Role        Role      `gorm:"column:role;type:varchar(20);not null;default:employee;index:idx_user_bindings_role" json:"role"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (UserBinding) TableName() string {
	return "user_bindings"
}

// SeedBinding is a binding provisioned from configuration at startup.
type SeedBinding struct {
	UserID      string
	DisplayName string
	Role        Role
}
