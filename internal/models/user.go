package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleParent     Role = "parent"
	RoleTeacher    Role = "teacher"
	RoleSpecialist Role = "specialist"
	RoleObserver   Role = "observer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleTeacher, RoleSpecialist, RoleObserver, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	Role           Role
	APIToken       string
	TelegramChatID *int64
	IsActive       bool
	CreatedAt      time.Time
}
