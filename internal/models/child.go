package models

import (
	"time"

	"github.com/google/uuid"
)

// Relationship describes how a user relates to a child they were granted
// access to. The child's owner needs no relation row at all.
type Relationship string

const (
	RelParent     Relationship = "parent"
	RelTeacher    Relationship = "teacher"
	RelSpecialist Relationship = "specialist"
	RelObserver   Relationship = "observer"
	RelFamily     Relationship = "family"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelParent, RelTeacher, RelSpecialist, RelObserver, RelFamily:
		return true
	}
	return false
}

type Child struct {
	ID        uuid.UUID
	Name      string
	BirthDate *time.Time
	Notes     string
	CreatedBy uuid.UUID
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChildAccess is one row of the access relation: user → child with a
// relationship type and capability flags. Unique per (UserID, ChildID).
type ChildAccess struct {
	ID           int64
	UserID       uuid.UUID
	ChildID      uuid.UUID
	Relationship Relationship
	CanEdit      bool
	CanView      bool
	CanExport    bool
	GrantedBy    uuid.UUID
	CreatedAt    time.Time
}

// ChildWithAccess is a child annotated with the caller's own relation.
// Access is nil when the caller is the owner or has no relation at all;
// the permission facade tells those two cases apart by CreatedBy.
type ChildWithAccess struct {
	Child
	Access *ChildAccess
}
