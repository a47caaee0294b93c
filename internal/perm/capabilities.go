package perm

import "github.com/odaliasengell/neurolog-app-sub000/internal/models"

// Capabilities are the per-relation flags stored on a child_access row.
// The zero value is all-false, which doubles as the "no relation" state.
type Capabilities struct {
	CanEdit   bool
	CanView   bool
	CanExport bool
}

// DefaultCapabilitiesFor returns the capability flags a freshly granted
// relation gets when the granter did not override them. The table depends
// only on the relationship type, never on the granter. Unknown relationship
// types get the zero value — absent from the table means no capabilities.
func DefaultCapabilitiesFor(rel models.Relationship) Capabilities {
	switch rel {
	case models.RelParent:
		return Capabilities{CanEdit: true, CanView: true, CanExport: true}
	case models.RelTeacher:
		return Capabilities{CanEdit: true, CanView: true}
	case models.RelSpecialist:
		return Capabilities{CanView: true, CanExport: true}
	case models.RelObserver:
		return Capabilities{CanView: true}
	case models.RelFamily:
		return Capabilities{CanView: true}
	}
	return Capabilities{}
}
