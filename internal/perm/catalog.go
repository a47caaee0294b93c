// Package perm is the authorization core: a closed action catalog, a static
// role→action table, per-action conditions and a user-bound facade. It is
// pure — no storage, no clock, no ambient identity. Callers build a Context
// from the authenticated user and the target entity and ask IsAllowed.
package perm

import "github.com/odaliasengell/neurolog-app-sub000/internal/models"

// Action names one guarded operation. The catalog is closed: anything not
// listed here is denied outright.
type Action string

const (
	ChildrenCreate         Action = "children.create"
	ChildrenReadOwn        Action = "children.read.own"
	ChildrenReadAccessible Action = "children.read.accessible"
	ChildrenUpdateOwn      Action = "children.update.own"
	ChildrenUpdateEditable Action = "children.update.editable"
	ChildrenDeleteOwn      Action = "children.delete.own"
	ChildrenShareOwn       Action = "children.share.own"
	LogsCreateEditable     Action = "logs.create.editable"
	LogsReadAccessible     Action = "logs.read.accessible"
	LogsUpdateOwn          Action = "logs.update.own"
	LogsExportExportable   Action = "logs.export.exportable"
	ProfileReadOwn         Action = "profile.read.own"
	ProfileUpdateOwn       Action = "profile.update.own"
)

var allActions = []Action{
	ChildrenCreate,
	ChildrenReadOwn,
	ChildrenReadAccessible,
	ChildrenUpdateOwn,
	ChildrenUpdateEditable,
	ChildrenDeleteOwn,
	ChildrenShareOwn,
	LogsCreateEditable,
	LogsReadAccessible,
	LogsUpdateOwn,
	LogsExportExportable,
	ProfileReadOwn,
	ProfileUpdateOwn,
}

// roleActions is the stage-one gate: the base action set per role,
// independent of any concrete child. Relation flags can only narrow inside
// this set, never widen past it.
var roleActions = map[models.Role]map[Action]bool{
	models.RoleParent: actionSet(
		ChildrenCreate,
		ChildrenReadOwn, ChildrenReadAccessible,
		ChildrenUpdateOwn, ChildrenUpdateEditable,
		ChildrenDeleteOwn, ChildrenShareOwn,
		LogsCreateEditable, LogsReadAccessible, LogsUpdateOwn, LogsExportExportable,
		ProfileReadOwn, ProfileUpdateOwn,
	),
	// Teachers may own children they registered themselves, so they carry
	// the owner-conditioned actions too; delete stays parent-only.
	models.RoleTeacher: actionSet(
		ChildrenCreate,
		ChildrenReadOwn, ChildrenReadAccessible,
		ChildrenUpdateOwn, ChildrenUpdateEditable,
		ChildrenShareOwn,
		LogsCreateEditable, LogsReadAccessible, LogsUpdateOwn, LogsExportExportable,
		ProfileReadOwn, ProfileUpdateOwn,
	),
	models.RoleSpecialist: actionSet(
		ChildrenReadAccessible,
		LogsReadAccessible, LogsExportExportable,
		ProfileReadOwn, ProfileUpdateOwn,
	),
	models.RoleObserver: actionSet(
		ChildrenReadAccessible,
		LogsReadAccessible,
		ProfileReadOwn, ProfileUpdateOwn,
	),
	models.RoleAdmin: actionSet(allActions...),
}

func actionSet(actions ...Action) map[Action]bool {
	s := make(map[Action]bool, len(actions))
	for _, a := range actions {
		s[a] = true
	}
	return s
}
