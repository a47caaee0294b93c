package perm

import (
	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

// Context carries everything a permission decision needs. It is built by the
// caller (normally the Checker facade) from the authenticated user and the
// target entity; the engine itself never reaches for ambient state.
//
// Zero values mean "not applicable": an all-zero ResourceOwnerID for actions
// without a target, an empty Relationship and zero Capabilities when the
// actor has no relation row. Missing is always the low-privilege reading.
type Context struct {
	ActorRole       models.Role
	ActorID         uuid.UUID
	ResourceOwnerID uuid.UUID
	Relationship    models.Relationship
	Capabilities
}

// IsAllowed decides whether the actor described by ctx may perform action.
// Two gates, both must pass:
//
//  1. the action must be in the actor role's base set (unknown role or
//     unknown action → deny);
//  2. the action's own condition over the context must hold.
//
// A deny is a plain false, never an error. Deterministic: same inputs,
// same answer.
func IsAllowed(action Action, ctx Context) bool {
	set, ok := roleActions[ctx.ActorRole]
	if !ok {
		return false
	}
	if !set[action] {
		return false
	}
	return conditionHolds(action, ctx)
}

func conditionHolds(action Action, ctx Context) bool {
	owner := ctx.ResourceOwnerID != uuid.Nil && ctx.ResourceOwnerID == ctx.ActorID

	switch action {
	case ChildrenReadOwn, ChildrenUpdateOwn, LogsUpdateOwn,
		ProfileReadOwn, ProfileUpdateOwn:
		return owner

	case ChildrenReadAccessible, LogsReadAccessible:
		return ctx.CanView || owner

	case ChildrenUpdateEditable, LogsCreateEditable:
		return ctx.CanEdit || owner

	case ChildrenDeleteOwn:
		// Ownership alone is not enough: a teacher who registered a child
		// still may not delete it. The role re-check is deliberate even
		// though the role gate already ran.
		return owner && ctx.ActorRole == models.RoleParent

	case ChildrenShareOwn:
		// A co-parent relation shares like the owner does.
		return owner || ctx.Relationship == models.RelParent

	case LogsExportExportable:
		return ctx.CanExport || owner

	case ChildrenCreate:
		// Role-global, no per-resource condition.
		return true
	}

	// Recognized by no condition arm and not role-global: an action that
	// never made it into the catalog. Deny.
	return false
}
