package perm

import (
	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

// PermissionLevel is the coarse per-child view the UI renders from.
type PermissionLevel string

const (
	LevelNone PermissionLevel = "none"
	LevelView PermissionLevel = "view"
	LevelEdit PermissionLevel = "edit"
	LevelFull PermissionLevel = "full"
)

// Checker binds an authenticated user and answers the concrete questions the
// dashboard asks before rendering or performing an action. A nil user is the
// signed-out state: every predicate is false and every level is none.
type Checker struct {
	user *models.User
}

func NewChecker(user *models.User) *Checker {
	return &Checker{user: user}
}

func (c *Checker) base() (Context, bool) {
	if c == nil || c.user == nil {
		return Context{}, false
	}
	return Context{ActorRole: c.user.Role, ActorID: c.user.ID}, true
}

// childContext folds the caller's relation row (if any) into the context.
func (c *Checker) childContext(ch models.ChildWithAccess) (Context, bool) {
	ctx, ok := c.base()
	if !ok {
		return ctx, false
	}
	ctx.ResourceOwnerID = ch.CreatedBy
	if ch.Access != nil {
		ctx.Relationship = ch.Access.Relationship
		ctx.Capabilities = Capabilities{
			CanEdit:   ch.Access.CanEdit,
			CanView:   ch.Access.CanView,
			CanExport: ch.Access.CanExport,
		}
	}
	return ctx, true
}

func (c *Checker) CanCreateChild() bool {
	ctx, ok := c.base()
	return ok && IsAllowed(ChildrenCreate, ctx)
}

func (c *Checker) CanReadChild(ch models.ChildWithAccess) bool {
	ctx, ok := c.childContext(ch)
	return ok && IsAllowed(ChildrenReadAccessible, ctx)
}

func (c *Checker) CanEditChild(ch models.ChildWithAccess) bool {
	ctx, ok := c.childContext(ch)
	return ok && IsAllowed(ChildrenUpdateEditable, ctx)
}

func (c *Checker) CanDeleteChild(ch models.ChildWithAccess) bool {
	ctx, ok := c.childContext(ch)
	return ok && IsAllowed(ChildrenDeleteOwn, ctx)
}

func (c *Checker) CanShareChild(ch models.ChildWithAccess) bool {
	ctx, ok := c.childContext(ch)
	return ok && IsAllowed(ChildrenShareOwn, ctx)
}

func (c *Checker) CanCreateLog(ch models.ChildWithAccess) bool {
	ctx, ok := c.childContext(ch)
	return ok && IsAllowed(LogsCreateEditable, ctx)
}

func (c *Checker) CanReadLogs(ch models.ChildWithAccess) bool {
	ctx, ok := c.childContext(ch)
	return ok && IsAllowed(LogsReadAccessible, ctx)
}

// CanEditLog checks edit rights on one log entry, which belong to whoever
// recorded it rather than to the child's relation.
func (c *Checker) CanEditLog(logOwnerID uuid.UUID) bool {
	ctx, ok := c.base()
	if !ok {
		return false
	}
	ctx.ResourceOwnerID = logOwnerID
	return IsAllowed(LogsUpdateOwn, ctx)
}

func (c *Checker) CanExportLogs(ch models.ChildWithAccess) bool {
	ctx, ok := c.childContext(ch)
	return ok && IsAllowed(LogsExportExportable, ctx)
}

func (c *Checker) HasRole(role models.Role) bool {
	return c != nil && c.user != nil && c.user.Role == role
}

// PermissionLevel collapses the caller's standing on a child to one of
// none/view/edit/full. Precedence is fixed: owner first (an owner with no
// relation row is still full), then edit, then view.
func (c *Checker) PermissionLevel(ch models.ChildWithAccess) PermissionLevel {
	if c == nil || c.user == nil {
		return LevelNone
	}
	if ch.CreatedBy != uuid.Nil && ch.CreatedBy == c.user.ID {
		return LevelFull
	}
	if ch.Access != nil {
		if ch.Access.CanEdit {
			return LevelEdit
		}
		if ch.Access.CanView {
			return LevelView
		}
	}
	return LevelNone
}
