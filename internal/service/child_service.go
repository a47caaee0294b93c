// Package service holds the guarded operations behind the dashboard. Every
// method re-checks permissions against freshly loaded rows before touching
// the store; the facade answers the UI renders from are advisory only.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odaliasengell/neurolog-app-sub000/internal/db"
	"github.com/odaliasengell/neurolog-app-sub000/internal/metrics"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
	"github.com/odaliasengell/neurolog-app-sub000/internal/notify"
	"github.com/odaliasengell/neurolog-app-sub000/internal/perm"
)

type ChildService struct {
	database *sql.DB
	notifier *notify.Notifier
	log      *zap.SugaredLogger
}

func NewChildService(database *sql.DB, notifier *notify.Notifier, log *zap.SugaredLogger) *ChildService {
	return &ChildService{database: database, notifier: notifier, log: log}
}

func checkerFor(actor *models.User) (*perm.Checker, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return perm.NewChecker(actor), nil
}

func decide(action perm.Action, allowed bool) bool {
	metrics.CountDecision(string(action), allowed)
	return allowed
}

type CreateChildInput struct {
	Name      string
	BirthDate *time.Time
	Notes     string
}

func (s *ChildService) Create(ctx context.Context, actor *models.User, in CreateChildInput) (*models.Child, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	if !decide(perm.ChildrenCreate, c.CanCreateChild()) {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: child name is required", ErrValidation)
	}

	child := models.Child{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(in.Name),
		BirthDate: in.BirthDate,
		Notes:     in.Notes,
		CreatedBy: actor.ID,
		IsActive:  true,
	}
	if err := db.CreateChild(ctx, s.database, child); err != nil {
		return nil, fmt.Errorf("create child: %w", err)
	}
	s.log.Infow("child created", "child_id", child.ID, "by", actor.ID)
	return &child, nil
}

// Get loads one child for the actor. Not-viewable resolves to ErrNotFound,
// same as absent, so existence never leaks.
func (s *ChildService) Get(ctx context.Context, actor *models.User, childID uuid.UUID) (*models.ChildWithAccess, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	cw, err := db.GetChildForUser(ctx, s.database, childID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	if cw == nil || !decide(perm.ChildrenReadAccessible, c.CanReadChild(*cw)) {
		return nil, ErrNotFound
	}
	return cw, nil
}

// List returns the actor's accessible children. The relation annotation is
// kept on each row so the UI can derive its permission level per child.
func (s *ChildService) List(ctx context.Context, actor *models.User) ([]models.ChildWithAccess, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	all, err := db.ListChildrenForUser(ctx, s.database, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	// The query already restricts to owned-or-related rows; re-filter through
	// the engine anyway so a view-less relation row stays invisible.
	out := all[:0]
	for _, cw := range all {
		if c.CanReadChild(cw) {
			out = append(out, cw)
		}
	}
	return out, nil
}

type UpdateChildInput struct {
	Name      string
	BirthDate *time.Time
	Notes     string
}

func (s *ChildService) Update(ctx context.Context, actor *models.User, childID uuid.UUID, in UpdateChildInput) (*models.ChildWithAccess, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	cw, err := s.Get(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	if !decide(perm.ChildrenUpdateEditable, c.CanEditChild(*cw)) {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: child name is required", ErrValidation)
	}

	cw.Name = strings.TrimSpace(in.Name)
	cw.BirthDate = in.BirthDate
	cw.Notes = in.Notes
	if err := db.UpdateChild(ctx, s.database, cw.Child); err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	return cw, nil
}

// Delete soft-deletes: owner only, and only when the owner's role is parent.
func (s *ChildService) Delete(ctx context.Context, actor *models.User, childID uuid.UUID) error {
	c, err := checkerFor(actor)
	if err != nil {
		return err
	}
	cw, err := s.Get(ctx, actor, childID)
	if err != nil {
		return err
	}
	if !decide(perm.ChildrenDeleteOwn, c.CanDeleteChild(*cw)) {
		return ErrUnauthorized
	}
	if err := db.SoftDeleteChild(ctx, s.database, childID); err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	s.log.Infow("child deactivated", "child_id", childID, "by", actor.ID)
	return nil
}

type ShareInput struct {
	GranteeID    uuid.UUID
	Relationship models.Relationship
	// Capabilities override the relationship defaults when non-nil.
	Capabilities *perm.Capabilities
}

// Share grants the grantee access to the child. The capability flags default
// from the relationship type alone, never from the granter's own standing.
func (s *ChildService) Share(ctx context.Context, actor *models.User, childID uuid.UUID, in ShareInput) error {
	c, err := checkerFor(actor)
	if err != nil {
		return err
	}
	cw, err := s.Get(ctx, actor, childID)
	if err != nil {
		return err
	}
	if !decide(perm.ChildrenShareOwn, c.CanShareChild(*cw)) {
		return ErrUnauthorized
	}
	if !in.Relationship.Valid() {
		return fmt.Errorf("%w: unknown relationship %q", ErrValidation, in.Relationship)
	}
	if in.GranteeID == uuid.Nil {
		return fmt.Errorf("%w: grantee is required", ErrValidation)
	}
	grantee, err := db.GetUserByID(ctx, s.database, in.GranteeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: grantee does not exist", ErrValidation)
		}
		return fmt.Errorf("load grantee: %w", err)
	}

	caps := perm.DefaultCapabilitiesFor(in.Relationship)
	if in.Capabilities != nil {
		caps = *in.Capabilities
	}
	access := models.ChildAccess{
		UserID:       in.GranteeID,
		ChildID:      childID,
		Relationship: in.Relationship,
		CanEdit:      caps.CanEdit,
		CanView:      caps.CanView,
		CanExport:    caps.CanExport,
		GrantedBy:    actor.ID,
	}
	if err := db.GrantAccess(ctx, s.database, access); err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	s.log.Infow("access granted",
		"child_id", childID, "grantee", in.GranteeID, "rel", in.Relationship, "by", actor.ID)

	if grantee.TelegramChatID != nil {
		s.notifier.AccessGranted(*grantee.TelegramChatID, cw.Name, in.Relationship)
	}
	return nil
}

// Revoke removes the grantee's relation. Revoking a relation that does not
// exist succeeds silently.
func (s *ChildService) Revoke(ctx context.Context, actor *models.User, childID, granteeID uuid.UUID) error {
	c, err := checkerFor(actor)
	if err != nil {
		return err
	}
	cw, err := s.Get(ctx, actor, childID)
	if err != nil {
		return err
	}
	if !decide(perm.ChildrenShareOwn, c.CanShareChild(*cw)) {
		return ErrUnauthorized
	}
	if err := db.RevokeAccess(ctx, s.database, childID, granteeID); err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	s.log.Infow("access revoked", "child_id", childID, "grantee", granteeID, "by", actor.ID)

	grantee, err := db.GetUserByID(ctx, s.database, granteeID)
	if err == nil && grantee.TelegramChatID != nil {
		s.notifier.AccessRevoked(*grantee.TelegramChatID, cw.Name)
	}
	return nil
}

// Members lists everyone with a relation to the child, for the sharing
// dialog. Requires share rights, same as granting.
func (s *ChildService) Members(ctx context.Context, actor *models.User, childID uuid.UUID) ([]db.AccessMember, error) {
	c, err := checkerFor(actor)
	if err != nil {
		return nil, err
	}
	cw, err := s.Get(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	if !decide(perm.ChildrenShareOwn, c.CanShareChild(*cw)) {
		return nil, ErrUnauthorized
	}
	members, err := db.ListAccessForChild(ctx, s.database, childID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}
