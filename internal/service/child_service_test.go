//go:build testutil
// +build testutil

package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odaliasengell/neurolog-app-sub000/internal/db"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
	"github.com/odaliasengell/neurolog-app-sub000/internal/notify"
	"github.com/odaliasengell/neurolog-app-sub000/internal/perm"
	"github.com/odaliasengell/neurolog-app-sub000/internal/service"
	"github.com/odaliasengell/neurolog-app-sub000/internal/testutil/testdb"
)

type env struct {
	h        *testdb.DBHandle
	children *service.ChildService
	logs     *service.LogService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)

	log := zap.NewNop().Sugar()
	notifier, err := notify.New("", log) // disabled
	if err != nil {
		t.Fatal(err)
	}
	return &env{
		h:        h,
		children: service.NewChildService(h.DB, notifier, log),
		logs:     service.NewLogService(h.DB, log),
	}
}

func (e *env) user(t *testing.T, role models.Role) *models.User {
	t.Helper()
	u := models.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@test.local",
		Name:  "user " + string(role),
		Role:  role,
	}
	if err := db.CreateUser(context.Background(), e.h.DB, u); err != nil {
		t.Fatal(err)
	}
	return &u
}

func TestChildLifecycle_ShareAndRevoke(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	parent := e.user(t, models.RoleParent)
	teacher := e.user(t, models.RoleTeacher)

	child, err := e.children.Create(ctx, parent, service.CreateChildInput{Name: "Mia"})
	if err != nil {
		t.Fatal(err)
	}

	// Before the grant the teacher cannot even see the child: not found,
	// not forbidden.
	if _, err := e.children.Get(ctx, teacher, child.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("pre-grant get: got %v, want ErrNotFound", err)
	}

	// Grant with teacher defaults (edit+view, no export).
	if err := e.children.Share(ctx, parent, child.ID, service.ShareInput{
		GranteeID: teacher.ID, Relationship: models.RelTeacher,
	}); err != nil {
		t.Fatal(err)
	}

	cw, err := e.children.Get(ctx, teacher, child.ID)
	if err != nil {
		t.Fatal(err)
	}
	checker := perm.NewChecker(teacher)
	if !checker.CanEditChild(*cw) {
		t.Error("granted teacher cannot edit")
	}
	if checker.CanExportLogs(*cw) {
		t.Error("teacher defaults should not include export")
	}
	if lvl := checker.PermissionLevel(*cw); lvl != perm.LevelEdit {
		t.Errorf("teacher level = %q, want edit", lvl)
	}

	// Teacher can update but not delete.
	if _, err := e.children.Update(ctx, teacher, child.ID, service.UpdateChildInput{Name: "Mia G."}); err != nil {
		t.Fatalf("granted teacher update failed: %v", err)
	}
	if err := e.children.Delete(ctx, teacher, child.ID); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("teacher delete: got %v, want ErrUnauthorized", err)
	}

	// Teacher records a log, then the parent may not edit that entry.
	entry, err := e.logs.Create(ctx, teacher, service.CreateLogInput{
		ChildID: child.ID, LogDate: time.Now(), Title: "Speech session",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.logs.Update(ctx, parent, entry.ID, service.UpdateLogInput{
		LogDate: time.Now(), Title: "edited",
	}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("non-recorder log edit: got %v, want ErrUnauthorized", err)
	}

	// Revoke twice: the second call is a no-op, not an error.
	if err := e.children.Revoke(ctx, parent, child.ID, teacher.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.children.Revoke(ctx, parent, child.ID, teacher.ID); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if _, err := e.children.Get(ctx, teacher, child.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("post-revoke get: got %v, want ErrNotFound", err)
	}

	// Owner deletes (soft): the child disappears from listings.
	if err := e.children.Delete(ctx, parent, child.ID); err != nil {
		t.Fatal(err)
	}
	list, err := e.children.List(ctx, parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("deleted child still listed: %d", len(list))
	}
	var active bool
	if err := e.h.DB.QueryRow(`SELECT is_active FROM children WHERE id = $1`, child.ID).Scan(&active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			t.Fatal("soft delete physically removed the row")
		}
		t.Fatal(err)
	}
	if active {
		t.Fatal("delete did not flag the child inactive")
	}
}

func TestShare_ValidationAndAuthorization(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	parent := e.user(t, models.RoleParent)
	specialist := e.user(t, models.RoleSpecialist)
	observer := e.user(t, models.RoleObserver)

	child, err := e.children.Create(ctx, parent, service.CreateChildInput{Name: "Leo"})
	if err != nil {
		t.Fatal(err)
	}

	// Unknown relationship type is rejected before any store write.
	err = e.children.Share(ctx, parent, child.ID, service.ShareInput{
		GranteeID: specialist.ID, Relationship: models.Relationship("neighbor"),
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("bad relationship: got %v, want ErrValidation", err)
	}
	var count int
	if err := e.h.DB.QueryRow(`SELECT COUNT(*) FROM child_access`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("rejected grant still wrote %d rows", count)
	}

	// Specialists cannot create children at all.
	if _, err := e.children.Create(ctx, specialist, service.CreateChildInput{Name: "Nope"}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("specialist create: got %v, want ErrUnauthorized", err)
	}

	// A specialist grant defaults to view+export and may export but not edit.
	if err := e.children.Share(ctx, parent, child.ID, service.ShareInput{
		GranteeID: specialist.ID, Relationship: models.RelSpecialist,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.children.Update(ctx, specialist, child.ID, service.UpdateChildInput{Name: "X"}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("specialist update: got %v, want ErrUnauthorized", err)
	}
	if _, _, err := e.logs.Export(ctx, specialist, child.ID, time.Time{}, time.Time{}); err != nil {
		t.Fatalf("specialist export failed: %v", err)
	}

	// An observer grant may view but not export.
	if err := e.children.Share(ctx, parent, child.ID, service.ShareInput{
		GranteeID: observer.ID, Relationship: models.RelObserver,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.children.Get(ctx, observer, child.ID); err != nil {
		t.Fatalf("observer get failed: %v", err)
	}
	if _, _, err := e.logs.Export(ctx, observer, child.ID, time.Time{}, time.Time{}); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("observer export: got %v, want ErrUnauthorized", err)
	}

	// Members listing requires share rights.
	if _, err := e.children.Members(ctx, observer, child.ID); !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("observer members: got %v, want ErrUnauthorized", err)
	}
	members, err := e.children.Members(ctx, parent, child.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 {
		t.Fatalf("members: got %d, want 2", len(members))
	}
}

func TestCoParent_CanShare(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	owner := e.user(t, models.RoleParent)
	coParent := e.user(t, models.RoleParent)
	teacher := e.user(t, models.RoleTeacher)

	child, err := e.children.Create(ctx, owner, service.CreateChildInput{Name: "Ana"})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.children.Share(ctx, owner, child.ID, service.ShareInput{
		GranteeID: coParent.ID, Relationship: models.RelParent,
	}); err != nil {
		t.Fatal(err)
	}

	// The co-parent is not the owner but re-shares via the parent relation.
	if err := e.children.Share(ctx, coParent, child.ID, service.ShareInput{
		GranteeID: teacher.ID, Relationship: models.RelTeacher,
	}); err != nil {
		t.Fatalf("co-parent share failed: %v", err)
	}
}

func TestNoUser_Unauthenticated(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	if _, err := e.children.List(ctx, nil); !errors.Is(err, service.ErrUnauthenticated) {
		t.Fatalf("nil actor list: got %v, want ErrUnauthenticated", err)
	}
	if _, err := e.children.Create(ctx, nil, service.CreateChildInput{Name: "X"}); !errors.Is(err, service.ErrUnauthenticated) {
		t.Fatalf("nil actor create: got %v, want ErrUnauthenticated", err)
	}
}
