//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/db"
	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
	"github.com/odaliasengell/neurolog-app-sub000/internal/testutil/testdb"
)

func seedUser(t *testing.T, database *sql.DB, role models.Role) uuid.UUID {
	t.Helper()
	u := models.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@test.local",
		Name:  "user " + string(role),
		Role:  role,
	}
	if err := db.CreateUser(context.Background(), database, u); err != nil {
		t.Fatal(err)
	}
	return u.ID
}

func seedChild(t *testing.T, database *sql.DB, owner uuid.UUID) uuid.UUID {
	t.Helper()
	c := models.Child{ID: uuid.New(), Name: "Mia", CreatedBy: owner, IsActive: true}
	if err := db.CreateChild(context.Background(), database, c); err != nil {
		t.Fatal(err)
	}
	return c.ID
}

func TestGrantAccess_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	owner := seedUser(t, h.DB, models.RoleParent)
	teacher := seedUser(t, h.DB, models.RoleTeacher)
	childID := seedChild(t, h.DB, owner)

	grant := models.ChildAccess{
		UserID: teacher, ChildID: childID,
		Relationship: models.RelTeacher,
		CanEdit:      true, CanView: true,
		GrantedBy: owner,
	}
	if err := db.GrantAccess(ctx, h.DB, grant); err != nil {
		t.Fatal(err)
	}
	// Second grant for the same pair with different flags replaces, never
	// duplicates.
	grant.Relationship = models.RelSpecialist
	grant.CanEdit = false
	grant.CanExport = true
	if err := db.GrantAccess(ctx, h.DB, grant); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := h.DB.QueryRow(
		`SELECT COUNT(*) FROM child_access WHERE user_id = $1 AND child_id = $2`,
		teacher, childID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 relation row, got %d", count)
	}

	a, err := db.GetAccess(ctx, h.DB, teacher, childID)
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Fatal("relation row missing after upsert")
	}
	if a.Relationship != models.RelSpecialist || a.CanEdit || !a.CanExport {
		t.Fatalf("upsert did not replace flags: %+v", a)
	}
}

func TestRevokeAccess_MissingRowIsNoop(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	owner := seedUser(t, h.DB, models.RoleParent)
	stranger := seedUser(t, h.DB, models.RoleObserver)
	childID := seedChild(t, h.DB, owner)

	if err := db.RevokeAccess(ctx, h.DB, childID, stranger); err != nil {
		t.Fatalf("revoking absent relation errored: %v", err)
	}
}

func TestGetAccess_AbsentIsNilNil(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	owner := seedUser(t, h.DB, models.RoleParent)
	stranger := seedUser(t, h.DB, models.RoleObserver)
	childID := seedChild(t, h.DB, owner)

	a, err := db.GetAccess(ctx, h.DB, stranger, childID)
	if err != nil {
		t.Fatal(err)
	}
	if a != nil {
		t.Fatalf("expected no relation, got %+v", a)
	}
}

func TestListChildrenForUser_Annotation(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	owner := seedUser(t, h.DB, models.RoleParent)
	teacher := seedUser(t, h.DB, models.RoleTeacher)
	ownChild := seedChild(t, h.DB, owner)
	sharedChild := seedChild(t, h.DB, owner)

	if err := db.GrantAccess(ctx, h.DB, models.ChildAccess{
		UserID: teacher, ChildID: sharedChild,
		Relationship: models.RelTeacher, CanEdit: true, CanView: true,
		GrantedBy: owner,
	}); err != nil {
		t.Fatal(err)
	}

	// Owner sees both children, no relation rows needed.
	ownerList, err := db.ListChildrenForUser(ctx, h.DB, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(ownerList) != 2 {
		t.Fatalf("owner list: got %d children, want 2", len(ownerList))
	}
	for _, cw := range ownerList {
		if cw.Access != nil {
			t.Errorf("owner rows should carry no relation, got %+v", cw.Access)
		}
	}

	// Teacher sees only the shared child, annotated.
	teacherList, err := db.ListChildrenForUser(ctx, h.DB, teacher)
	if err != nil {
		t.Fatal(err)
	}
	if len(teacherList) != 1 {
		t.Fatalf("teacher list: got %d children, want 1", len(teacherList))
	}
	got := teacherList[0]
	if got.ID != sharedChild {
		t.Errorf("teacher sees wrong child %s", got.ID)
	}
	if got.Access == nil || got.Access.Relationship != models.RelTeacher || !got.Access.CanEdit {
		t.Errorf("relation annotation missing or wrong: %+v", got.Access)
	}

	// Soft delete hides the child from everyone.
	if err := db.SoftDeleteChild(ctx, h.DB, sharedChild); err != nil {
		t.Fatal(err)
	}
	teacherList, err = db.ListChildrenForUser(ctx, h.DB, teacher)
	if err != nil {
		t.Fatal(err)
	}
	if len(teacherList) != 0 {
		t.Fatalf("soft-deleted child still listed: %d", len(teacherList))
	}

	ownChildRow, err := db.GetChildForUser(ctx, h.DB, ownChild, owner)
	if err != nil {
		t.Fatal(err)
	}
	if ownChildRow == nil || ownChildRow.CreatedBy != owner {
		t.Fatalf("own child lookup broken: %+v", ownChildRow)
	}
}
