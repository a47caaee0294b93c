package perm

import (
	"testing"

	"github.com/google/uuid"

	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

func newChild(owner uuid.UUID, access *models.ChildAccess) models.ChildWithAccess {
	return models.ChildWithAccess{
		Child:  models.Child{ID: uuid.New(), Name: "Test", CreatedBy: owner, IsActive: true},
		Access: access,
	}
}

func TestChecker_NilUser_FailsClosed(t *testing.T) {
	var nilChecker *Checker
	for _, c := range []*Checker{nil, NewChecker(nil), nilChecker} {
		ch := newChild(uuid.New(), &models.ChildAccess{
			Relationship: models.RelParent, CanEdit: true, CanView: true, CanExport: true,
		})
		if c.CanCreateChild() || c.CanReadChild(ch) || c.CanEditChild(ch) ||
			c.CanDeleteChild(ch) || c.CanShareChild(ch) || c.CanCreateLog(ch) ||
			c.CanReadLogs(ch) || c.CanExportLogs(ch) || c.CanEditLog(uuid.New()) ||
			c.HasRole(models.RoleAdmin) {
			t.Fatal("signed-out checker granted something")
		}
		if lvl := c.PermissionLevel(ch); lvl != LevelNone {
			t.Fatalf("signed-out level = %q, want none", lvl)
		}
	}
}

func TestChecker_OwnerWithoutRelationRow(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Role: models.RoleParent}
	c := NewChecker(owner)
	ch := newChild(owner.ID, nil)

	if !c.CanReadChild(ch) || !c.CanEditChild(ch) || !c.CanShareChild(ch) {
		t.Error("owner without relation row lost rights")
	}
	if !c.CanDeleteChild(ch) {
		t.Error("parent owner cannot delete")
	}
	if got := c.PermissionLevel(ch); got != LevelFull {
		t.Errorf("owner level = %q, want full", got)
	}
}

func TestChecker_TeacherOwnerCannotDelete(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Role: models.RoleTeacher}
	c := NewChecker(owner)
	ch := newChild(owner.ID, nil)

	if !c.CanEditChild(ch) {
		t.Error("teacher owner cannot edit own registration")
	}
	if c.CanDeleteChild(ch) {
		t.Error("teacher owner can delete")
	}
}

func TestChecker_PermissionLevelPrecedence(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleTeacher}
	c := NewChecker(user)
	owner := uuid.New()

	cases := []struct {
		name   string
		access *models.ChildAccess
		want   PermissionLevel
	}{
		{"edit beats view", &models.ChildAccess{CanEdit: true, CanView: true}, LevelEdit},
		{"view only", &models.ChildAccess{CanView: true}, LevelView},
		{"no flags", &models.ChildAccess{}, LevelNone},
		{"no relation", nil, LevelNone},
	}
	for _, tc := range cases {
		if got := c.PermissionLevel(newChild(owner, tc.access)); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestChecker_RelationFlagsNeverWidenRole(t *testing.T) {
	// An observer handed full flags by mistake still cannot edit: the role
	// gate runs first.
	obs := &models.User{ID: uuid.New(), Role: models.RoleObserver}
	c := NewChecker(obs)
	ch := newChild(uuid.New(), &models.ChildAccess{
		Relationship: models.RelObserver, CanEdit: true, CanView: true, CanExport: true,
	})

	if c.CanEditChild(ch) {
		t.Error("observer edited through relation flags")
	}
	if c.CanCreateLog(ch) {
		t.Error("observer created log through relation flags")
	}
	if c.CanExportLogs(ch) {
		t.Error("observer exported through relation flags")
	}
	if !c.CanReadChild(ch) {
		t.Error("observer with view flag denied read")
	}
}

func TestChecker_CanEditLog(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleTeacher}
	c := NewChecker(user)

	if !c.CanEditLog(user.ID) {
		t.Error("log owner denied edit")
	}
	if c.CanEditLog(uuid.New()) {
		t.Error("non-owner allowed to edit someone else's log")
	}
}

func TestChecker_HasRole(t *testing.T) {
	c := NewChecker(&models.User{ID: uuid.New(), Role: models.RoleAdmin})
	if !c.HasRole(models.RoleAdmin) || c.HasRole(models.RoleParent) {
		t.Error("HasRole mismatch")
	}
}
