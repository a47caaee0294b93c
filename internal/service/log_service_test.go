//go:build testutil
// +build testutil

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
	"github.com/odaliasengell/neurolog-app-sub000/internal/service"
)

func TestLogUpdate_RequiresDateAndTitle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	parent := e.user(t, models.RoleParent)
	child, err := e.children.Create(ctx, parent, service.CreateChildInput{Name: "Noah"})
	if err != nil {
		t.Fatal(err)
	}
	entry, err := e.logs.Create(ctx, parent, service.CreateLogInput{
		ChildID: child.ID,
		LogDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		Title:   "First words",
	})
	if err != nil {
		t.Fatal(err)
	}

	// A recorder editing their own entry still cannot blank out the date.
	_, err = e.logs.Update(ctx, parent, entry.ID, service.UpdateLogInput{
		Title: "First words",
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("zero-date update: got %v, want ErrValidation", err)
	}

	_, err = e.logs.Update(ctx, parent, entry.ID, service.UpdateLogInput{
		LogDate: entry.LogDate,
		Title:   "   ",
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("blank-title update: got %v, want ErrValidation", err)
	}

	got, err := e.logs.Update(ctx, parent, entry.ID, service.UpdateLogInput{
		LogDate:  time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		Category: "speech",
		Title:    "First words, continued",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "First words, continued" || !got.LogDate.Equal(time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("update not applied: %+v", got)
	}
}
