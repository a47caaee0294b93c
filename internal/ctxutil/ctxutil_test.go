package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUserID_Roundtrip(t *testing.T) {
	id := uuid.New()
	ctx := WithUserID(context.Background(), id)

	got, ok := UserID(ctx)
	if !ok || got != id {
		t.Fatalf("UserID = %v, %v; want %v, true", got, ok, id)
	}

	if _, ok := UserID(context.Background()); ok {
		t.Fatal("bare context reported a user id")
	}
}

func TestWithDBTimeout_RespectsParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	ctx, cancel2 := WithDBTimeout(parent)
	defer cancel2()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("no deadline set")
	}
	if time.Until(dl) > 150*time.Millisecond {
		t.Fatalf("deadline %v exceeds the parent's", time.Until(dl))
	}
}

func TestWithDBTimeout_Default(t *testing.T) {
	ctx, cancel := WithDBTimeout(context.Background())
	defer cancel()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("no deadline set")
	}
	remain := time.Until(dl)
	if remain <= 0 || remain > DefaultDBTimeout {
		t.Fatalf("deadline %v outside (0, %v]", remain, DefaultDBTimeout)
	}
}
