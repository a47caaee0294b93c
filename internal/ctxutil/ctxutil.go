package ctxutil

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// private key to avoid collisions with other packages
type key int

const keyUserID key = iota

// WithUserID carries the authenticated user's id for log enrichment.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserID(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(keyUserID)
	if v == nil {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout caps a store call at DefaultDBTimeout, or at whatever is
// left of the parent deadline if that is shorter.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
