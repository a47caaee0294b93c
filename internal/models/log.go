package models

import (
	"time"

	"github.com/google/uuid"
)

// LogEntry is one daily-log record for a child. It is owned by whoever
// recorded it (LoggedBy), which may differ from the child's owner.
type LogEntry struct {
	ID          uuid.UUID
	ChildID     uuid.UUID
	LoggedBy    uuid.UUID
	LogDate     time.Time
	Category    string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
