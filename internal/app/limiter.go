package app

import (
	"sync"

	"github.com/google/uuid"
)

// UserLimiter serializes mutating requests per user so two concurrent
// submissions of the same form cannot interleave.
type UserLimiter struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*sync.Mutex
}

func NewUserLimiter() *UserLimiter {
	return &UserLimiter{byID: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *UserLimiter) lock(userID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.byID[userID]
	if !ok {
		m = &sync.Mutex{}
		l.byID[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }
}
