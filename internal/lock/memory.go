package lock

import (
	"context"
	"sync"
)

// MemoryLock is an in-process SubmissionLock for tests and single-node
// deployments without Redis.
type MemoryLock struct {
	mu     sync.Mutex
	claims map[string]bool
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{claims: make(map[string]bool)}
}

func (l *MemoryLock) Acquire(_ context.Context, challengeID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claims[challengeID] {
		return false, nil
	}
	l.claims[challengeID] = true
	return true, nil
}

func (l *MemoryLock) Release(_ context.Context, challengeID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claims, challengeID)
	return nil
}

var _ SubmissionLock = (*MemoryLock)(nil)
