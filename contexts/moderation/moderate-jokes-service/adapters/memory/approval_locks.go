package memory

import (
	"sync"

	"jokemoderation/contexts/moderation/moderate-jokes-service/ports"
)

// ApprovalLocks is a keyed try-lock. It only covers one process.
type ApprovalLocks struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewApprovalLocks() *ApprovalLocks {
	return &ApprovalLocks{active: map[string]struct{}{}}
}

func (l *ApprovalLocks) TryLock(jokeID string) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[jokeID]; busy {
		return nil, false
	}
	l.active[jokeID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, jokeID)
			l.mu.Unlock()
		})
	}, true
}

var _ ports.ApprovalLocker = (*ApprovalLocks)(nil)
