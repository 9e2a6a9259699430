package repo

import (
	"context"
	"sync"

	"github.com/chashi-bhai/server/internal/agent/model"
)

// MemoryUserContextRepository keeps contexts for the life of the process.
type MemoryUserContextRepository struct {
	mu    sync.RWMutex
	users map[string]*model.UserContext
}

func NewMemoryUserContextRepository() *MemoryUserContextRepository {
	return &MemoryUserContextRepository{users: make(map[string]*model.UserContext)}
}

func (r *MemoryUserContextRepository) Load(_ context.Context, userID string) (*model.UserContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uc, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	return clone(uc), nil
}

func (r *MemoryUserContextRepository) Save(_ context.Context, uc *model.UserContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[uc.UserID] = clone(uc)
	return nil
}

// clone keeps callers from mutating stored slices behind the lock.
func clone(uc *model.UserContext) *model.UserContext {
	c := *uc
	c.QueryHistory = append([]model.HistoryEntry(nil), uc.QueryHistory...)
	c.CropInterests = append([]string(nil), uc.CropInterests...)
	if uc.LastInteraction != nil {
		t := *uc.LastInteraction
		c.LastInteraction = &t
	}
	return &c
}

var _ model.UserContextRepository = (*MemoryUserContextRepository)(nil)
