package memory

import (
	"sync"
	"time"

	"berry-advisory-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type DialogStateRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDialogStateRepository() *DialogStateRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &DialogStateRepository{
		cache: c,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock serializes message handling for one user. Two messages from the same
// chat must never race on the dialog state; messages from different users
// proceed in parallel. The returned func releases the lock.
func (r *DialogStateRepository) Lock(userID string) func() {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[userID] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (r *DialogStateRepository) Save(state *store.DialogState) {
	r.cache.Set(state.UserID, state, cache.DefaultExpiration)
}

func (r *DialogStateRepository) Get(userID string) (*store.DialogState, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*store.DialogState), true
	}
	return nil, false
}

// GetOrCreate returns the cached state, or a fresh idle state when the
// user has none (first contact or cache expiry).
func (r *DialogStateRepository) GetOrCreate(userID string) *store.DialogState {
	if s, found := r.Get(userID); found {
		return s
	}
	s := store.NewDialogState(userID)
	r.Save(s)
	return s
}

func (r *DialogStateRepository) Delete(userID string) {
	r.cache.Delete(userID)
}
