package refresh

import (
	"context"
	"sync"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps refresh tokens in process memory. Expired records are
// dropped lazily on read and periodically by the sweeper; both paths treat
// an expired record exactly like a missing one.
type InMemoryRepo struct {
	ttl     time.Duration
	lock    sync.RWMutex
	tokens  map[string]*StoredRefreshToken
	userIDs map[string]string // user ID to token
}

func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		ttl:     ttl,
		tokens:  make(map[string]*StoredRefreshToken),
		userIDs: make(map[string]string),
	}
}

func (r *InMemoryRepo) Upsert(ctx context.Context, refreshToken *StoredRefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.tokens[refreshToken.Token] = refreshToken
	r.userIDs[refreshToken.UserID] = refreshToken.Token
	return nil
}

func (r *InMemoryRepo) Get(ctx context.Context, token string) (*StoredRefreshToken, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	if r.expired(rt) {
		r.remove(rt)
		return nil, ErrNotFound
	}
	return rt, nil
}

func (r *InMemoryRepo) GetByUserID(ctx context.Context, userID string) (*StoredRefreshToken, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	token, ok := r.userIDs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	rt, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	if r.expired(rt) {
		r.remove(rt)
		return nil, ErrNotFound
	}
	return rt, nil
}

func (r *InMemoryRepo) Delete(ctx context.Context, token string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	rt, ok := r.tokens[token]
	if !ok {
		return ErrNotFound
	}
	r.remove(rt)
	return nil
}

// Sweep removes every expired record. Returns the number removed.
func (r *InMemoryRepo) Sweep() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	removed := 0
	for _, rt := range r.tokens {
		if r.expired(rt) {
			r.remove(rt)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (r *InMemoryRepo) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// expired and remove require the write lock to be held.
func (r *InMemoryRepo) expired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.IssuedAt) > r.ttl
}

func (r *InMemoryRepo) remove(rt *StoredRefreshToken) {
	delete(r.tokens, rt.Token)
	if current, ok := r.userIDs[rt.UserID]; ok && current == rt.Token {
		delete(r.userIDs, rt.UserID)
	}
}
