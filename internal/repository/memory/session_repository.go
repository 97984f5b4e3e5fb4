package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/repository/contract"

	"github.com/lithammer/shortuuid/v3"
	"github.com/patrickmn/go-cache"
)

// SessionRepository is the in-process session store. States are kept
// serialized so callers never share a pointer with the cache.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

var _ contract.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	// Expired items are purged every 10 minutes; reads never return them.
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
		ttl:   ttl,
	}
}

func stateKey(sessionID string) string {
	return "state:" + sessionID
}

func indexKey(key entity.SessionKey) string {
	return fmt.Sprintf("idx:%d:%d", key.ChatID, key.MessageID)
}

func (r *SessionRepository) Create(ctx context.Context, key entity.SessionKey, state *entity.InvoiceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state.SessionID == "" {
		state.SessionID = shortuuid.New()
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now()
	}
	state.ChatID = key.ChatID
	state.LatestKey = key

	if err := r.put(state); err != nil {
		return err
	}
	r.cache.Set(indexKey(key), state.SessionID, r.ttl)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, key entity.SessionKey) (*entity.InvoiceState, error) {
	raw, found := r.cache.Get(indexKey(key))
	if !found {
		return nil, fmt.Errorf("%s: %w", key, apperror.ErrSessionNotFound)
	}

	state, err := r.GetByID(ctx, raw.(string))
	if err != nil {
		return nil, err
	}
	if state.LatestKey != key {
		return nil, fmt.Errorf("%s is no longer the latest message: %w", key, apperror.ErrSessionNotFound)
	}
	return state, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*entity.InvoiceState, error) {
	raw, found := r.cache.Get(stateKey(sessionID))
	if !found {
		return nil, fmt.Errorf("session %s: %w", sessionID, apperror.ErrSessionNotFound)
	}

	var state entity.InvoiceState
	if err := json.Unmarshal(raw.([]byte), &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (r *SessionRepository) Replace(ctx context.Context, state *entity.InvoiceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.cache.Get(stateKey(state.SessionID)); !found {
		return fmt.Errorf("session %s: %w", state.SessionID, apperror.ErrSessionNotFound)
	}
	if err := r.put(state); err != nil {
		return err
	}
	r.cache.Set(indexKey(state.LatestKey), state.SessionID, r.ttl)
	return nil
}

func (r *SessionRepository) Rekey(ctx context.Context, state *entity.InvoiceState, newKey entity.SessionKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.cache.Get(stateKey(state.SessionID)); !found {
		return fmt.Errorf("session %s: %w", state.SessionID, apperror.ErrSessionNotFound)
	}

	// delete-then-put: the old message stops resolving before the new one does
	r.cache.Delete(indexKey(state.LatestKey))
	state.LatestKey = newKey
	r.cache.Set(indexKey(newKey), state.SessionID, r.ttl)
	return r.put(state)
}

func (r *SessionRepository) Delete(ctx context.Context, state *entity.InvoiceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Delete(indexKey(state.LatestKey))
	r.cache.Delete(stateKey(state.SessionID))
	return nil
}

func (r *SessionRepository) put(state *entity.InvoiceState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", state.SessionID, err)
	}
	r.cache.Set(stateKey(state.SessionID), data, r.ttl)
	return nil
}
