package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"invoice-intake-be/internal/entity"
	"invoice-intake-be/internal/pkg/apperror"
	"invoice-intake-be/internal/repository/contract"

	"github.com/lithammer/shortuuid/v3"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "invoice:"

// SessionRepository stores sessions in redis so several webhook replicas
// can share them. TTL is applied with every SET.
type SessionRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ contract.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(rdb *goredis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func stateKey(sessionID string) string {
	return keyPrefix + "state:" + sessionID
}

func indexKey(key entity.SessionKey) string {
	return fmt.Sprintf("%sidx:%d:%d", keyPrefix, key.ChatID, key.MessageID)
}

func (r *SessionRepository) Create(ctx context.Context, key entity.SessionKey, state *entity.InvoiceState) error {
	if state.SessionID == "" {
		state.SessionID = shortuuid.New()
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now()
	}
	state.ChatID = key.ChatID
	state.LatestKey = key

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", state.SessionID, err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, stateKey(state.SessionID), data, r.ttl)
		pipe.Set(ctx, indexKey(key), state.SessionID, r.ttl)
		return nil
	})
	return err
}

func (r *SessionRepository) Get(ctx context.Context, key entity.SessionKey) (*entity.InvoiceState, error) {
	sessionID, err := r.rdb.Get(ctx, indexKey(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%s: %w", key, apperror.ErrSessionNotFound)
		}
		return nil, err
	}

	state, err := r.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.LatestKey != key {
		return nil, fmt.Errorf("%s is no longer the latest message: %w", key, apperror.ErrSessionNotFound)
	}
	return state, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*entity.InvoiceState, error) {
	data, err := r.rdb.Get(ctx, stateKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("session %s: %w", sessionID, apperror.ErrSessionNotFound)
		}
		return nil, err
	}

	var state entity.InvoiceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &state, nil
}

func (r *SessionRepository) Replace(ctx context.Context, state *entity.InvoiceState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", state.SessionID, err)
	}

	// SET XX only overwrites a live entry.
	ok, err := r.rdb.SetXX(ctx, stateKey(state.SessionID), data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s: %w", state.SessionID, apperror.ErrSessionNotFound)
	}
	return r.rdb.Expire(ctx, indexKey(state.LatestKey), r.ttl).Err()
}

func (r *SessionRepository) Rekey(ctx context.Context, state *entity.InvoiceState, newKey entity.SessionKey) error {
	exists, err := r.rdb.Exists(ctx, stateKey(state.SessionID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("session %s: %w", state.SessionID, apperror.ErrSessionNotFound)
	}

	oldKey := state.LatestKey
	state.LatestKey = newKey
	data, err := json.Marshal(state)
	if err != nil {
		state.LatestKey = oldKey
		return fmt.Errorf("failed to encode session %s: %w", state.SessionID, err)
	}

	// MULTI keeps the delete-then-put pair atomic for other clients.
	_, err = r.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, indexKey(oldKey))
		pipe.Set(ctx, indexKey(newKey), state.SessionID, r.ttl)
		pipe.Set(ctx, stateKey(state.SessionID), data, r.ttl)
		return nil
	})
	if err != nil {
		state.LatestKey = oldKey
	}
	return err
}

func (r *SessionRepository) Delete(ctx context.Context, state *entity.InvoiceState) error {
	return r.rdb.Del(ctx, indexKey(state.LatestKey), stateKey(state.SessionID)).Err()
}
