package contract

import (
	"context"

	"invoice-intake-be/internal/entity"
)

// SessionStore keeps in-flight invoice states. A state lives under its durable
// SessionID; a side index maps the latest bot message (SessionKey) to that id.
// Every write refreshes the store's TTL. Lookups of missing or expired
// entries return apperror.ErrSessionNotFound.
type SessionStore interface {
	// Create assigns a SessionID when empty and indexes the state under key.
	Create(ctx context.Context, key entity.SessionKey, state *entity.InvoiceState) error
	// Get resolves a reply to the latest bot message.
	Get(ctx context.Context, key entity.SessionKey) (*entity.InvoiceState, error)
	// GetByID resolves a button payload.
	GetByID(ctx context.Context, sessionID string) (*entity.InvoiceState, error)
	// Replace overwrites an existing state body. The index is untouched.
	Replace(ctx context.Context, state *entity.InvoiceState) error
	// Rekey deletes the index entry of state.LatestKey, then indexes newKey.
	Rekey(ctx context.Context, state *entity.InvoiceState, newKey entity.SessionKey) error
	Delete(ctx context.Context, state *entity.InvoiceState) error
}
