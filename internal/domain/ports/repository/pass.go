package repository

import (
	"context"
	"time"

	"gatepass/internal/domain/model"
)

// PassRepository is the port for the pass registry. Its implementations are
// the sole enforcement point for "at most one successful consume".
type PassRepository interface {
	// Create stores a new pass keyed by its code.
	// Returns domain.ErrDuplicateCode if the code already exists.
	Create(ctx context.Context, tx Tx, pass *model.Pass) error

	// FindByCode returns the pass for a normalized code, redeemed or not.
	// Returns domain.ErrNotFound when absent.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Pass, error)

	// TryConsume atomically marks the pass used. It must be a single
	// conditional write ("set used where code matches and used is false"),
	// never a read-then-write pair. Returns domain.ErrAlreadyConsumed when
	// the pass exists but was already used, domain.ErrNotFound when absent.
	TryConsume(ctx context.Context, tx Tx, code string, redeemedAt time.Time, scannerID *string) error

	// PurgeExpiredBefore deletes unredeemed passes whose absolute expiry
	// predates cutoff, returning the number removed.
	PurgeExpiredBefore(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
}
