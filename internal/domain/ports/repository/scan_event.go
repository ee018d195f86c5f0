package repository

import (
	"context"

	"gatepass/internal/domain/model"
)

// ScanEventRepository is the port for the append-only redemption audit trail.
type ScanEventRepository interface {
	Record(ctx context.Context, tx Tx, event *model.ScanEvent) error
	ListByCode(ctx context.Context, tx Tx, code string, limit int) ([]*model.ScanEvent, error)
}
