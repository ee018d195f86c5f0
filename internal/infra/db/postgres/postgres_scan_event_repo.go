package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"gatepass/internal/domain"
	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/repository"
)

var _ repository.ScanEventRepository = (*scanEventRepo)(nil)

type scanEventRepo struct {
	pool *pgxpool.Pool
}

func NewScanEventRepo(pool *pgxpool.Pool) repository.ScanEventRepository {
	return &scanEventRepo{pool: pool}
}

func (r *scanEventRepo) Record(ctx context.Context, tx repository.Tx, e *model.ScanEvent) error {
	const q = `
INSERT INTO scan_events (id, code, scanner_id, granted, reason, at)
VALUES ($1,$2,$3,$4,$5,$6);`

	var reason *string
	if e.Reason != "" {
		s := string(e.Reason)
		reason = &s
	}
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Code, e.ScannerID, e.Granted, reason, e.At)
	return err
}

func (r *scanEventRepo) ListByCode(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.ScanEvent, error) {
	const q = `
SELECT id, code, scanner_id, granted, reason, at
  FROM scan_events
 WHERE code = $1
 ORDER BY id DESC
 LIMIT $2;`

	rows, err := pickRows(ctx, r.pool, tx, q, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ScanEvent
	for rows.Next() {
		var (
			e      model.ScanEvent
			reason *string
		)
		if err := rows.Scan(&e.ID, &e.Code, &e.ScannerID, &e.Granted, &reason, &e.At); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if reason != nil {
			e.Reason = model.DenyReason(*reason)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
