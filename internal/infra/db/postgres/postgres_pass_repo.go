package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"gatepass/internal/domain"
	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.PassRepository = (*passRepo)(nil)

type passRepo struct {
	pool *pgxpool.Pool
}

func NewPassRepo(pool *pgxpool.Pool) repository.PassRepository {
	return &passRepo{pool: pool}
}

func (r *passRepo) Create(ctx context.Context, tx repository.Tx, p *model.Pass) error {
	const q = `
INSERT INTO passes (
  id, code, issued_to, purpose, issued_at, expires_at,
  active_date, active_time, end_time, allow_early_access,
  used, used_at, scanner_id
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.Code, p.IssuedTo, p.Purpose, p.IssuedAt, p.ExpiresAt,
		p.ActiveDate, nullIfEmpty(p.ActiveTime), nullIfEmpty(p.EndTime), p.AllowEarlyAccess,
		p.Used, p.UsedAt, p.ScannerID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *passRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Pass, error) {
	const q = `
SELECT id, code, issued_to, purpose, issued_at, expires_at,
       active_date, active_time, end_time, allow_early_access,
       used, used_at, scanner_id
  FROM passes
 WHERE code = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, model.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	return scanPass(row)
}

// TryConsume is the single concurrency-critical write: one conditional
// UPDATE whose predicate re-checks used=FALSE at commit time. Two racing
// callers cannot both match; the loser sees zero rows and resolves to
// ErrAlreadyConsumed or ErrNotFound from a follow-up existence probe.
func (r *passRepo) TryConsume(ctx context.Context, tx repository.Tx, code string, redeemedAt time.Time, scannerID *string) error {
	const q = `
UPDATE passes
   SET used = TRUE, used_at = $2, scanner_id = $3
 WHERE code = $1 AND used = FALSE;`

	code = model.NormalizeCode(code)
	tag, err := execSQL(ctx, r.pool, tx, q, code, redeemedAt, scannerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// No row matched: either the pass never existed or it was consumed.
	row, err := pickRow(ctx, r.pool, tx, `SELECT used FROM passes WHERE code = $1;`, code)
	if err != nil {
		return err
	}
	var used bool
	if err := row.Scan(&used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return domain.ErrReadDatabaseRow
	}
	return domain.ErrAlreadyConsumed
}

func (r *passRepo) PurgeExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM passes WHERE used = FALSE AND expires_at IS NOT NULL AND expires_at < $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPass(row pgx.Row) (*model.Pass, error) {
	var (
		p          model.Pass
		activeTime *string
		endTime    *string
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.IssuedTo, &p.Purpose, &p.IssuedAt, &p.ExpiresAt,
		&p.ActiveDate, &activeTime, &endTime, &p.AllowEarlyAccess,
		&p.Used, &p.UsedAt, &p.ScannerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if activeTime != nil {
		p.ActiveTime = *activeTime
	}
	if endTime != nil {
		p.EndTime = *endTime
	}
	return &p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
