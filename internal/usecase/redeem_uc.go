// File: internal/usecase/redeem_uc.go
package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"gatepass/internal/domain"
	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/repository"
	"gatepass/internal/infra/metrics"
	"gatepass/internal/infra/worker"
)

// RedeemUseCase adjudicates redemption attempts. Evaluation is pure and
// read-only; the registry's atomic TryConsume is the sole authority for the
// exactly-once guarantee and overrides any grant computed beforehand.
type RedeemUseCase struct {
	passes repository.PassRepository
	events repository.ScanEventRepository
	loc    *time.Location
	pool   *worker.Pool
	log    *zerolog.Logger
}

// NewRedeemUseCase constructs the use case. pool may be nil, in which case
// audit events are recorded synchronously (tests, cmd/seed).
func NewRedeemUseCase(passes repository.PassRepository, events repository.ScanEventRepository, loc *time.Location, pool *worker.Pool, logger *zerolog.Logger) *RedeemUseCase {
	if loc == nil {
		loc = time.UTC
	}
	l := logger.With().Str("component", "RedeemUseCase").Logger()
	return &RedeemUseCase{passes: passes, events: events, loc: loc, pool: pool, log: &l}
}

// Redeem evaluates the pass behind code at the given instant and, on a
// grant, attempts the atomic consume. Every attempt is audited. The verdict
// is always returned; storage failures fail closed as system_error.
func (uc *RedeemUseCase) Redeem(ctx context.Context, code string, now time.Time, scannerID *string) model.Verdict {
	started := time.Now()
	code = model.NormalizeCode(code)

	verdict := uc.decide(ctx, code, now, scannerID)

	uc.recordScan(code, scannerID, verdict, now)
	metrics.ObserveRedemption(verdict, time.Since(started))
	uc.log.Info().
		Bool("granted", verdict.Granted).
		Str("reason", string(verdict.Reason)).
		Msg("redemption adjudicated")
	return verdict
}

func (uc *RedeemUseCase) decide(ctx context.Context, code string, now time.Time, scannerID *string) model.Verdict {
	pass, err := uc.passes.FindByCode(ctx, repository.NoTX, code)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return model.Deny(model.DenyNotFound, "no pass exists for this code")
	case err != nil:
		uc.log.Error().Err(err).Msg("registry lookup failed")
		return model.Deny(model.DenySystemError, "pass registry unavailable")
	}

	verdict := model.Evaluate(pass, now, uc.loc)
	if !verdict.Granted {
		return verdict
	}

	// The grant holds only if this caller wins the conditional write. A
	// timeout gives no information about whether the write committed, so it
	// fails closed rather than retrying.
	err = uc.passes.TryConsume(ctx, repository.NoTX, code, now, scannerID)
	switch {
	case err == nil:
		return verdict
	case errors.Is(err, domain.ErrAlreadyConsumed):
		return model.Deny(model.DenyAlreadyUsed, uc.lostRaceDetail(ctx, code))
	case errors.Is(err, domain.ErrNotFound):
		return model.Deny(model.DenyNotFound, "no pass exists for this code")
	default:
		uc.log.Error().Err(err).Msg("atomic consume failed")
		return model.Deny(model.DenySystemError, "redemption outcome unknown, access denied")
	}
}

// lostRaceDetail re-reads the pass after a lost consume race so the denial
// can report when the winning redemption happened. Best effort only.
func (uc *RedeemUseCase) lostRaceDetail(ctx context.Context, code string) string {
	pass, err := uc.passes.FindByCode(ctx, repository.NoTX, code)
	if err == nil && pass.UsedAt != nil {
		return fmt.Sprintf("pass was already redeemed at %s", pass.UsedAt.UTC().Format(time.RFC3339))
	}
	return "pass was already redeemed"
}

// recordScan appends an audit event for the attempt. Auditing is off the
// decision path: it must never block or fail a redemption, so writes go
// through the worker pool when one is configured, and errors are only logged.
func (uc *RedeemUseCase) recordScan(code string, scannerID *string, verdict model.Verdict, at time.Time) {
	event := &model.ScanEvent{
		ID:        ulid.MustNew(ulid.Timestamp(at), rand.Reader).String(),
		Code:      code,
		ScannerID: scannerID,
		Granted:   verdict.Granted,
		At:        at,
	}
	if !verdict.Granted {
		event.Reason = verdict.Reason
	}

	write := func(ctx context.Context) error {
		if err := uc.events.Record(ctx, repository.NoTX, event); err != nil {
			uc.log.Error().Err(err).Str("event_id", event.ID).Msg("scan audit write failed")
			return err
		}
		return nil
	}

	if uc.pool != nil {
		if err := uc.pool.Submit(write); err != nil {
			uc.log.Warn().Err(err).Msg("audit queue saturated, recording inline")
			_ = write(context.Background())
		}
		return
	}
	_ = write(context.Background())
}
