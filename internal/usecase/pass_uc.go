// File: internal/usecase/pass_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gatepass/internal/domain"
	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/adapter"
	"gatepass/internal/domain/ports/repository"
	"gatepass/internal/infra/metrics"
)

// createRetries bounds issuance retries on a code collision. With 128-bit
// codes a collision is effectively impossible, so hitting the bound means
// something is broken, not unlucky.
const createRetries = 3

// IssueRequest carries the caller-supplied fields of a new pass.
type IssueRequest struct {
	IssuedTo    string
	Purpose     string
	ExpiryHours int // 0 means no absolute expiry
	Schedule    *model.Schedule
}

// PassUseCase implements pass issuance and retrieval.
type PassUseCase struct {
	passes      repository.PassRepository
	events      repository.ScanEventRepository
	txm         repository.TransactionManager
	encoder     adapter.Encoder
	scanURLBase string
	style       adapter.EncodeStyle
	log         *zerolog.Logger
}

// NewPassUseCase constructs the use case. txm may be nil, in which case
// IssueBatch degrades to sequential non-transactional issuance.
func NewPassUseCase(passes repository.PassRepository, events repository.ScanEventRepository, txm repository.TransactionManager, encoder adapter.Encoder, scanURLBase string, style adapter.EncodeStyle, logger *zerolog.Logger) *PassUseCase {
	l := logger.With().Str("component", "PassUseCase").Logger()
	return &PassUseCase{
		passes:      passes,
		events:      events,
		txm:         txm,
		encoder:     encoder,
		scanURLBase: scanURLBase,
		style:       style,
		log:         &l,
	}
}

// Issue validates the request, generates a fresh code and stores the pass.
// A duplicate code triggers regeneration up to createRetries times.
func (uc *PassUseCase) Issue(ctx context.Context, req IssueRequest) (*model.Pass, error) {
	return uc.issueOne(ctx, repository.NoTX, req)
}

// IssueBatch issues a set of passes all-or-nothing: if any request fails,
// none of the batch is stored.
func (uc *PassUseCase) IssueBatch(ctx context.Context, reqs []IssueRequest) ([]*model.Pass, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	out := make([]*model.Pass, 0, len(reqs))

	if uc.txm == nil {
		for _, req := range reqs {
			p, err := uc.issueOne(ctx, repository.NoTX, req)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}

	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, req := range reqs {
			p, err := uc.issueOne(ctx, tx, req)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *PassUseCase) issueOne(ctx context.Context, tx repository.Tx, req IssueRequest) (*model.Pass, error) {
	if req.ExpiryHours < 0 {
		return nil, domain.ErrInvalidArgument
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if req.ExpiryHours > 0 {
		exp := now.Add(time.Duration(req.ExpiryHours) * time.Hour)
		expiresAt = &exp
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := generatePassCode()
		if err != nil {
			return nil, err
		}
		pass, err := model.NewPass(code, req.IssuedTo, req.Purpose, now, expiresAt, req.Schedule)
		if err != nil {
			return nil, err
		}
		pass.ID = uuid.NewString()

		if err := uc.passes.Create(ctx, tx, pass); err != nil {
			if errors.Is(err, domain.ErrDuplicateCode) {
				uc.log.Warn().Int("attempt", attempt+1).Msg("pass code collision, regenerating")
				lastErr = err
				continue
			}
			return nil, err
		}
		metrics.IncPassesIssued()
		uc.log.Info().Str("pass_id", pass.ID).Str("issued_to", pass.IssuedTo).Msg("pass issued")
		return pass, nil
	}
	return nil, lastErr
}

// Get returns a pass by its (case-insensitively matched) code.
func (uc *PassUseCase) Get(ctx context.Context, code string) (*model.Pass, error) {
	return uc.passes.FindByCode(ctx, repository.NoTX, model.NormalizeCode(code))
}

// RenderImage produces the scannable image for a pass. Scannable variants
// encode the public scan URL; print/reference variants encode the raw code.
func (uc *PassUseCase) RenderImage(ctx context.Context, code string, scannable bool) ([]byte, error) {
	pass, err := uc.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	payload := pass.Code
	if scannable {
		payload = uc.scanURLBase + "/" + pass.Code
	}
	img, err := uc.encoder.Render(ctx, payload, uc.style)
	if err != nil {
		uc.log.Error().Err(err).Str("pass_id", pass.ID).Msg("encoder failed")
		return nil, err
	}
	return img, nil
}

// History returns recent redemption attempts recorded against a code.
func (uc *PassUseCase) History(ctx context.Context, code string, limit int) ([]*model.ScanEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.events.ListByCode(ctx, repository.NoTX, model.NormalizeCode(code), limit)
}
