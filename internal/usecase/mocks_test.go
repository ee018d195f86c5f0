//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"gatepass/internal/domain"
	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/adapter"
	"gatepass/internal/domain/ports/repository"
)

// memPassRepo is a small in-memory registry used by unit tests. Its
// TryConsume holds the lock across check and write, giving the same
// exactly-once semantics as the conditional UPDATE in Postgres.
type memPassRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Pass

	createErr  error // simulate storage failures
	findErr    error
	consumeErr error
	dupFirst   int // force ErrDuplicateCode for the first n Create calls
}

func newMemPassRepo() *memPassRepo {
	return &memPassRepo{store: make(map[string]*model.Pass)}
}

func (m *memPassRepo) Create(ctx context.Context, tx repository.Tx, p *model.Pass) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dupFirst > 0 {
		m.dupFirst--
		return domain.ErrDuplicateCode
	}
	if _, ok := m.store[p.Code]; ok {
		return domain.ErrDuplicateCode
	}
	cp := *p
	m.store[p.Code] = &cp
	return nil
}

func (m *memPassRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Pass, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[model.NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPassRepo) TryConsume(ctx context.Context, tx repository.Tx, code string, redeemedAt time.Time, scannerID *string) error {
	if m.consumeErr != nil {
		return m.consumeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[model.NormalizeCode(code)]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Used {
		return domain.ErrAlreadyConsumed
	}
	p.Used = true
	t := redeemedAt
	p.UsedAt = &t
	p.ScannerID = scannerID
	return nil
}

func (m *memPassRepo) PurgeExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for code, p := range m.store {
		if !p.Used && p.ExpiresAt != nil && p.ExpiresAt.Before(cutoff) {
			delete(m.store, code)
			n++
		}
	}
	return n, nil
}

// memTxManager mimics transactional semantics over memPassRepo by
// snapshotting the store and restoring it when the callback fails.
type memTxManager struct {
	repo *memPassRepo
}

func (m *memTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.repo.mu.Lock()
	snapshot := make(map[string]*model.Pass, len(m.repo.store))
	for k, v := range m.repo.store {
		cp := *v
		snapshot[k] = &cp
	}
	m.repo.mu.Unlock()

	if err := fn(ctx, repository.NoTX); err != nil {
		m.repo.mu.Lock()
		m.repo.store = snapshot
		m.repo.mu.Unlock()
		return err
	}
	return nil
}

// memScanEventRepo collects audit events for assertions.
type memScanEventRepo struct {
	mu     sync.Mutex
	events []*model.ScanEvent

	recordErr error
}

func newMemScanEventRepo() *memScanEventRepo {
	return &memScanEventRepo{}
}

func (m *memScanEventRepo) Record(ctx context.Context, tx repository.Tx, e *model.ScanEvent) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

func (m *memScanEventRepo) ListByCode(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.ScanEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ScanEvent
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].Code == code {
			cp := *m.events[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memScanEventRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// stubEncoder returns canned bytes and remembers the last payload.
type stubEncoder struct {
	mu          sync.Mutex
	lastPayload string
	renderErr   error
}

var _ adapter.Encoder = (*stubEncoder)(nil)

func (s *stubEncoder) Name() string { return "stub" }

func (s *stubEncoder) Render(ctx context.Context, payload string, style adapter.EncodeStyle) ([]byte, error) {
	if s.renderErr != nil {
		return nil, s.renderErr
	}
	s.mu.Lock()
	s.lastPayload = payload
	s.mu.Unlock()
	return []byte("image-bytes"), nil
}
