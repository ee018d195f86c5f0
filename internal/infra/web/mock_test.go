//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"gatepass/internal/domain"
	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/adapter"
	"gatepass/internal/domain/ports/repository"
)

// --- Mock Repositories (Ports) ---

type mockPassRepo struct {
	mu    sync.Mutex
	store map[string]*model.Pass
}

func newMockPassRepo() *mockPassRepo {
	return &mockPassRepo{store: make(map[string]*model.Pass)}
}

func (m *mockPassRepo) Create(ctx context.Context, tx repository.Tx, p *model.Pass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.Code]; ok {
		return domain.ErrDuplicateCode
	}
	cp := *p
	m.store[p.Code] = &cp
	return nil
}

func (m *mockPassRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Pass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[model.NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPassRepo) TryConsume(ctx context.Context, tx repository.Tx, code string, redeemedAt time.Time, scannerID *string) error {
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

func (m *mockPassRepo) PurgeExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	return 0, nil
}

type mockScanEventRepo struct {
	mu     sync.Mutex
	events []*model.ScanEvent
}

func (m *mockScanEventRepo) Record(ctx context.Context, tx repository.Tx, e *model.ScanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

func (m *mockScanEventRepo) ListByCode(ctx context.Context, tx repository.Tx, code string, limit int) ([]*model.ScanEvent, error) {
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

type mockEncoder struct{}

var _ adapter.Encoder = (*mockEncoder)(nil)

func (mockEncoder) Name() string { return "mock" }

func (mockEncoder) Render(ctx context.Context, payload string, style adapter.EncodeStyle) ([]byte, error) {
	return []byte("png:" + payload), nil
}
