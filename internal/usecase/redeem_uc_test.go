//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gatepass/internal/domain/model"
)

func newRedeemUC(repo *memPassRepo, events *memScanEventRepo) *RedeemUseCase {
	logger := zerolog.Nop()
	return NewRedeemUseCase(repo, events, time.UTC, nil, &logger)
}

func issueFresh(t *testing.T, repo *memPassRepo, req IssueRequest) *model.Pass {
	t.Helper()
	uc := newPassUC(repo, newMemScanEventRepo(), &stubEncoder{})
	pass, err := uc.Issue(context.Background(), req)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return pass
}

func TestRedeem_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemPassRepo()
	events := newMemScanEventRepo()
	uc := newRedeemUC(repo, events)

	pass := issueFresh(t, repo, IssueRequest{IssuedTo: "Alex Guest", Purpose: "site visit"})

	// Immediate redemption of an unscheduled pass grants.
	v := uc.Redeem(ctx, pass.Code, pass.IssuedAt, nil)
	if !v.Granted {
		t.Fatalf("expected grant, got deny(%s): %s", v.Reason, v.Detail)
	}
	if v.IssuedTo != "Alex Guest" || v.Purpose != "site visit" {
		t.Errorf("grant lost holder details: %+v", v)
	}

	// Second attempt denies with the first redemption's timestamp.
	v2 := uc.Redeem(ctx, pass.Code, pass.IssuedAt.Add(time.Minute), nil)
	if v2.Granted {
		t.Fatal("expected second redemption to deny")
	}
	if v2.Reason != model.DenyAlreadyUsed {
		t.Fatalf("expected already_used, got %s", v2.Reason)
	}
	stored, _ := repo.FindByCode(ctx, nil, pass.Code)
	if !stored.UsedAt.Equal(pass.IssuedAt) {
		t.Errorf("UsedAt drifted: %v vs %v", stored.UsedAt, pass.IssuedAt)
	}
	if !strings.Contains(v2.Detail, stored.UsedAt.UTC().Format(time.RFC3339)) {
		t.Errorf("expected detail to carry first redemption time, got %q", v2.Detail)
	}

	// Both attempts were audited.
	if events.len() != 2 {
		t.Fatalf("expected 2 audit events, got %d", events.len())
	}
}

func TestRedeem_CaseInsensitiveCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemPassRepo()
	uc := newRedeemUC(repo, newMemScanEventRepo())

	pass := issueFresh(t, repo, IssueRequest{IssuedTo: "Alex"})
	v := uc.Redeem(ctx, "  "+strings.ToLower(pass.Code)+" ", pass.IssuedAt, nil)
	if !v.Granted {
		t.Fatalf("expected lowercase code to match, got deny(%s)", v.Reason)
	}
}

func TestRedeem_NotFound(t *testing.T) {
	t.Parallel()

	uc := newRedeemUC(newMemPassRepo(), newMemScanEventRepo())
	v := uc.Redeem(context.Background(), "FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF", time.Now(), nil)
	if v.Granted || v.Reason != model.DenyNotFound {
		t.Fatalf("expected deny(not_found), got %+v", v)
	}
}

func TestRedeem_ScheduleVerdicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemPassRepo()
	uc := newRedeemUC(repo, newMemScanEventRepo())

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	pass := issueFresh(t, repo, IssueRequest{
		IssuedTo: "Alex",
		Schedule: &model.Schedule{ActiveDate: day, ActiveTime: "09:00", EndTime: "17:00"},
	})

	at := func(d time.Time, h, m int) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, time.UTC)
	}

	cases := []struct {
		name   string
		now    time.Time
		reason model.DenyReason
	}{
		{"day before", at(day.AddDate(0, 0, -1), 12, 0), model.DenyNotYetActive},
		{"too early", at(day, 8, 59), model.DenyTooEarly},
		{"too late", at(day, 17, 1), model.DenyTooLate},
		{"day after", at(day.AddDate(0, 0, 1), 12, 0), model.DenyWindowElapsed},
	}
	for _, tc := range cases {
		v := uc.Redeem(ctx, pass.Code, tc.now, nil)
		if v.Granted || v.Reason != tc.reason {
			t.Errorf("%s: expected deny(%s), got %+v", tc.name, tc.reason, v)
		}
	}

	// In-window attempt grants and consumes.
	v := uc.Redeem(ctx, pass.Code, at(day, 9, 0), nil)
	if !v.Granted {
		t.Fatalf("expected grant at window open, got deny(%s): %s", v.Reason, v.Detail)
	}
}

func TestRedeem_EarlyAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemPassRepo()
	uc := newRedeemUC(repo, newMemScanEventRepo())

	tomorrow := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	pass := issueFresh(t, repo, IssueRequest{
		IssuedTo: "Alex",
		Schedule: &model.Schedule{ActiveDate: tomorrow, AllowEarlyAccess: true},
	})

	v := uc.Redeem(ctx, pass.Code, tomorrow.AddDate(0, 0, -1).Add(10*time.Hour), nil)
	if !v.Granted {
		t.Fatalf("expected early access grant, got deny(%s)", v.Reason)
	}
}

func TestRedeem_SystemErrorFailsClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("lookup failure", func(t *testing.T) {
		repo := newMemPassRepo()
		repo.findErr = errors.New("connection reset")
		uc := newRedeemUC(repo, newMemScanEventRepo())

		v := uc.Redeem(ctx, "0123456789ABCDEF0123456789ABCDEF", time.Now(), nil)
		if v.Granted || v.Reason != model.DenySystemError {
			t.Fatalf("expected deny(system_error), got %+v", v)
		}
	})

	t.Run("consume timeout", func(t *testing.T) {
		repo := newMemPassRepo()
		uc := newRedeemUC(repo, newMemScanEventRepo())
		pass := issueFresh(t, repo, IssueRequest{IssuedTo: "Alex"})

		// The write outcome is unknown: never grant.
		repo.consumeErr = context.DeadlineExceeded
		v := uc.Redeem(ctx, pass.Code, time.Now(), nil)
		if v.Granted || v.Reason != model.DenySystemError {
			t.Fatalf("expected deny(system_error), got %+v", v)
		}
	})
}

func TestRedeem_ConcurrentAttemptsExactlyOneGrant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemPassRepo()
	uc := newRedeemUC(repo, newMemScanEventRepo())
	pass := issueFresh(t, repo, IssueRequest{IssuedTo: "Alex"})

	const attempts = 32
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		grants int
		denies int
	)
	now := time.Now().UTC()
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := uc.Redeem(ctx, pass.Code, now, nil)
			mu.Lock()
			defer mu.Unlock()
			if v.Granted {
				grants++
			} else if v.Reason == model.DenyAlreadyUsed {
				denies++
			} else {
				t.Errorf("unexpected verdict: %+v", v)
			}
		}()
	}
	wg.Wait()

	if grants != 1 {
		t.Fatalf("expected exactly 1 grant, got %d", grants)
	}
	if denies != attempts-1 {
		t.Fatalf("expected %d already_used denials, got %d", attempts-1, denies)
	}
}

func TestRedeem_ScannerIDRecorded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemPassRepo()
	events := newMemScanEventRepo()
	uc := newRedeemUC(repo, events)
	pass := issueFresh(t, repo, IssueRequest{IssuedTo: "Alex"})

	scanner := "gate-3"
	v := uc.Redeem(ctx, pass.Code, time.Now().UTC(), &scanner)
	if !v.Granted {
		t.Fatalf("expected grant, got %+v", v)
	}

	stored, _ := repo.FindByCode(ctx, nil, pass.Code)
	if stored.ScannerID == nil || *stored.ScannerID != scanner {
		t.Errorf("expected scanner_id persisted, got %v", stored.ScannerID)
	}

	got, err := events.ListByCode(ctx, nil, pass.Code, 10)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected 1 audit event, got %d (%v)", len(got), err)
	}
	if got[0].ScannerID == nil || *got[0].ScannerID != scanner {
		t.Errorf("expected scanner_id on audit event, got %v", got[0].ScannerID)
	}
}
