//go:build !integration

package model

import (
	"testing"
	"time"
)

func freshPass(t *testing.T, sched *Schedule) *Pass {
	t.Helper()
	issued := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	p, err := NewPass(testCode, "Alex Guest", "site visit", issued, nil, sched)
	if err != nil {
		t.Fatalf("NewPass: %v", err)
	}
	return p
}

func expectDeny(t *testing.T, v Verdict, reason DenyReason) {
	t.Helper()
	if v.Granted {
		t.Fatalf("expected deny(%s), got grant", reason)
	}
	if v.Reason != reason {
		t.Fatalf("expected reason %s, got %s (%s)", reason, v.Reason, v.Detail)
	}
}

func expectGrant(t *testing.T, v Verdict) {
	t.Helper()
	if !v.Granted {
		t.Fatalf("expected grant, got deny(%s): %s", v.Reason, v.Detail)
	}
}

func TestEvaluate_NoSchedule(t *testing.T) {
	p := freshPass(t, nil)

	// Valid at any instant until used or expired.
	for _, now := range []time.Time{
		p.IssuedAt,
		p.IssuedAt.Add(30 * 24 * time.Hour),
		p.IssuedAt.Add(10 * 365 * 24 * time.Hour),
	} {
		expectGrant(t, Evaluate(p, now, time.UTC))
	}
}

func TestEvaluate_AlreadyUsed(t *testing.T) {
	p := freshPass(t, nil)
	usedAt := p.IssuedAt.Add(time.Hour)
	p.Used = true
	p.UsedAt = &usedAt

	v := Evaluate(p, usedAt.Add(time.Minute), time.UTC)
	expectDeny(t, v, DenyAlreadyUsed)
	if v.Detail == "" {
		t.Error("expected detail to mention redemption time")
	}
}

func TestEvaluate_ExpiredPrecedesSchedule(t *testing.T) {
	// Expiry in the past must win even when the schedule window is open now.
	sched := &Schedule{ActiveDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)}
	p := freshPass(t, sched)
	exp := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	p.ExpiresAt = &exp

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	expectDeny(t, Evaluate(p, now, time.UTC), DenyExpired)
}

func TestEvaluate_BeforeActiveDate(t *testing.T) {
	tomorrow := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	p := freshPass(t, &Schedule{ActiveDate: tomorrow})
	expectDeny(t, Evaluate(p, now, time.UTC), DenyNotYetActive)

	early := freshPass(t, &Schedule{ActiveDate: tomorrow, AllowEarlyAccess: true})
	expectGrant(t, Evaluate(early, now, time.UTC))
}

func TestEvaluate_EarlyAccessSkipsTimeWindow(t *testing.T) {
	// Early access bypasses the time-of-day window entirely: an attempt the
	// day before at 23:50 grants even though the window is 09:00-17:00.
	p := freshPass(t, &Schedule{
		ActiveDate:       time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		ActiveTime:       "09:00",
		EndTime:          "17:00",
		AllowEarlyAccess: true,
	})
	now := time.Date(2026, 8, 30, 23, 50, 0, 0, time.UTC)
	expectGrant(t, Evaluate(p, now, time.UTC))
}

func TestEvaluate_AfterActiveDate(t *testing.T) {
	p := freshPass(t, &Schedule{ActiveDate: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)})
	now := time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC)
	expectDeny(t, Evaluate(p, now, time.UTC), DenyWindowElapsed)
}

func TestEvaluate_TimeWindowBounds(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	p := freshPass(t, &Schedule{ActiveDate: day, ActiveTime: "09:00", EndTime: "17:00"})

	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 30, h, m, 0, 0, time.UTC)
	}

	expectDeny(t, Evaluate(p, at(8, 59), time.UTC), DenyTooEarly)
	expectGrant(t, Evaluate(p, at(9, 0), time.UTC))   // inclusive lower bound
	expectGrant(t, Evaluate(p, at(17, 0), time.UTC))  // inclusive upper bound
	expectDeny(t, Evaluate(p, at(17, 1), time.UTC), DenyTooLate)
}

func TestEvaluate_ReferenceTimezoneGovernsToday(t *testing.T) {
	// 2026-08-31 01:00 UTC is still 2026-08-30 in UTC-5: the pass for the
	// 30th must grant when the reference timezone says the day is not over.
	loc := time.FixedZone("UTC-5", -5*3600)
	p := freshPass(t, &Schedule{ActiveDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)})

	now := time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC)
	expectDeny(t, Evaluate(p, now, time.UTC), DenyWindowElapsed)
	expectGrant(t, Evaluate(p, now, loc))
}
