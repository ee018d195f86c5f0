package model

import (
	"strings"
	"time"

	"gatepass/internal/domain"
)

const (
	// CodeLength is the canonical length of a pass code: 32 hex characters
	// encoding 128 random bits.
	CodeLength = 32

	MaxIssuedToLen = 100
	MaxPurposeLen  = 200

	// Time-of-day bounds applied when a schedule omits them.
	DefaultActiveTime = "00:00"
	DefaultEndTime    = "23:59"
)

// Pass is a single-use, optionally time-scoped access credential.
// The code is an opaque identifier, not a verifiable token; possession of a
// valid, unconsumed code is the whole credential.
type Pass struct {
	ID       string
	Code     string
	IssuedTo string
	Purpose  string
	IssuedAt time.Time

	// ExpiresAt, when set, is an absolute deadline past which the pass is
	// dead regardless of schedule.
	ExpiresAt *time.Time

	// ActiveDate is the calendar date (time-of-day ignored) on which the
	// ActiveTime..EndTime window applies. When nil the pass has no
	// date/time gating and ActiveTime/EndTime/AllowEarlyAccess are ignored.
	ActiveDate       *time.Time
	ActiveTime       string // "HH:MM", inclusive lower bound
	EndTime          string // "HH:MM", inclusive upper bound
	AllowEarlyAccess bool

	Used      bool
	UsedAt    *time.Time
	ScannerID *string
}

// Schedule carries the optional event-window fields of an issuance request.
type Schedule struct {
	ActiveDate       time.Time
	ActiveTime       string
	EndTime          string
	AllowEarlyAccess bool
}

// NormalizeCode converts a submitted code to its canonical form.
// Lookups are case-insensitive; the stored form is uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewPass validates the issuance fields and builds an unconsumed pass.
// The code must already be generated; it is normalized here.
func NewPass(code, issuedTo, purpose string, issuedAt time.Time, expiresAt *time.Time, sched *Schedule) (*Pass, error) {
	code = NormalizeCode(code)
	if len(code) != CodeLength || !isHex(code) {
		return nil, domain.ErrInvalidArgument
	}
	issuedTo = strings.TrimSpace(issuedTo)
	if issuedTo == "" || len(issuedTo) > MaxIssuedToLen {
		return nil, domain.ErrInvalidArgument
	}
	purpose = strings.TrimSpace(purpose)
	if len(purpose) > MaxPurposeLen {
		return nil, domain.ErrInvalidArgument
	}
	if expiresAt != nil && !expiresAt.After(issuedAt) {
		return nil, domain.ErrInvalidArgument
	}

	p := &Pass{
		Code:     code,
		IssuedTo: issuedTo,
		Purpose:  purpose,
		IssuedAt: issuedAt,
	}
	if expiresAt != nil {
		t := *expiresAt
		p.ExpiresAt = &t
	}
	if sched != nil {
		day := truncateToDate(sched.ActiveDate)
		p.ActiveDate = &day
		p.ActiveTime = sched.ActiveTime
		p.EndTime = sched.EndTime
		p.AllowEarlyAccess = sched.AllowEarlyAccess
		if p.ActiveTime == "" {
			p.ActiveTime = DefaultActiveTime
		}
		if p.EndTime == "" {
			p.EndTime = DefaultEndTime
		}
		if !validClock(p.ActiveTime) || !validClock(p.EndTime) {
			return nil, domain.ErrInvalidArgument
		}
		if p.EndTime < p.ActiveTime {
			return nil, domain.ErrInvalidArgument
		}
	}
	return p, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// validClock reports whether s is a zero-padded 24-hour "HH:MM" string.
// Zero-padded clock strings compare correctly as plain strings.
func validClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// truncateToDate drops the time-of-day component, keeping only the calendar
// date. The result is anchored in UTC; only Date() is ever read from it.
func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
