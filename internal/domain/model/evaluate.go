package model

import (
	"fmt"
	"time"
)

// Evaluate decides whether a pass grants access at the given instant.
// It is side-effect-free: callers must follow a grant with an atomic consume
// on the registry, and treat a lost consume race as already_used regardless
// of the verdict computed here.
//
// Checks run in a fixed order; the first failing check determines the deny
// reason. All calendar-date and time-of-day decisions are made in loc, the
// single reference timezone configured at startup.
func Evaluate(p *Pass, now time.Time, loc *time.Location) Verdict {
	if loc == nil {
		loc = time.UTC
	}

	if p.Used {
		detail := "pass was already redeemed"
		if p.UsedAt != nil {
			detail = fmt.Sprintf("pass was already redeemed at %s", p.UsedAt.UTC().Format(time.RFC3339))
		}
		return Deny(DenyAlreadyUsed, detail)
	}

	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return Deny(DenyExpired, fmt.Sprintf("pass expired at %s", p.ExpiresAt.UTC().Format(time.RFC3339)))
	}

	if p.ActiveDate == nil {
		return Grant(p)
	}

	local := now.In(loc)
	today := dateKey(local)
	eventDay := dateKey(*p.ActiveDate)
	activeDate := p.ActiveDate.Format("2006-01-02")

	switch {
	case today < eventDay:
		if p.AllowEarlyAccess {
			// Early access bypasses the time-of-day window entirely.
			return Grant(p)
		}
		return Deny(DenyNotYetActive, fmt.Sprintf("pass is not active until %s", activeDate))
	case today > eventDay:
		return Deny(DenyWindowElapsed, fmt.Sprintf("pass window on %s has elapsed", activeDate))
	}

	// Same calendar day: inclusive time-of-day bounds, truncated to minute.
	currentTime := local.Format("15:04")
	if currentTime < p.ActiveTime {
		return Deny(DenyTooEarly, fmt.Sprintf("pass is valid from %s on %s", p.ActiveTime, activeDate))
	}
	if currentTime > p.EndTime {
		return Deny(DenyTooLate, fmt.Sprintf("pass was valid until %s on %s", p.EndTime, activeDate))
	}
	return Grant(p)
}

// dateKey collapses a calendar date into a single comparable integer.
// The instant's own location is honored; convert before calling.
func dateKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
