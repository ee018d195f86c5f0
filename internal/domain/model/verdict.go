package model

// DenyReason categorizes why a redemption was refused.
type DenyReason string

const (
	DenyNotFound      DenyReason = "not_found"
	DenyAlreadyUsed   DenyReason = "already_used"
	DenyExpired       DenyReason = "expired"
	DenyNotYetActive  DenyReason = "not_yet_active"
	DenyWindowElapsed DenyReason = "window_elapsed"
	DenyTooEarly      DenyReason = "too_early"
	DenyTooLate       DenyReason = "too_late"
	DenySystemError   DenyReason = "system_error"
)

// Verdict is the outcome of a redemption attempt: either a grant carrying
// the pass holder's details, or a categorized denial.
type Verdict struct {
	Granted  bool
	IssuedTo string
	Purpose  string
	Reason   DenyReason
	Detail   string
}

func Grant(p *Pass) Verdict {
	return Verdict{Granted: true, IssuedTo: p.IssuedTo, Purpose: p.Purpose}
}

func Deny(reason DenyReason, detail string) Verdict {
	return Verdict{Reason: reason, Detail: detail}
}
