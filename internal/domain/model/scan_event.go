package model

import "time"

// ScanEvent is one audit record per redemption attempt, granted or not.
// Events are append-only and never consulted by the redemption decision.
type ScanEvent struct {
	ID        string // ULID, sortable by time
	Code      string
	ScannerID *string
	Granted   bool
	Reason    DenyReason // empty on grant
	At        time.Time
}
