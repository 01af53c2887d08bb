package models

import (
	"encoding/json"
	"time"
)

// Record is an optimistic local read-model row for a submitted trip, expense,
// complaint or repayment. It is written at enqueue time so lists render
// immediately, and reconciled with the server-assigned id once the matching
// queued action is delivered.
type Record struct {
	ID        string
	Kind      ActionKind
	DriverID  string
	Date      string
	Payload   json.RawMessage
	ServerID  string
	Synced    bool
	CreatedAt time.Time
}

// RecordFilter narrows ListRecords. Zero-valued fields are not applied.
type RecordFilter struct {
	Kind     ActionKind
	DriverID string
	Date     string
}
