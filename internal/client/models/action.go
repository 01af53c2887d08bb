// Package models defines the client-side domain types: queued actions and
// their typed payloads, the cached session, and local read-model records.
package models

import (
	"encoding/json"
	"time"
)

// ActionKind tags a queued action. The string value doubles as the "action"
// field of the remote wire contract.
type ActionKind string

const (
	KindLogin                ActionKind = "login"
	KindRegister             ActionKind = "register"
	KindAddTrip              ActionKind = "addTrip"
	KindAddExpense           ActionKind = "submitExpense"
	KindAddComplaint         ActionKind = "addComplaint"
	KindAddRepayment         ActionKind = "addRepayment"
	KindMarkAttendance       ActionKind = "markAttendance"
	KindMarkLogout           ActionKind = "markLogout"
	KindSubmitODReading      ActionKind = "submitOD"
	KindUpdateApprovalStatus ActionKind = "updateApprovalStatus"
	KindUpdateProfileImage   ActionKind = "updateProfileImage"

	// Online-only read tags. These never enter the queue.
	KindCheckAttendance  ActionKind = "checkAttendance"
	KindDriverDashboard  ActionKind = "getDriverDashboard"
	KindDashboardSummary ActionKind = "dashboardSummary"
	KindGenerateReport   ActionKind = "generateReport"
)

// ActionStatus is the queue state of a PendingAction. There is no "succeeded"
// status: successful actions are deleted from the queue.
type ActionStatus string

const (
	StatusPending  ActionStatus = "pending"
	StatusInFlight ActionStatus = "inflight"
	StatusFailed   ActionStatus = "failed"
)

// PendingAction is a durably queued, not-yet-confirmed mutating request.
//
// ID is assigned once at enqueue time and never reused; it also serves as the
// idempotency token on the wire. RecordRef optionally points at the local
// read-model row written optimistically at enqueue time, so the sync engine
// can stamp the server-assigned id onto it after delivery.
type PendingAction struct {
	ID          string
	Kind        ActionKind
	Payload     json.RawMessage
	RecordRef   string
	Status      ActionStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	NextRetryAt time.Time
}
