// Package remote is the thin HTTP client for the single spreadsheet-backed
// endpoint. Every call is a POST of an action-tagged JSON body; the response
// is a {success, message, ...} envelope, except report downloads which stream
// opaque bytes.
package remote

import (
	"context"
	"encoding/json"

	"github.com/vinitafleet/driveops/internal/client/models"
)

// Ack is the acknowledgement of a successful mutating submission.
type Ack struct {
	ServerID string
	Message  string
}

type Gateway interface {
	// Submit delivers one queued action. idempotencyKey travels in the body
	// so the remote can recognize redelivery of the same logical request.
	Submit(ctx context.Context, kind models.ActionKind, payload json.RawMessage, idempotencyKey, token string) (*Ack, error)

	// Query performs an online-only read (dashboards, attendance check).
	// The full response body is decoded into out after the success check.
	Query(ctx context.Context, kind models.ActionKind, body any, token string, out any) error

	// Download fetches an opaque binary stream (report exports).
	Download(ctx context.Context, kind models.ActionKind, body any, token string) ([]byte, error)

	// Ping probes remote reachability. Any HTTP response counts as online.
	Ping(ctx context.Context) error
}
