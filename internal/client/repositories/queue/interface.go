// Package queue persists pending actions awaiting delivery to the remote
// service. Rows live in the sync_queue table and are deleted on success.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vinitafleet/driveops/internal/client/models"
)

type Repository interface {
	// Enqueue constructs a PendingAction with a fresh id and persists it
	// before returning, so the caller can render optimistic state.
	Enqueue(ctx context.Context, kind models.ActionKind, payload json.RawMessage, recordRef string) (*models.PendingAction, error)

	// Get returns the action with the given id regardless of state, or
	// common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.PendingAction, error)

	// PeekNext returns the oldest pending action whose retry time has come,
	// in created_at order with id as tie-break. Returns common.ErrQueueEmpty
	// when nothing is eligible.
	PeekNext(ctx context.Context, now time.Time) (*models.PendingAction, error)

	// MarkInFlight transitions a pending action to inflight. It fails with
	// common.ErrActionInFlight while any other action is inflight, keeping
	// the drain single-flight even across engine restarts.
	MarkInFlight(ctx context.Context, id string) error

	// MarkSucceeded deletes a delivered action from the queue.
	MarkSucceeded(ctx context.Context, id string) error

	// MarkRetry returns an inflight action to pending after a transient
	// failure, bumping attempts and scheduling the next eligibility time.
	MarkRetry(ctx context.Context, id string, reason string, nextRetryAt time.Time) error

	// MarkFailed parks an action as terminally failed: it is excluded from
	// automatic retry until the user requeues or discards it.
	MarkFailed(ctx context.Context, id string, reason string) error

	// Requeue resets a failed action to pending with a zeroed attempt count.
	Requeue(ctx context.Context, id string) error

	// Discard removes an action regardless of state. Deleting an absent id
	// is not an error.
	Discard(ctx context.Context, id string) error

	// ListFailed returns terminally failed actions, oldest first.
	ListFailed(ctx context.Context) ([]models.PendingAction, error)

	// CountPending reports how many actions still await delivery.
	CountPending(ctx context.Context) (int, error)

	// NextWake returns the earliest future retry time among pending actions,
	// or ok=false when nothing is scheduled ahead of now.
	NextWake(ctx context.Context, now time.Time) (time.Time, bool, error)

	// ResetInFlight returns any inflight rows to pending. Called once at
	// startup: an inflight row found there means the process died before the
	// outcome arrived, and the idempotency key makes redelivery safe.
	ResetInFlight(ctx context.Context) (int, error)
}
