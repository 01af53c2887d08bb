// Package records keeps the optimistic local read-models: one row per
// submitted trip, expense, complaint or repayment, reconciled with the
// server-assigned id when the matching queued action is delivered.
package records

import (
	"context"

	"github.com/vinitafleet/driveops/internal/client/models"
)

type Repository interface {
	Insert(ctx context.Context, rec *models.Record) error

	// List returns records newest first, narrowed by the non-zero fields of
	// the filter.
	List(ctx context.Context, filter models.RecordFilter) ([]models.Record, error)

	// MarkSynced stamps the server-assigned id onto a local record.
	MarkSynced(ctx context.Context, id string, serverID string) error

	// Delete removes a record; deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
