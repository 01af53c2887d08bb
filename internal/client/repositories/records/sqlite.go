package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/common"
	"github.com/vinitafleet/driveops/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	query := `INSERT INTO records (id, kind, driver_id, date, payload, server_id, synced, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, string(rec.Kind), rec.DriverID, rec.Date, []byte(rec.Payload),
		rec.ServerID, boolToInt(rec.Synced), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: insert record %s: %v", common.ErrStorage, rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.Record, error) {
	query := `SELECT id, kind, driver_id, date, payload, server_id, synced, created_at FROM records WHERE 1=1`
	args := make([]any, 0, 3)

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.DriverID != "" {
		query += ` AND driver_id = ?`
		args = append(args, filter.DriverID)
	}
	if filter.Date != "" {
		query += ` AND date = ?`
		args = append(args, filter.Date)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		var (
			rec       models.Record
			kind      string
			payload   []byte
			synced    int
			createdAt int64
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.DriverID, &rec.Date, &payload, &rec.ServerID, &synced, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan record: %v", common.ErrStorage, err)
		}
		rec.Kind = models.ActionKind(kind)
		rec.Payload = json.RawMessage(payload)
		rec.Synced = synced != 0
		rec.CreatedAt = time.Unix(0, createdAt)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list records: %v", common.ErrStorage, err)
	}
	return result, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, serverID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET server_id = ?, synced = 1 WHERE id = ?`, serverID, id)
	if err != nil {
		return fmt.Errorf("%w: mark record synced %s: %v", common.ErrStorage, id, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: mark record synced %s: %v", common.ErrStorage, id, err)
	}
	if ra != 1 {
		return fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete record %s: %v", common.ErrStorage, id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
