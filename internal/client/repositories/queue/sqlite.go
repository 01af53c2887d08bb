package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/common"
	"github.com/vinitafleet/driveops/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, kind models.ActionKind, payload json.RawMessage, recordRef string) (*models.PendingAction, error) {
	a := &models.PendingAction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		RecordRef: recordRef,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}

	query := `INSERT INTO sync_queue (id, kind, payload, record_ref, status, attempts, last_error, created_at, next_retry_at)
			VALUES (?, ?, ?, ?, ?, 0, '', ?, 0)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, string(a.Kind), []byte(a.Payload), a.RecordRef, string(a.Status), a.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("%w: enqueue %s: %v", common.ErrStorage, kind, err)
	}
	return a, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.PendingAction, error) {
	query := `SELECT id, kind, payload, record_ref, status, attempts, last_error, created_at, next_retry_at
			FROM sync_queue
			WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: action %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", common.ErrStorage, id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) PeekNext(ctx context.Context, now time.Time) (*models.PendingAction, error) {
	query := `SELECT id, kind, payload, record_ref, status, attempts, last_error, created_at, next_retry_at
			FROM sync_queue
			WHERE status = ? AND next_retry_at <= ?
			ORDER BY created_at, id
			LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, string(models.StatusPending), now.UnixNano())

	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: peek next: %v", common.ErrStorage, err)
	}
	return a, nil
}

func (r *SQLiteRepository) MarkInFlight(ctx context.Context, id string) error {
	query := `UPDATE sync_queue SET status = ?
			WHERE id = ? AND status = ?
			AND NOT EXISTS (SELECT 1 FROM sync_queue WHERE status = ?)`
	res, err := r.db.ExecContext(ctx, query,
		string(models.StatusInFlight), id, string(models.StatusPending), string(models.StatusInFlight))
	if err != nil {
		return fmt.Errorf("%w: mark inflight %s: %v", common.ErrStorage, id, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: mark inflight %s: %v", common.ErrStorage, id, err)
	}
	if ra != 1 {
		return common.ErrActionInFlight
	}
	return nil
}

func (r *SQLiteRepository) MarkSucceeded(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: mark succeeded %s: %v", common.ErrStorage, id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkRetry(ctx context.Context, id string, reason string, nextRetryAt time.Time) error {
	query := `UPDATE sync_queue
			SET status = ?, attempts = attempts + 1, last_error = ?, next_retry_at = ?
			WHERE id = ?`
	return r.transition(ctx, id, query,
		string(models.StatusPending), reason, nextRetryAt.UnixNano(), id)
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `UPDATE sync_queue
			SET status = ?, attempts = attempts + 1, last_error = ?
			WHERE id = ?`
	return r.transition(ctx, id, query, string(models.StatusFailed), reason, id)
}

func (r *SQLiteRepository) Requeue(ctx context.Context, id string) error {
	query := `UPDATE sync_queue
			SET status = ?, attempts = 0, last_error = '', next_retry_at = 0
			WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, string(models.StatusPending), id, string(models.StatusFailed))
	if err != nil {
		return fmt.Errorf("%w: requeue %s: %v", common.ErrStorage, id, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: requeue %s: %v", common.ErrStorage, id, err)
	}
	if ra != 1 {
		return common.ErrActionNotFailed
	}
	return nil
}

func (r *SQLiteRepository) Discard(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: discard %s: %v", common.ErrStorage, id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]models.PendingAction, error) {
	query := `SELECT id, kind, payload, record_ref, status, attempts, last_error, created_at, next_retry_at
			FROM sync_queue
			WHERE status = ?
			ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, string(models.StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("%w: list failed: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []models.PendingAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: list failed: %v", common.ErrStorage, err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list failed: %v", common.ErrStorage, err)
	}
	return result, nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE status = ?`, string(models.StatusPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count pending: %v", common.ErrStorage, err)
	}
	return n, nil
}

func (r *SQLiteRepository) NextWake(ctx context.Context, now time.Time) (time.Time, bool, error) {
	var next sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MIN(next_retry_at) FROM sync_queue WHERE status = ? AND next_retry_at > ?`,
		string(models.StatusPending), now.UnixNano()).Scan(&next)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: next wake: %v", common.ErrStorage, err)
	}
	if !next.Valid || next.Int64 == 0 {
		return time.Time{}, false, nil
	}
	return time.Unix(0, next.Int64), true, nil
}

func (r *SQLiteRepository) ResetInFlight(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET status = ? WHERE status = ?`,
		string(models.StatusPending), string(models.StatusInFlight))
	if err != nil {
		return 0, fmt.Errorf("%w: reset inflight: %v", common.ErrStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: reset inflight: %v", common.ErrStorage, err)
	}
	return int(ra), nil
}

func (r *SQLiteRepository) transition(ctx context.Context, id string, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: transition %s: %v", common.ErrStorage, id, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: transition %s: %v", common.ErrStorage, id, err)
	}
	if ra != 1 {
		return fmt.Errorf("%w: action %s", common.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAction(row rowScanner) (*models.PendingAction, error) {
	var (
		a         models.PendingAction
		kind      string
		status    string
		payload   []byte
		createdAt int64
		nextRetry int64
	)
	if err := row.Scan(&a.ID, &kind, &payload, &a.RecordRef, &status, &a.Attempts, &a.LastError, &createdAt, &nextRetry); err != nil {
		return nil, err
	}
	a.Kind = models.ActionKind(kind)
	a.Status = models.ActionStatus(status)
	a.Payload = json.RawMessage(payload)
	a.CreatedAt = time.Unix(0, createdAt)
	if nextRetry > 0 {
		a.NextRetryAt = time.Unix(0, nextRetry)
	}
	return &a, nil
}
