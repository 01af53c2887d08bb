package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestOpen_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "driveops.db")

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"sync_queue", "auth", "records"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s must exist", table)
	}
}

func TestOpen_ReopenKeepsQueueRows(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "driveops.db")

	db, err := Open(ctx, dsn)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO sync_queue (id, kind, payload, created_at) VALUES ('a1', 'addTrip', x'7b7d', 1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening runs migrations again; pending rows must survive.
	db, err = Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestOpen_ConcurrentWritersDoNotFailBusy(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "driveops.db")

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// Writers land on different pooled connections; every one of them must
	// wait out the lock rather than surface SQLITE_BUSY.
	const writers, rows = 8, 10
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rows; i++ {
				_, err := db.ExecContext(ctx,
					`INSERT INTO sync_queue (id, kind, payload, created_at) VALUES (?, 'addTrip', x'7b7d', ?)`,
					fmt.Sprintf("w%d-%d", w, i), i)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n))
	assert.Equal(t, writers*rows, n)
}
