package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/client/remote"
	"github.com/vinitafleet/driveops/internal/client/repositories/queue"
	"github.com/vinitafleet/driveops/internal/client/repositories/records"
	"github.com/vinitafleet/driveops/internal/client/store"
	"github.com/vinitafleet/driveops/internal/logging"
)

type submitCall struct {
	Kind           models.ActionKind
	IdempotencyKey string
}

// stubGateway scripts delivery outcomes and records every Submit, tracking
// how many submissions ever overlap.
type stubGateway struct {
	mu          stdsync.Mutex
	calls       []submitCall
	inFlight    int32
	maxInFlight int32
	respond     func(kind models.ActionKind, idempotencyKey string) (*remote.Ack, error)
}

func (g *stubGateway) Submit(ctx context.Context, kind models.ActionKind, payload json.RawMessage, idempotencyKey, token string) (*remote.Ack, error) {
	n := atomic.AddInt32(&g.inFlight, 1)
	defer atomic.AddInt32(&g.inFlight, -1)
	for {
		max := atomic.LoadInt32(&g.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&g.maxInFlight, max, n) {
			break
		}
	}

	g.mu.Lock()
	g.calls = append(g.calls, submitCall{Kind: kind, IdempotencyKey: idempotencyKey})
	g.mu.Unlock()

	if g.respond != nil {
		return g.respond(kind, idempotencyKey)
	}
	return &remote.Ack{ServerID: "srv-" + idempotencyKey}, nil
}

func (g *stubGateway) Query(ctx context.Context, kind models.ActionKind, body any, token string, out any) error {
	return nil
}

func (g *stubGateway) Download(ctx context.Context, kind models.ActionKind, body any, token string) ([]byte, error) {
	return nil, nil
}

func (g *stubGateway) Ping(ctx context.Context) error { return nil }

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fixture struct {
	db      *sql.DB
	queue   *queue.SQLiteRepository
	records *records.SQLiteRepository
	gateway *stubGateway
	engine  *Engine
	clock   *fakeClock
}

type fakeClock struct {
	mu  stdsync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T, opts Options, online func() bool) *fixture {
	t.Helper()

	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:      db,
		queue:   queue.NewSQLiteRepository(db),
		records: records.NewSQLiteRepository(db),
		gateway: &stubGateway{},
		clock:   &fakeClock{now: time.Now()},
	}

	log := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	f.engine = New(f.queue, f.records, f.gateway, log, opts, online, func() string { return "tok" })
	f.engine.now = f.clock.Now
	return f
}

func enqueueTrip(t *testing.T, f *fixture) *models.PendingAction {
	t.Helper()
	a, err := f.queue.Enqueue(context.Background(), models.KindAddTrip, []byte(`{"amount":100}`), "")
	require.NoError(t, err)
	return a
}

func TestDrain_DeliversFIFO(t *testing.T) {
	f := setup(t, Options{}, nil)
	ctx := context.Background()

	var want []string
	for i := 0; i < 3; i++ {
		want = append(want, enqueueTrip(t, f).ID)
	}

	require.NoError(t, f.engine.Drain(ctx))

	require.Len(t, f.gateway.calls, 3)
	for i, call := range f.gateway.calls {
		assert.Equal(t, want[i], call.IdempotencyKey, "delivery must follow enqueue order")
	}

	n, err := f.queue.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "queue must be empty after successful drain")
}

func TestDrain_OfflineMakesNoGatewayCalls(t *testing.T) {
	online := false
	f := setup(t, Options{}, func() bool { return online })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		enqueueTrip(t, f)
	}

	require.NoError(t, f.engine.Drain(ctx))
	assert.Zero(t, f.gateway.callCount(), "no remote calls while offline")

	// Connectivity returns: all three drain in original order.
	online = true
	require.NoError(t, f.engine.Drain(ctx))
	assert.Equal(t, 3, f.gateway.callCount())
}

func TestDrain_SuccessReconcilesOptimisticRecord(t *testing.T) {
	f := setup(t, Options{}, nil)
	ctx := context.Background()

	rec := &models.Record{
		ID:       uuid.NewString(),
		Kind:     models.KindAddTrip,
		DriverID: "d-1",
		Date:     "2026-08-28",
		Payload:  []byte(`{"amount":100}`),
	}
	require.NoError(t, f.records.Insert(ctx, rec))

	_, err := f.queue.Enqueue(ctx, models.KindAddTrip, rec.Payload, rec.ID)
	require.NoError(t, err)

	f.gateway.respond = func(kind models.ActionKind, idempotencyKey string) (*remote.Ack, error) {
		return &remote.Ack{ServerID: "srv-7"}, nil
	}

	require.NoError(t, f.engine.Drain(ctx))

	got, err := f.records.List(ctx, models.RecordFilter{DriverID: "d-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Synced)
	assert.Equal(t, "srv-7", got[0].ServerID)
}

func TestDrain_ValidationRejectionParksWithoutRetry(t *testing.T) {
	f := setup(t, Options{}, nil)
	ctx := context.Background()

	enqueueTrip(t, f)
	f.gateway.respond = func(models.ActionKind, string) (*remote.Ack, error) {
		return nil, &remote.ValidationError{Message: "Amount exceeds balance"}
	}

	require.NoError(t, f.engine.Drain(ctx))
	assert.Equal(t, 1, f.gateway.callCount())

	failed, err := f.queue.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Attempts)
	assert.Contains(t, failed[0].LastError, "Amount exceeds balance")

	// No retry is ever scheduled for a semantic rejection.
	f.clock.Advance(time.Hour)
	require.NoError(t, f.engine.Drain(ctx))
	assert.Equal(t, 1, f.gateway.callCount())
}

func TestDrain_TransientFailureBacksOffThenRetries(t *testing.T) {
	f := setup(t, Options{BaseBackoff: time.Second, MaxBackoff: time.Minute}, nil)
	ctx := context.Background()

	enqueueTrip(t, f)

	fail := true
	f.gateway.respond = func(models.ActionKind, string) (*remote.Ack, error) {
		if fail {
			return nil, &remote.NetworkError{Err: errors.New("timeout")}
		}
		return &remote.Ack{}, nil
	}

	require.NoError(t, f.engine.Drain(ctx))
	assert.Equal(t, 1, f.gateway.callCount())

	// Not due yet: an immediate drain must not touch the gateway.
	require.NoError(t, f.engine.Drain(ctx))
	assert.Equal(t, 1, f.gateway.callCount())

	// Past the (jittered) base delay the action becomes eligible again.
	fail = false
	f.clock.Advance(2 * time.Second)
	require.NoError(t, f.engine.Drain(ctx))
	assert.Equal(t, 2, f.gateway.callCount())

	n, err := f.queue.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrain_AttemptBoundParksAction(t *testing.T) {
	f := setup(t, Options{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, nil)
	ctx := context.Background()

	enqueueTrip(t, f)
	f.gateway.respond = func(models.ActionKind, string) (*remote.Ack, error) {
		return nil, &remote.NetworkError{Err: errors.New("unreachable")}
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, f.engine.Drain(ctx))
		f.clock.Advance(time.Second)
	}

	assert.Equal(t, 3, f.gateway.callCount(), "delivery stops at the attempt bound")

	failed, err := f.queue.ListFailed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 3, failed[0].Attempts)
}

func TestDrain_ConflictTreatedAsDelivered(t *testing.T) {
	f := setup(t, Options{}, nil)
	ctx := context.Background()

	enqueueTrip(t, f)
	f.gateway.respond = func(models.ActionKind, string) (*remote.Ack, error) {
		return nil, &remote.ConflictError{Message: "duplicate token"}
	}

	require.NoError(t, f.engine.Drain(ctx))

	n, err := f.queue.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	failed, err := f.queue.ListFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestDrain_WaitsForLoginBeforeDelivering(t *testing.T) {
	f := setup(t, Options{}, nil)
	ctx := context.Background()

	token := ""
	f.engine.tokenFn = func() string { return token }

	enqueueTrip(t, f)

	// Logged out: nothing is sent and nothing is parked as failed.
	require.NoError(t, f.engine.Drain(ctx))
	assert.Zero(t, f.gateway.callCount())

	n, err := f.queue.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	failed, err := f.queue.ListFailed(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)

	// After login the backlog resumes.
	token = "tok"
	require.NoError(t, f.engine.Drain(ctx))
	assert.Equal(t, 1, f.gateway.callCount())

	n, err = f.queue.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrain_SingleFlightUnderConcurrentEnqueues(t *testing.T) {
	f := setup(t, Options{}, nil)
	ctx := context.Background()

	f.gateway.respond = func(models.ActionKind, string) (*remote.Ack, error) {
		time.Sleep(time.Millisecond)
		return &remote.Ack{}, nil
	}

	var wg stdsync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := f.queue.Enqueue(ctx, models.KindAddTrip, []byte(`{"amount":1}`), "")
				assert.NoError(t, err)
				_ = f.engine.Drain(ctx)
			}
		}()
	}
	wg.Wait()

	// Drain until everything enqueued during the stress run is flushed.
	for {
		require.NoError(t, f.engine.Drain(ctx))
		n, err := f.queue.CountPending(ctx)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.gateway.maxInFlight),
		"at most one submission may ever be in flight")
	assert.Equal(t, 20, f.gateway.callCount())
}

func TestRun_DrainsOnNotify(t *testing.T) {
	f := setup(t, Options{SyncInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.engine.Run(ctx)
		close(done)
	}()

	enqueueTrip(t, f)
	f.engine.Notify()

	require.Eventually(t, func() bool {
		n, err := f.queue.CountPending(context.Background())
		return err == nil && n == 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestNotify_NeverBlocks(t *testing.T) {
	f := setup(t, Options{}, nil)
	for i := 0; i < 100; i++ {
		f.engine.Notify()
	}
}
