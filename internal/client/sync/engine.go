// Package sync drains the action queue against the remote gateway: one
// action in flight at a time, FIFO by enqueue order, transient failures
// retried with capped exponential backoff, semantic rejections parked for
// the user.
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/client/remote"
	"github.com/vinitafleet/driveops/internal/client/repositories/queue"
	"github.com/vinitafleet/driveops/internal/client/repositories/records"
	"github.com/vinitafleet/driveops/internal/common"
	"github.com/vinitafleet/driveops/internal/logging"
)

// Options bound the retry behavior. The embedding application supplies them
// through config; zero values fall back to the defaults below.
type Options struct {
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	SyncInterval time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 5
	}
	if out.BaseBackoff <= 0 {
		out.BaseBackoff = time.Second
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = 2 * time.Minute
	}
	if out.SyncInterval <= 0 {
		out.SyncInterval = 5 * time.Minute
	}
	return out
}

// Engine owns the drain loop. UI collaborators only enqueue and call Notify;
// all queue state transitions happen here.
type Engine struct {
	queue   queue.Repository
	records records.Repository
	gateway remote.Gateway
	log     logging.Logger
	opts    Options

	// online reports current connectivity; tokenFn yields the bearer token
	// of the active session ("" when logged out).
	online  func() bool
	tokenFn func() string

	now  func() time.Time
	wake chan struct{}

	// draining serializes Drain across the run loop and manual sync calls.
	draining sync.Mutex
}

func New(q queue.Repository, r records.Repository, g remote.Gateway, log logging.Logger,
	opts Options, online func() bool, tokenFn func() string) *Engine {
	return &Engine{
		queue:   q,
		records: r,
		gateway: g,
		log:     log.With("component", "sync"),
		opts:    opts.withDefaults(),
		online:  online,
		tokenFn: tokenFn,
		now:     time.Now,
		wake:    make(chan struct{}, 1),
	}
}

// Notify wakes the drain loop. It never blocks the caller; a wake-up already
// pending is enough.
func (e *Engine) Notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Run is the single logical drain loop. It recovers interrupted deliveries
// once at startup, then drains on wake-ups, scheduled retry times, and the
// periodic interval, until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	if n, err := e.queue.ResetInFlight(ctx); err != nil {
		e.log.Error(ctx, "inflight recovery failed", "error", err)
	} else if n > 0 {
		e.log.Info(ctx, "recovered interrupted deliveries", "count", n)
	}

	for {
		timer := time.NewTimer(e.sleepFor(ctx))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-e.wake:
			timer.Stop()
		case <-timer.C:
		}

		if err := e.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.log.Error(ctx, "drain failed", "error", err)
		}
	}
}

// sleepFor picks the next wake-up: the earliest scheduled retry if one comes
// before the periodic interval.
func (e *Engine) sleepFor(ctx context.Context) time.Duration {
	d := e.opts.SyncInterval
	if next, ok, err := e.queue.NextWake(ctx, e.now()); err == nil && ok {
		if until := next.Sub(e.now()); until < d {
			d = until
		}
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Drain delivers eligible actions in FIFO order until the queue is empty,
// connectivity is lost, or the head action is not yet due. Overlapping calls
// collapse: a second caller returns immediately while a drain is running.
func (e *Engine) Drain(ctx context.Context) error {
	if !e.draining.TryLock() {
		return nil
	}
	defer e.draining.Unlock()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.online != nil && !e.online() {
			return nil
		}
		// Deliveries carry the session's bearer token. Without one the
		// remote rejects every action as unauthorized, which is not a payload
		// problem, so the backlog waits for the next login instead.
		if e.tokenFn != nil && e.tokenFn() == "" {
			return nil
		}

		a, err := e.queue.PeekNext(ctx, e.now())
		if errors.Is(err, common.ErrQueueEmpty) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := e.deliver(ctx, a); err != nil {
			return err
		}
	}
}

// deliver runs one action through the state machine. Returned errors are
// storage failures only; delivery outcomes become queue transitions.
func (e *Engine) deliver(ctx context.Context, a *models.PendingAction) error {
	if err := e.queue.MarkInFlight(ctx, a.ID); err != nil {
		return err
	}

	token := ""
	if e.tokenFn != nil {
		token = e.tokenFn()
	}

	ack, err := e.gateway.Submit(ctx, a.Kind, a.Payload, a.ID, token)

	switch {
	case err == nil:
		e.reconcile(ctx, a, ack.ServerID)
		e.log.Info(ctx, "action delivered", "id", a.ID, "kind", a.Kind)
		return e.queue.MarkSucceeded(ctx, a.ID)

	case isConflict(err):
		// The remote saw this idempotency token before: the action is
		// already applied, an earlier ack was lost.
		e.log.Warn(ctx, "duplicate delivery acknowledged", "id", a.ID, "kind", a.Kind)
		return e.queue.MarkSucceeded(ctx, a.ID)

	case isValidation(err):
		e.log.Warn(ctx, "action rejected", "id", a.ID, "kind", a.Kind, "reason", err)
		return e.queue.MarkFailed(ctx, a.ID, err.Error())

	default:
		attempts := a.Attempts + 1
		if attempts >= e.opts.MaxAttempts {
			e.log.Error(ctx, "action failed permanently", "id", a.ID, "kind", a.Kind, "attempts", attempts, "error", err)
			return e.queue.MarkFailed(ctx, a.ID, err.Error())
		}
		delay := retryDelay(e.opts.BaseBackoff, e.opts.MaxBackoff, attempts)
		e.log.Warn(ctx, "action retry scheduled", "id", a.ID, "kind", a.Kind, "attempts", attempts, "delay", delay)
		return e.queue.MarkRetry(ctx, a.ID, err.Error(), e.now().Add(delay))
	}
}

// reconcile stamps the server id onto the optimistic local record, if the
// action referenced one and the remote assigned one.
func (e *Engine) reconcile(ctx context.Context, a *models.PendingAction, serverID string) {
	if a.RecordRef == "" || serverID == "" {
		return
	}
	if err := e.records.MarkSynced(ctx, a.RecordRef, serverID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return // record was discarded locally meanwhile
		}
		e.log.Error(ctx, "record reconciliation failed", "id", a.ID, "recordRef", a.RecordRef, "error", err)
	}
}

func isConflict(err error) bool {
	var cerr *remote.ConflictError
	return errors.As(err, &cerr)
}

func isValidation(err error) bool {
	var verr *remote.ValidationError
	return errors.As(err, &verr)
}
