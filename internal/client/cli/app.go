// Package cli is the interactive terminal frontend of the DriveOps client:
// a small REPL over the auth and ops services, with the sync engine and the
// connectivity monitor running alongside it.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/vinitafleet/driveops/internal/client/config"
	"github.com/vinitafleet/driveops/internal/client/models"
	"github.com/vinitafleet/driveops/internal/client/netmon"
	"github.com/vinitafleet/driveops/internal/client/remote"
	"github.com/vinitafleet/driveops/internal/client/repositories/queue"
	"github.com/vinitafleet/driveops/internal/client/repositories/records"
	"github.com/vinitafleet/driveops/internal/client/services"
	"github.com/vinitafleet/driveops/internal/client/store"
	syncengine "github.com/vinitafleet/driveops/internal/client/sync"
	"github.com/vinitafleet/driveops/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	auth    services.AuthService
	ops     services.OpsService
	engine  *syncengine.Engine
	monitor *netmon.Monitor

	// session is read by the engine's token callback from its own goroutine.
	session atomic.Pointer[models.Session]
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	gateway := remote.NewHTTPGateway(cfg.EndpointURL, cfg.RequestTimeout)
	monitor := netmon.New(gateway, cfg.OnlineCheckInterval, log)

	a := &App{
		config:  cfg,
		log:     log,
		db:      db,
		monitor: monitor,
		reader:  bufio.NewReader(os.Stdin),
	}

	a.engine = syncengine.New(
		queue.NewSQLiteRepository(db),
		records.NewSQLiteRepository(db),
		gateway,
		log,
		syncengine.Options{
			MaxAttempts:  cfg.MaxAttempts,
			BaseBackoff:  cfg.BaseBackoff,
			MaxBackoff:   cfg.MaxBackoff,
			SyncInterval: cfg.SyncInterval,
		},
		monitor.IsOnline,
		a.token,
	)

	// Connectivity coming back is the moment to push the backlog.
	monitor.OnChange(func(online bool) {
		if online {
			a.engine.Notify()
		}
	})

	a.auth = services.NewAuthService(gateway, db)
	a.ops = services.NewOpsService(db, gateway, a.engine)

	return a, nil
}

// Run starts the monitor and the drain loop, then hands the terminal to the
// REPL. Returning from the REPL cancels both loops and closes the store.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.db.Close()

	go a.monitor.Run(ctx)
	go a.engine.Run(ctx)

	a.Root(ctx)
}

func (a *App) currentSession() *models.Session {
	return a.session.Load()
}

func (a *App) setSession(s *models.Session) {
	a.session.Store(s)
}

func (a *App) token() string {
	if s := a.session.Load(); s != nil {
		return s.Token
	}
	return ""
}

func (a *App) isLoggedIn() bool {
	return a.session.Load() != nil
}

func (a *App) isAdmin() bool {
	s := a.session.Load()
	return s != nil && s.IsAdmin()
}

// getStatus renders the prompt suffix: "(name online)" / "(name offline)".
func (a *App) getStatus() string {
	s := ""
	if sess := a.session.Load(); sess != nil {
		s = sess.Name + " "
	}
	if a.monitor.IsOnline() {
		s += "online"
	} else {
		s += "offline"
	}
	return fmt.Sprintf("(%s)", s)
}
