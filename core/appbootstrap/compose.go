// Package appbootstrap is the composition root: it builds the policy, the
// stores, the session layer and the HTTP server, and owns their lifecycle.
package appbootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"safeflow/api"
	"safeflow/config"
	"safeflow/core/assist"
	"safeflow/core/audit"
	"safeflow/core/auth"
	"safeflow/core/rbac"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type App struct {
	cfg      *config.AppConfig
	logger   *utils.Logger
	server   *api.Server
	sessions *auth.SessionManager
	db       *sql.DB
	janitor  *cron.Cron
}

func Compose(cfg *config.AppConfig, logger *utils.Logger) (*App, error) {
	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, err
	}

	feed := store.NewFeed()
	sessions := auth.NewSessionManager(cfg, feed, logger)
	incidents := store.NewIncidentsStore(policy, feed)
	actions := store.NewActionsStore(policy, incidents)
	audits := store.NewAuditsStore(policy)

	if cfg.DemoSeed {
		incidents.Seed(store.DemoIncidents())
		actions.Seed(store.DemoActions())
		logger.Printf("BOOT demo fixture loaded")
	}

	db, err := audit.Open(cfg.Audit.Driver, cfg.Audit.URL)
	if err != nil {
		return nil, err
	}
	trail := audit.NewTrail(db, logger)

	server := api.NewServer(api.Deps{
		Cfg:       cfg,
		Logger:    logger,
		Policy:    policy,
		Sessions:  sessions,
		Incidents: incidents,
		Actions:   actions,
		Audits:    audits,
		Trail:     trail,
		Assist:    assist.NewClient(&cfg.Assist, logger),
	})

	app := &App{cfg: cfg, logger: logger, server: server, sessions: sessions, db: db}
	if cfg.Janitor.Enabled {
		app.janitor = cron.New()
		if _, err := app.janitor.AddFunc(cfg.Janitor.Schedule, func() {
			if purged := sessions.PurgeExpired(); purged > 0 {
				logger.Printf("JANITOR purged %d expired sessions", purged)
			}
		}); err != nil {
			db.Close()
			return nil, err
		}
	}
	return app, nil
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           a.server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.janitor != nil {
		a.janitor.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Printf("BOOT listening on %s", a.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.logger.Printf("SHUTDOWN signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Errorf("shutdown: %v", err)
	}
	if a.janitor != nil {
		a.janitor.Stop()
	}
	return a.db.Close()
}
