package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ganot/sitesync/internal/cache"
	"github.com/ganot/sitesync/internal/config"
	"github.com/ganot/sitesync/internal/coordinator"
	"github.com/ganot/sitesync/internal/domain/activity"
	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/reachability"
	"github.com/ganot/sitesync/internal/sqlite"
	"github.com/ganot/sitesync/internal/transport"
	"gopkg.in/natefinch/lumberjack.v2"
)

// app is the composed client: every long-lived service, constructed once
// at startup and handed to the commands.
type app struct {
	cfg         config.Config
	logger      *slog.Logger
	db          *sqlite.DB
	client      *transport.Client
	session     *session.Service
	cache       *cache.Store
	monitor     *reachability.Monitor
	offline     *sqlite.OfflineProjectRepository
	activity    *activity.Service
	coordinator *coordinator.Coordinator

	closers []func()
}

type appOptions struct {
	// probe starts reachability polling; commands that only talk to the
	// auth endpoints skip it.
	probe bool
}

func openApp(ctx context.Context, opts *rootOptions, stderr io.Writer, aopts appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &app{cfg: cfg}
	logWriter := stderr
	if cfg.Log.Path != "" {
		if err := ensureDir(cfg.Log.Path); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.Log.Path,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
		}
		logWriter = rotator
		a.closers = append(a.closers, func() { rotator.Close() })
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDir(cfg.DB.Path); err != nil {
		a.Close()
		return nil, fmt.Errorf("database dir: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		a.Close()
		return nil, err
	}

	prefs := sqlite.NewPreferenceRepository(db)
	a.offline = sqlite.NewOfflineProjectRepository(db)
	a.activity = activity.NewService(sqlite.NewActivityRepository(db), a.logger)

	store, err := cache.New(cfg.CacheDir(),
		cache.WithLogger(a.logger),
		cache.WithLegacyDir(cfg.Storage.LegacyCacheDir, prefs),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = store
	if _, err := store.MigrateLegacy(ctx); err != nil {
		a.logger.Warn("legacy cache migration failed", "error", err)
	}

	a.client = transport.NewClient(cfg.API.BaseURL,
		transport.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		transport.WithLogger(a.logger),
	)

	a.session = session.NewService(a.client, sqlite.NewCredentialRepository(db), a.logger)
	if _, err := a.session.Restore(ctx); err != nil {
		a.logger.Warn("restoring session failed", "error", err)
	}
	// Registered after Restore so loading the stored session isn't logged.
	a.session.OnChange(a.recordSessionChange)

	a.monitor = reachability.New(a.logger)
	a.closers = append(a.closers, a.monitor.Close)
	if aopts.probe {
		probeCtx, cancel := context.WithCancel(ctx)
		a.closers = append(a.closers, cancel)
		a.monitor.Start(probeCtx, reachability.DialProber{Address: cfg.Reachability.ProbeAddress}, cfg.Reachability.Interval)
		if !a.monitor.WaitForInitialStatus(ctx, cfg.Reachability.InitialTimeout) {
			a.logger.Info("network unavailable, serving cached data")
		}
	}

	a.coordinator = coordinator.New(coordinator.Config{
		Fetcher: a.client,
		Cache:   store,
		Session: a.session,
		Network: a.monitor,
		Offline: a.offline,
		Logger:  a.logger,
	})
	return a, nil
}

// recordSessionChange writes session transitions to the activity log.
func (a *app) recordSessionChange(snap session.Snapshot) {
	ctx := context.Background()
	switch snap.State {
	case session.StateAuthenticated:
		a.activity.Record(ctx, activity.TypeLogin, 0, 0, "logged in", nil)
	case session.StateTenantSelected:
		a.activity.Record(ctx, activity.TypeTenantSelected, snap.TenantID, 0,
			fmt.Sprintf("selected tenant %d", snap.TenantID), nil)
	case session.StateLoggedOut:
		if snap.LastError != "" {
			a.activity.Record(ctx, activity.TypeSessionExpired, 0, 0, snap.LastError, nil)
			return
		}
		a.activity.Record(ctx, activity.TypeLogout, 0, 0, "logged out", nil)
	}
}

// tenantID is the selected tenant, or zero.
func (a *app) tenantID() int {
	creds, _ := a.session.Credentials()
	return creds.TenantID
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
