package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sydlexius/melisma/internal/api"
	"github.com/sydlexius/melisma/internal/artist"
	"github.com/sydlexius/melisma/internal/collector"
	"github.com/sydlexius/melisma/internal/config"
	"github.com/sydlexius/melisma/internal/database"
	"github.com/sydlexius/melisma/internal/encryption"
	"github.com/sydlexius/melisma/internal/logging"
	"github.com/sydlexius/melisma/internal/provider"
	"github.com/sydlexius/melisma/internal/provider/lastfm"
	"github.com/sydlexius/melisma/internal/provider/musicbrainz"
	"github.com/sydlexius/melisma/internal/provider/wikidata"
	"github.com/sydlexius/melisma/internal/version"
)

func main() {
	// Handle subcommands before starting the server
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "collect":
			if err := runCollect(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "rebuild-relations":
			if err := runRebuild(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "set-key":
			if err := runSetKey(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func configPath() string {
	if p := os.Getenv("ML_CONFIG_PATH"); p != "" {
		return p
	}
	return "/data/config.yaml"
}

// app bundles the long-lived resources every entry point needs.
type app struct {
	cfg        *config.Config
	logManager *logging.Manager
	logger     *slog.Logger
	db         *sql.DB
	artists    *artist.Service
	collector  *collector.Service
	settings   *provider.SettingsService
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logCfg := logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	}
	logManager, logger := logging.NewManager(logCfg)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()         //nolint:errcheck
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	encryptor, _, err := encryption.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()         //nolint:errcheck
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	rateLimiters := provider.NewRateLimiterMap()
	providerSettings := provider.NewSettingsService(db, encryptor)

	registry := musicbrainz.New(rateLimiters, logger)
	enricher := wikidata.New(rateLimiters, logger)
	similarity := lastfm.New(rateLimiters, providerSettings, logger)

	artistService := artist.NewService(db)
	collectorService := collector.NewService(artistService, registry, enricher, similarity, logger)

	return &app{
		cfg:        cfg,
		logManager: logManager,
		logger:     logger,
		db:         db,
		artists:    artistService,
		collector:  collectorService,
		settings:   providerSettings,
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("closing database", "error", err)
	}
	a.logManager.Close() //nolint:errcheck
}

func run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("starting melisma",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	router := api.NewRouter(api.RouterDeps{
		ArtistService: a.artists,
		Logger:        a.logger,
		BasePath:      a.cfg.Server.BasePath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reload logging settings when the config file changes on disk.
	go func() {
		err := config.Watch(ctx, configPath(), a.logger, func(cfg *config.Config) {
			a.logManager.Reconfigure(logging.Config{
				Level:          cfg.Logging.Level,
				Format:         cfg.Logging.Format,
				FilePath:       cfg.Logging.FilePath,
				FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
				FileMaxFiles:   cfg.Logging.FileMaxFiles,
				FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
			})
		})
		if err != nil {
			a.logger.Warn("config watcher stopped", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
