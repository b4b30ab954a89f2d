package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmcdole/crate/internal/config"
	"github.com/mmcdole/crate/internal/discogs"
	"github.com/mmcdole/crate/internal/launcher"
	"github.com/mmcdole/crate/internal/library"
	"github.com/mmcdole/crate/internal/log"
	"github.com/mmcdole/crate/internal/search"
	"github.com/mmcdole/crate/internal/store"
)

var errNotConfigured = errors.New("no Discogs username configured; run `crate config set-username <name>` or set CRATE_DISCOGS_USERNAME")

// application wires configuration, storage and services for one command run.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.CollectionStore
	client   *discogs.Client
	service  *library.Service
	queries  *library.Queries
	searcher *search.Service
	launcher *launcher.Launcher
}

func newApplication(opts *options) (*application, error) {
	cfg, err := config.NewLoader(opts.configDir).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.username != "" {
		cfg.Discogs.Username = opts.username
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	st, err := store.NewCollectionStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	transport := discogs.NewTransport(discogs.TransportOptions{
		HTTPClient: &http.Client{Timeout: cfg.Sync.RequestTimeout},
		UserAgent:  cfg.Discogs.UserAgent,
		Token:      cfg.Discogs.Token,
		MaxRetries: cfg.Sync.MaxRetries,
		BaseDelay:  cfg.Sync.RetryBaseDelay,
	}, logger)
	client := discogs.NewClient(cfg.Discogs.BaseURL, transport, logger)
	paginator := library.NewPaginator(client, cfg.Discogs.ItemsPerPage, cfg.Sync.PageDelay, logger)

	return &application{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		client:   client,
		service:  library.NewService(paginator, st, st, logger),
		queries:  library.NewQueries(st, st),
		searcher: search.NewService(logger),
		launcher: launcher.New(cfg.Launcher.Command, cfg.Launcher.Args, logger),
	}, nil
}

// username returns the configured collection owner.
func (a *application) username() (string, error) {
	if !a.cfg.IsConfigured() {
		return "", errNotConfigured
	}
	return a.cfg.Discogs.Username, nil
}

func (a *application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close cache", "error", err)
	}
}
