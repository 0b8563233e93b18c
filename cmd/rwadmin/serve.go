package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-rwadmin/components/editor"
	"github.com/goliatone/go-rwadmin/components/editor/commands"
	"github.com/goliatone/go-rwadmin/components/editor/gorouter"
	"github.com/goliatone/go-rwadmin/components/editor/httpapi"
	"github.com/goliatone/go-rwadmin/components/editor/queries"
	"github.com/goliatone/go-rwadmin/components/events"
	"github.com/goliatone/go-rwadmin/components/listing"
	"github.com/goliatone/go-rwadmin/components/preview"
	"github.com/goliatone/go-rwadmin/pkg/activity"
	"github.com/goliatone/go-rwadmin/pkg/config"
	"github.com/goliatone/go-rwadmin/pkg/drafts"
	"github.com/goliatone/go-rwadmin/pkg/rwapi"
	"github.com/goliatone/go-rwadmin/pkg/telemetry"
)

type serveCmd struct {
	Addr        string `help:"Listen address (overrides server.addr)."`
	MetricsAddr string `help:"Metrics listen address (overrides server.metrics_addr)."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *globals) error {
	cfg, err := config.Load(g.config)
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	if cmd.MetricsAddr != "" {
		cfg.Server.MetricsAddr = cmd.MetricsAddr
	}
	logger := g.logger

	client, err := rwapi.NewClient(rwapi.Config{
		BaseURL:     cfg.API.BaseURL,
		Token:       cfg.API.Token,
		Application: cfg.API.Application,
		Env:         cfg.API.Env,
		HTTPClient:  &http.Client{Timeout: cfg.API.Timeout},
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewPrometheus(reg)
	if err != nil {
		return err
	}

	hook := events.NewBroadcastHook()
	svc, err := newService(cfg, editor.Options{
		Store:          store,
		Loader:         editor.NewAPILoader(client),
		Confirmer:      editor.NewPendingConfirmer(hook),
		Telemetry:      metrics,
		Hook:           hook,
		Logger:         logger,
		ActivityHooks:  activity.Hooks{logActivity(logger)},
		ActivityConfig: activity.Config{Enabled: true},
	})
	if err != nil {
		return err
	}

	api := httpapi.NewHandlers(svc, metrics)
	api.PromptTTL = cfg.Server.PromptTTL
	api.DeleteRow = commands.NewDeleteRowCommand(mountLists(api, client, cfg, hook, logger), metrics)

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		API:       api,
		Broadcast: hook,
		BasePath:  cfg.Server.BasePath,
	}); err != nil {
		return fmt.Errorf("rwadmin: register routes: %w", err)
	}

	metricsSrv := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           metricsMux(reg, cfg.Server.MetricsPath),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	defer metricsSrv.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Drafts.Path != "" && cfg.Drafts.MaxAge > 0 {
		go pruneLoop(ctx, store, cfg.Drafts.MaxAge, logger)
	}

	logger.Info("rwadmin listening",
		"addr", cfg.Server.Addr,
		"base_path", cfg.Server.BasePath,
		"metrics", cfg.Server.MetricsAddr+cfg.Server.MetricsPath,
	)
	return server.Serve(cfg.Server.Addr)
}

func newService(cfg config.Config, opts editor.Options) (*editor.Service, error) {
	if cfg.Preview.Templates != "" {
		catalog, err := editor.LoadTemplateFile(cfg.Preview.Templates)
		if err != nil {
			return nil, err
		}
		opts.Templates = catalog
	}
	if cfg.Preview.LayerSchema != "" {
		schema, err := readConfigFile(cfg.Preview.LayerSchema)
		if err != nil {
			return nil, err
		}
		opts.LayerSchema = schema
	}
	opts.Theme = cfg.Preview.Theme
	opts.ResizeDebounce = cfg.Preview.ResizeDebounce
	opts.Renderer = preview.NewRenderer(
		preview.WithLogger(opts.Logger),
		preview.WithGrammarRenderer(preview.NewEChartsRenderer(
			preview.WithChartCache(preview.NewChartCache(cfg.Preview.CacheTTL)),
		)),
	)
	return editor.NewService(opts), nil
}

// openStore returns the SQLite draft store when a path is configured and the
// in-memory store otherwise.
func openStore(cfg config.Config, logger *slog.Logger) (*drafts.SQLiteStore, func(), error) {
	path := cfg.Drafts.Path
	if path == "" {
		path = ":memory:"
	}
	store, err := drafts.Open(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("draft store ready", "path", path)
	return store, func() { _ = store.Close() }, nil
}

func pruneLoop(ctx context.Context, store *drafts.SQLiteStore, maxAge time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		removed, err := store.Prune(ctx, time.Now().Add(-maxAge))
		if err != nil {
			logger.Warn("draft prune failed", "error", err)
		} else if removed > 0 {
			logger.Info("drafts pruned", "removed", removed)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func mountLists(api *httpapi.Handlers, client *rwapi.Client, cfg config.Config, hook events.Hook, logger *slog.Logger) map[string]commands.Table {
	opts := []listing.Option{
		listing.WithPageSize(cfg.Listing.PageSize),
		listing.WithCacheTTL(cfg.Listing.CacheTTL),
		listing.WithSearchDebounce(cfg.Listing.SearchDebounce),
		listing.WithNotifier(events.HookNotifier{Hook: hook}),
		listing.WithLogger(logger),
	}
	collections := listing.New(listing.NamespaceCollections, listing.CollectionsSource(client), opts...)
	dashboards := listing.New(listing.NamespaceDashboards, listing.DashboardsSource(client), opts...)
	widgets := listing.New(listing.NamespaceWidgets, listing.WidgetsSource(client), opts...)
	layers := listing.New(listing.NamespaceLayers, listing.LayersSource(client), opts...)
	datasets := listing.New(listing.NamespaceDatasets, listing.DatasetsSource(client), opts...)

	api.Lists = map[string]gocommand.Querier[queries.ListInput, any]{
		"collections": queries.Erase(queries.NewListQuery[rwapi.Collection](collections)),
		"dashboards":  queries.Erase(queries.NewListQuery[rwapi.Dashboard](dashboards)),
		"widgets":     queries.Erase(queries.NewListQuery[rwapi.Widget](widgets)),
		"layers":      queries.Erase(queries.NewListQuery[rwapi.Layer](layers)),
		"datasets":    queries.Erase(queries.NewListQuery[rwapi.Dataset](datasets)),
	}
	return map[string]commands.Table{
		"collections": {Rows: collections, Delete: client.DeleteCollection},
		"dashboards":  {Rows: dashboards, Delete: client.DeleteDashboard},
	}
}

func metricsMux(reg *prometheus.Registry, path string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func logActivity(logger *slog.Logger) activity.Hook {
	return activity.HookFunc(func(ctx context.Context, event activity.Event) error {
		logger.InfoContext(ctx, "activity",
			"verb", event.Verb,
			"object_type", event.ObjectType,
			"object_id", event.ObjectID,
			"actor", event.ActorID,
			"channel", event.Channel,
		)
		return nil
	})
}
