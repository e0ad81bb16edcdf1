package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/formbricks/feedrank/internal/api/handlers"
	"github.com/formbricks/feedrank/internal/api/middleware"
	"github.com/formbricks/feedrank/internal/config"
	"github.com/formbricks/feedrank/internal/connector"
	"github.com/formbricks/feedrank/internal/connector/news"
	connsvc "github.com/formbricks/feedrank/internal/connector/service"
	"github.com/formbricks/feedrank/internal/embeddings"
	"github.com/formbricks/feedrank/internal/feedback"
	"github.com/formbricks/feedrank/internal/index"
	"github.com/formbricks/feedrank/internal/jobs"
	"github.com/formbricks/feedrank/internal/observability"
	"github.com/formbricks/feedrank/internal/ranking"
	"github.com/formbricks/feedrank/internal/repository"
	"github.com/formbricks/feedrank/internal/service"
	"github.com/formbricks/feedrank/internal/workers"
	"github.com/formbricks/feedrank/pkg/feeds"
)

const riverQueueDepthInterval = 15 * time.Second

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	db             *pgxpool.Pool
	server         *http.Server
	river          *river.Client[pgx.Tx]
	inserter       jobs.JobInserter
	hasFeeds       bool
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics
}

// boundInserter lets services hold an inserter before the River client exists.
// The client is created last because its workers depend on those services.
type boundInserter struct {
	client atomic.Pointer[river.Client[pgx.Tx]]
}

var errRiverNotBound = errors.New("job queue not initialized")

func (b *boundInserter) Insert(
	ctx context.Context, args river.JobArgs, opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	client := b.client.Load()
	if client == nil {
		return nil, errRiverNotBound
	}

	return client.Insert(ctx, args, opts)
}

// metricGroups unpacks the aggregate so a nil *Metrics yields nil interfaces.
type metricGroups struct {
	api        observability.APIMetrics
	ranking    observability.RankingMetrics
	embeddings observability.EmbeddingMetrics
	connectors observability.ConnectorMetrics
	cache      observability.CacheMetrics
}

func groupsOf(m *observability.Metrics) metricGroups {
	if m == nil {
		return metricGroups{}
	}

	return metricGroups{
		api:        m.API,
		ranking:    m.Ranking,
		embeddings: m.Embeddings,
		connectors: m.Connectors,
		cache:      m.Cache,
	}
}

func newNotifier(cfg *config.Config) service.Notifier {
	if cfg.NotifyWebhookURL != "" {
		return service.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyWebhookToken)
	}

	return service.NewLogNotifier(slog.Default())
}

// NewApp builds and wires all components and loads the similarity index. It does not start the
// HTTP server or River; call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (_ *App, err error) {
	meterProvider, metricsHandler, metrics, err := observability.NewMeterProvider(cfg.MetricsEnabled)
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	if meterProvider == nil {
		slog.Warn("metrics not enabled (METRICS_ENABLED=false)")
	}

	tracerProvider, err := observability.NewTracerProvider(cfg)
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(context.Background(), meterProvider); err2 != nil {
			slog.Error("shutdown meter provider after tracer provider error", "error", err2)
		}

		return nil, fmt.Errorf("create tracer provider: %w", err)
	}

	if tracerProvider == nil {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unsupported)")
	}

	defer func() {
		if err != nil {
			if err2 := shutdownObservability(context.Background(), tracerProvider, meterProvider); err2 != nil {
				slog.Error("shutdown observability after init error", "error", err2)
			}
		}
	}()

	// Install TraceContextHandler unconditionally so request_id and user_id (and trace_id/span_id
	// when tracing is on) appear in logs.
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(slog.Default().Handler())))

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	m := groupsOf(metrics)

	candidates, err := embeddings.CandidatesFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding backends: %w", err)
	}

	providerCfg := embeddings.ProviderConfigFromConfig(cfg)
	providerCfg.Metrics = m.embeddings
	providerCfg.Cache = m.cache

	provider := embeddings.Negotiate(ctx, candidates, providerCfg)

	itemsRepo := repository.NewContentItemsRepository(db)
	profilesRepo := repository.NewProfilesRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	vectorIndex := index.New(cfg.EmbeddingDimensions, itemsRepo, m.ranking)

	bound := &boundInserter{}
	inserter := jobs.NewRiverJobInserter(bound, cfg.RiverMaxAttempts, m.embeddings)

	itemsService := service.NewContentItemsService(itemsRepo, inserter, slog.Default())

	engine := ranking.NewEngine(profilesRepo, feedbackRepo, provider,
		ranking.WithMetrics(m.ranking),
		ranking.WithDefaultLimit(cfg.RankDefaultLimit),
	)

	rankingService := service.NewRankingService(service.RankingServiceParams{
		Items:        itemsRepo,
		Ranker:       engine,
		Notifier:     newNotifier(cfg),
		Threshold:    cfg.NotifyScoreThreshold,
		DefaultLimit: cfg.RankDefaultLimit,
		Metrics:      m.ranking,
	})

	feedbackService := service.NewFeedbackService(itemsRepo, feedback.NewProcessor(profilesRepo, m.ranking), feedbackRepo)
	profileService := service.NewProfileService(profilesRepo, feedbackRepo)
	searchService := service.NewSearchService(service.SearchServiceParams{
		Embedder: provider,
		Index:    vectorIndex,
		Items:    itemsRepo,
	})
	cleanupService := service.NewCleanupService(itemsRepo, feedbackRepo, vectorIndex, cfg.RetentionDays)

	subscriptions, err := news.LoadSubscriptions(cfg.FeedsFile)
	if err != nil {
		return nil, fmt.Errorf("load feed subscriptions: %w", err)
	}

	registry := connsvc.NewRegistry()

	err = registry.Register(news.NewConnector(news.Config{
		Fetcher:       feeds.NewClient(),
		Ingester:      itemsService,
		Subscriptions: subscriptions,
		Metrics:       m.connectors,
	}))
	if err != nil {
		return nil, fmt.Errorf("register news connector: %w", err)
	}

	slog.Info("Connectors registered", "connectors", registry.GetRegisteredNames(), "news_subscriptions", len(subscriptions))

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewEmbedItemWorker(
		itemsRepo, provider, vectorIndex,
		rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1),
		m.embeddings,
	))
	river.AddWorker(riverWorkers, workers.NewRerankWorker(rankingService))
	river.AddWorker(riverWorkers, workers.NewFeedSyncWorker(registry))
	river.AddWorker(riverWorkers, workers.NewCleanupWorker(cleanupService))
	river.AddWorker(riverWorkers, workers.NewRebuildIndexWorker(vectorIndex))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RiverWorkers},
		},
		Workers:      riverWorkers,
		ErrorHandler: jobs.NewErrorHandler(slog.Default()),
		MaxAttempts:  cfg.RiverMaxAttempts,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.CleanupInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return jobs.CleanupArgs{}, nil
				},
				nil,
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create River client: %w", err)
	}

	bound.client.Store(riverClient)

	loadIndex(ctx, vectorIndex, inserter)

	server := newHTTPServer(cfg, routes{
		health:     handlers.NewHealthHandler(db, provider),
		feedback:   handlers.NewFeedbackHandler(feedbackService),
		search:     handlers.NewSearchHandler(searchService),
		profile:    handlers.NewProfileHandler(profileService),
		ranking:    handlers.NewRankingHandler(rankingService, inserter),
		items:      handlers.NewItemsHandler(itemsService),
		connectors: handlers.NewConnectorsHandler(registry, connsvc.NewRateLimiter(cfg.SyncMinInterval, cfg.SyncMaxPerHour), inserter),
		metrics:    metricsHandler,
	}, m.api, meterProvider, tracerProvider)

	return &App{
		cfg:            cfg,
		db:             db,
		server:         server,
		river:          riverClient,
		inserter:       inserter,
		hasFeeds:       len(subscriptions) > 0,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		metrics:        metrics,
	}, nil
}

// loadIndex rebuilds the similarity index before serving. On failure the rebuild is queued so
// River retries it; search answers from an empty index until then.
func loadIndex(ctx context.Context, ix *index.Index, inserter jobs.JobInserter) {
	n, err := ix.Rebuild(ctx)
	if err == nil {
		slog.Info("Similarity index loaded", "vectors", n)

		return
	}

	slog.Error("Similarity index load failed; queueing rebuild", "error", err)

	if err := inserter.EnqueueRebuildIndex(ctx); err != nil {
		slog.Error("Failed to queue index rebuild", "error", err)
	}
}

type routes struct {
	health     *handlers.HealthHandler
	feedback   *handlers.FeedbackHandler
	search     *handlers.SearchHandler
	profile    *handlers.ProfileHandler
	ranking    *handlers.RankingHandler
	items      *handlers.ItemsHandler
	connectors *handlers.ConnectorsHandler
	metrics    http.Handler
}

// newHTTPServer builds the HTTP server and muxes (no auth on /health and /metrics, API key and
// X-User-ID on /v1/). Handler chain: RequestID -> otelhttp -> mux -> MaxBody -> Auth -> UserID -> Metrics -> route mux.
func newHTTPServer(
	cfg *config.Config,
	r routes,
	apiMetrics observability.APIMetrics,
	meterProvider *sdkmetric.MeterProvider,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	public := http.NewServeMux()
	public.HandleFunc("GET /health", r.health.Check)

	if r.metrics != nil {
		public.Handle("GET /metrics", r.metrics)
	}

	protected := http.NewServeMux()
	protected.HandleFunc("GET /v1/feed", r.ranking.Feed)
	protected.HandleFunc("POST /v1/ranking/rerank", r.ranking.Rerank)
	protected.HandleFunc("GET /v1/ranking/weights", r.profile.Weights)

	protected.HandleFunc("POST /v1/feedback", r.feedback.Submit)
	protected.HandleFunc("GET /v1/feedback/history", r.feedback.History)

	protected.HandleFunc("GET /v1/profile", r.profile.Get)
	protected.HandleFunc("PUT /v1/profile", r.profile.Update)
	protected.HandleFunc("DELETE /v1/profile/reset", r.profile.Reset)

	protected.HandleFunc("POST /v1/search", r.search.Search)
	protected.HandleFunc("GET /v1/search/stats", r.search.Stats)
	protected.HandleFunc("POST /v1/search/rebuild-index", r.search.RebuildIndex)

	protected.HandleFunc("POST /v1/items", r.items.Create)
	protected.HandleFunc("POST /v1/connectors/{name}/sync", r.connectors.Sync)

	// Metrics wraps the route muxes so r.Pattern holds the matched route when it is recorded.
	var v1 = middleware.Metrics(apiMetrics)(protected)
	v1 = middleware.UserID(v1)
	v1 = middleware.Auth(cfg.APIKey)(v1)
	v1 = middleware.MaxBody(cfg.MaxRequestBodyBytes, apiMetrics)(v1)

	mux := http.NewServeMux()
	mux.Handle("/v1/", v1)
	mux.Handle("/", middleware.Metrics(apiMetrics)(public))

	otelOpts := []otelhttp.Option{
		// Skip tracing for health checks and scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	var handler http.Handler = otelhttp.NewHandler(mux, "feedrank-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 30 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server, River and the feed poller, then blocks until ctx is cancelled
// (e.g. signal) or a component fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	if a.metrics != nil && a.metrics.Ranking != nil {
		go runRiverQueueDepthPoller(riverCtx, a.db, a.metrics.Ranking)
	}

	go func() {
		if err := a.river.Start(riverCtx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case runErr <- fmt.Errorf("river: %w", err):
			default:
			}
		}
	}()

	if a.hasFeeds {
		poller := connector.NewPoller(a.cfg.FeedPollInterval, "news")
		poller.Start(riverCtx, connector.PollFunc(func(ctx context.Context) error {
			return a.inserter.EnqueueFeedSync(ctx, "")
		}))
	}

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// runRiverQueueDepthPoller periodically updates the River default-queue depth gauge.
func runRiverQueueDepthPoller(ctx context.Context, db *pgxpool.Pool, rankingMetrics observability.RankingMetrics) {
	ticker := time.NewTicker(riverQueueDepthInterval)
	defer ticker.Stop()

	update := func() {
		var count int

		err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM river_job WHERE queue = $1 AND state IN ($2, $3, $4)`,
			river.QueueDefault,
			rivertype.JobStateAvailable, rivertype.JobStateRetryable, rivertype.JobStateScheduled,
		).Scan(&count)
		if err != nil {
			slog.WarnContext(ctx, "river queue depth poll failed", "error", err)

			return
		}

		rankingMetrics.SetRiverQueueDepth(count)
	}

	update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
		first = err
	}

	if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
		if first == nil {
			first = err
		} else {
			slog.Error("shutdown meter provider", "error", err)
		}
	}

	return first
}

// Shutdown stops the server and River in order. Call after Run returns.
// Observability is shut down once via defer; its error is returned only when server and River shut down successfully.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if stopErr := a.river.Stop(ctx); stopErr != nil {
			slog.Error("river stop during server shutdown", "error", stopErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err = a.river.Stop(ctx); err != nil {
		return fmt.Errorf("river stop: %w", err)
	}

	return nil
}
