package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/formbricks/feedback-pulse/internal/api/handlers"
	"github.com/formbricks/feedback-pulse/internal/api/middleware"
	"github.com/formbricks/feedback-pulse/internal/config"
	"github.com/formbricks/feedback-pulse/internal/observability"
	"github.com/formbricks/feedback-pulse/internal/providers"
	"github.com/formbricks/feedback-pulse/internal/repository"
	"github.com/formbricks/feedback-pulse/internal/service"
	"github.com/formbricks/feedback-pulse/internal/workers"
)

// Enqueue retries on top of River's own insert; a lost job only delays indexing until the next backfill.
const (
	enqueueMaxRetries     = 2
	enqueueInitialBackoff = 100 * time.Millisecond
	enqueueMaxBackoff     = time.Second
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	server         *http.Server
	river          *river.Client[pgx.Tx]
	publisher      *service.MessagePublisherManager
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// apiHandlers groups the HTTP handlers mounted by newHandler.
type apiHandlers struct {
	health     *handlers.HealthHandler
	feedback   *handlers.FeedbackHandler
	similarity *handlers.SimilarityHandler
	backfill   *handlers.BackfillHandler
	features   *handlers.FeaturesHandler
}

// NewApp builds and wires all components. It does not start the HTTP server or River;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (app *App, err error) {
	meterProvider, metricsHandler, err := observability.NewMeterProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create meter provider: %w", err)
	}

	var tracerProvider *sdktrace.TracerProvider

	// Undo whatever observability was started if a later step fails.
	defer func() {
		if err == nil {
			return
		}

		if obsErr := shutdownObservability(context.Background(), tracerProvider, meterProvider); obsErr != nil {
			slog.Error("shutdown observability after init error", "error", obsErr)
		}
	}()

	var metrics *observability.Metrics

	if meterProvider == nil {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unsupported)")
	} else {
		otel.SetMeterProvider(meterProvider)

		metrics, err = observability.NewMetrics(meterProvider.Meter(observability.MeterScope))
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
	}

	if cfg.OTelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create tracer provider: %w", err)
		}

		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
	}

	var (
		eventMetrics        observability.EventMetrics
		embeddingMetrics    observability.EmbeddingMetrics
		similarityMetrics   observability.SimilarityMetrics
		backfillMetrics     observability.BackfillMetrics
		notificationMetrics observability.NotificationMetrics
		cacheMetrics        observability.CacheMetrics
		apiMetrics          observability.APIMetrics
	)
	if metrics != nil {
		eventMetrics = metrics.Events
		embeddingMetrics = metrics.Embeddings
		similarityMetrics = metrics.Similarity
		backfillMetrics = metrics.Backfill
		notificationMetrics = metrics.Notifications
		cacheMetrics = metrics.Cache
		apiMetrics = metrics.API
	}

	logger := slog.Default()

	ai, err := providers.NewAIClients(ctx, cfg, cacheMetrics)
	if err != nil {
		return nil, fmt.Errorf("create AI clients: %w", err)
	}

	index, err := providers.NewVectorIndex(ctx, cfg, db)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}

	feedbackRepo := repository.NewFeedbackRepository(db)
	checkpoints := repository.NewWorkflowCheckpointsRepository(db)
	classifier := service.NewClassifier(ai.Completion, logger)
	indexer := service.NewFeedbackIndexer(ai.Embedder, index)

	var alerts service.AlertSender

	if cfg.SlackWebhookURL == "" {
		slog.Info("urgent feedback alerts disabled (SLACK_WEBHOOK_URL unset)")
	} else {
		sender, err := service.NewWebhookAlertSender(cfg.SlackWebhookURL, cfg.NotifyWebhookSigningSecret, cfg.UpstreamTimeout)
		if err != nil {
			return nil, fmt.Errorf("create alert sender: %w", err)
		}

		alerts = sender
	}

	notificationWorkflow := service.NewNotificationWorkflow(checkpoints, classifier, alerts, notificationMetrics, logger)

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewFeedbackEmbeddingWorker(feedbackRepo, indexer, embeddingMetrics))
	river.AddWorker(riverWorkers, workers.NewFeedbackNotificationWorker(feedbackRepo, notificationWorkflow, notificationMetrics))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			service.EmbeddingsQueueName:    {MaxWorkers: cfg.RiverWorkers},
			service.NotificationsQueueName: {MaxWorkers: cfg.RiverWorkers},
		},
		Workers: riverWorkers,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create River client: %w", err)
	}

	inserter := service.NewRetryingJobInserter(riverClient, service.RetryingJobInserterConfig{
		MaxRetries:     enqueueMaxRetries,
		InitialBackoff: enqueueInitialBackoff,
		MaxBackoff:     enqueueMaxBackoff,
	})

	publisher := service.NewMessagePublisherManager(eventMetrics)
	publisher.RegisterProvider(service.NewEmbeddingProvider(inserter, cfg.EmbeddingMaxAttempts, embeddingMetrics))
	publisher.RegisterProvider(service.NewNotificationProvider(inserter, cfg.NotifyMaxAttempts, notificationMetrics))

	feedbackService := service.NewFeedbackService(feedbackRepo, classifier, publisher, logger)
	similarityService := service.NewSimilarityService(service.SimilarityServiceParams{
		Repo:     feedbackRepo,
		Embedder: ai.Embedder,
		Index:    index,
		Limit:    cfg.SimilarityTopK,
		MinScore: &cfg.SimilarityMinScore,
		Metrics:  similarityMetrics,
		Logger:   logger,
	})
	backfillService := service.NewBackfillService(feedbackRepo, indexer, cfg.BackfillBatchSize, backfillMetrics, logger)

	routes := apiHandlers{
		health:     handlers.NewHealthHandler(db),
		feedback:   handlers.NewFeedbackHandler(feedbackService),
		similarity: handlers.NewSimilarityHandler(similarityService),
		backfill:   handlers.NewBackfillHandler(backfillService),
		features:   handlers.NewFeaturesHandler(feedbackService),
	}

	otelOpts := []otelhttp.Option{
		// Skip tracing and HTTP metrics for health checks and scrapes to reduce noise.
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

	handler := newHandler(cfg, routes, metricsHandler, apiMetrics, otelOpts...)

	return &App{
		cfg:            cfg,
		server:         newHTTPServer(cfg, handler),
		river:          riverClient,
		publisher:      publisher,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
	}, nil
}

// newHandler mounts the routes and wraps them in the middleware chain:
// CORS -> RequestID -> otelhttp -> Logging -> MaxBody -> mux. Logging runs inside otelhttp so access
// logs carry trace_id/span_id; CORS is outermost so OPTIONS never reaches the rest.
func newHandler(
	cfg *config.Config, h apiHandlers, metricsHandler http.Handler,
	apiMetrics observability.APIMetrics, otelOpts ...otelhttp.Option,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health.Check)

	mux.HandleFunc("POST /api/feedback", h.feedback.Create)
	mux.HandleFunc("GET /api/feedback", h.feedback.List)
	mux.HandleFunc("GET /api/feedback/{id}", h.feedback.Get)
	mux.HandleFunc("GET /api/similar-feedback", h.similarity.Similar)
	mux.HandleFunc("GET /api/analyze-features", h.features.Analyze)
	mux.Handle("POST /api/backfill-embeddings",
		middleware.AdminKey(cfg.AdminAPIKey, apiMetrics)(http.HandlerFunc(h.backfill.Backfill)))

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	var handler http.Handler = middleware.MaxBody(cfg.MaxRequestBodyBytes, apiMetrics)(mux)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "feedback-api", otelOpts...)
	handler = middleware.RequestID(handler)

	return middleware.CORS(handler)
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	const (
		readTimeout = 15 * time.Second
		// Backfill runs inline in the request, so writes get far more room than reads.
		writeTimeout = 10 * time.Minute
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Run starts the HTTP server and River, then blocks until ctx is cancelled (e.g. signal)
// or a component fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	if err := a.river.Start(riverCtx); err != nil {
		return fmt.Errorf("river: %w", err)
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
		return err
	case <-ctx.Done():
		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if tracer != nil {
		if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
			first = err
		}
	}

	if meter != nil {
		if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
			if first == nil {
				first = err
			} else {
				slog.Error("shutdown meter provider", "error", err)
			}
		}
	}

	return first
}

// Shutdown stops the server, River and the publisher in order, then flushes observability.
// The server goes first so no new jobs get enqueued while River drains.
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
		a.publisher.Shutdown()

		if stopErr := a.river.Stop(ctx); stopErr != nil {
			slog.Error("river stop during server shutdown", "error", stopErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	// Drain queued events into River before stopping it.
	a.publisher.Shutdown()

	if err = a.river.Stop(ctx); err != nil {
		return fmt.Errorf("river stop: %w", err)
	}

	return nil
}
