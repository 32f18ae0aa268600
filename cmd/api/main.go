// The api command runs the assessment HTTP API and the embedding job workers.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/speakpath/backend/internal/api/handlers"
	"github.com/speakpath/backend/internal/api/middleware"
	"github.com/speakpath/backend/internal/config"
	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/observability"
	"github.com/speakpath/backend/internal/openai"
	"github.com/speakpath/backend/internal/repository"
	"github.com/speakpath/backend/internal/service"
	"github.com/speakpath/backend/internal/workers"
	"github.com/speakpath/backend/pkg/cache"
	"github.com/speakpath/backend/pkg/database"
)

const (
	answerCacheEntries = 512
	queryCacheEntries  = 1024
	riverJobTimeout    = 60 * time.Second
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	// Observability providers. Both are optional; nil means disabled.
	meterProvider, err := observability.NewMeterProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	tracerProvider, err := observability.NewTracerProvider(cfg)
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	var meter metric.Meter
	if meterProvider != nil {
		meter = meterProvider.Meter("github.com/speakpath/backend")
	}

	assessmentMetrics, err := observability.NewAssessmentMetrics(meter)
	if err != nil {
		slog.Error("Failed to create assessment metrics", "error", err)
		os.Exit(1)
	}

	embeddingMetrics, err := observability.NewEmbeddingMetrics(meter)
	if err != nil {
		slog.Error("Failed to create embedding metrics", "error", err)
		os.Exit(1)
	}

	cacheMetrics, err := observability.NewCacheMetrics(meter)
	if err != nil {
		slog.Error("Failed to create cache metrics", "error", err)
		os.Exit(1)
	}

	apiMetrics, err := observability.NewAPIMetrics(meter)
	if err != nil {
		slog.Error("Failed to create API metrics", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	embeddingClient := openai.NewClient(cfg.OpenAIAPIKey,
		openai.WithModel(cfg.EmbeddingModel),
		openai.WithDimensions(cfg.EmbeddingDims),
	)
	generationClient := openai.NewGenerationClient(cfg.OpenAIAPIKey,
		openai.WithGenerationModel(cfg.GenerationModel),
	)

	questionsRepo := repository.NewQuestionsRepository(db)
	answersRepo := repository.NewReferenceAnswersRepository(db)
	passagesRepo := repository.NewContextPassagesRepository(db)
	progressRepo := repository.NewProgressRepository(db)

	answerCache, err := cache.NewLoaderCache[uuid.UUID, []models.ReferenceAnswer](
		answerCacheEntries, func(id uuid.UUID) string { return id.String() })
	if err != nil {
		slog.Error("Failed to create answer cache", "error", err)
		os.Exit(1)
	}

	queryCache, err := cache.NewLoaderCache[string, []float32](
		queryCacheEntries, func(s string) string { return s })
	if err != nil {
		slog.Error("Failed to create query embedding cache", "error", err)
		os.Exit(1)
	}

	riverClient, err := initRiver(ctx, db, cfg, embeddingClient, answersRepo, passagesRepo, answerCache, embeddingMetrics)
	if err != nil {
		slog.Error("Failed to initialize River job queue", "error", err)
		os.Exit(1)
	}

	slog.Info("River job queue started",
		"workers", cfg.EmbeddingMaxConcurrent,
		"max_attempts", cfg.EmbeddingMaxAttempts,
		"rate_limit", cfg.EmbeddingRateLimit,
	)

	retrievalService := service.NewRetrievalService(service.RetrievalServiceParams{
		EmbeddingClient: embeddingClient,
		Store:           passagesRepo,
		TopK:            cfg.RetrievalTopK,
		QueryCache:      queryCache,
		CacheMetrics:    cacheMetrics,
	})

	assessmentService := service.NewAssessmentService(service.AssessmentServiceParams{
		Questions:        questionsRepo,
		Answers:          answersRepo,
		AnswerCache:      answerCache,
		Retriever:        retrievalService,
		EmbeddingClient:  embeddingClient,
		GenerationClient: generationClient,
		MatchThreshold:   cfg.MatchThreshold,
		Metrics:          assessmentMetrics,
		CacheMetrics:     cacheMetrics,
	})

	answersService := service.NewAnswersService(service.AnswersServiceParams{
		Store:       answersRepo,
		Questions:   questionsRepo,
		Inserter:    riverClient,
		AnswerCache: answerCache,
		Metrics:     embeddingMetrics,
		Model:       cfg.EmbeddingModel,
	})

	corpusService := service.NewCorpusService(service.CorpusServiceParams{
		Store:    passagesRepo,
		Inserter: riverClient,
		Metrics:  embeddingMetrics,
		Model:    cfg.EmbeddingModel,
	})

	healthHandler := handlers.NewHealthHandler()
	assessmentHandler := handlers.NewAssessmentHandler(assessmentService, progressRepo, nil)
	answersHandler := handlers.NewReferenceAnswersHandler(answersService)
	documentsHandler := handlers.NewDocumentsHandler(corpusService)
	progressHandler := handlers.NewProgressHandler(progressRepo)

	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)

	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/assessments", assessmentHandler.Create)
	protectedMux.HandleFunc("GET /v1/questions/{id}/reference-answers", answersHandler.List)
	protectedMux.HandleFunc("POST /v1/questions/{id}/reference-answers", answersHandler.Create)
	protectedMux.HandleFunc("GET /v1/documents", documentsHandler.List)
	protectedMux.HandleFunc("POST /v1/documents", documentsHandler.Create)
	protectedMux.HandleFunc("GET /v1/progress/{profileId}", progressHandler.Get)

	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)
	protectedHandler = middleware.MaxBody(cfg.MaxRequestBodyBytes, apiMetrics)(protectedHandler)

	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux)

	// Middleware chain, outermost first: RequestID, otelhttp, Logging, mux.
	var handler http.Handler = mainMux
	handler = middleware.Logging(slog.Default())(handler)
	handler = otelhttp.NewHandler(handler, "http.server")
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// 2. Stop River (waits for in-flight jobs to complete)
	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("River forced to shutdown", "error", err)
	}

	// 3. Flush telemetry
	if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
		slog.Error("Meter provider shutdown failed", "error", err)
	}

	if err := observability.ShutdownTracerProvider(shutdownCtx, tracerProvider); err != nil {
		slog.Error("Tracer provider shutdown failed", "error", err)
	}

	slog.Info("Server exited")
}

// setupLogging configures slog with the specified log level and the
// trace-aware handler so records carry trace_id and request_id.
func setupLogging(level string) {
	var logLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	inner := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(inner)))
}

// initRiver initializes the River job queue client and the embedding workers.
func initRiver(
	ctx context.Context,
	db *pgxpool.Pool,
	cfg *config.Config,
	embeddingClient *openai.Client,
	answersRepo *repository.ReferenceAnswersRepository,
	passagesRepo *repository.ContextPassagesRepository,
	answerCache workers.AnswerCacheInvalidator,
	embeddingMetrics observability.EmbeddingMetrics,
) (*river.Client[pgx.Tx], error) {
	// One provider budget shared by both workers.
	rateLimiter := rate.NewLimiter(rate.Limit(cfg.EmbeddingRateLimit), 1)

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewAnswerEmbeddingWorker(
		answersRepo, embeddingClient, rateLimiter, answerCache, embeddingMetrics))
	river.AddWorker(riverWorkers, workers.NewPassageEmbeddingWorker(
		passagesRepo, embeddingClient, rateLimiter, embeddingMetrics))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			service.EmbeddingsQueueName: {MaxWorkers: cfg.EmbeddingMaxConcurrent},
		},
		Workers:      riverWorkers,
		ErrorHandler: &workers.ErrorHandler{},
		JobTimeout:   riverJobTimeout,
		MaxAttempts:  cfg.EmbeddingMaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, err
	}

	return riverClient, nil
}
