package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"bootlang/services/agent-api/internal/config"
	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/domain/artifact"
	"bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/domain/retrieval"
	"bootlang/services/agent-api/internal/domain/validator"
	"bootlang/services/agent-api/internal/infrastructure/database"
	"bootlang/services/agent-api/internal/infrastructure/llmprovider"
	"bootlang/services/agent-api/internal/infrastructure/logger"
	"bootlang/services/agent-api/internal/infrastructure/observability"
	"bootlang/services/agent-api/internal/infrastructure/pdfextract"
	"bootlang/services/agent-api/internal/infrastructure/queue"
	artifactrepo "bootlang/services/agent-api/internal/infrastructure/repository/artifact"
	conversationrepo "bootlang/services/agent-api/internal/infrastructure/repository/conversation"
	documentrepo "bootlang/services/agent-api/internal/infrastructure/repository/document"
	"bootlang/services/agent-api/internal/infrastructure/vectorindex"
	"bootlang/services/agent-api/internal/interfaces/httpserver"
	"bootlang/services/agent-api/internal/utils/userlock"
	"bootlang/services/agent-api/internal/webhook"
	"bootlang/services/agent-api/internal/worker"
)

// @title Agent API
// @version 1.0
// @description Conversational requirements gathering and planning-document generation.
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	documentRepository := documentrepo.NewRepository(db)
	artifactRepository := artifactrepo.NewRepository(db)

	llmClient := llmprovider.New(cfg, log)
	index := vectorindex.NewMemory()

	var extractor document.TextExtractor
	if cfg.PDFExtractorURL != "" {
		extractor = pdfextract.New(cfg.PDFExtractorURL, log)
	}

	chunker := document.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	// One registry for every service that mutates user state, so turns and
	// uploads for the same user never interleave.
	locks := userlock.NewRegistry()

	documentService := document.NewService(
		documentRepository,
		chunker,
		llmClient,
		llmClient,
		extractor,
		index,
		locks,
		log,
	)

	retrievalService := retrieval.NewService(llmClient, index, documentRepository, cfg.RetrievalTopK, log)
	scopeValidator := validator.New(llmClient, cfg.MaxFeatures, cfg.MaxIntegrations, log)
	renderer := artifact.NewRenderer(llmClient, retrievalService, cfg.RetrievalTopK, log)

	taskQueue := queue.NewPostgresQueue(db, log)

	agentService := agent.NewService(
		conversationRepository,
		llmClient,
		scopeValidator,
		renderer,
		artifactRepository,
		taskQueue,
		cfg.TriggerPhrases,
		locks,
		log,
	)

	webhookService := webhook.NewHTTPService(cfg.WebhookURL, log)

	workerPool := worker.NewPool(
		worker.Config{
			WorkerCount: cfg.WorkerCount,
			TaskTimeout: cfg.GenerationTimeout,
		},
		taskQueue,
		agentService,
		webhookService,
		log,
	)

	workerPool.Start(ctx)
	defer workerPool.Stop()

	httpServer := httpserver.New(cfg, log, agentService, documentService)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
