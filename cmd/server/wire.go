//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bootlang/services/agent-api/internal/config"
	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/domain/artifact"
	"bootlang/services/agent-api/internal/domain/conversation"
	"bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/domain/retrieval"
	"bootlang/services/agent-api/internal/domain/validator"
	"bootlang/services/agent-api/internal/infrastructure/database"
	"bootlang/services/agent-api/internal/infrastructure/llmprovider"
	"bootlang/services/agent-api/internal/infrastructure/logger"
	"bootlang/services/agent-api/internal/infrastructure/pdfextract"
	"bootlang/services/agent-api/internal/infrastructure/queue"
	artifactrepo "bootlang/services/agent-api/internal/infrastructure/repository/artifact"
	conversationrepo "bootlang/services/agent-api/internal/infrastructure/repository/conversation"
	documentrepo "bootlang/services/agent-api/internal/infrastructure/repository/document"
	"bootlang/services/agent-api/internal/infrastructure/vectorindex"
	"bootlang/services/agent-api/internal/interfaces/httpserver"
	"bootlang/services/agent-api/internal/utils/userlock"
	"bootlang/services/agent-api/internal/webhook"
)

var agentSet = wire.NewSet(
	conversationrepo.NewRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.Repository)),
	documentrepo.NewRepository,
	wire.Bind(new(document.Repository), new(*documentrepo.Repository)),
	wire.Bind(new(retrieval.ChunkSource), new(*documentrepo.Repository)),
	artifactrepo.NewRepository,
	wire.Bind(new(artifact.Repository), new(*artifactrepo.Repository)),
	llmprovider.New,
	wire.Bind(new(llm.Extractor), new(*llmprovider.Client)),
	wire.Bind(new(llm.ConflictJudge), new(*llmprovider.Client)),
	wire.Bind(new(llm.ProseWriter), new(*llmprovider.Client)),
	wire.Bind(new(llm.VisionDescriber), new(*llmprovider.Client)),
	wire.Bind(new(llm.Embedder), new(*llmprovider.Client)),
	vectorindex.NewMemory,
	wire.Bind(new(retrieval.Index), new(*vectorindex.Memory)),
	wire.Bind(new(document.IndexWriter), new(*vectorindex.Memory)),
	userlock.NewRegistry,
	newChunker,
	newPDFExtractor,
	newValidator,
	newRenderer,
	newRetrievalService,
	newDocumentService,
	queue.NewPostgresQueue,
	wire.Bind(new(queue.TaskQueue), new(*queue.PostgresQueue)),
	wire.Bind(new(agent.GenerationEnqueuer), new(*queue.PostgresQueue)),
	newWebhookService,
	newAgentService,
)

// BuildApplication demonstrates how to assemble the agent service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		agentSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(cfg database.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newChunker(cfg *config.Config) *document.Chunker {
	return document.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
}

func newPDFExtractor(cfg *config.Config, log zerolog.Logger) document.TextExtractor {
	if cfg.PDFExtractorURL == "" {
		return nil
	}
	return pdfextract.New(cfg.PDFExtractorURL, log)
}

func newValidator(cfg *config.Config, judge llm.ConflictJudge, log zerolog.Logger) *validator.Validator {
	return validator.New(judge, cfg.MaxFeatures, cfg.MaxIntegrations, log)
}

func newRetrievalService(cfg *config.Config, embedder llm.Embedder, index retrieval.Index, source retrieval.ChunkSource, log zerolog.Logger) *retrieval.Service {
	return retrieval.NewService(embedder, index, source, cfg.RetrievalTopK, log)
}

func newRenderer(cfg *config.Config, prose llm.ProseWriter, retriever *retrieval.Service, log zerolog.Logger) *artifact.Renderer {
	return artifact.NewRenderer(prose, retriever, cfg.RetrievalTopK, log)
}

func newDocumentService(
	repo document.Repository,
	chunker *document.Chunker,
	embedder llm.Embedder,
	vision llm.VisionDescriber,
	extractor document.TextExtractor,
	index document.IndexWriter,
	locks *userlock.Registry,
	log zerolog.Logger,
) *document.Service {
	return document.NewService(repo, chunker, embedder, vision, extractor, index, locks, log)
}

func newWebhookService(cfg *config.Config, log zerolog.Logger) *webhook.HTTPService {
	return webhook.NewHTTPService(cfg.WebhookURL, log)
}

func newAgentService(
	convRepo conversation.Repository,
	extractor llm.Extractor,
	val *validator.Validator,
	renderer *artifact.Renderer,
	artifacts artifact.Repository,
	enqueuer agent.GenerationEnqueuer,
	cfg *config.Config,
	locks *userlock.Registry,
	log zerolog.Logger,
) *agent.Service {
	return agent.NewService(convRepo, extractor, val, renderer, artifacts, enqueuer, cfg.TriggerPhrases, locks, log)
}
