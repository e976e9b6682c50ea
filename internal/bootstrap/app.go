package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/embedding"
	"careercoach-backend/internal/indexing"
	"careercoach-backend/internal/ranking"
	"careercoach-backend/internal/search"
	"careercoach-backend/internal/services/health"
	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/server"
	"careercoach-backend/internal/shared/storage/db"
	"careercoach-backend/internal/vecstore"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	Store     vecstore.Store
	Generator *embedding.Generator
	Ranker    *ranking.Service

	IndexingService *indexing.Service
	SearchService   *search.Service
	HealthService   *health.Service

	IndexingHandler *indexing.Handler
	SearchHandler   *search.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var store vecstore.Store
	if sqlDB != nil {
		store = &vecstore.PGStore{DB: sqlDB}
	} else {
		store = vecstore.NewMemoryStore()
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}
	ranker := ranking.NewService(ranking.DefaultWeights())

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Generator: generator,
		Ranker:    ranker,
	}

	app.IndexingService = indexing.NewService(store, generator)
	app.SearchService = search.NewService(store, generator, ranker)
	app.HealthService = health.NewService(sqlDB, cfg.Env)

	app.IndexingHandler = indexing.NewHandler(app.IndexingService, cfg.IndexTimeout)
	app.SearchHandler = search.NewHandler(app.SearchService, cfg.SearchTimeout)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          app.HealthService,
		IndexingHandler: app.IndexingHandler,
		SearchHandler:   app.SearchHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory vector store")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory vector store: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

// buildGenerator selects the embedding backend. Dev environments default to
// the deterministic hash provider so the service runs with no model server.
func buildGenerator(cfg config.Config) (*embedding.Generator, error) {
	var provider embedding.Provider
	switch cfg.EmbeddingProvider {
	case "openai":
		if strings.TrimSpace(cfg.EmbeddingBaseURL) == "" {
			return nil, fmt.Errorf("EMBEDDING_BASE_URL is required for the openai provider")
		}
		provider = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			BaseURL:    cfg.EmbeddingBaseURL,
			APIKey:     cfg.EmbeddingAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
		})
	case "ollama":
		p, err := embedding.NewOllamaProvider(embedding.OllamaConfig{
			BaseURL:    cfg.EmbeddingBaseURL,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("build ollama provider: %w", err)
		}
		provider = p
	default:
		provider = embedding.NewHashProvider(cfg.EmbeddingDimensions)
	}
	return embedding.NewGenerator(provider, embedding.WithMaxInFlight(cfg.EmbeddingMaxInFly)), nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
