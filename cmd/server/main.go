package main

import (
	"fmt"
	"os"

	"recserve/internal/adapter/api"
	"recserve/internal/adapter/client"
	"recserve/internal/adapter/store"
	"recserve/internal/config"
	"recserve/internal/domain/repository"
	"recserve/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "recserve").Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, using system environment variables")
	}
	cfg := config.Load()

	// Model Registry: each model is optional at startup; availability is
	// checked per call instead of failing the whole process.
	registry := usecase.NewRegistry(logger)
	registry.Load(usecase.ModelExactRetrieval, func() (repository.Model, error) {
		return client.NewBruteForceIndex(cfg.BruteModelPath)
	})
	registry.Load(usecase.ModelRanking, func() (repository.Model, error) {
		return client.NewTwoTowerRanker(cfg.RankingModelPath)
	})
	registry.Load(usecase.ModelApproximateRetrieval, func() (repository.Model, error) {
		if cfg.QdrantHost == "" {
			return nil, fmt.Errorf("QDRANT_HOST not set")
		}
		art, err := client.LoadArtifact(cfg.ScannModelPath)
		if err != nil {
			return nil, err
		}
		qc, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.QdrantHost,
			Port: cfg.QdrantPort,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to qdrant: %w", err)
		}
		return store.NewQdrantIndex(qc, cfg.QdrantCollection, art), nil
	})

	// Prediction log: an unreachable database must not stop the serving
	// path, so failures degrade to a per-call persistence error.
	var predictions repository.PredictionStore
	switch {
	case !cfg.HasDB():
		logger.Warn().Msg("database not configured, prediction logging disabled")
		predictions = store.NewUnavailablePredictions(fmt.Errorf("database not configured"))
	default:
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err != nil {
			logger.Warn().Err(err).Msg("database unreachable, prediction logging disabled")
			predictions = store.NewUnavailablePredictions(err)
			break
		}
		pdb := store.NewPredictionDB(db)
		if err := pdb.Migrate(); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate predictions table")
		}
		predictions = pdb
	}

	// Optional retrieval result cache
	var cache repository.RetrievalCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = store.NewRedisCache(rdb, cfg.RetrievalCacheTTL)
	}

	variants, err := usecase.ParseVariants(cfg.ExperimentVariants)
	if err != nil {
		logger.Fatal().Err(err).Str("variants", cfg.ExperimentVariants).Msg("invalid experiment split")
	}
	assigner, err := usecase.NewAssigner(variants)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid experiment variants")
	}

	recommender := usecase.NewRecommender(
		registry,
		assigner,
		usecase.NewUserTracker(),
		predictions,
		cache,
		cfg.ModelTimeout,
		cfg.StoreTimeout,
		logger,
	)

	app := fiber.New(fiber.Config{
		AppName: "recserve",
	})
	api.SetupRouter(app, api.NewRecommendHandler(recommender, logger))

	logger.Info().
		Str("addr", ":"+cfg.Port).
		Str("base_url", cfg.APIBaseURL).
		Msg("recommendation API listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
