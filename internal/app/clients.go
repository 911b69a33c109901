package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecraft-backend/internal/ingestion"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
	"github.com/yungbote/coursecraft-backend/internal/platform/openai"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
	"github.com/yungbote/coursecraft-backend/internal/sessions"
	"github.com/yungbote/coursecraft-backend/internal/storage"
)

type Clients struct {
	AI       openai.Client
	Vectors  qdrant.VectorStore
	Files    storage.FileStore
	Reader   ingestion.ContentReader
	Sessions sessions.Store
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring external clients...")

	ai, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	qdrantCfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		return Clients{}, fmt.Errorf("resolve qdrant config: %w", err)
	}
	vectors, err := qdrant.NewVectorStore(log, qdrantCfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init qdrant: %w", err)
	}

	files, err := storage.NewFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init file storage: %w", err)
	}

	// PDF extraction runs through DocumentAI only when a processor is
	// configured; plain text covers .txt/.md either way.
	var reader ingestion.ContentReader
	if strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID")) != "" {
		document, err := gcp.NewDocument(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init documentai: %w", err)
		}
		reader = ingestion.NewDocumentAIReader(log, files, document)
	} else {
		log.Info("DocumentAI not configured; using plain text reader")
		reader = ingestion.NewPlainTextReader(files)
	}

	var store sessions.Store
	if strings.EqualFold(cfg.SessionMode, "redis") {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store = sessions.NewRedisStore(client)
	} else {
		store = sessions.NewMemoryStore()
	}

	return Clients{
		AI:       ai,
		Vectors:  vectors,
		Files:    files,
		Reader:   reader,
		Sessions: store,
	}, nil
}
