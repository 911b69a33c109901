package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/openai"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
	"github.com/yungbote/coursecraft-backend/internal/utils"
)

const embedBatchSize = 64

type Stage string

const (
	StageRead             Stage = "read"
	StageChunk            Stage = "chunk"
	StageEmbed            Stage = "embed"
	StageEnsureCollection Stage = "ensure_collection"
	StageUpsert           Stage = "upsert"
)

// Error reports which stage of ingestion failed so callers can tell a
// bad upload from a flaky backend.
type Error struct {
	Stage Stage
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "ingestion failed"
	}
	if e.Cause != nil {
		return fmt.Sprintf("ingestion failed at stage %s: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("ingestion failed at stage %s", e.Stage)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func stageErr(stage Stage, cause error) error {
	return &Error{Stage: stage, Cause: cause}
}

// Result is what a completed ingestion run produced.
type Result struct {
	Collection string
	ChunkCount int
}

// Pipeline chunks, embeds and stores one curriculum document. An empty
// collection selects the canonical per-curriculum name.
type Pipeline interface {
	Ingest(ctx context.Context, curriculumID uuid.UUID, fileKey, collection string) (*Result, error)
}

type pipeline struct {
	log     *logger.Logger
	reader  ContentReader
	ai      openai.Client
	vectors qdrant.VectorStore

	chunkSize    int
	chunkOverlap int
}

func NewPipeline(log *logger.Logger, reader ContentReader, ai openai.Client, vectors qdrant.VectorStore) Pipeline {
	return &pipeline{
		log:          log.With("service", "IngestionPipeline"),
		reader:       reader,
		ai:           ai,
		vectors:      vectors,
		chunkSize:    utils.GetEnvAsInt("INGESTION_CHUNK_SIZE", DefaultChunkSize, log),
		chunkOverlap: utils.GetEnvAsInt("INGESTION_CHUNK_OVERLAP", DefaultChunkOverlap, log),
	}
}

// CollectionName is the canonical Qdrant collection for a curriculum.
// It doubles as the curriculum's vector_key once ingestion succeeds.
func CollectionName(curriculumID uuid.UUID) string {
	return "curriculum_" + curriculumID.String()
}

func (p *pipeline) Ingest(ctx context.Context, curriculumID uuid.UUID, fileKey, collection string) (*Result, error) {
	text, err := p.reader.ReadText(ctx, fileKey)
	if err != nil {
		return nil, stageErr(StageRead, err)
	}

	chunks := SplitIntoChunks(text, p.chunkSize, p.chunkOverlap)
	if len(chunks) == 0 {
		return nil, stageErr(StageChunk, fmt.Errorf("document %q produced no text", fileKey))
	}

	if collection == "" {
		collection = CollectionName(curriculumID)
	}
	if err := p.vectors.EnsureCollection(ctx, collection); err != nil {
		return nil, stageErr(StageEnsureCollection, err)
	}

	points := make([]qdrant.Point, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		vectors, err := p.ai.Embed(ctx, batch)
		if err != nil {
			return nil, stageErr(StageEmbed, err)
		}
		if len(vectors) != len(batch) {
			return nil, stageErr(StageEmbed, fmt.Errorf("embedding count mismatch: chunks=%d vectors=%d", len(batch), len(vectors)))
		}

		for i, vec := range vectors {
			idx := start + i
			points = append(points, qdrant.Point{
				ID:     fmt.Sprintf("chunk-%d", idx),
				Vector: vec,
				Payload: map[string]any{
					"text":          batch[i],
					"curriculum_id": curriculumID.String(),
					"chunk_index":   idx,
				},
			})
		}
	}

	if err := p.vectors.Upsert(ctx, collection, points); err != nil {
		return nil, stageErr(StageUpsert, err)
	}

	p.log.Info("Curriculum ingested",
		"curriculum_id", curriculumID,
		"collection", collection,
		"chunks", len(points),
	)
	return &Result{Collection: collection, ChunkCount: len(points)}, nil
}
