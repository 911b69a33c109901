package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
)

type fakeReader struct {
	text string
	err  error
}

func (f *fakeReader) ReadText(ctx context.Context, key string) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeEmbedder) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

type fakeVectors struct {
	ensured   []string
	upserted  map[string][]qdrant.Point
	ensureErr error
	upsertErr error
}

func newFakeVectors() *fakeVectors {
	return &fakeVectors{upserted: map[string][]qdrant.Point{}}
}

func (f *fakeVectors) EnsureCollection(ctx context.Context, collection string) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, collection)
	return nil
}

func (f *fakeVectors) CollectionExists(ctx context.Context, collection string) (bool, error) {
	for _, c := range f.ensured {
		if c == collection {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVectors) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}

func (f *fakeVectors) Upsert(ctx context.Context, collection string, points []qdrant.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted[collection] = append(f.upserted[collection], points...)
	return nil
}

func (f *fakeVectors) Search(ctx context.Context, collection string, vector []float32, topK int) ([]qdrant.Match, error) {
	return nil, nil
}

func (f *fakeVectors) Count(ctx context.Context, collection string) (int, error) {
	return len(f.upserted[collection]), nil
}

func newTestPipeline(t *testing.T, reader ContentReader, ai *fakeEmbedder, vectors *fakeVectors) Pipeline {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewPipeline(log, reader, ai, vectors)
}

func TestIngestStoresChunksWithPayload(t *testing.T) {
	reader := &fakeReader{text: strings.Repeat("biology unit content. ", 100)}
	ai := &fakeEmbedder{}
	vectors := newFakeVectors()
	p := newTestPipeline(t, reader, ai, vectors)

	curriculumID := uuid.New()
	result, err := p.Ingest(context.Background(), curriculumID, "bio9.txt", "")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	wantCollection := "curriculum_" + curriculumID.String()
	if result.Collection != wantCollection {
		t.Fatalf("expected collection %s, got %s", wantCollection, result.Collection)
	}
	points := vectors.upserted[wantCollection]
	if len(points) == 0 || len(points) != result.ChunkCount {
		t.Fatalf("expected %d points stored, got %d", result.ChunkCount, len(points))
	}
	first := points[0]
	if first.ID != "chunk-0" {
		t.Fatalf("unexpected point id %s", first.ID)
	}
	if first.Payload["curriculum_id"] != curriculumID.String() {
		t.Fatalf("payload missing curriculum id: %v", first.Payload)
	}
	if first.Payload["chunk_index"] != 0 {
		t.Fatalf("payload missing chunk index: %v", first.Payload)
	}
	if _, ok := first.Payload["text"].(string); !ok {
		t.Fatalf("payload missing text: %v", first.Payload)
	}
}

func TestIngestHonorsCallerCollectionName(t *testing.T) {
	reader := &fakeReader{text: strings.Repeat("grade eight algebra. ", 100)}
	vectors := newFakeVectors()
	p := newTestPipeline(t, reader, &fakeEmbedder{}, vectors)

	result, err := p.Ingest(context.Background(), uuid.New(), "algebra.txt", "algebra_term_one")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Collection != "algebra_term_one" {
		t.Fatalf("expected caller collection name, got %s", result.Collection)
	}
	if len(vectors.upserted["algebra_term_one"]) != result.ChunkCount {
		t.Fatalf("points not stored under caller collection: %v", vectors.upserted)
	}
}

func TestIngestEmptyDocumentFailsAtChunkStage(t *testing.T) {
	p := newTestPipeline(t, &fakeReader{text: "  "}, &fakeEmbedder{}, newFakeVectors())

	_, err := p.Ingest(context.Background(), uuid.New(), "empty.txt", "")
	var typed *Error
	if !errors.As(err, &typed) || typed.Stage != StageChunk {
		t.Fatalf("expected chunk stage error, got %v", err)
	}
}

func TestIngestEmbedFailureReportsStage(t *testing.T) {
	reader := &fakeReader{text: strings.Repeat("x", 500)}
	ai := &fakeEmbedder{err: fmt.Errorf("rate limited")}
	vectors := newFakeVectors()
	p := newTestPipeline(t, reader, ai, vectors)

	_, err := p.Ingest(context.Background(), uuid.New(), "doc.txt", "")
	var typed *Error
	if !errors.As(err, &typed) || typed.Stage != StageEmbed {
		t.Fatalf("expected embed stage error, got %v", err)
	}
	if len(vectors.upserted) != 0 {
		t.Fatal("nothing should be upserted when embedding fails")
	}
}

func TestIngestUpsertFailureReportsStage(t *testing.T) {
	reader := &fakeReader{text: strings.Repeat("y", 500)}
	vectors := newFakeVectors()
	vectors.upsertErr = fmt.Errorf("qdrant down")
	p := newTestPipeline(t, reader, &fakeEmbedder{}, vectors)

	_, err := p.Ingest(context.Background(), uuid.New(), "doc.txt", "")
	var typed *Error
	if !errors.As(err, &typed) || typed.Stage != StageUpsert {
		t.Fatalf("expected upsert stage error, got %v", err)
	}
}
