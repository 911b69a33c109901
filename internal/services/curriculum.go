package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/ingestion"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
	"github.com/yungbote/coursecraft-backend/internal/rag"
	"github.com/yungbote/coursecraft-backend/internal/repos"
	"github.com/yungbote/coursecraft-backend/internal/requestdata"
	"github.com/yungbote/coursecraft-backend/internal/storage"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

// CurriculumSummary is the list/detail view: the row plus whether its
// embeddings are queryable yet.
type CurriculumSummary struct {
	*types.Curriculum
	HasEmbeddings bool `json:"has_embeddings"`
}

type CurriculumService interface {
	Upload(ctx context.Context, schoolID uuid.UUID, name, filename string, r io.Reader) (*types.Curriculum, error)
	Ingest(ctx context.Context, curriculumID uuid.UUID, collectionName string) (*CurriculumSummary, int, error)
	List(ctx context.Context, schoolID uuid.UUID) ([]*CurriculumSummary, error)
	Get(ctx context.Context, curriculumID uuid.UUID) (*CurriculumSummary, error)
	Delete(ctx context.Context, curriculumID uuid.UUID) error
	Discuss(ctx context.Context, curriculumID uuid.UUID, query string, history []rag.ChatTurn) (*rag.DiscussionAnswer, error)
}

type curriculumService struct {
	db         *gorm.DB
	log        *logger.Logger
	curricula  repos.CurriculumRepo
	files      storage.FileStore
	pipeline   ingestion.Pipeline
	vectors    qdrant.VectorStore
	discussion rag.Discussion
}

func NewCurriculumService(
	db *gorm.DB,
	baseLog *logger.Logger,
	curricula repos.CurriculumRepo,
	files storage.FileStore,
	pipeline ingestion.Pipeline,
	vectors qdrant.VectorStore,
	discussion rag.Discussion,
) CurriculumService {
	return &curriculumService{
		db:         db,
		log:        baseLog.With("service", "CurriculumService"),
		curricula:  curricula,
		files:      files,
		pipeline:   pipeline,
		vectors:    vectors,
		discussion: discussion,
	}
}

func (cs *curriculumService) Upload(ctx context.Context, schoolID uuid.UUID, name, filename string, r io.Reader) (*types.Curriculum, error) {
	if !requestdata.GetRequestData(ctx).CanAccessSchool(schoolID) {
		return nil, apierr.Forbidden("curriculum belongs to another school")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.InvalidArgument("curriculum name is required")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf", ".txt", ".md":
	default:
		return nil, apierr.InvalidArgument("unsupported file type; expected .pdf, .txt or .md")
	}

	id := uuid.New()
	key := fmt.Sprintf("curricula/%s%s", id, ext)
	if err := cs.files.Save(ctx, key, r); err != nil {
		return nil, fmt.Errorf("store curriculum file: %w", err)
	}

	created, err := cs.curricula.Create(ctx, nil, []*types.Curriculum{{
		ID:       id,
		Name:     name,
		FilePath: key,
		SchoolID: schoolID,
	}})
	if err != nil {
		// Row failed; don't leave the uploaded file orphaned.
		if delErr := cs.files.Delete(ctx, key); delErr != nil {
			cs.log.Warn("Orphaned upload cleanup failed", "key", key, "error", delErr)
		}
		return nil, err
	}
	cs.log.Info("Curriculum uploaded", "curriculum_id", id, "key", key)
	return created[0], nil
}

// Ingest runs the embedding pipeline and records the vector collection
// on success. The caller may name the collection; left empty, the
// canonical per-curriculum name is used. Re-ingesting a processed
// curriculum refreshes its collection in place.
func (cs *curriculumService) Ingest(ctx context.Context, curriculumID uuid.UUID, collectionName string) (*CurriculumSummary, int, error) {
	curriculum, err := cs.ownedCurriculum(ctx, curriculumID)
	if err != nil {
		return nil, 0, err
	}

	result, err := cs.pipeline.Ingest(ctx, curriculum.ID, curriculum.FilePath, strings.TrimSpace(collectionName))
	if err != nil {
		var staged *ingestion.Error
		if errors.As(err, &staged) {
			cs.log.Error("Ingestion failed", "curriculum_id", curriculum.ID, "stage", staged.Stage, "error", err)
		} else {
			cs.log.Error("Ingestion failed", "curriculum_id", curriculum.ID, "error", err)
		}
		return nil, 0, apierr.ExternalService(err)
	}

	if err := cs.curricula.SetVectorKey(ctx, nil, curriculum.ID, result.Collection); err != nil {
		return nil, 0, err
	}
	curriculum.VectorKey = result.Collection
	cs.log.Info("Curriculum ingested", "curriculum_id", curriculum.ID, "collection", result.Collection, "chunks", result.ChunkCount)
	return &CurriculumSummary{Curriculum: curriculum, HasEmbeddings: true}, result.ChunkCount, nil
}

func (cs *curriculumService) List(ctx context.Context, schoolID uuid.UUID) ([]*CurriculumSummary, error) {
	if !requestdata.GetRequestData(ctx).CanAccessSchool(schoolID) {
		return nil, apierr.Forbidden("curricula belong to another school")
	}
	rows, err := cs.curricula.ListBySchool(ctx, nil, schoolID)
	if err != nil {
		return nil, err
	}
	out := make([]*CurriculumSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, &CurriculumSummary{Curriculum: row, HasEmbeddings: row.Processed()})
	}
	return out, nil
}

func (cs *curriculumService) Get(ctx context.Context, curriculumID uuid.UUID) (*CurriculumSummary, error) {
	curriculum, err := cs.ownedCurriculum(ctx, curriculumID)
	if err != nil {
		return nil, err
	}
	return &CurriculumSummary{Curriculum: curriculum, HasEmbeddings: curriculum.Processed()}, nil
}

// Delete removes the vector collection, the stored file and the row.
// Vector and file cleanup failures are logged but do not keep the row
// alive.
func (cs *curriculumService) Delete(ctx context.Context, curriculumID uuid.UUID) error {
	curriculum, err := cs.ownedCurriculum(ctx, curriculumID)
	if err != nil {
		return err
	}
	if curriculum.Processed() {
		if err := cs.vectors.DeleteCollection(ctx, curriculum.VectorKey); err != nil {
			cs.log.Warn("Vector collection delete failed", "collection", curriculum.VectorKey, "error", err)
		}
	}
	if err := cs.files.Delete(ctx, curriculum.FilePath); err != nil {
		cs.log.Warn("Curriculum file delete failed", "key", curriculum.FilePath, "error", err)
	}
	return cs.curricula.Delete(ctx, nil, curriculum.ID)
}

func (cs *curriculumService) Discuss(ctx context.Context, curriculumID uuid.UUID, query string, history []rag.ChatTurn) (*rag.DiscussionAnswer, error) {
	curriculum, err := cs.ownedCurriculum(ctx, curriculumID)
	if err != nil {
		return nil, err
	}
	if !curriculum.Processed() {
		return nil, apierr.PreconditionFailed("curriculum has not been ingested")
	}
	answer, err := cs.discussion.Discuss(ctx, curriculum.VectorKey, query, history)
	if err != nil {
		switch rag.CodeOf(err) {
		case rag.ErrorCollectionNotFound, rag.ErrorCollectionEmpty:
			return nil, apierr.PreconditionFailed(err.Error())
		case rag.ErrorService:
			return nil, apierr.ExternalService(err)
		}
		return nil, err
	}
	return answer, nil
}

func (cs *curriculumService) ownedCurriculum(ctx context.Context, curriculumID uuid.UUID) (*types.Curriculum, error) {
	found, err := cs.curricula.GetByIDs(ctx, nil, []uuid.UUID{curriculumID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apierr.NotFound("curriculum not found")
	}
	curriculum := found[0]
	if !requestdata.GetRequestData(ctx).CanAccessSchool(curriculum.SchoolID) {
		return nil, apierr.Forbidden("curriculum belongs to another school")
	}
	return curriculum, nil
}
