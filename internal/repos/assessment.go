package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

type AssessmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assessments []*types.Assessment) ([]*types.Assessment, error)
	ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Assessment, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (ar *assessmentRepo) Create(ctx context.Context, tx *gorm.DB, assessments []*types.Assessment) ([]*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(assessments) == 0 {
		return []*types.Assessment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&assessments).Error; err != nil {
		return nil, mapWriteError(err, "assessment already exists")
	}
	return assessments, nil
}

func (ar *assessmentRepo) ListByLesson(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) ([]*types.Assessment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Assessment
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
