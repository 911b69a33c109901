package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

type CurriculumRepo interface {
	Create(ctx context.Context, tx *gorm.DB, curricula []*types.Curriculum) ([]*types.Curriculum, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, curriculumIDs []uuid.UUID) ([]*types.Curriculum, error)
	ListBySchool(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) ([]*types.Curriculum, error)
	SetVectorKey(ctx context.Context, tx *gorm.DB, curriculumID uuid.UUID, vectorKey string) error
	Delete(ctx context.Context, tx *gorm.DB, curriculumID uuid.UUID) error
}

type curriculumRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	return &curriculumRepo{db: db, log: baseLog.With("repo", "CurriculumRepo")}
}

func (cr *curriculumRepo) Create(ctx context.Context, tx *gorm.DB, curricula []*types.Curriculum) ([]*types.Curriculum, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(curricula) == 0 {
		return []*types.Curriculum{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&curricula).Error; err != nil {
		return nil, mapWriteError(err, "curriculum already exists")
	}
	return curricula, nil
}

func (cr *curriculumRepo) GetByIDs(ctx context.Context, tx *gorm.DB, curriculumIDs []uuid.UUID) ([]*types.Curriculum, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Curriculum
	if len(curriculumIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", curriculumIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *curriculumRepo) ListBySchool(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) ([]*types.Curriculum, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Curriculum
	if err := transaction.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// SetVectorKey records the vector collection name once ingestion has
// actually written points. It is never set ahead of a successful upsert.
func (cr *curriculumRepo) SetVectorKey(ctx context.Context, tx *gorm.DB, curriculumID uuid.UUID, vectorKey string) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Curriculum{}).
		Where("id = ?", curriculumID).
		Update("vector_key", vectorKey).Error
}

func (cr *curriculumRepo) Delete(ctx context.Context, tx *gorm.DB, curriculumID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", curriculumID).
		Delete(&types.Curriculum{}).Error
}
