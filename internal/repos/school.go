package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

type SchoolRepo interface {
	Create(ctx context.Context, tx *gorm.DB, schools []*types.School) ([]*types.School, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, schoolIDs []uuid.UUID) ([]*types.School, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.School, error)
}

type schoolRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSchoolRepo(db *gorm.DB, baseLog *logger.Logger) SchoolRepo {
	return &schoolRepo{db: db, log: baseLog.With("repo", "SchoolRepo")}
}

func (sr *schoolRepo) Create(ctx context.Context, tx *gorm.DB, schools []*types.School) ([]*types.School, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(schools) == 0 {
		return []*types.School{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&schools).Error; err != nil {
		return nil, mapWriteError(err, "school name already exists")
	}
	return schools, nil
}

func (sr *schoolRepo) GetByIDs(ctx context.Context, tx *gorm.DB, schoolIDs []uuid.UUID) ([]*types.School, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.School
	if len(schoolIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", schoolIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *schoolRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.School, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.School
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
