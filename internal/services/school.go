package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/repos"
	"github.com/yungbote/coursecraft-backend/internal/requestdata"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

type SchoolService interface {
	CreateSchool(ctx context.Context, name string) (*types.School, error)
	ListSchools(ctx context.Context) ([]*types.School, error)
}

type schoolService struct {
	db      *gorm.DB
	log     *logger.Logger
	schools repos.SchoolRepo
}

func NewSchoolService(db *gorm.DB, baseLog *logger.Logger, schools repos.SchoolRepo) SchoolService {
	return &schoolService{
		db:      db,
		log:     baseLog.With("service", "SchoolService"),
		schools: schools,
	}
}

func (ss *schoolService) CreateSchool(ctx context.Context, name string) (*types.School, error) {
	rd := requestdata.GetRequestData(ctx)
	if !rd.IsSuperadmin() {
		return nil, apierr.Forbidden("only superadmins may create schools")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.InvalidArgument("school name is required")
	}
	created, err := ss.schools.Create(ctx, nil, []*types.School{{ID: uuid.New(), Name: name}})
	if err != nil {
		return nil, err
	}
	ss.log.Info("School created", "school_id", created[0].ID, "name", name)
	return created[0], nil
}

// ListSchools returns every school for superadmins and only the
// caller's own school otherwise.
func (ss *schoolService) ListSchools(ctx context.Context) ([]*types.School, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apierr.Unauthenticated("missing request identity")
	}
	if rd.IsSuperadmin() {
		return ss.schools.List(ctx, nil)
	}
	if rd.SchoolID == nil {
		return []*types.School{}, nil
	}
	return ss.schools.GetByIDs(ctx, nil, []uuid.UUID{*rd.SchoolID})
}
