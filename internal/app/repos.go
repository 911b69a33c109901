package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/repos"
)

type Repos struct {
	School     repos.SchoolRepo
	User       repos.UserRepo
	UserToken  repos.UserTokenRepo
	Curriculum repos.CurriculumRepo
	Course     repos.CourseRepo
	Module     repos.ModuleRepo
	Lesson     repos.LessonRepo
	Assessment repos.AssessmentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		School:     repos.NewSchoolRepo(db, log),
		User:       repos.NewUserRepo(db, log),
		UserToken:  repos.NewUserTokenRepo(db, log),
		Curriculum: repos.NewCurriculumRepo(db, log),
		Course:     repos.NewCourseRepo(db, log),
		Module:     repos.NewModuleRepo(db, log),
		Lesson:     repos.NewLessonRepo(db, log),
		Assessment: repos.NewAssessmentRepo(db, log),
	}
}
