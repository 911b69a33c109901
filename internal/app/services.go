package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/generator"
	"github.com/yungbote/coursecraft-backend/internal/ingestion"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/rag"
	"github.com/yungbote/coursecraft-backend/internal/services"
	"github.com/yungbote/coursecraft-backend/internal/sse"
	"github.com/yungbote/coursecraft-backend/internal/workflow"
)

type Services struct {
	Auth       services.AuthService
	School     services.SchoolService
	Curriculum services.CurriculumService
	Course     services.CourseService
	Registry   *workflow.Registry
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, clients Clients, hub *sse.Hub) Services {
	log.Info("Wiring services...")

	pipeline := ingestion.NewPipeline(log, clients.Reader, clients.AI, clients.Vectors)
	extractor := rag.NewExtractor(log, clients.AI, clients.Vectors)
	discussion := rag.NewDiscussion(log, clients.AI, clients.Vectors)
	gen := generator.NewGenerator(log, clients.AI)

	registry := workflow.NewRegistry()
	engine := workflow.NewEngine(
		db, log,
		r.Course, r.Module, r.Lesson, r.Assessment, r.Curriculum,
		extractor, gen,
		services.NewHubSink(hub),
	)

	return Services{
		Auth:       services.NewAuthService(db, log, r.User, r.UserToken, r.School, clients.Sessions, cfg.JWTSecretKey, cfg.TokenTTL),
		School:     services.NewSchoolService(db, log, r.School),
		Curriculum: services.NewCurriculumService(db, log, r.Curriculum, clients.Files, pipeline, clients.Vectors, discussion),
		Course:     services.NewCourseService(db, log, r.Course, engine, registry),
		Registry:   registry,
	}
}
