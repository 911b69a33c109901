package app

import (
	"github.com/yungbote/coursecraft-backend/internal/handlers"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/sse"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	School     *handlers.SchoolHandler
	Curriculum *handlers.CurriculumHandler
	Course     *handlers.CourseHandler
	SSE        *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *sse.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:       handlers.NewAuthHandler(s.Auth),
		School:     handlers.NewSchoolHandler(s.School),
		Curriculum: handlers.NewCurriculumHandler(s.Curriculum),
		Course:     handlers.NewCourseHandler(s.Course),
		SSE:        handlers.NewSSEHandler(hub, s.Course),
	}
}
