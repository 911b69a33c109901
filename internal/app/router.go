package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:       cfg.ServiceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		AuthHandler:       h.Auth,
		SchoolHandler:     h.School,
		CurriculumHandler: h.Curriculum,
		CourseHandler:     h.Course,
		SSEHandler:        h.SSE,
		AuthMiddleware:    m.Auth,
	})
}
