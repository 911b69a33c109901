package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/coursecraft-backend/internal/handlers"
	"github.com/yungbote/coursecraft-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName       string
	AllowedOrigins    []string
	AuthHandler       *handlers.AuthHandler
	SchoolHandler     *handlers.SchoolHandler
	CurriculumHandler *handlers.CurriculumHandler
	CourseHandler     *handlers.CourseHandler
	SSEHandler        *handlers.SSEHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/auth/register", cfg.AuthHandler.Register)
	router.POST("/auth/login", cfg.AuthHandler.Login)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.POST("/auth/logout", cfg.AuthHandler.Logout)

	protected.POST("/schools", cfg.SchoolHandler.Create)
	protected.GET("/schools", cfg.SchoolHandler.List)

	protected.POST("/curriculum/upload", cfg.CurriculumHandler.Upload)
	protected.POST("/curriculum/ingest", cfg.CurriculumHandler.Ingest)
	protected.POST("/curriculum/discuss", cfg.CurriculumHandler.Discuss)
	protected.GET("/curriculum", cfg.CurriculumHandler.List)
	protected.GET("/curriculum/:id", cfg.CurriculumHandler.Get)
	protected.DELETE("/curriculum/:id", cfg.CurriculumHandler.Delete)

	protected.POST("/courses/create", cfg.CourseHandler.Create)
	protected.POST("/courses/:id/modules", cfg.CourseHandler.CreateLessons)
	protected.POST("/courses/:id/finalize", cfg.CourseHandler.Finalize)
	protected.GET("/courses/:id", cfg.CourseHandler.Get)
	protected.GET("/courses/:id/events/stream", cfg.SSEHandler.StreamCourseEvents)

	protected.POST("/v2/courses/create", cfg.CourseHandler.CreateAsync)
	protected.GET("/v2/courses/:id/progress", cfg.CourseHandler.Progress)

	return router
}
