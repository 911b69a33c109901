package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/services"
)

type CourseHandler struct {
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type createCourseRequest struct {
	SchoolID      string     `json:"school_id"`
	Title         string     `json:"title"`
	DurationWeeks int        `json:"duration_weeks"`
	CurriculumID  *uuid.UUID `json:"curriculum_id"`
}

func (req *createCourseRequest) toInput(c *gin.Context) (services.CreateCourseInput, bool) {
	schoolID, ok := resolveSchoolID(c, req.SchoolID)
	if !ok {
		return services.CreateCourseInput{}, false
	}
	return services.CreateCourseInput{
		SchoolID:      schoolID,
		Title:         req.Title,
		DurationWeeks: req.DurationWeeks,
		CurriculumID:  req.CurriculumID,
	}, true
}

func (ch *CourseHandler) Create(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		RespondBadRequest(c, "school_id is required")
		return
	}
	course, err := ch.courseService.CreateCourse(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, course)
}

func (ch *CourseHandler) CreateLessons(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid course id")
		return
	}
	var req struct {
		ModuleIDs []uuid.UUID `json:"module_ids"`
	}
	// Body is optional; an empty one means every module.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "invalid request body")
			return
		}
	}
	lessons, err := ch.courseService.CreateLessons(c.Request.Context(), courseID, req.ModuleIDs)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"lessons": lessons})
}

func (ch *CourseHandler) Finalize(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid course id")
		return
	}
	course, err := ch.courseService.FinalizeCourse(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, course)
}

func (ch *CourseHandler) Get(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid course id")
		return
	}
	course, err := ch.courseService.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, course)
}

func (ch *CourseHandler) CreateAsync(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		RespondBadRequest(c, "school_id is required")
		return
	}
	courseID, err := ch.courseService.CreateCourseAsync(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"course_id": courseID, "status": "running"})
}

func (ch *CourseHandler) Progress(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid course id")
		return
	}
	progress, err := ch.courseService.Progress(c.Request.Context(), courseID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, progress)
}
