package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursecraft-backend/internal/services"
)

type SchoolHandler struct {
	schoolService services.SchoolService
}

func NewSchoolHandler(schoolService services.SchoolService) *SchoolHandler {
	return &SchoolHandler{schoolService: schoolService}
}

func (sh *SchoolHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "invalid request body")
		return
	}
	school, err := sh.schoolService.CreateSchool(c.Request.Context(), req.Name)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, school)
}

func (sh *SchoolHandler) List(c *gin.Context) {
	schools, err := sh.schoolService.ListSchools(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"schools": schools})
}
