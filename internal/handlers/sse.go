package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/requestdata"
	"github.com/yungbote/coursecraft-backend/internal/services"
	"github.com/yungbote/coursecraft-backend/internal/sse"
)

type SSEHandler struct {
	hub           *sse.Hub
	courseService services.CourseService
}

func NewSSEHandler(hub *sse.Hub, courseService services.CourseService) *SSEHandler {
	return &SSEHandler{hub: hub, courseService: courseService}
}

// StreamCourseEvents subscribes the caller to one course's workflow
// progress channel and streams until the client disconnects.
func (sh *SSEHandler) StreamCourseEvents(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid course id")
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondBadRequest(c, "missing request identity")
		return
	}
	// Progress doubles as the existence check before holding a stream
	// open.
	if _, err := sh.courseService.Progress(c.Request.Context(), courseID); err != nil {
		RespondError(c, err)
		return
	}

	client := sh.hub.NewClient(rd.UserID)
	sh.hub.AddChannel(client, sse.CourseChannel(courseID))
	defer sh.hub.CloseClient(client)

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
