package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/rag"
	"github.com/yungbote/coursecraft-backend/internal/requestdata"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type CurriculumHandler struct {
	curriculumService services.CurriculumService
}

func NewCurriculumHandler(curriculumService services.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculumService: curriculumService}
}

// resolveSchoolID picks the school the request acts on: an explicit
// school_id (form or query) when given, the caller's own school
// otherwise.
func resolveSchoolID(c *gin.Context, explicit string) (uuid.UUID, bool) {
	if explicit != "" {
		id, err := uuid.Parse(explicit)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.SchoolID == nil {
		return uuid.Nil, false
	}
	return *rd.SchoolID, true
}

func (ch *CurriculumHandler) Upload(c *gin.Context) {
	schoolID, ok := resolveSchoolID(c, c.PostForm("school_id"))
	if !ok {
		RespondBadRequest(c, "school_id is required")
		return
	}
	name := c.PostForm("name")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondBadRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondBadRequest(c, "unreadable file")
		return
	}
	defer file.Close()

	curriculum, err := ch.curriculumService.Upload(c.Request.Context(), schoolID, name, fileHeader.Filename, file)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, curriculum)
}

func (ch *CurriculumHandler) Ingest(c *gin.Context) {
	var req struct {
		CurriculumID   uuid.UUID `json:"curriculum_id"`
		CollectionName string    `json:"collection_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CurriculumID == uuid.Nil {
		RespondBadRequest(c, "curriculum_id is required")
		return
	}
	summary, chunks, err := ch.curriculumService.Ingest(c.Request.Context(), req.CurriculumID, req.CollectionName)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"curriculum": summary, "chunk_count": chunks})
}

func (ch *CurriculumHandler) List(c *gin.Context) {
	schoolID, ok := resolveSchoolID(c, c.Query("school_id"))
	if !ok {
		RespondBadRequest(c, "school_id is required")
		return
	}
	curricula, err := ch.curriculumService.List(c.Request.Context(), schoolID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"curricula": curricula})
}

func (ch *CurriculumHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid curriculum id")
		return
	}
	summary, err := ch.curriculumService.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, summary)
}

func (ch *CurriculumHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "invalid curriculum id")
		return
	}
	if err := ch.curriculumService.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ch *CurriculumHandler) Discuss(c *gin.Context) {
	var req struct {
		CurriculumID uuid.UUID `json:"curriculum_id"`
		Query        string    `json:"query"`
		History      []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"history"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.CurriculumID == uuid.Nil {
		RespondBadRequest(c, "curriculum_id and query are required")
		return
	}
	history := make([]rag.ChatTurn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, rag.ChatTurn{Role: turn.Role, Content: turn.Content})
	}
	answer, err := ch.curriculumService.Discuss(c.Request.Context(), req.CurriculumID, req.Query, history)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, answer)
}
