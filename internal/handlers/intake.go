package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/brightpath-labs/intake-backend/internal/pkg/logger"
	"github.com/brightpath-labs/intake-backend/internal/services"
)

type IntakeHandler struct {
	log       *logger.Logger
	chat      services.IntakeChatService
	documents services.DocumentIngestService
}

func NewIntakeHandler(log *logger.Logger, chat services.IntakeChatService, documents services.DocumentIngestService) *IntakeHandler {
	return &IntakeHandler{
		log:       log.With("handler", "IntakeHandler"),
		chat:      chat,
		documents: documents,
	}
}

type startRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// POST /api/start
func (h *IntakeHandler) StartChat(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	session, greeting, err := h.chat.StartSession(c.Request.Context(), req.Name, req.Phone, req.Email)
	if err != nil {
		h.log.Error("start session failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "start_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"session_id":  session.ID.String(),
		"bot_message": greeting,
	})
}

type messageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

// POST /api/message
func (h *IntakeHandler) SendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sessionID, err := uuid.Parse(strings.TrimSpace(req.SessionID))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}

	resp, err := h.chat.HandleTurn(c.Request.Context(), sessionID, req.Text)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		h.log.Error("turn failed", "session_id", sessionID.String(), "error", err)
		RespondError(c, http.StatusInternalServerError, "turn_failed", err)
		return
	}
	RespondOK(c, resp)
}

// POST /api/upload-document
func (h *IntakeHandler) UploadDocument(c *gin.Context) {
	sessionID, err := uuid.Parse(strings.TrimSpace(c.Query("session_id")))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	doc, err := h.documents.QueueDocument(
		c.Request.Context(),
		sessionID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		h.log.Error("document upload failed", "session_id", sessionID.String(), "error", err)
		RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"status":      doc.Status,
		"document_id": doc.ID.String(),
	})
}
