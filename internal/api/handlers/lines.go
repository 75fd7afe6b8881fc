package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/parlons-app/parlons/internal/services"
	"github.com/parlons-app/parlons/internal/utils"
)

// LineRequest represents the request structure for creating dialogue lines.
type LineRequest struct {
	DialogueID    int    `json:"dialogue_id" binding:"required,min=1"`
	ParticipantID int    `json:"participant_id" binding:"required,min=1"`
	Text          string `json:"text" binding:"required,notblank,max=2000"`
}

// RecordingUploadRequest carries a base64-encoded audio payload recorded in
// the browser.
type RecordingUploadRequest struct {
	Audio string `json:"audio" binding:"required"`
}

// ListLines returns the lines of a dialogue in display order.
func (h *Handlers) ListLines(c *gin.Context) {
	dialogueID, ok := utils.GetQueryIntParam(c, "dialogue_id")
	if !ok {
		return
	}

	lines, err := h.lineSvc.ListByDialogue(c.Request.Context(), dialogueID)
	if err != nil {
		handleServiceError(c, err, "lines")
		return
	}
	decorateLines(lines)
	utils.Success(c, lines)
}

// GetLine returns a single dialogue line by ID.
func (h *Handlers) GetLine(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	line, err := h.lineSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "line")
		return
	}
	utils.Success(c, line)
}

// CreateLine appends a new line to a dialogue and links the speaker to it.
func (h *Handlers) CreateLine(c *gin.Context) {
	var req LineRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	line, err := h.lineSvc.Create(c.Request.Context(), req.DialogueID, req.ParticipantID, req.Text)
	if err != nil {
		handleServiceError(c, err, "line")
		return
	}
	utils.CreatedWithLocation(c, int64(line.ID), "/api/v1/lines", "Line created successfully")
}

// DeleteLine removes a line and its recording.
func (h *Handlers) DeleteLine(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.lineSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "line")
		return
	}
	utils.NoContent(c)
}

// GetLineRecording returns the recording metadata for a line.
func (h *Handlers) GetLineRecording(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	recording, err := h.recordingSvc.GetLineRecording(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "recording")
		return
	}
	utils.Success(c, recording)
}

// UploadLineRecording stores a browser-recorded audio payload as the line's
// recording, replacing any previous one.
func (h *Handlers) UploadLineRecording(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req RecordingUploadRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	relPath, err := h.recordingSvc.StoreBase64(c.Request.Context(), id, req.Audio)
	if err != nil {
		handleServiceError(c, err, "recording")
		return
	}
	url := utils.GetMediaURL(relPath)
	utils.Success(c, assemblyResult{Success: true, AudioURL: &url})
}

// SynthesizeLineRecording generates and stores speech audio for a system
// line. Calling it again for an already voiced line returns the stored audio.
func (h *Handlers) SynthesizeLineRecording(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	relPath, err := h.recordingSvc.EnsureSystemAudio(c.Request.Context(), id)
	if err != nil {
		// Asking for synthesis on a human line is reported in the result
		// body, matching the other generation endpoints.
		if errors.Is(err, services.ErrInvalidInput) {
			utils.Success(c, assemblyResult{Success: false, Error: err.Error()})
			return
		}
		handleServiceError(c, err, "recording")
		return
	}
	url := utils.GetMediaURL(relPath)
	utils.Success(c, assemblyResult{Success: true, AudioURL: &url})
}

// DeleteLineRecording removes the recording for a line.
func (h *Handlers) DeleteLineRecording(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.recordingSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "recording")
		return
	}
	utils.NoContent(c)
}
