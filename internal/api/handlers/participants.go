package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/parlons-app/parlons/internal/auth"
	"github.com/parlons-app/parlons/internal/utils"
)

// ParticipantRequest represents the request structure for creating speakers.
type ParticipantRequest struct {
	SpeakerName string `json:"speaker_name" binding:"required,min=1,max=255"`
	IsSystem    bool   `json:"is_system"`
}

// ListParticipants returns the speakers belonging to the authenticated user.
func (h *Handlers) ListParticipants(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		utils.ProblemUnauthorized(c, "Authentication required")
		return
	}

	participants, err := h.participantSvc.ListByUser(c.Request.Context(), int(userID))
	if err != nil {
		handleServiceError(c, err, "participants")
		return
	}
	utils.Success(c, participants)
}

// GetParticipant returns a single speaker by ID.
func (h *Handlers) GetParticipant(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	participant, err := h.participantSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "participant")
		return
	}
	utils.Success(c, participant)
}

// CreateParticipant creates a new speaker for the authenticated user.
func (h *Handlers) CreateParticipant(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		utils.ProblemUnauthorized(c, "Authentication required")
		return
	}

	var req ParticipantRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	participant, err := h.participantSvc.Create(c.Request.Context(), int(userID), req.SpeakerName, req.IsSystem)
	if err != nil {
		handleServiceError(c, err, "participant")
		return
	}
	utils.CreatedWithLocation(c, int64(participant.ID), "/api/v1/participants", "Participant created successfully")
}

// DeleteParticipant removes a speaker that has no remaining dialogue lines.
func (h *Handlers) DeleteParticipant(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.participantSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "participant")
		return
	}
	utils.NoContent(c)
}
