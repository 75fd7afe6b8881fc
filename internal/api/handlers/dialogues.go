package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
	"github.com/parlons-app/parlons/internal/utils"
)

// DialogueRequest represents the request structure for creating dialogues.
type DialogueRequest struct {
	SimulationID int    `json:"simulation_id" binding:"required,min=1"`
	Title        string `json:"title" binding:"required,min=1,max=255"`
	Description  string `json:"description" binding:"omitempty,max=2000"`
	Difficulty   string `json:"difficulty_level" binding:"omitempty,difficulty_level"`
}

// DialogueUpdateRequest represents the request structure for updating dialogues.
type DialogueUpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Difficulty  *string `json:"difficulty_level" binding:"omitempty,difficulty_level"`
}

// DialogueParticipantRequest identifies a speaker to add to or remove from
// a dialogue.
type DialogueParticipantRequest struct {
	ParticipantID int `json:"participant_id" binding:"required,min=1"`
}

func decorateLines(lines []models.Line) {
	for i := range lines {
		url := fmt.Sprintf("/api/v1/lines/%d/audio", lines[i].ID)
		lines[i].AudioURL = &url
	}
}

// ListDialogues returns the dialogues of a simulation in display order.
func (h *Handlers) ListDialogues(c *gin.Context) {
	simulationID, ok := utils.GetQueryIntParam(c, "simulation_id")
	if !ok {
		return
	}

	dialogues, err := h.dialogueSvc.ListBySimulation(c.Request.Context(), simulationID)
	if err != nil {
		handleServiceError(c, err, "dialogues")
		return
	}
	for i := range dialogues {
		decorateDialogue(&dialogues[i])
	}
	utils.Success(c, dialogues)
}

// GetDialogue returns a single dialogue with its lines and speakers.
func (h *Handlers) GetDialogue(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	dialogue, err := h.dialogueSvc.GetWithLines(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "dialogue")
		return
	}
	decorateDialogue(dialogue)
	decorateLines(dialogue.Lines)
	utils.Success(c, dialogue)
}

// CreateDialogue appends a new dialogue to a simulation.
func (h *Handlers) CreateDialogue(c *gin.Context) {
	var req DialogueRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dialogue, err := h.dialogueSvc.Create(c.Request.Context(), req.SimulationID, req.Title, req.Description, req.Difficulty)
	if err != nil {
		handleServiceError(c, err, "dialogue")
		return
	}
	utils.CreatedWithLocation(c, int64(dialogue.ID), "/api/v1/dialogues", "Dialogue created successfully")
}

// UpdateDialogue updates a dialogue's title, description or difficulty.
func (h *Handlers) UpdateDialogue(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req DialogueUpdateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.Title == nil && req.Description == nil && req.Difficulty == nil {
		utils.ProblemBadRequest(c, "No fields to update")
		return
	}

	updates := &repository.DialogueUpdate{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
	}
	if err := h.dialogueSvc.Update(c.Request.Context(), id, updates); err != nil {
		handleServiceError(c, err, "dialogue")
		return
	}
	utils.NoContent(c)
}

// DeleteDialogue removes a dialogue and its lines.
func (h *Handlers) DeleteDialogue(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.dialogueSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "dialogue")
		return
	}
	utils.NoContent(c)
}

// AddDialogueParticipant links a speaker to a dialogue.
func (h *Handlers) AddDialogueParticipant(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req DialogueParticipantRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.dialogueSvc.AddParticipant(c.Request.Context(), id, req.ParticipantID); err != nil {
		handleServiceError(c, err, "dialogue participant")
		return
	}
	utils.NoContent(c)
}

// RemoveDialogueParticipant unlinks a speaker from a dialogue.
func (h *Handlers) RemoveDialogueParticipant(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req DialogueParticipantRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.dialogueSvc.RemoveParticipant(c.Request.Context(), id, req.ParticipantID); err != nil {
		handleServiceError(c, err, "dialogue participant")
		return
	}
	utils.NoContent(c)
}

// GenerateDialogueAudio assembles the complete dialogue audio from the
// individual line recordings.
func (h *Handlers) GenerateDialogueAudio(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	relPath, err := h.dialogueAudioSvc.Assemble(c.Request.Context(), id)
	respondAssemblyResult(c, relPath, err, "dialogue audio")
}
