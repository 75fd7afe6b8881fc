package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
	"github.com/parlons-app/parlons/internal/utils"
)

// SimulationRequest represents the request structure for creating simulations.
type SimulationRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=255"`
	Language string `json:"language" binding:"omitempty,min=2,max=10"`
}

// SimulationUpdateRequest represents the request structure for updating simulations.
type SimulationUpdateRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=1,max=255"`
	Language *string `json:"language" binding:"omitempty,min=2,max=10"`
}

// CurrentLineRequest represents the request structure for tracking progress
// within the current dialogue.
type CurrentLineRequest struct {
	CurrentLine int `json:"current_line" binding:"required,min=1"`
}

// simulationAudioURL returns the download URL for a simulation's final audio,
// or nil when no audio has been assembled.
func simulationAudioURL(simulationID int, hasAudio bool) *string {
	if !hasAudio {
		return nil
	}
	url := fmt.Sprintf("/api/v1/simulations/%d/audio", simulationID)
	return &url
}

// dialogueAudioURL returns the download URL for a dialogue's assembled audio,
// or nil when no audio has been assembled.
func dialogueAudioURL(dialogueID int, hasAudio bool) *string {
	if !hasAudio {
		return nil
	}
	url := fmt.Sprintf("/api/v1/dialogues/%d/audio", dialogueID)
	return &url
}

func decorateSimulation(s *models.Simulation) {
	s.AudioURL = simulationAudioURL(s.ID, s.FinalAudio != "")
	for i := range s.Dialogues {
		decorateDialogue(&s.Dialogues[i])
	}
}

func decorateDialogue(d *models.Dialogue) {
	d.AudioURL = dialogueAudioURL(d.ID, d.CompleteAudio != "")
}

// ListSimulations returns a paginated list of simulations.
func (h *Handlers) ListSimulations(c *gin.Context) {
	limit, offset := utils.GetPagination(c)

	simulations, total, err := h.simulationSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		handleServiceError(c, err, "simulations")
		return
	}
	for i := range simulations {
		decorateSimulation(&simulations[i])
	}
	utils.PaginatedResponse(c, simulations, total, limit, offset)
}

// GetSimulation returns a single simulation with its ordered dialogues.
func (h *Handlers) GetSimulation(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	simulation, err := h.simulationSvc.GetWithDialogues(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	decorateSimulation(simulation)
	utils.Success(c, simulation)
}

// CreateSimulation creates a new simulation in the pending state.
func (h *Handlers) CreateSimulation(c *gin.Context) {
	var req SimulationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	simulation, err := h.simulationSvc.Create(c.Request.Context(), req.Title, req.Language)
	if err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	utils.CreatedWithLocation(c, int64(simulation.ID), "/api/v1/simulations", "Simulation created successfully")
}

// UpdateSimulation updates a simulation's title or synthesis language.
func (h *Handlers) UpdateSimulation(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req SimulationUpdateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.Title == nil && req.Language == nil {
		utils.ProblemBadRequest(c, "No fields to update")
		return
	}

	updates := &repository.SimulationUpdate{Title: req.Title, Language: req.Language}
	if err := h.simulationSvc.Update(c.Request.Context(), id, updates); err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	utils.NoContent(c)
}

// DeleteSimulation removes a simulation and all of its dialogues.
func (h *Handlers) DeleteSimulation(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.simulationSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	utils.NoContent(c)
}

// RunSimulation starts a pending simulation at its first dialogue.
func (h *Handlers) RunSimulation(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	simulation, err := h.simulationSvc.Run(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	decorateSimulation(simulation)
	utils.Success(c, simulation)
}

// NextDialogue advances an in-progress simulation to the next dialogue,
// completing the simulation when the last dialogue has been finished.
func (h *Handlers) NextDialogue(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	simulation, err := h.simulationSvc.NextDialogue(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	decorateSimulation(simulation)
	utils.Success(c, simulation)
}

// CompleteSimulation marks an in-progress simulation as completed.
func (h *Handlers) CompleteSimulation(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	simulation, err := h.simulationSvc.Complete(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	decorateSimulation(simulation)
	utils.Success(c, simulation)
}

// SetCurrentLine records the learner's position within the current dialogue.
func (h *Handlers) SetCurrentLine(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req CurrentLineRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.simulationSvc.SetCurrentLine(c.Request.Context(), id, req.CurrentLine); err != nil {
		handleServiceError(c, err, "simulation")
		return
	}
	utils.NoContent(c)
}

// GenerateSimulationAudio assembles the final simulation audio from the
// dialogue audios and their synthesized title announcements.
func (h *Handlers) GenerateSimulationAudio(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	relPath, err := h.simulationAudioSvc.Assemble(c.Request.Context(), id)
	respondAssemblyResult(c, relPath, err, "simulation audio")
}

// GetStats returns aggregate counts for the dashboard.
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.simulationSvc.GetStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "stats")
		return
	}
	utils.Success(c, stats)
}
