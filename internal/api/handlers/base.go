// Package handlers provides HTTP request handlers for all API endpoints.
package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/parlons-app/parlons/internal/apperrors"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/services"
	"github.com/parlons-app/parlons/internal/utils"
	"github.com/parlons-app/parlons/pkg/logger"
)

// Handlers contains all the dependencies needed by the API handlers.
type Handlers struct {
	db     *sqlx.DB
	config *config.Config

	participantSvc     *services.ParticipantService
	simulationSvc      *services.SimulationService
	dialogueSvc        *services.DialogueService
	lineSvc            *services.LineService
	recordingSvc       *services.RecordingService
	dialogueAudioSvc   *services.DialogueAudioService
	simulationAudioSvc *services.SimulationAudioService
	userSvc            *services.UserService
}

// NewHandlers creates a new Handlers instance with all required dependencies.
func NewHandlers(
	db *sqlx.DB,
	cfg *config.Config,
	participantSvc *services.ParticipantService,
	simulationSvc *services.SimulationService,
	dialogueSvc *services.DialogueService,
	lineSvc *services.LineService,
	recordingSvc *services.RecordingService,
	dialogueAudioSvc *services.DialogueAudioService,
	simulationAudioSvc *services.SimulationAudioService,
	userSvc *services.UserService,
) *Handlers {
	return &Handlers{
		db:                 db,
		config:             cfg,
		participantSvc:     participantSvc,
		simulationSvc:      simulationSvc,
		dialogueSvc:        dialogueSvc,
		lineSvc:            lineSvc,
		recordingSvc:       recordingSvc,
		dialogueAudioSvc:   dialogueAudioSvc,
		simulationAudioSvc: simulationAudioSvc,
		userSvc:            userSvc,
	}
}

// handleServiceError converts apperrors.Error to appropriate HTTP responses.
// Internal error details are logged but never exposed to clients.
func handleServiceError(c *gin.Context, err error, resource string) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Internal != "" {
			logger.Error("%s error: %s (internal: %s)", resource, appErr.Message, appErr.Internal)
		}
		if appErr.Err != nil {
			logger.Error("%s underlying error: %v", resource, appErr.Err)
		}

		switch appErr.Code {
		case apperrors.CodeNotFound:
			utils.ProblemNotFound(c, resource)
		case apperrors.CodeDuplicate:
			utils.ProblemDuplicate(c, resource)
		case apperrors.CodeDependencyExists:
			utils.ProblemCustom(c, "https://parlons.api/problems/dependency-constraint", "Dependency Constraint", 409, appErr.Message)
		case apperrors.CodeInvalidInput, apperrors.CodeValidation:
			utils.ProblemBadRequest(c, appErr.Message)
		case apperrors.CodeNotVoiced:
			utils.ProblemExtended(c, 422, appErr.Message, "line-not-voiced",
				"Upload a recording or synthesize system audio for this line first")
		case apperrors.CodeSynthesisFailed:
			utils.ProblemExtended(c, 502, appErr.Message, "synthesis-failed",
				"Check that the speech synthesis service is reachable")
		case apperrors.CodeAudioProcessing:
			utils.ProblemInternalServer(c, appErr.Message)
		case apperrors.CodeUnauthorized:
			utils.ProblemUnauthorized(c, appErr.Message)
		case apperrors.CodeForbidden:
			utils.ProblemForbidden(c, appErr.Message)
		default:
			utils.ProblemInternalServer(c, fmt.Sprintf("Failed to process %s", resource))
		}
		return
	}

	logger.Error("Unhandled error for %s: %v", resource, err)
	utils.ProblemInternalServer(c, fmt.Sprintf("Failed to process %s", resource))
}

// assemblyResult is the response body for the audio generation endpoints.
// Expected assembly outcomes (nothing to assemble yet) are reported as an
// unsuccessful result rather than an HTTP error.
type assemblyResult struct {
	Success  bool    `json:"success"`
	AudioURL *string `json:"audio_url,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// respondAssemblyResult translates the outcome of an audio assembly call.
func respondAssemblyResult(c *gin.Context, relPath string, err error, resource string) {
	if err != nil {
		if errors.Is(err, services.ErrNoRecordings) || errors.Is(err, services.ErrNoDialogueAudio) {
			utils.Success(c, assemblyResult{Success: false, Error: err.Error()})
			return
		}
		handleServiceError(c, err, resource)
		return
	}
	url := utils.GetMediaURL(relPath)
	utils.Success(c, assemblyResult{Success: true, AudioURL: &url})
}
