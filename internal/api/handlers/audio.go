package handlers

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/parlons-app/parlons/internal/utils"
)

// AudioConfig defines configuration parameters for serving audio files.
type AudioConfig struct {
	TableName  string
	IDColumn   string
	FileColumn string
	FilePrefix string
}

// ServeAudio serves a stored MP3 file with proper headers and error handling.
// File columns hold paths relative to the media root.
func (h *Handlers) ServeAudio(c *gin.Context, config AudioConfig) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		config.FileColumn, config.TableName, config.IDColumn)

	var filePath sql.NullString
	err := h.db.GetContext(c.Request.Context(), &filePath, query, id)
	if err == sql.ErrNoRows {
		utils.ProblemNotFound(c, "Record")
		return
	}
	if err != nil {
		utils.ProblemInternalServer(c, "Failed to fetch record")
		return
	}

	if !filePath.Valid || filePath.String == "" {
		utils.ProblemNotFound(c, "Audio file")
		return
	}

	audioPath := utils.GetMediaPath(h.config, filePath.String)
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		utils.ProblemNotFound(c, "Audio file")
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Content-Disposition",
		fmt.Sprintf("inline; filename=\"%s_%d.mp3\"", config.FilePrefix, id))

	c.File(audioPath)
}

// ServeDialogueAudio streams a dialogue's assembled audio.
func (h *Handlers) ServeDialogueAudio(c *gin.Context) {
	h.ServeAudio(c, AudioConfig{
		TableName:  "dialogues",
		IDColumn:   "id",
		FileColumn: "complete_audio",
		FilePrefix: "dialogue",
	})
}

// ServeSimulationAudio streams a simulation's final audio.
func (h *Handlers) ServeSimulationAudio(c *gin.Context) {
	h.ServeAudio(c, AudioConfig{
		TableName:  "simulations",
		IDColumn:   "id",
		FileColumn: "final_audio",
		FilePrefix: "simulation",
	})
}

// ServeLineAudio streams a line's recording or synthesized audio.
func (h *Handlers) ServeLineAudio(c *gin.Context) {
	h.ServeAudio(c, AudioConfig{
		TableName:  "line_recordings",
		IDColumn:   "line_id",
		FileColumn: "audio_file",
		FilePrefix: "line",
	})
}
