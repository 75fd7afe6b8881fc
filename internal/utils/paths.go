// Package utils provides shared utility functions for HTTP handlers, database operations, and queries.
package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/parlons-app/parlons/internal/config"
)

// Relative media locations. Stored paths are always relative to the media
// root so the database stays portable across deployments.
const (
	LineAudioDir       = "simulations/lines"
	SimulationAudioDir = "simulations/final"
	DialogueAudioDir   = "dialogues/complete"
	RecordingDir       = "dialogues/recordings"
)

// SanitizeTitle strips characters from a title that would break a filesystem
// path. The id component of generated filenames carries uniqueness; the title
// is only there for readability, so sanitization can be minimal.
func SanitizeTitle(title string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"\x00", "",
	)
	return replacer.Replace(title)
}

// GetLineAudioFilename returns the standardized filename for synthesized
// system line audio.
func GetLineAudioFilename(lineID int) string {
	return fmt.Sprintf("system_%d.mp3", lineID)
}

// GetRecordingFilename returns the standardized filename for a human line recording.
func GetRecordingFilename(lineID int) string {
	return fmt.Sprintf("recording_%d.mp3", lineID)
}

// GetDialogueAudioFilename returns the filename for assembled dialogue audio.
// The title suffix is cosmetic; the dialogue id keeps the name unique.
func GetDialogueAudioFilename(dialogueID int, title string) string {
	return fmt.Sprintf("dialogue_%d_%s.mp3", dialogueID, SanitizeTitle(title))
}

// GetSimulationAudioFilename returns the filename for assembled simulation audio.
func GetSimulationAudioFilename(simulationID int, title string) string {
	return fmt.Sprintf("simulation_%d_%s.mp3", simulationID, SanitizeTitle(title))
}

// GetLineAudioPaths returns (absolutePath, relativePath) for synthesized
// system line audio. The relative path is what gets stored in the database.
func GetLineAudioPaths(config *config.Config, lineID int) (string, string) {
	relativePath := filepath.Join(LineAudioDir, GetLineAudioFilename(lineID))
	return filepath.Join(config.Audio.MediaPath, relativePath), relativePath
}

// GetRecordingPaths returns (absolutePath, relativePath) for a line recording.
func GetRecordingPaths(config *config.Config, lineID int) (string, string) {
	relativePath := filepath.Join(RecordingDir, GetRecordingFilename(lineID))
	return filepath.Join(config.Audio.MediaPath, relativePath), relativePath
}

// GetDialogueAudioPaths returns (absolutePath, relativePath) for assembled
// dialogue audio.
func GetDialogueAudioPaths(config *config.Config, dialogueID int, title string) (string, string) {
	relativePath := filepath.Join(DialogueAudioDir, GetDialogueAudioFilename(dialogueID, title))
	return filepath.Join(config.Audio.MediaPath, relativePath), relativePath
}

// GetSimulationAudioPaths returns (absolutePath, relativePath) for assembled
// simulation audio.
func GetSimulationAudioPaths(config *config.Config, simulationID int, title string) (string, string) {
	relativePath := filepath.Join(SimulationAudioDir, GetSimulationAudioFilename(simulationID, title))
	return filepath.Join(config.Audio.MediaPath, relativePath), relativePath
}

// GetMediaPath resolves a stored relative media path to an absolute path.
func GetMediaPath(config *config.Config, relativePath string) string {
	return filepath.Join(config.Audio.MediaPath, relativePath)
}

// GetMediaURL returns the public URL for a stored relative media path.
func GetMediaURL(relativePath string) string {
	return "/media/" + filepath.ToSlash(relativePath)
}

// GetTempAssemblyDir returns a temporary directory path for audio assembly.
func GetTempAssemblyDir(config *config.Config, uuid string) string {
	return filepath.Join(config.Audio.TempPath, uuid)
}
