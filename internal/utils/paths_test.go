package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parlons-app/parlons/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Audio: config.AudioConfig{
			MediaPath: "/srv/media",
			TempPath:  "/srv/media/temp",
		},
	}
}

func TestGetLineAudioFilename(t *testing.T) {
	assert.Equal(t, "system_42.mp3", GetLineAudioFilename(42))
}

func TestGetDialogueAudioFilename(t *testing.T) {
	assert.Equal(t, "dialogue_7_At_the_bakery.mp3", GetDialogueAudioFilename(7, "At_the_bakery"))
}

func TestGetSimulationAudioFilename(t *testing.T) {
	assert.Equal(t, "simulation_3_Ordering food.mp3", GetSimulationAudioFilename(3, "Ordering food"))
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "At the bakery", "At the bakery"},
		{"slash", "a/b", "a_b"},
		{"backslash", `a\b`, "a_b"},
		{"nul byte", "a\x00b", "ab"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.title))
		})
	}
}

func TestGetLineAudioPaths(t *testing.T) {
	abs, rel := GetLineAudioPaths(testConfig(), 5)
	assert.Equal(t, filepath.Join("simulations", "lines", "system_5.mp3"), rel)
	assert.Equal(t, filepath.Join("/srv/media", "simulations", "lines", "system_5.mp3"), abs)
}

func TestGetDialogueAudioPaths(t *testing.T) {
	abs, rel := GetDialogueAudioPaths(testConfig(), 9, "Greetings")
	assert.Equal(t, filepath.Join("dialogues", "complete", "dialogue_9_Greetings.mp3"), rel)
	assert.Equal(t, filepath.Join("/srv/media", "dialogues", "complete", "dialogue_9_Greetings.mp3"), abs)
}

func TestGetSimulationAudioPaths(t *testing.T) {
	abs, rel := GetSimulationAudioPaths(testConfig(), 2, "Trip to Paris")
	assert.Equal(t, filepath.Join("simulations", "final", "simulation_2_Trip to Paris.mp3"), rel)
	assert.Equal(t, filepath.Join("/srv/media", "simulations", "final", "simulation_2_Trip to Paris.mp3"), abs)
}

func TestGetMediaURL(t *testing.T) {
	assert.Equal(t, "/media/simulations/lines/system_1.mp3",
		GetMediaURL(filepath.Join("simulations", "lines", "system_1.mp3")))
}

func TestGetTempAssemblyDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv/media/temp", "abc-123"),
		GetTempAssemblyDir(testConfig(), "abc-123"))
}
