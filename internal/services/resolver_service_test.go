package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/utils"
)

func newResolver(cfg *config.Config, recordings *fakeRecordingRepo, speech SpeechSynthesizer) *LineResolverService {
	return NewLineResolverService(recordings, speech, cfg)
}

func TestLookupNotVoiced(t *testing.T) {
	cfg := testConfig(t)
	resolver := newResolver(cfg, newFakeRecordingRepo(), nil)

	_, err := resolver.Lookup(context.Background(), 12)
	assert.ErrorIs(t, err, ErrNotVoiced)
}

func TestLookupReturnsStoredRecording(t *testing.T) {
	cfg := testConfig(t)
	recordings := newFakeRecordingRepo()
	recordings.recordings[3] = "dialogues/recordings/recording_3.mp3"

	resolver := newResolver(cfg, recordings, nil)

	recording, err := resolver.Lookup(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "dialogues/recordings/recording_3.mp3", recording.AudioFile)
}

func TestSynthesizeAndStorePersistsAsset(t *testing.T) {
	cfg := testConfig(t)
	recordings := newFakeRecordingRepo()
	line := &models.Line{ID: 5, Text: "Bienvenue au restaurant", IsSystem: true}

	speech := &fakeSpeech{
		synthesize: func(_ context.Context, text, language string) ([]byte, error) {
			assert.Equal(t, "Bienvenue au restaurant", text)
			assert.Equal(t, "fr", language)
			return []byte("mp3 bytes"), nil
		},
	}

	resolver := newResolver(cfg, recordings, speech)

	relPath, err := resolver.SynthesizeAndStore(context.Background(), line, "fr")
	require.NoError(t, err)
	assert.Equal(t, "simulations/lines/system_5.mp3", relPath)
	assert.Equal(t, relPath, recordings.recordings[5])

	absPath, _ := utils.GetLineAudioPaths(cfg, line.ID)
	data, err := os.ReadFile(absPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), data)
}

func TestSynthesizeAndStoreWithoutBackend(t *testing.T) {
	cfg := testConfig(t)
	resolver := newResolver(cfg, newFakeRecordingRepo(), nil)
	line := &models.Line{ID: 2, Text: "Bonjour", IsSystem: true}

	_, err := resolver.SynthesizeAndStore(context.Background(), line, "fr")
	assert.ErrorIs(t, err, ErrSynthesisFailed)
}

func TestSynthesizeAndStoreDefaultLanguage(t *testing.T) {
	cfg := testConfig(t)
	recordings := newFakeRecordingRepo()
	line := &models.Line{ID: 9, Text: "Merci", IsSystem: true}

	var gotLanguage string
	speech := &fakeSpeech{
		synthesize: func(_ context.Context, _, language string) ([]byte, error) {
			gotLanguage = language
			return []byte("x"), nil
		},
	}

	resolver := newResolver(cfg, recordings, speech)
	_, err := resolver.SynthesizeAndStore(context.Background(), line, "")
	require.NoError(t, err)
	assert.Equal(t, "fr", gotLanguage)
}
