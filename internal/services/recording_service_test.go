package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/utils"
)

func newRecordingServiceForSynthesis(t *testing.T, line *models.Line, speech *fakeSpeech) (*RecordingService, *fakeRecordingRepo) {
	t.Helper()
	cfg := testConfig(t)
	recordings := newFakeRecordingRepo()
	resolver := newResolver(cfg, recordings, speech)

	lineRepo := &fakeLineRepo{
		getByID: func(_ context.Context, _ int) (*models.Line, error) { return line, nil },
	}
	dialogueRepo := &fakeDialogueRepo{
		getByID: func(_ context.Context, _ int) (*models.Dialogue, error) {
			return &models.Dialogue{ID: line.DialogueID, SimulationID: 1}, nil
		},
	}
	simRepo := &fakeSimulationRepo{
		getByID: func(_ context.Context, _ int) (*models.Simulation, error) {
			return &models.Simulation{ID: 1, Language: "fr"}, nil
		},
	}

	svc := NewRecordingService(lineRepo, dialogueRepo, simRepo, recordings, resolver, newFakeCodec(), cfg)
	return svc, recordings
}

func TestEnsureSystemAudioSynthesizesOnce(t *testing.T) {
	line := &models.Line{ID: 5, DialogueID: 2, Text: "Bienvenue", IsSystem: true}
	speech := &fakeSpeech{
		synthesize: func(_ context.Context, _, _ string) ([]byte, error) {
			return []byte("mp3 bytes"), nil
		},
	}
	svc, recordings := newRecordingServiceForSynthesis(t, line, speech)

	relPath, err := svc.EnsureSystemAudio(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "simulations/lines/system_5.mp3", relPath)
	assert.Equal(t, relPath, recordings.recordings[5])

	// A second call reuses the stored recording, no re-synthesis.
	again, err := svc.EnsureSystemAudio(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, relPath, again)
	assert.Equal(t, 1, speech.calls)
}

func TestGetLineRecordingProbesDuration(t *testing.T) {
	cfg := testConfig(t)
	recordings := newFakeRecordingRepo()
	recordings.recordings[3] = "dialogues/recordings/recording_3.mp3"
	resolver := newResolver(cfg, recordings, nil)

	lineRepo := &fakeLineRepo{
		exists: func(_ context.Context, _ int) (bool, error) { return true, nil },
	}
	codec := newFakeCodec()
	codec.buffers[utils.GetMediaPath(cfg, "dialogues/recordings/recording_3.mp3")] = pcmSeconds(2.5)

	svc := NewRecordingService(lineRepo, &fakeDialogueRepo{}, &fakeSimulationRepo{}, recordings, resolver, codec, cfg)
	recording, err := svc.GetLineRecording(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, recording.DurationSeconds)
	assert.InDelta(t, 2.5, *recording.DurationSeconds, 0.01)
}

func TestGetLineRecordingToleratesProbeFailure(t *testing.T) {
	cfg := testConfig(t)
	recordings := newFakeRecordingRepo()
	recordings.recordings[4] = "dialogues/recordings/recording_4.mp3"
	resolver := newResolver(cfg, recordings, nil)

	lineRepo := &fakeLineRepo{
		exists: func(_ context.Context, _ int) (bool, error) { return true, nil },
	}

	svc := NewRecordingService(lineRepo, &fakeDialogueRepo{}, &fakeSimulationRepo{}, recordings, resolver, newFakeCodec(), cfg)
	recording, err := svc.GetLineRecording(context.Background(), 4)
	require.NoError(t, err)
	assert.Nil(t, recording.DurationSeconds)
}

func TestEnsureSystemAudioRejectsHumanLine(t *testing.T) {
	line := &models.Line{ID: 8, DialogueID: 2, Text: "Bonjour", IsSystem: false}
	svc, _ := newRecordingServiceForSynthesis(t, line, &fakeSpeech{})

	_, err := svc.EnsureSystemAudio(context.Background(), 8)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
