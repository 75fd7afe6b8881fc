package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parlons-app/parlons/internal/models"
)

func TestListByDialogueMarksRecordedLines(t *testing.T) {
	lines := []models.Line{
		{ID: 1, DialogueID: 4, Text: "Bonjour"},
		{ID: 2, DialogueID: 4, Text: "Ça va"},
	}

	lineRepo := &fakeLineRepo{
		listByDialogue: func(_ context.Context, _ int) ([]models.Line, error) { return lines, nil },
	}
	dialogueRepo := &fakeDialogueRepo{
		exists: func(_ context.Context, _ int) (bool, error) { return true, nil },
	}
	recordings := newFakeRecordingRepo()
	recordings.recordings[2] = "dialogues/recordings/recording_2.mp3"

	svc := NewLineService(lineRepo, dialogueRepo, nil, recordings)
	got, err := svc.ListByDialogue(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].HasRecording)
	assert.True(t, got[1].HasRecording)
}

func TestGetLineMarksRecorded(t *testing.T) {
	line := &models.Line{ID: 7, DialogueID: 4, Text: "Merci"}
	lineRepo := &fakeLineRepo{
		getByID: func(_ context.Context, _ int) (*models.Line, error) { return line, nil },
	}
	recordings := newFakeRecordingRepo()
	recordings.recordings[7] = "dialogues/recordings/recording_7.mp3"

	svc := NewLineService(lineRepo, &fakeDialogueRepo{}, nil, recordings)
	got, err := svc.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, got.HasRecording)
}
