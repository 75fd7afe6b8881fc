package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parlons-app/parlons/internal/models"
)

func TestListBySimulationIncludesLineCounts(t *testing.T) {
	dialogues := []models.Dialogue{
		{ID: 1, SimulationID: 3, Title: "Salutations"},
		{ID: 2, SimulationID: 3, Title: "Au revoir"},
	}

	simRepo := &fakeSimulationRepo{
		exists: func(_ context.Context, _ int) (bool, error) { return true, nil },
	}
	dialogueRepo := &fakeDialogueRepo{
		listBySimulation: func(_ context.Context, _ int) ([]models.Dialogue, error) { return dialogues, nil },
	}
	lineRepo := &fakeLineRepo{
		countByDialogue: func(_ context.Context, dialogueID int) (int, error) {
			if dialogueID == 1 {
				return 5, nil
			}
			return 0, nil
		},
	}

	svc := NewDialogueService(dialogueRepo, lineRepo, simRepo, nil, newFakeRecordingRepo())
	got, err := svc.ListBySimulation(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].LineCount)
	assert.Equal(t, 0, got[1].LineCount)
}
