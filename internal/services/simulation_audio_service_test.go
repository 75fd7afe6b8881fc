package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parlons-app/parlons/internal/audio"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/utils"
)

// primeTitleDecodes registers a canned buffer for every file the
// assembler will write under the temp root, since title announcements
// are decoded from freshly written temp files whose directory name is
// random. The fake codec resolves by exact path, so we intercept with a
// prefix-aware wrapper instead.
type prefixCodec struct {
	*fakeCodec
	tempRoot  string
	titleBuf  *audio.Buffer
	titleErrs map[string]error
}

func (p *prefixCodec) Decode(ctx context.Context, inputPath string) (*audio.Buffer, error) {
	if buf, ok := p.buffers[inputPath]; ok {
		p.decoded = append(p.decoded, inputPath)
		return buf, nil
	}
	if err, ok := p.titleErrs[inputPath]; ok {
		return nil, err
	}
	if len(inputPath) > len(p.tempRoot) && inputPath[:len(p.tempRoot)] == p.tempRoot {
		p.decoded = append(p.decoded, inputPath)
		return p.titleBuf, nil
	}
	return nil, audio.NewDecodeError(inputPath, "", errNoSuchAsset)
}

func TestSimulationAssembleDurationAndCleanup(t *testing.T) {
	cfg := testConfig(t)
	sim := &models.Simulation{ID: 4, Title: "Première visite", Language: "fr"}
	dialogues := []models.Dialogue{
		{ID: 1, SimulationID: 4, Title: "Salutations", DisplayOrder: 1, CompleteAudio: "dialogues/complete/dialogue_1_Salutations.mp3"},
		{ID: 2, SimulationID: 4, Title: "Au revoir", DisplayOrder: 2, CompleteAudio: ""}, // not assembled yet
	}

	var savedPath string
	simRepo := &fakeSimulationRepo{
		getByID: func(_ context.Context, _ int) (*models.Simulation, error) { return sim, nil },
		setFinalAudio: func(_ context.Context, _ int, relativePath string) error {
			savedPath = relativePath
			return nil
		},
	}
	dialogueRepo := &fakeDialogueRepo{
		listBySimulation: func(_ context.Context, _ int) ([]models.Dialogue, error) { return dialogues, nil },
	}
	speech := &fakeSpeech{
		synthesize: func(_ context.Context, _, _ string) ([]byte, error) { return []byte("mp3"), nil },
	}

	inner := newFakeCodec()
	inner.buffers[utils.GetMediaPath(cfg, dialogues[0].CompleteAudio)] = pcmSeconds(10.0)
	codec := &prefixCodec{fakeCodec: inner, tempRoot: cfg.Audio.TempPath, titleBuf: pcmSeconds(1.0)}

	svc := NewSimulationAudioService(simRepo, dialogueRepo, speech, codec, cfg)
	relPath, err := svc.Assemble(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "simulations/final/simulation_4_Première visite.mp3", relPath)
	assert.Equal(t, relPath, savedPath)

	// One dialogue contributes: title (1s) + 2s pause + body (10s) + 2s pause.
	require.Len(t, inner.encoded, 1)
	for _, buf := range inner.encoded {
		assert.Equal(t, 15*time.Second, buf.Duration())
	}

	// The unassembled dialogue must not have been announced.
	assert.Equal(t, 1, speech.calls)

	// Scratch space is removed on return.
	entries, err := os.ReadDir(cfg.Audio.TempPath)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSimulationAssembleSkipsFailedSegments(t *testing.T) {
	cfg := testConfig(t)
	sim := &models.Simulation{ID: 2, Title: "Voyage", Language: "fr"}
	dialogues := []models.Dialogue{
		{ID: 1, Title: "Départ", DisplayOrder: 1, CompleteAudio: "dialogues/complete/dialogue_1_Départ.mp3"},
		{ID: 2, Title: "Arrivée", DisplayOrder: 2, CompleteAudio: "dialogues/complete/dialogue_2_Arrivée.mp3"},
	}

	simRepo := &fakeSimulationRepo{
		getByID:       func(_ context.Context, _ int) (*models.Simulation, error) { return sim, nil },
		setFinalAudio: func(_ context.Context, _ int, _ string) error { return nil },
	}
	dialogueRepo := &fakeDialogueRepo{
		listBySimulation: func(_ context.Context, _ int) ([]models.Dialogue, error) { return dialogues, nil },
	}
	speech := &fakeSpeech{
		synthesize: func(_ context.Context, text, _ string) ([]byte, error) {
			if text == "Départ" {
				return nil, fmt.Errorf("backend unavailable")
			}
			return []byte("mp3"), nil
		},
	}

	inner := newFakeCodec()
	inner.buffers[utils.GetMediaPath(cfg, dialogues[1].CompleteAudio)] = pcmSeconds(5.0)
	codec := &prefixCodec{fakeCodec: inner, tempRoot: cfg.Audio.TempPath, titleBuf: pcmSeconds(2.0)}

	svc := NewSimulationAudioService(simRepo, dialogueRepo, speech, codec, cfg)
	_, err := svc.Assemble(context.Background(), 2)
	require.NoError(t, err)

	// Only the second dialogue contributes: 2 + 2 + 5 + 2 seconds.
	for _, buf := range inner.encoded {
		assert.Equal(t, 11*time.Second, buf.Duration())
	}
}

func TestSimulationAssembleNoDialogueAudio(t *testing.T) {
	cfg := testConfig(t)
	sim := &models.Simulation{ID: 6, Title: "Brouillon", Language: "fr"}

	simRepo := &fakeSimulationRepo{
		getByID: func(_ context.Context, _ int) (*models.Simulation, error) { return sim, nil },
		setFinalAudio: func(_ context.Context, _ int, _ string) error {
			t.Fatal("final_audio should not be written when nothing assembles")
			return nil
		},
	}
	dialogueRepo := &fakeDialogueRepo{
		listBySimulation: func(_ context.Context, _ int) ([]models.Dialogue, error) {
			return []models.Dialogue{{ID: 1, Title: "Sans audio"}}, nil
		},
	}
	speech := &fakeSpeech{
		synthesize: func(_ context.Context, _, _ string) ([]byte, error) { return []byte("mp3"), nil },
	}

	svc := NewSimulationAudioService(simRepo, dialogueRepo, speech, newFakeCodec(), cfg)
	_, err := svc.Assemble(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNoDialogueAudio)
}

func TestSimulationAssembleAllSegmentsFail(t *testing.T) {
	cfg := testConfig(t)
	sim := &models.Simulation{ID: 8, Title: "Cassé", Language: "fr"}
	dialogues := []models.Dialogue{
		{ID: 1, Title: "Seul", DisplayOrder: 1, CompleteAudio: "dialogues/complete/dialogue_1_Seul.mp3"},
	}

	simRepo := &fakeSimulationRepo{
		getByID: func(_ context.Context, _ int) (*models.Simulation, error) { return sim, nil },
	}
	dialogueRepo := &fakeDialogueRepo{
		listBySimulation: func(_ context.Context, _ int) ([]models.Dialogue, error) { return dialogues, nil },
	}
	speech := &fakeSpeech{
		synthesize: func(_ context.Context, _, _ string) ([]byte, error) {
			return nil, fmt.Errorf("backend unavailable")
		},
	}

	svc := NewSimulationAudioService(simRepo, dialogueRepo, speech, newFakeCodec(), cfg)
	_, err := svc.Assemble(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNoDialogueAudio)

	// Temp dir is removed on the failure path too.
	entries, readErr := os.ReadDir(cfg.Audio.TempPath)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
