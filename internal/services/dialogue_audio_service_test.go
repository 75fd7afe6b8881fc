package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/parlons-app/parlons/internal/audio"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Audio: config.AudioConfig{
			MediaPath: t.TempDir(),
			TempPath:  t.TempDir(),
		},
		TTS: config.TTSConfig{DefaultLanguage: "fr"},
	}
}

func newDialogueAssembler(dialogueRepo *fakeDialogueRepo, lineRepo *fakeLineRepo, resolver *fakeResolver, codec *fakeCodec, cfg *config.Config, seed int64) *DialogueAudioService {
	return NewDialogueAudioService(dialogueRepo, lineRepo, resolver, codec, cfg, rand.New(rand.NewSource(seed)))
}

// recordedLines builds a resolver and codec where the given line IDs have
// stored recordings that decode to buffers of the given duration.
func recordedLines(cfg *config.Config, seconds float64, lineIDs ...int) (*fakeResolver, *fakeCodec) {
	recorded := make(map[int]string, len(lineIDs))
	codec := newFakeCodec()
	for _, id := range lineIDs {
		relPath := fmt.Sprintf("dialogues/recordings/recording_%d.mp3", id)
		recorded[id] = relPath
		codec.buffers[utils.GetMediaPath(cfg, relPath)] = pcmSeconds(seconds)
	}
	resolver := &fakeResolver{
		lookup: func(_ context.Context, lineID int) (*models.Recording, error) {
			relPath, ok := recorded[lineID]
			if !ok {
				return nil, fmt.Errorf("%w: line %d", ErrNotVoiced, lineID)
			}
			return &models.Recording{LineID: lineID, AudioFile: relPath}, nil
		},
	}
	return resolver, codec
}

func TestDialogueAssembleGapBounds(t *testing.T) {
	cfg := testConfig(t)
	dialogue := &models.Dialogue{ID: 7, SimulationID: 1, Title: "Au marché"}
	lines := []models.Line{
		{ID: 1, DialogueID: 7, DisplayOrder: 1},
		{ID: 2, DialogueID: 7, DisplayOrder: 2},
		{ID: 3, DialogueID: 7, DisplayOrder: 3},
	}

	dialogueRepo := &fakeDialogueRepo{
		getByID: func(_ context.Context, _ int) (*models.Dialogue, error) { return dialogue, nil },
		setCompleteAudio: func(_ context.Context, _ int, _ string) error { return nil },
	}
	lineRepo := &fakeLineRepo{
		listByDialogue: func(_ context.Context, _ int) ([]models.Line, error) { return lines, nil },
	}
	resolver, codec := recordedLines(cfg, 1.0, 1, 2, 3)

	svc := newDialogueAssembler(dialogueRepo, lineRepo, resolver, codec, cfg, 42)
	relPath, err := svc.Assemble(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "dialogues/complete/dialogue_7_Au marché.mp3", relPath)

	require.Len(t, codec.encoded, 1)
	var combined *audio.Buffer
	for _, buf := range codec.encoded {
		combined = buf
	}

	// Three 1s segments plus three gaps, each gap in [500ms, 1000ms],
	// trailing gap included.
	total := combined.Duration()
	assert.GreaterOrEqual(t, total, 3*time.Second+3*GapMin)
	assert.LessOrEqual(t, total, 3*time.Second+3*GapMax)
}

func TestDialogueAssembleSeededReproducibility(t *testing.T) {
	durations := make([]time.Duration, 2)
	for run := 0; run < 2; run++ {
		cfg := testConfig(t)
		dialogue := &models.Dialogue{ID: 3, SimulationID: 1, Title: "Salut"}
		lines := []models.Line{{ID: 1}, {ID: 2}}

		dialogueRepo := &fakeDialogueRepo{
			getByID: func(_ context.Context, _ int) (*models.Dialogue, error) { return dialogue, nil },
			setCompleteAudio: func(_ context.Context, _ int, _ string) error { return nil },
		}
		lineRepo := &fakeLineRepo{
			listByDialogue: func(_ context.Context, _ int) ([]models.Line, error) { return lines, nil },
		}
		resolver, codec := recordedLines(cfg, 0.5, 1, 2)

		svc := newDialogueAssembler(dialogueRepo, lineRepo, resolver, codec, cfg, 1234)
		_, err := svc.Assemble(context.Background(), 3)
		require.NoError(t, err)

		for _, buf := range codec.encoded {
			durations[run] = buf.Duration()
		}
	}

	assert.Equal(t, durations[0], durations[1], "same seed should draw the same gaps")
}

func TestDialogueAssembleSkipsFailedLines(t *testing.T) {
	cfg := testConfig(t)
	dialogue := &models.Dialogue{ID: 9, SimulationID: 1, Title: "Bonjour"}
	lines := []models.Line{
		{ID: 1, Text: "Bonjour"}, // unvoiced
		{ID: 2, Text: "Ça va"},   // recorded
		{ID: 3, Text: "Bien"},    // recording row exists, file missing
	}

	var savedPath string
	dialogueRepo := &fakeDialogueRepo{
		getByID: func(_ context.Context, _ int) (*models.Dialogue, error) { return dialogue, nil },
		setCompleteAudio: func(_ context.Context, _ int, relativePath string) error {
			savedPath = relativePath
			return nil
		},
	}
	lineRepo := &fakeLineRepo{
		listByDialogue: func(_ context.Context, _ int) ([]models.Line, error) { return lines, nil },
	}
	resolver, codec := recordedLines(cfg, 2.0, 2)
	inner := resolver.lookup
	resolver.lookup = func(ctx context.Context, lineID int) (*models.Recording, error) {
		if lineID == 3 {
			return &models.Recording{LineID: 3, AudioFile: "dialogues/recordings/recording_3.mp3"}, nil
		}
		return inner(ctx, lineID)
	}

	svc := newDialogueAssembler(dialogueRepo, lineRepo, resolver, codec, cfg, 7)
	relPath, err := svc.Assemble(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, relPath, savedPath)

	// Exactly one voiced segment with one trailing gap.
	for _, buf := range codec.encoded {
		assert.GreaterOrEqual(t, buf.Duration(), 2*time.Second+GapMin)
		assert.LessOrEqual(t, buf.Duration(), 2*time.Second+GapMax)
	}
}

func TestDialogueAssembleNoRecordings(t *testing.T) {
	cfg := testConfig(t)
	dialogue := &models.Dialogue{ID: 5, SimulationID: 1, Title: "Vide"}

	dialogueRepo := &fakeDialogueRepo{
		getByID: func(_ context.Context, _ int) (*models.Dialogue, error) { return dialogue, nil },
		setCompleteAudio: func(_ context.Context, _ int, _ string) error {
			t.Fatal("complete_audio should not be written when nothing assembles")
			return nil
		},
	}
	lineRepo := &fakeLineRepo{
		listByDialogue: func(_ context.Context, _ int) ([]models.Line, error) {
			return []models.Line{{ID: 1}, {ID: 2}}, nil
		},
	}
	resolver, codec := recordedLines(cfg, 1.0)

	svc := newDialogueAssembler(dialogueRepo, lineRepo, resolver, codec, cfg, 7)
	_, err := svc.Assemble(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoRecordings)
	assert.Empty(t, codec.encoded)
}

func TestDialogueAssembleNeverSynthesizes(t *testing.T) {
	cfg := testConfig(t)
	dialogue := &models.Dialogue{ID: 6, SimulationID: 1, Title: "Accueil"}
	lines := []models.Line{
		{ID: 1, Text: "Bienvenue", IsSystem: true}, // system, no recording yet
		{ID: 2, Text: "Bonjour"},
	}

	dialogueRepo := &fakeDialogueRepo{
		getByID: func(_ context.Context, _ int) (*models.Dialogue, error) { return dialogue, nil },
		setCompleteAudio: func(_ context.Context, _ int, _ string) error { return nil },
	}
	lineRepo := &fakeLineRepo{
		listByDialogue: func(_ context.Context, _ int) ([]models.Line, error) { return lines, nil },
	}
	resolver, codec := recordedLines(cfg, 1.0, 2)
	resolver.synthesizeAndStore = func(_ context.Context, line *models.Line, _ string) (string, error) {
		t.Fatalf("assembly must not synthesize audio for line %d", line.ID)
		return "", nil
	}

	svc := newDialogueAssembler(dialogueRepo, lineRepo, resolver, codec, cfg, 7)
	relPath, err := svc.Assemble(context.Background(), 6)
	require.NoError(t, err)
	assert.NotEmpty(t, relPath)

	// Only the recorded human line contributes audio.
	for _, buf := range codec.encoded {
		assert.GreaterOrEqual(t, buf.Duration(), time.Second+GapMin)
		assert.LessOrEqual(t, buf.Duration(), time.Second+GapMax)
	}
}
