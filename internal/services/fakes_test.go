package services

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/parlons-app/parlons/internal/audio"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
)

var errNoSuchAsset = errors.New("no such file")

// Function-field fakes. The embedded interface satisfies the full
// contract; any method a test did not stub panics on a nil receiver,
// which surfaces unexpected calls immediately.

type fakeSimulationRepo struct {
	repository.SimulationRepository
	getByID            func(ctx context.Context, id int) (*models.Simulation, error)
	exists             func(ctx context.Context, id int) (bool, error)
	start              func(ctx context.Context, id, firstDialogueID int) error
	setCurrentDialogue func(ctx context.Context, id int, dialogueID *int) error
	setCurrentLine     func(ctx context.Context, id, line int) error
	complete           func(ctx context.Context, id int) error
	setFinalAudio      func(ctx context.Context, id int, relativePath string) error
}

func (f *fakeSimulationRepo) GetByID(ctx context.Context, id int) (*models.Simulation, error) {
	return f.getByID(ctx, id)
}

func (f *fakeSimulationRepo) Exists(ctx context.Context, id int) (bool, error) {
	return f.exists(ctx, id)
}

func (f *fakeSimulationRepo) Start(ctx context.Context, id, firstDialogueID int) error {
	return f.start(ctx, id, firstDialogueID)
}

func (f *fakeSimulationRepo) SetCurrentDialogue(ctx context.Context, id int, dialogueID *int) error {
	return f.setCurrentDialogue(ctx, id, dialogueID)
}

func (f *fakeSimulationRepo) SetCurrentLine(ctx context.Context, id, line int) error {
	return f.setCurrentLine(ctx, id, line)
}

func (f *fakeSimulationRepo) Complete(ctx context.Context, id int) error {
	return f.complete(ctx, id)
}

func (f *fakeSimulationRepo) SetFinalAudio(ctx context.Context, id int, relativePath string) error {
	return f.setFinalAudio(ctx, id, relativePath)
}

type fakeDialogueRepo struct {
	repository.DialogueRepository
	getByID          func(ctx context.Context, id int) (*models.Dialogue, error)
	exists           func(ctx context.Context, id int) (bool, error)
	listBySimulation func(ctx context.Context, simulationID int) ([]models.Dialogue, error)
	nextBySimulation func(ctx context.Context, simulationID, afterOrder int) (*models.Dialogue, error)
	setCompleteAudio func(ctx context.Context, id int, relativePath string) error
}

func (f *fakeDialogueRepo) GetByID(ctx context.Context, id int) (*models.Dialogue, error) {
	return f.getByID(ctx, id)
}

func (f *fakeDialogueRepo) Exists(ctx context.Context, id int) (bool, error) {
	return f.exists(ctx, id)
}

func (f *fakeDialogueRepo) ListBySimulation(ctx context.Context, simulationID int) ([]models.Dialogue, error) {
	return f.listBySimulation(ctx, simulationID)
}

func (f *fakeDialogueRepo) NextBySimulation(ctx context.Context, simulationID, afterOrder int) (*models.Dialogue, error) {
	return f.nextBySimulation(ctx, simulationID, afterOrder)
}

func (f *fakeDialogueRepo) FirstBySimulation(ctx context.Context, simulationID int) (*models.Dialogue, error) {
	return f.nextBySimulation(ctx, simulationID, 0)
}

func (f *fakeDialogueRepo) SetCompleteAudio(ctx context.Context, id int, relativePath string) error {
	return f.setCompleteAudio(ctx, id, relativePath)
}

type fakeLineRepo struct {
	repository.LineRepository
	getByID         func(ctx context.Context, id int) (*models.Line, error)
	exists          func(ctx context.Context, id int) (bool, error)
	listByDialogue  func(ctx context.Context, dialogueID int) ([]models.Line, error)
	countByDialogue func(ctx context.Context, dialogueID int) (int, error)
}

func (f *fakeLineRepo) GetByID(ctx context.Context, id int) (*models.Line, error) {
	return f.getByID(ctx, id)
}

func (f *fakeLineRepo) Exists(ctx context.Context, id int) (bool, error) {
	return f.exists(ctx, id)
}

func (f *fakeLineRepo) ListByDialogue(ctx context.Context, dialogueID int) ([]models.Line, error) {
	return f.listByDialogue(ctx, dialogueID)
}

func (f *fakeLineRepo) CountByDialogue(ctx context.Context, dialogueID int) (int, error) {
	return f.countByDialogue(ctx, dialogueID)
}

// fakeRecordingRepo is a stateful in-memory recording store.
type fakeRecordingRepo struct {
	repository.RecordingRepository
	recordings map[int]string
}

func newFakeRecordingRepo() *fakeRecordingRepo {
	return &fakeRecordingRepo{recordings: make(map[int]string)}
}

func (f *fakeRecordingRepo) Upsert(_ context.Context, lineID int, audioFile string) error {
	f.recordings[lineID] = audioFile
	return nil
}

func (f *fakeRecordingRepo) GetByLine(_ context.Context, lineID int) (*models.Recording, error) {
	audioFile, ok := f.recordings[lineID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Recording{LineID: lineID, AudioFile: audioFile}, nil
}

func (f *fakeRecordingRepo) ExistsForLine(_ context.Context, lineID int) (bool, error) {
	_, ok := f.recordings[lineID]
	return ok, nil
}

type fakeResolver struct {
	lookup             func(ctx context.Context, lineID int) (*models.Recording, error)
	synthesizeAndStore func(ctx context.Context, line *models.Line, language string) (string, error)
}

func (f *fakeResolver) Lookup(ctx context.Context, lineID int) (*models.Recording, error) {
	return f.lookup(ctx, lineID)
}

func (f *fakeResolver) SynthesizeAndStore(ctx context.Context, line *models.Line, language string) (string, error) {
	return f.synthesizeAndStore(ctx, line, language)
}

// fakeCodec is an in-memory AudioCodec. Decode maps paths to canned
// buffers; Encode captures the combined buffer instead of running FFmpeg.
type fakeCodec struct {
	buffers map[string]*audio.Buffer
	decoded []string
	encoded map[string]*audio.Buffer
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		buffers: make(map[string]*audio.Buffer),
		encoded: make(map[string]*audio.Buffer),
	}
}

func (f *fakeCodec) Decode(_ context.Context, inputPath string) (*audio.Buffer, error) {
	buf, ok := f.buffers[inputPath]
	if !ok {
		return nil, audio.NewDecodeError(inputPath, "", errNoSuchAsset)
	}
	f.decoded = append(f.decoded, inputPath)
	return buf, nil
}

func (f *fakeCodec) Encode(_ context.Context, buf *audio.Buffer, outputPath string) error {
	f.encoded[outputPath] = buf
	return nil
}

func (f *fakeCodec) NormalizeRecording(_ context.Context, inputPath, outputPath string) error {
	buf, ok := f.buffers[inputPath]
	if !ok {
		return audio.NewDecodeError(inputPath, "", errNoSuchAsset)
	}
	f.encoded[outputPath] = buf
	return nil
}

func (f *fakeCodec) GetDuration(_ context.Context, filePath string) (float64, error) {
	buf, ok := f.buffers[filePath]
	if !ok {
		return 0, audio.NewProbeError(filePath, "", errNoSuchAsset)
	}
	return buf.Duration().Seconds(), nil
}

type fakeSpeech struct {
	synthesize func(ctx context.Context, text, language string) ([]byte, error)
	calls      int
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	f.calls++
	return f.synthesize(ctx, text, language)
}

func (f *fakeSpeech) DefaultLanguage() string { return "fr" }

// fakeTxManager runs the function directly without a database.
type fakeTxManager struct{}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTxManager) DB() *sqlx.DB { return nil }

// pcmSeconds builds a pipeline-format buffer of the given duration.
func pcmSeconds(seconds float64) *audio.Buffer {
	format := audio.FormatPipelinePCM
	frames := int(seconds * float64(format.SampleRate))
	return &audio.Buffer{
		Format: format,
		PCM:    make([]byte, frames*format.FrameSize()),
	}
}
