package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/parlons-app/parlons/internal/models"
)

// DialogueUpdate contains optional fields for updating a dialogue.
// Nil pointer fields are not updated.
type DialogueUpdate struct {
	Title       *string
	Description *string
	Difficulty  *string
}

// DialogueRepository defines the interface for dialogue data access.
type DialogueRepository interface {
	// CRUD operations
	Create(ctx context.Context, simulationID int, title, description, difficulty string) (*models.Dialogue, error)
	GetByID(ctx context.Context, id int) (*models.Dialogue, error)
	Update(ctx context.Context, id int, updates *DialogueUpdate) error
	Delete(ctx context.Context, id int) error

	// Query operations
	Exists(ctx context.Context, id int) (bool, error)
	ListBySimulation(ctx context.Context, simulationID int) ([]models.Dialogue, error)
	NextBySimulation(ctx context.Context, simulationID, afterOrder int) (*models.Dialogue, error)
	FirstBySimulation(ctx context.Context, simulationID int) (*models.Dialogue, error)

	// Participant membership
	AddParticipant(ctx context.Context, dialogueID, participantID int) error
	RemoveParticipant(ctx context.Context, dialogueID, participantID int) error

	// Audio pointer
	SetCompleteAudio(ctx context.Context, id int, relativePath string) error

	// DB returns the underlying database handle for raw queries
	DB() *sqlx.DB
}

// dialogueRepository implements DialogueRepository.
type dialogueRepository struct {
	*BaseRepository[models.Dialogue]
}

// NewDialogueRepository creates a new dialogue repository.
func NewDialogueRepository(db *sqlx.DB) DialogueRepository {
	return &dialogueRepository{
		BaseRepository: NewBaseRepository[models.Dialogue](db, "dialogues"),
	}
}

// Create inserts a new dialogue at the end of the simulation's ordering.
// The display order is assigned as max(existing)+1 within the simulation.
func (r *dialogueRepository) Create(ctx context.Context, simulationID int, title, description, difficulty string) (*models.Dialogue, error) {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx, `
        INSERT INTO dialogues (simulation_id, title, description, difficulty_level, display_order)
        SELECT ?, ?, ?, ?, COALESCE(MAX(display_order), 0) + 1
        FROM dialogues WHERE simulation_id = ?`,
		simulationID, title, description, difficulty, simulationID)
	if err != nil {
		return nil, ParseDBError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, int(id))
}

// GetByID retrieves a dialogue with its simulation title.
func (r *dialogueRepository) GetByID(ctx context.Context, id int) (*models.Dialogue, error) {
	q := r.getQueryable(ctx)

	var dialogue models.Dialogue
	err := q.GetContext(ctx, &dialogue, `
        SELECT d.*, s.title AS simulation_title
        FROM dialogues d
        JOIN simulations s ON d.simulation_id = s.id
        WHERE d.id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}

	return &dialogue, nil
}

// Update updates a dialogue with the provided field values.
func (r *dialogueRepository) Update(ctx context.Context, id int, updates *DialogueUpdate) error {
	if updates == nil {
		return nil
	}

	q := r.getQueryable(ctx)

	setClauses := make([]string, 0)
	args := make([]interface{}, 0)

	addFieldUpdate(&setClauses, &args, "title", updates.Title)
	addFieldUpdate(&setClauses, &args, "description", updates.Description)
	addFieldUpdate(&setClauses, &args, "difficulty_level", updates.Difficulty)

	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE dialogues SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return ParseDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ParseDBError(err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Exists checks if a dialogue with the given ID exists.
func (r *dialogueRepository) Exists(ctx context.Context, id int) (bool, error) {
	return r.BaseRepository.Exists(ctx, int64(id))
}

// Delete removes a dialogue by ID.
func (r *dialogueRepository) Delete(ctx context.Context, id int) error {
	return r.BaseRepository.Delete(ctx, int64(id))
}

// ListBySimulation returns the simulation's dialogues in display order.
func (r *dialogueRepository) ListBySimulation(ctx context.Context, simulationID int) ([]models.Dialogue, error) {
	q := r.getQueryable(ctx)

	dialogues := []models.Dialogue{}
	err := q.SelectContext(ctx, &dialogues,
		"SELECT * FROM dialogues WHERE simulation_id = ? ORDER BY display_order ASC", simulationID)
	if err != nil {
		return nil, ParseDBError(err)
	}

	return dialogues, nil
}

// NextBySimulation returns the first dialogue ordered after the given position,
// or ErrNotFound when the simulation has no further dialogues.
func (r *dialogueRepository) NextBySimulation(ctx context.Context, simulationID, afterOrder int) (*models.Dialogue, error) {
	q := r.getQueryable(ctx)

	var dialogue models.Dialogue
	err := q.GetContext(ctx, &dialogue, `
        SELECT * FROM dialogues
        WHERE simulation_id = ? AND display_order > ?
        ORDER BY display_order ASC LIMIT 1`, simulationID, afterOrder)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}

	return &dialogue, nil
}

// FirstBySimulation returns the simulation's first dialogue by display order.
func (r *dialogueRepository) FirstBySimulation(ctx context.Context, simulationID int) (*models.Dialogue, error) {
	return r.NextBySimulation(ctx, simulationID, 0)
}

// AddParticipant attaches a participant to the dialogue. Adding an already
// attached participant is a no-op.
func (r *dialogueRepository) AddParticipant(ctx context.Context, dialogueID, participantID int) error {
	q := r.getQueryable(ctx)

	_, err := q.ExecContext(ctx,
		"INSERT IGNORE INTO dialogue_participants (dialogue_id, participant_id) VALUES (?, ?)",
		dialogueID, participantID)
	return ParseDBError(err)
}

// RemoveParticipant detaches a participant from the dialogue.
func (r *dialogueRepository) RemoveParticipant(ctx context.Context, dialogueID, participantID int) error {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx,
		"DELETE FROM dialogue_participants WHERE dialogue_id = ? AND participant_id = ?",
		dialogueID, participantID)
	if err != nil {
		return ParseDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ParseDBError(err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetCompleteAudio stores the relative path of the assembled dialogue audio.
// The driver reports changed rows, so rewriting an unchanged path affects
// zero rows; that is not an error.
func (r *dialogueRepository) SetCompleteAudio(ctx context.Context, id int, relativePath string) error {
	q := r.getQueryable(ctx)

	_, err := q.ExecContext(ctx,
		"UPDATE dialogues SET complete_audio = ? WHERE id = ?", relativePath, id)
	if err != nil {
		return ParseDBError(err)
	}

	return nil
}
