package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/parlons-app/parlons/internal/models"
)

// SimulationUpdate contains optional fields for updating a simulation.
// Nil pointer fields are not updated.
type SimulationUpdate struct {
	Title    *string
	Language *string
}

// SimulationRepository defines the interface for simulation data access.
type SimulationRepository interface {
	// CRUD operations
	Create(ctx context.Context, title, language string) (*models.Simulation, error)
	GetByID(ctx context.Context, id int) (*models.Simulation, error)
	Update(ctx context.Context, id int, updates *SimulationUpdate) error
	Delete(ctx context.Context, id int) error

	// Query operations
	Exists(ctx context.Context, id int) (bool, error)
	List(ctx context.Context, limit, offset int) ([]models.Simulation, int64, error)
	CountByStatus(ctx context.Context, status models.SimulationStatus) (int64, error)

	// Lifecycle operations
	Start(ctx context.Context, id, firstDialogueID int) error
	SetCurrentDialogue(ctx context.Context, id int, dialogueID *int) error
	SetCurrentLine(ctx context.Context, id, line int) error
	Complete(ctx context.Context, id int) error
	SetFinalAudio(ctx context.Context, id int, relativePath string) error

	// DB returns the underlying database handle for raw queries
	DB() *sqlx.DB
}

// simulationRepository implements SimulationRepository.
type simulationRepository struct {
	*BaseRepository[models.Simulation]
}

// NewSimulationRepository creates a new simulation repository.
func NewSimulationRepository(db *sqlx.DB) SimulationRepository {
	return &simulationRepository{
		BaseRepository: NewBaseRepository[models.Simulation](db, "simulations"),
	}
}

// Create inserts a new simulation in the pending state.
func (r *simulationRepository) Create(ctx context.Context, title, language string) (*models.Simulation, error) {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx,
		"INSERT INTO simulations (title, language) VALUES (?, ?)",
		title, language,
	)
	if err != nil {
		return nil, ParseDBError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, int(id))
}

// GetByID retrieves a simulation by its ID.
func (r *simulationRepository) GetByID(ctx context.Context, id int) (*models.Simulation, error) {
	q := r.getQueryable(ctx)

	var simulation models.Simulation
	err := q.GetContext(ctx, &simulation, "SELECT * FROM simulations WHERE id = ?", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}

	return &simulation, nil
}

// Update updates a simulation with the provided field values.
func (r *simulationRepository) Update(ctx context.Context, id int, updates *SimulationUpdate) error {
	if updates == nil {
		return nil
	}

	q := r.getQueryable(ctx)

	setClauses := make([]string, 0)
	args := make([]interface{}, 0)

	addFieldUpdate(&setClauses, &args, "title", updates.Title)
	addFieldUpdate(&setClauses, &args, "language", updates.Language)

	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE simulations SET "
	for i, clause := range setClauses {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = ?"

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

// Exists checks if a simulation with the given ID exists.
func (r *simulationRepository) Exists(ctx context.Context, id int) (bool, error) {
	return r.BaseRepository.Exists(ctx, int64(id))
}

// Delete removes a simulation by ID.
func (r *simulationRepository) Delete(ctx context.Context, id int) error {
	return r.BaseRepository.Delete(ctx, int64(id))
}

// List returns simulations ordered by creation time, newest first.
func (r *simulationRepository) List(ctx context.Context, limit, offset int) ([]models.Simulation, int64, error) {
	q := r.getQueryable(ctx)

	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	simulations := []models.Simulation{}
	err = q.SelectContext(ctx, &simulations,
		"SELECT * FROM simulations ORDER BY created_at DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, ParseDBError(err)
	}

	return simulations, total, nil
}

// CountByStatus counts simulations in the given lifecycle state.
func (r *simulationRepository) CountByStatus(ctx context.Context, status models.SimulationStatus) (int64, error) {
	q := r.getQueryable(ctx)

	var count int64
	err := q.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM simulations WHERE status = ?", status)
	if err != nil {
		return 0, ParseDBError(err)
	}

	return count, nil
}

// Start transitions a pending simulation to in_progress and points it at its
// first dialogue. Only pending simulations are affected.
func (r *simulationRepository) Start(ctx context.Context, id, firstDialogueID int) error {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx, `
        UPDATE simulations
        SET status = ?, current_dialogue_id = ?, current_line = 1
        WHERE id = ? AND status = ?`,
		models.SimulationStatusInProgress, firstDialogueID, id, models.SimulationStatusPending)
	if err != nil {
		return ParseDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ParseDBError(err)
	}
	if rowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

// SetCurrentDialogue moves the progress pointer to the given dialogue and
// resets the line position. A nil dialogueID clears the pointer.
func (r *simulationRepository) SetCurrentDialogue(ctx context.Context, id int, dialogueID *int) error {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx,
		"UPDATE simulations SET current_dialogue_id = ?, current_line = 1 WHERE id = ?",
		dialogueID, id)
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

// SetCurrentLine updates the 1-based line position within the current dialogue.
// Setting the position it already holds affects zero rows with this driver,
// so existence is checked by the caller rather than inferred from the update.
func (r *simulationRepository) SetCurrentLine(ctx context.Context, id, line int) error {
	q := r.getQueryable(ctx)

	_, err := q.ExecContext(ctx,
		"UPDATE simulations SET current_line = ? WHERE id = ?", line, id)
	if err != nil {
		return ParseDBError(err)
	}

	return nil
}

// Complete marks a simulation as completed and stamps completed_at.
// The completed_at timestamp is set if and only if the status becomes completed.
func (r *simulationRepository) Complete(ctx context.Context, id int) error {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx, `
        UPDATE simulations
        SET status = ?, current_dialogue_id = NULL, completed_at = NOW()
        WHERE id = ? AND status != ?`,
		models.SimulationStatusCompleted, id, models.SimulationStatusCompleted)
	if err != nil {
		return ParseDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ParseDBError(err)
	}
	if rowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

// SetFinalAudio stores the relative path of the assembled simulation audio.
// The driver reports changed rows, so rewriting an unchanged path affects
// zero rows; that is not an error.
func (r *simulationRepository) SetFinalAudio(ctx context.Context, id int, relativePath string) error {
	q := r.getQueryable(ctx)

	_, err := q.ExecContext(ctx,
		"UPDATE simulations SET final_audio = ? WHERE id = ?", relativePath, id)
	if err != nil {
		return ParseDBError(err)
	}

	return nil
}
