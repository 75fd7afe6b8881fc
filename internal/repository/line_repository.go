package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/parlons-app/parlons/internal/models"
)

// LineRepository defines the interface for dialogue line data access.
type LineRepository interface {
	// CRUD operations
	Create(ctx context.Context, dialogueID, participantID int, text string) (*models.Line, error)
	GetByID(ctx context.Context, id int) (*models.Line, error)
	Delete(ctx context.Context, id int) error

	// Query operations
	Exists(ctx context.Context, id int) (bool, error)
	ListByDialogue(ctx context.Context, dialogueID int) ([]models.Line, error)
	CountByDialogue(ctx context.Context, dialogueID int) (int, error)

	// DB returns the underlying database handle for raw queries
	DB() *sqlx.DB
}

// lineRepository implements LineRepository.
type lineRepository struct {
	*BaseRepository[models.Line]
}

// NewLineRepository creates a new line repository.
func NewLineRepository(db *sqlx.DB) LineRepository {
	return &lineRepository{
		BaseRepository: NewBaseRepository[models.Line](db, "dialogue_lines"),
	}
}

// Create inserts a new line at the end of the dialogue's ordering.
// The display order is assigned as max(existing)+1 within the dialogue.
func (r *lineRepository) Create(ctx context.Context, dialogueID, participantID int, text string) (*models.Line, error) {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx, `
        INSERT INTO dialogue_lines (dialogue_id, participant_id, display_order, text)
        SELECT ?, ?, COALESCE(MAX(display_order), 0) + 1, ?
        FROM dialogue_lines WHERE dialogue_id = ?`,
		dialogueID, participantID, text, dialogueID)
	if err != nil {
		return nil, ParseDBError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return r.GetByID(ctx, int(id))
}

// GetByID retrieves a line with its speaker information.
func (r *lineRepository) GetByID(ctx context.Context, id int) (*models.Line, error) {
	q := r.getQueryable(ctx)

	var line models.Line
	err := q.GetContext(ctx, &line, `
        SELECT l.*, p.speaker_name, p.is_system
        FROM dialogue_lines l
        JOIN participants p ON l.participant_id = p.id
        WHERE l.id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}

	return &line, nil
}

// Exists checks if a line with the given ID exists.
func (r *lineRepository) Exists(ctx context.Context, id int) (bool, error) {
	return r.BaseRepository.Exists(ctx, int64(id))
}

// Delete removes a line by ID.
func (r *lineRepository) Delete(ctx context.Context, id int) error {
	return r.BaseRepository.Delete(ctx, int64(id))
}

// ListByDialogue returns the dialogue's lines in display order with speaker
// information joined in.
func (r *lineRepository) ListByDialogue(ctx context.Context, dialogueID int) ([]models.Line, error) {
	q := r.getQueryable(ctx)

	lines := []models.Line{}
	err := q.SelectContext(ctx, &lines, `
        SELECT l.*, p.speaker_name, p.is_system
        FROM dialogue_lines l
        JOIN participants p ON l.participant_id = p.id
        WHERE l.dialogue_id = ?
        ORDER BY l.display_order ASC`, dialogueID)
	if err != nil {
		return nil, ParseDBError(err)
	}

	return lines, nil
}

// CountByDialogue counts the lines in a dialogue.
func (r *lineRepository) CountByDialogue(ctx context.Context, dialogueID int) (int, error) {
	return r.CountBy(ctx, "dialogue_id = ?", dialogueID)
}
