package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/parlons-app/parlons/internal/models"
)

// ParticipantRepository defines the interface for participant data access.
type ParticipantRepository interface {
	// CRUD operations
	Create(ctx context.Context, userID int, speakerName string, isSystem bool) (*models.Participant, error)
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	Delete(ctx context.Context, id int) error

	// Query operations
	Exists(ctx context.Context, id int) (bool, error)
	ListByUser(ctx context.Context, userID int) ([]models.Participant, error)
	GetByName(ctx context.Context, userID int, speakerName string) (*models.Participant, error)
	HasLines(ctx context.Context, id int) (bool, error)
	ListByDialogue(ctx context.Context, dialogueID int) ([]models.Participant, error)

	// DB returns the underlying database handle for raw queries
	DB() *sqlx.DB
}

// participantRepository implements ParticipantRepository.
type participantRepository struct {
	*BaseRepository[models.Participant]
}

// NewParticipantRepository creates a new participant repository.
func NewParticipantRepository(db *sqlx.DB) ParticipantRepository {
	return &participantRepository{
		BaseRepository: NewBaseRepository[models.Participant](db, "participants"),
	}
}

// Create inserts a new participant and returns the created record.
func (r *participantRepository) Create(ctx context.Context, userID int, speakerName string, isSystem bool) (*models.Participant, error) {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx,
		"INSERT INTO participants (user_id, speaker_name, is_system) VALUES (?, ?, ?)",
		userID, speakerName, isSystem,
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

// GetByID retrieves a participant by its ID.
func (r *participantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	q := r.getQueryable(ctx)

	var participant models.Participant
	err := q.GetContext(ctx, &participant, "SELECT * FROM participants WHERE id = ?", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}

	return &participant, nil
}

// Exists checks if a participant with the given ID exists.
func (r *participantRepository) Exists(ctx context.Context, id int) (bool, error) {
	return r.BaseRepository.Exists(ctx, int64(id))
}

// Delete removes a participant by ID.
func (r *participantRepository) Delete(ctx context.Context, id int) error {
	return r.BaseRepository.Delete(ctx, int64(id))
}

// ListByUser returns all participants owned by a user, ordered by name.
func (r *participantRepository) ListByUser(ctx context.Context, userID int) ([]models.Participant, error) {
	q := r.getQueryable(ctx)

	participants := []models.Participant{}
	err := q.SelectContext(ctx, &participants,
		"SELECT * FROM participants WHERE user_id = ? ORDER BY speaker_name ASC", userID)
	if err != nil {
		return nil, ParseDBError(err)
	}

	return participants, nil
}

// GetByName retrieves a user's participant by speaker name.
func (r *participantRepository) GetByName(ctx context.Context, userID int, speakerName string) (*models.Participant, error) {
	q := r.getQueryable(ctx)

	var participant models.Participant
	err := q.GetContext(ctx, &participant,
		"SELECT * FROM participants WHERE user_id = ? AND speaker_name = ?", userID, speakerName)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}

	return &participant, nil
}

// HasLines reports whether any dialogue lines reference the participant.
func (r *participantRepository) HasLines(ctx context.Context, id int) (bool, error) {
	q := r.getQueryable(ctx)

	var exists bool
	err := q.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM dialogue_lines WHERE participant_id = ?)", id)
	if err != nil {
		return false, ParseDBError(err)
	}

	return exists, nil
}

// ListByDialogue returns the participants attached to a dialogue.
func (r *participantRepository) ListByDialogue(ctx context.Context, dialogueID int) ([]models.Participant, error) {
	q := r.getQueryable(ctx)

	participants := []models.Participant{}
	err := q.SelectContext(ctx, &participants, `
        SELECT p.*
        FROM participants p
        JOIN dialogue_participants dp ON dp.participant_id = p.id
        WHERE dp.dialogue_id = ?
        ORDER BY p.speaker_name ASC`, dialogueID)
	if err != nil {
		return nil, ParseDBError(err)
	}

	return participants, nil
}
