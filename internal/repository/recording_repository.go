package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/parlons-app/parlons/internal/models"
)

// RecordingRepository defines the interface for line recording data access.
// Each line has at most one recording; storing a new one replaces the old.
type RecordingRepository interface {
	Upsert(ctx context.Context, lineID int, audioFile string) error
	GetByLine(ctx context.Context, lineID int) (*models.Recording, error)
	Delete(ctx context.Context, lineID int) error
	ExistsForLine(ctx context.Context, lineID int) (bool, error)

	// DB returns the underlying database connection
	DB() *sqlx.DB
}

// recordingRepository implements RecordingRepository.
type recordingRepository struct {
	*BaseRepository[models.Recording]
}

// NewRecordingRepository creates a new recording repository.
func NewRecordingRepository(db *sqlx.DB) RecordingRepository {
	return &recordingRepository{
		BaseRepository: NewBaseRepository[models.Recording](db, "line_recordings"),
	}
}

// Upsert stores the recording path for a line, replacing any existing one.
func (r *recordingRepository) Upsert(ctx context.Context, lineID int, audioFile string) error {
	q := r.getQueryable(ctx)

	_, err := q.ExecContext(ctx, `
        INSERT INTO line_recordings (line_id, audio_file)
        VALUES (?, ?)
        ON DUPLICATE KEY UPDATE audio_file = VALUES(audio_file), recorded_at = NOW()`,
		lineID, audioFile)
	return ParseDBError(err)
}

// GetByLine retrieves the recording for a line, or ErrNotFound if the line
// has not been voiced.
func (r *recordingRepository) GetByLine(ctx context.Context, lineID int) (*models.Recording, error) {
	q := r.getQueryable(ctx)

	var recording models.Recording
	err := q.GetContext(ctx, &recording,
		"SELECT * FROM line_recordings WHERE line_id = ?", lineID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, ParseDBError(err)
	}

	return &recording, nil
}

// Delete removes a line's recording.
func (r *recordingRepository) Delete(ctx context.Context, lineID int) error {
	q := r.getQueryable(ctx)

	result, err := q.ExecContext(ctx,
		"DELETE FROM line_recordings WHERE line_id = ?", lineID)
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

// ExistsForLine reports whether the line has a recording.
func (r *recordingRepository) ExistsForLine(ctx context.Context, lineID int) (bool, error) {
	return r.ExistsBy(ctx, "line_id = ?", lineID)
}
