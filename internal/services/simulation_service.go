package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
)

// SimulationService handles simulation CRUD and the practice lifecycle
// (pending -> in_progress -> completed).
type SimulationService struct {
	txManager      repository.TxManager
	simulationRepo repository.SimulationRepository
	dialogueRepo   repository.DialogueRepository
	config         *config.Config
}

// NewSimulationService creates a new simulation service instance.
func NewSimulationService(
	txManager repository.TxManager,
	simulationRepo repository.SimulationRepository,
	dialogueRepo repository.DialogueRepository,
	config *config.Config,
) *SimulationService {
	return &SimulationService{
		txManager:      txManager,
		simulationRepo: simulationRepo,
		dialogueRepo:   dialogueRepo,
		config:         config,
	}
}

// Stats holds the counts shown on the home screen.
type Stats struct {
	Simulations  int64 `json:"simulations"`
	Dialogues    int64 `json:"dialogues"`
	Participants int64 `json:"participants"`
	Completed    int64 `json:"completed"`
}

// Create creates a new simulation in pending status. An empty language
// falls back to the configured synthesis default.
func (s *SimulationService) Create(ctx context.Context, title, language string) (*models.Simulation, error) {
	if language == "" {
		language = s.config.TTS.DefaultLanguage
	}
	simulation, err := s.simulationRepo.Create(ctx, title, language)
	if err != nil {
		return nil, MapRepoError("create simulation", err)
	}
	return simulation, nil
}

// GetByID retrieves a simulation without its dialogues.
func (s *SimulationService) GetByID(ctx context.Context, id int) (*models.Simulation, error) {
	simulation, err := s.simulationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, MapRepoErrorWithContext("get simulation", err, fmt.Sprintf("simulation %d", id))
	}
	return simulation, nil
}

// GetWithDialogues retrieves a simulation with its dialogues in display order.
func (s *SimulationService) GetWithDialogues(ctx context.Context, id int) (*models.Simulation, error) {
	simulation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dialogues, err := s.dialogueRepo.ListBySimulation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list dialogues: %v", ErrDatabaseError, err)
	}
	simulation.Dialogues = dialogues
	return simulation, nil
}

// List returns a page of simulations, newest first, with the total count.
func (s *SimulationService) List(ctx context.Context, limit, offset int) ([]models.Simulation, int64, error) {
	simulations, total, err := s.simulationRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list simulations: %v", ErrDatabaseError, err)
	}
	return simulations, total, nil
}

// Update changes a simulation's title and/or language.
func (s *SimulationService) Update(ctx context.Context, id int, updates *repository.SimulationUpdate) error {
	return MapRepoErrorWithContext("update simulation", s.simulationRepo.Update(ctx, id, updates), fmt.Sprintf("simulation %d", id))
}

// Delete removes a simulation and, through the schema, its dialogues,
// lines and recordings.
func (s *SimulationService) Delete(ctx context.Context, id int) error {
	return MapRepoErrorWithContext("delete simulation", s.simulationRepo.Delete(ctx, id), fmt.Sprintf("simulation %d", id))
}

// Run starts a pending simulation: status moves to in_progress and the
// progress pointer lands on the first dialogue, line 1.
func (s *SimulationService) Run(ctx context.Context, id int) (*models.Simulation, error) {
	first, err := s.dialogueRepo.FirstBySimulation(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: simulation %d has no dialogues", ErrInvalidInput, id)
		}
		return nil, fmt.Errorf("%w: failed to find first dialogue: %v", ErrDatabaseError, err)
	}

	if err := s.simulationRepo.Start(ctx, id, first.ID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			// Either the simulation does not exist or it already left
			// pending; distinguish the two for the caller.
			if _, getErr := s.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: simulation %d is not pending", ErrInvalidInput, id)
		}
		return nil, fmt.Errorf("%w: failed to start simulation %d: %v", ErrDatabaseError, id, err)
	}

	return s.GetByID(ctx, id)
}

// NextDialogue advances an in-progress simulation to the dialogue after
// the current one. When no dialogue remains the simulation is completed.
// Returns the simulation as it stands after the move.
func (s *SimulationService) NextDialogue(ctx context.Context, id int) (*models.Simulation, error) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		simulation, err := s.simulationRepo.GetByID(txCtx, id)
		if err != nil {
			return MapRepoErrorWithContext("advance simulation", err, fmt.Sprintf("simulation %d", id))
		}
		if simulation.Status != string(models.SimulationStatusInProgress) {
			return fmt.Errorf("%w: simulation %d is not in progress", ErrInvalidInput, id)
		}
		if simulation.CurrentDialogueID == nil {
			return fmt.Errorf("%w: simulation %d has no current dialogue", ErrInvalidInput, id)
		}

		current, err := s.dialogueRepo.GetByID(txCtx, *simulation.CurrentDialogueID)
		if err != nil {
			return MapRepoError("advance simulation", err)
		}

		next, err := s.dialogueRepo.NextBySimulation(txCtx, id, current.DisplayOrder)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Last dialogue finished.
				return s.complete(txCtx, id)
			}
			return fmt.Errorf("%w: failed to find next dialogue: %v", ErrDatabaseError, err)
		}

		if err := s.simulationRepo.SetCurrentDialogue(txCtx, id, &next.ID); err != nil {
			return fmt.Errorf("%w: failed to advance simulation %d: %v", ErrDatabaseError, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Complete marks a simulation as completed regardless of progress.
func (s *SimulationService) Complete(ctx context.Context, id int) (*models.Simulation, error) {
	if err := s.complete(ctx, id); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *SimulationService) complete(ctx context.Context, id int) error {
	if err := s.simulationRepo.Complete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			if _, getErr := s.GetByID(ctx, id); getErr != nil {
				return getErr
			}
			return fmt.Errorf("%w: simulation %d is already completed", ErrInvalidInput, id)
		}
		return fmt.Errorf("%w: failed to complete simulation %d: %v", ErrDatabaseError, id, err)
	}
	return nil
}

// SetCurrentLine records the 1-based line position within the current dialogue.
func (s *SimulationService) SetCurrentLine(ctx context.Context, id, line int) error {
	if line < 1 {
		return fmt.Errorf("%w: line position must be positive", ErrInvalidInput)
	}
	exists, err := s.simulationRepo.Exists(ctx, id)
	if err != nil {
		return WrapDBError("check simulation", err)
	}
	if !exists {
		return fmt.Errorf("%w: simulation %d", ErrNotFound, id)
	}
	return MapRepoErrorWithContext("set current line", s.simulationRepo.SetCurrentLine(ctx, id, line), fmt.Sprintf("simulation %d", id))
}

// GetStats returns the entity counts for the home screen.
func (s *SimulationService) GetStats(ctx context.Context) (*Stats, error) {
	db := s.txManager.DB()
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM simulations", &stats.Simulations},
		{"SELECT COUNT(*) FROM dialogues", &stats.Dialogues},
		{"SELECT COUNT(*) FROM participants", &stats.Participants},
	}
	for _, c := range counts {
		if err := db.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, fmt.Errorf("%w: failed to compute stats: %v", ErrDatabaseError, err)
		}
	}

	completed, err := s.simulationRepo.CountByStatus(ctx, models.SimulationStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compute stats: %v", ErrDatabaseError, err)
	}
	stats.Completed = completed

	return stats, nil
}

// DB returns the underlying database handle for list queries.
func (s *SimulationService) DB() *sqlx.DB {
	return s.txManager.DB()
}
