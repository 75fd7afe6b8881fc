package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles user account management for the admin surface.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service instance.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateUserRequest represents the parameters for updating a user.
// Zero values mean "leave unchanged".
type UpdateUserRequest struct {
	Username  string
	FullName  string
	Email     *string
	Password  string
	Role      string
	Suspended *bool
}

// Create creates a new user account with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, username, fullName, email, password, role string) (*models.User, error) {
	const op = "UserService.Create"

	if !isValidRole(role) {
		return nil, fmt.Errorf("%s: %w: invalid role '%s'", op, ErrInvalidInput, role)
	}

	if err := s.checkUsernameUnique(ctx, username, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if email != "" {
		if err := s.checkEmailUnique(ctx, email, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	// Empty email is stored as NULL.
	var emailValue *string
	if email != "" {
		emailValue = &email
	}

	user, err := s.userRepo.Create(ctx, username, fullName, emailValue, string(hashedPassword), role)
	if err != nil {
		return nil, MapRepoError(op, err)
	}

	return user, nil
}

// Update updates an existing user's information.
func (s *UserService) Update(ctx context.Context, id int, req *UpdateUserRequest) error {
	const op = "UserService.Update"

	if _, err := s.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	updates := &repository.UserUpdate{}
	touched := false

	if req.Username != "" {
		if err := s.checkUsernameUnique(ctx, req.Username, &id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		updates.Username = &req.Username
		touched = true
	}

	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("%s: failed to hash password: %w", op, err)
		}
		hash := string(hashedPassword)
		updates.PasswordHash = &hash
		touched = true
	}

	if req.Email != nil && *req.Email != "" {
		if err := s.checkEmailUnique(ctx, *req.Email, &id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		updates.Email = &req.Email
		touched = true
	}

	if req.Role != "" {
		if !isValidRole(req.Role) {
			return fmt.Errorf("%s: %w: invalid role '%s'", op, ErrInvalidInput, req.Role)
		}
		updates.Role = &req.Role
		touched = true
	}

	if req.FullName != "" {
		updates.FullName = &req.FullName
		touched = true
	}

	if !touched && req.Suspended == nil {
		return fmt.Errorf("%s: %w: no fields to update", op, ErrInvalidInput)
	}

	if touched {
		if err := s.userRepo.Update(ctx, id, updates); err != nil {
			return MapRepoError(op, err)
		}
	}

	if req.Suspended != nil {
		if err := s.userRepo.SetSuspended(ctx, id, *req.Suspended); err != nil {
			return MapRepoError(op, err)
		}
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, MapRepoErrorWithContext("UserService.GetByID", err, fmt.Sprintf("user %d", id))
	}
	return user, nil
}

// Delete removes a user account and its sessions.
// The last active admin cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id int) error {
	const op = "UserService.Delete"

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Role == models.RoleAdmin {
		adminCount, err := s.userRepo.CountActiveAdminsExcluding(ctx, id)
		if err != nil {
			return MapRepoError(op, err)
		}
		if adminCount == 0 {
			return fmt.Errorf("%s: %w: cannot delete the last admin", op, ErrInvalidInput)
		}
	}

	// Session cleanup failure is non-critical.
	_ = s.userRepo.DeleteSessions(ctx, id)

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return MapRepoError(op, err)
	}

	return nil
}

// Suspend suspends a user account.
func (s *UserService) Suspend(ctx context.Context, id int) error {
	return s.setSuspended(ctx, "UserService.Suspend", id, true)
}

// Unsuspend restores a suspended user account.
func (s *UserService) Unsuspend(ctx context.Context, id int) error {
	return s.setSuspended(ctx, "UserService.Unsuspend", id, false)
}

func (s *UserService) setSuspended(ctx context.Context, op string, id int, suspended bool) error {
	if err := s.userRepo.SetSuspended(ctx, id, suspended); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return MapRepoError(op, err)
	}
	if suspended {
		// Suspension invalidates active sessions. Cleanup failure is non-critical.
		_ = s.userRepo.DeleteSessions(ctx, id)
	}
	return nil
}

// checkUsernameUnique returns ErrDuplicate when the username is taken.
func (s *UserService) checkUsernameUnique(ctx context.Context, username string, excludeID *int) error {
	taken, err := s.userRepo.IsUsernameTaken(ctx, username, excludeID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if taken {
		return fmt.Errorf("%w: username '%s'", ErrDuplicate, username)
	}
	return nil
}

// checkEmailUnique returns ErrDuplicate when the email is taken.
func (s *UserService) checkEmailUnique(ctx context.Context, email string, excludeID *int) error {
	taken, err := s.userRepo.IsEmailTaken(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if taken {
		return fmt.Errorf("%w: email '%s'", ErrDuplicate, email)
	}
	return nil
}

// isValidRole checks if a role is valid.
func isValidRole(role string) bool {
	switch role {
	case string(models.RoleAdmin), string(models.RoleEditor), string(models.RoleViewer):
		return true
	}
	return false
}

// DB returns the underlying database for list queries.
func (s *UserService) DB() *sqlx.DB {
	return s.userRepo.DB()
}
