package handlers

import (
	"database/sql"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/services"
	"github.com/parlons-app/parlons/internal/utils"
)

// UserResponse represents the user data returned by the API
type UserResponse struct {
	ID                int        `json:"id" db:"id"`
	Username          string     `json:"username" db:"username"`
	FullName          string     `json:"full_name" db:"full_name"`
	Email             *string    `json:"email" db:"email"`
	Role              string     `json:"role" db:"role"`
	SuspendedAt       *time.Time `json:"suspended_at" db:"suspended_at"`
	LastLoginAt       *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginCount        int        `json:"login_count" db:"login_count"`
	PasswordChangedAt time.Time  `json:"password_changed_at" db:"password_changed_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		FullName:          u.FullName,
		Email:             u.Email,
		Role:              u.Role,
		SuspendedAt:       u.SuspendedAt,
		LastLoginAt:       u.LastLoginAt,
		LoginCount:        u.LoginCount,
		PasswordChangedAt: u.PasswordChangedAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// ListUsers returns a paginated list of users
func (h *Handlers) ListUsers(c *gin.Context) {
	limit, offset := utils.GetPagination(c)

	query := "SELECT id, username, full_name, email, role, suspended_at, last_login_at, login_count, password_changed_at, created_at, updated_at FROM users"
	countQuery := "SELECT COUNT(*) FROM users"
	args := []interface{}{}
	whereClauses := []string{}

	// Exclude suspended users by default
	if c.Query("include_suspended") != "true" {
		whereClauses = append(whereClauses, "suspended_at IS NULL")
	}

	if role := c.Query("role"); role != "" {
		whereClauses = append(whereClauses, "role = ?")
		args = append(args, role)
	}

	if len(whereClauses) > 0 {
		whereClause := " WHERE " + strings.Join(whereClauses, " AND ")
		query += whereClause
		countQuery += whereClause
	}

	total, err := utils.CountWithJoins(h.db, countQuery, args...)
	if err != nil {
		utils.ProblemInternalServer(c, "Failed to count users")
		return
	}

	query += " ORDER BY username ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var users []UserResponse
	if err := h.db.SelectContext(c.Request.Context(), &users, query, args...); err != nil {
		utils.ProblemInternalServer(c, "Failed to fetch users")
		return
	}

	utils.PaginatedResponse(c, users, total, limit, offset)
}

// GetUser returns a single user by ID
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "user")
		return
	}
	utils.Success(c, userResponse(user))
}

// CreateUser creates a new user account
func (h *Handlers) CreateUser(c *gin.Context) {
	var req utils.UserCreateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	email := ""
	if req.Email != nil {
		email = *req.Email
	}
	user, err := h.userSvc.Create(c.Request.Context(), req.Username, req.FullName, email, req.Password, req.Role)
	if err != nil {
		handleServiceError(c, err, "user")
		return
	}
	utils.CreatedWithLocation(c, int64(user.ID), "/api/v1/users", "User created successfully")
}

// UpdateUser updates an existing user's information
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req utils.UserUpdateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updates := &services.UpdateUserRequest{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
	}
	if err := h.userSvc.Update(c.Request.Context(), id, updates); err != nil {
		handleServiceError(c, err, "user")
		return
	}
	utils.NoContent(c)
}

// SuspendUser suspends a user account and invalidates its sessions
func (h *Handlers) SuspendUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	// Refuse to suspend the last active admin
	adminCount, err := utils.CountActivesExcludingID(h.db, "users", "role = 'admin' AND suspended_at IS NULL", id)
	if err != nil {
		utils.ProblemInternalServer(c, "Failed to check admin count")
		return
	}

	var userRole string
	if err := h.db.GetContext(c.Request.Context(), &userRole, "SELECT role FROM users WHERE id = ?", id); err != nil {
		if err == sql.ErrNoRows {
			utils.ProblemNotFound(c, "User")
		} else {
			utils.ProblemInternalServer(c, "Failed to fetch user")
		}
		return
	}

	if userRole == models.RoleAdmin && adminCount == 0 {
		utils.ProblemBadRequest(c, "Cannot suspend the last admin user")
		return
	}

	if err := h.userSvc.Suspend(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "user")
		return
	}
	utils.NoContent(c)
}

// RestoreUser restores a suspended user account
func (h *Handlers) RestoreUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.userSvc.Unsuspend(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "user")
		return
	}
	utils.NoContent(c)
}

// DeleteUser permanently deletes a user account
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "user")
		return
	}
	utils.NoContent(c)
}

// ChangePassword updates a user's password
func (h *Handlers) ChangePassword(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var input struct {
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.ProblemBadRequest(c, "Password must be at least 8 characters")
		return
	}

	if err := h.userSvc.Update(c.Request.Context(), id, &services.UpdateUserRequest{Password: input.Password}); err != nil {
		handleServiceError(c, err, "user")
		return
	}
	utils.NoContent(c)
}
