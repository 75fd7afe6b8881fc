package utils

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// GetIDParam extracts and validates ID parameter
func GetIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID parameter"})
		return 0, false
	}
	return id, true
}

// GetQueryIntParam extracts and validates a required positive integer query parameter
func GetQueryIntParam(c *gin.Context, name string) (int, bool) {
	val, err := strconv.Atoi(c.Query(name))
	if err != nil || val <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s parameter", name)})
		return 0, false
	}
	return val, true
}

// GetPagination extracts limit and offset from query parameters
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = 20 // default
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}
	return
}

// DecodeBase64Audio decodes a base64 audio payload, accepting both bare
// base64 and data URIs (data:audio/webm;base64,...) as sent by browsers.
func DecodeBase64Audio(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio data")
	}
	return data, nil
}

// UserCreateRequest represents the request structure for creating users
type UserCreateRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=100,alphanum"`
	FullName string  `json:"full_name" binding:"required,min=1,max=255"`
	Password string  `json:"password" binding:"required,min=8,max=128"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Role     string  `json:"role" binding:"required,oneof=admin editor viewer"`
	Metadata string  `json:"metadata" binding:"omitempty,json"`
}

// UserUpdateRequest represents the request structure for updating users
type UserUpdateRequest struct {
	Username string  `json:"username" binding:"omitempty,min=3,max=100,alphanum"`
	FullName string  `json:"full_name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Role     string  `json:"role" binding:"omitempty,oneof=admin editor viewer"`
	Metadata string  `json:"metadata" binding:"omitempty,json"`
}

// BindAndValidate handles JSON binding with developer-friendly error messages
func BindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		errorDetails := formatValidationErrors(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": errorDetails,
		})
		return false
	}
	return true
}

// formatValidationErrors converts validation errors to developer-friendly messages
func formatValidationErrors(err error) []string {
	var errors []string

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			switch tag {
			case "required":
				errors = append(errors, fmt.Sprintf("%s is required", field))
			case "min":
				if param == "1" {
					errors = append(errors, fmt.Sprintf("%s cannot be empty", field))
				} else {
					errors = append(errors, fmt.Sprintf("%s must be at least %s characters", field, param))
				}
			case "max":
				errors = append(errors, fmt.Sprintf("%s cannot exceed %s characters", field, param))
			case "email":
				errors = append(errors, fmt.Sprintf("%s must be a valid email address", field))
			case "gte":
				errors = append(errors, fmt.Sprintf("%s must be at least %s", field, param))
			case "lte":
				errors = append(errors, fmt.Sprintf("%s must be at most %s", field, param))
			case "oneof":
				errors = append(errors, fmt.Sprintf("%s must be one of: %s", field, param))
			case "alphanum":
				errors = append(errors, fmt.Sprintf("%s can only contain letters and numbers", field))
			case "json":
				errors = append(errors, fmt.Sprintf("%s must be valid JSON", field))
			case "notblank":
				errors = append(errors, fmt.Sprintf("%s cannot be blank", field))
			case "difficulty_level":
				errors = append(errors, fmt.Sprintf("%s must be beginner, intermediate or advanced", field))
			default:
				errors = append(errors, fmt.Sprintf("%s failed validation (%s)", field, tag))
			}
		}
	} else {
		errors = append(errors, "Invalid JSON format")
	}

	return errors
}
