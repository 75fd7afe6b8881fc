package utils

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/parlons-app/parlons/internal/models"
)

// InitializeValidators registers custom validation rules with Gin's binding engine.
// Must be called during application startup to enable custom validation tags.
// Panics if validator registration fails, as this is a critical configuration error.
func InitializeValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Register notblank validator - ensures string is not empty or whitespace-only
		if err := v.RegisterValidation("notblank", notBlankValidator); err != nil {
			panic(fmt.Sprintf("Failed to register notblank validator: %v", err))
		}

		// Register dialogue difficulty validator
		if err := v.RegisterValidation("difficulty_level", difficultyLevelValidator); err != nil {
			panic(fmt.Sprintf("Failed to register difficulty_level validator: %v", err))
		}
	}
}

// notBlankValidator validates that a string field is not empty or whitespace-only.
// More strict than the standard required validator which allows whitespace.
func notBlankValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return strings.TrimSpace(value) != ""
}

// difficultyLevelValidator restricts dialogue difficulty to: beginner, intermediate, advanced.
func difficultyLevelValidator(fl validator.FieldLevel) bool {
	level := models.DifficultyLevel(fl.Field().String())
	return level.IsValid()
}
