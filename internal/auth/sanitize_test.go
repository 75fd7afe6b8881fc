package auth

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailToUsernameBase(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{
			name:     "simple email",
			email:    "claire@parlons.app",
			expected: "claire",
		},
		{
			name:     "email with dots",
			email:    "marie.dubois@example.com",
			expected: "marie_dubois",
		},
		{
			name:     "email with numbers",
			email:    "learner42@test.org",
			expected: "learner42",
		},
		{
			name:     "plus alias",
			email:    "tutor+french@domain.com",
			expected: "tutor_french",
		},
		{
			name:     "short local part gets domain appended",
			email:    "jo@parlons.app",
			expected: "jo_parlons",
		},
	}

	validPattern := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := emailToUsernameBase(tt.email)
			assert.Equal(t, tt.expected, result)
			assert.Regexp(t, validPattern, result)
		})
	}
}

func TestEmailToUsernameBaseTruncation(t *testing.T) {
	long := strings.Repeat("a", 150) + "@example.com"
	result := emailToUsernameBase(long)
	assert.Len(t, result, 100)
}
