// Package models contains the data models for the Parlons API.
package models

import (
	"time"
)

// Participant represents a speaker that can be reused across dialogues.
// System participants have their lines voiced by speech synthesis.
type Participant struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	SpeakerName string    `db:"speaker_name" json:"speaker_name"`
	IsSystem    bool      `db:"is_system" json:"is_system"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Simulation represents a practice session built from ordered dialogues.
type Simulation struct {
	ID     int    `db:"id" json:"id"`
	Title  string `db:"title" json:"title"`
	Status string `db:"status" json:"status"` // pending, in_progress, completed
	// CurrentDialogueID tracks the dialogue being practiced while the
	// simulation is in progress
	CurrentDialogueID *int `db:"current_dialogue_id" json:"current_dialogue_id"`
	// CurrentLine is the 1-based position within the current dialogue
	CurrentLine int        `db:"current_line" json:"current_line"`
	FinalAudio  string     `db:"final_audio" json:"final_audio"`
	Language    string     `db:"language" json:"language"` // synthesis language code
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	// Relations (filled by joins or separate queries)
	Dialogues []Dialogue `db:"-" json:"dialogues,omitempty"`

	// Computed fields
	AudioURL *string `json:"audio_url,omitempty"`
}

// Dialogue represents a conversation template within a simulation.
type Dialogue struct {
	ID           int    `db:"id" json:"id"`
	SimulationID int    `db:"simulation_id" json:"simulation_id"`
	Title        string `db:"title" json:"title"`
	Description  string `db:"description" json:"description"`
	Difficulty   string `db:"difficulty_level" json:"difficulty_level"` // beginner, intermediate, advanced
	// DisplayOrder is the 1-based position within the simulation,
	// unique per simulation
	DisplayOrder  int       `db:"display_order" json:"order"`
	CompleteAudio string    `db:"complete_audio" json:"complete_audio"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// Relations (filled by joins or separate queries)
	SimulationTitle string        `db:"simulation_title" json:"simulation_title,omitempty"`
	Lines           []Line        `db:"-" json:"lines,omitempty"`
	Participants    []Participant `db:"-" json:"participants,omitempty"`

	// Computed fields
	LineCount int     `db:"-" json:"line_count"`
	AudioURL  *string `json:"audio_url,omitempty"`
}

// Line represents an individual speech line within a dialogue.
type Line struct {
	ID            int    `db:"id" json:"id"`
	DialogueID    int    `db:"dialogue_id" json:"dialogue_id"`
	ParticipantID int    `db:"participant_id" json:"participant_id"`
	DisplayOrder  int    `db:"display_order" json:"order"`
	Text          string `db:"text" json:"text"`

	// Relations (filled by joins)
	SpeakerName string `db:"speaker_name" json:"speaker_name,omitempty"`
	IsSystem    bool   `db:"is_system" json:"is_system"`

	// Computed fields
	HasRecording bool    `db:"-" json:"has_recording"`
	AudioURL     *string `json:"audio_url,omitempty"`
}

// Recording represents the audio recording for a line (at most one per line).
type Recording struct {
	LineID     int       `db:"line_id" json:"line_id"`
	AudioFile  string    `db:"audio_file" json:"audio_file"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`

	// DurationSeconds is probed from the stored file when serving
	// recording metadata; nil when probing fails.
	DurationSeconds *float64 `db:"-" json:"duration_seconds,omitempty"`
}

// User represents a system user for authentication and access control
type User struct {
	ID                  int        `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	FullName            string     `db:"full_name" json:"full_name"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Email               *string    `db:"email" json:"email"`
	Role                string     `db:"role" json:"role"` // admin, editor, viewer
	SuspendedAt         *time.Time `db:"suspended_at" json:"suspended_at,omitempty"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"last_login_at"`
	LoginCount          int        `db:"login_count" json:"login_count"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"locked_until,omitempty"`
	PasswordChangedAt   time.Time  `db:"password_changed_at" json:"password_changed_at"`
	Metadata            *string    `db:"metadata" json:"metadata"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// UserSession represents an active user session
type UserSession struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Role constants define the access levels within the system.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)
