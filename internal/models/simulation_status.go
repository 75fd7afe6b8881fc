package models

// SimulationStatus represents the lifecycle state of a simulation
type SimulationStatus string

const (
	SimulationStatusPending    SimulationStatus = "pending"
	SimulationStatusInProgress SimulationStatus = "in_progress"
	SimulationStatusCompleted  SimulationStatus = "completed"
)

// IsValid checks if the status is a valid value
func (s SimulationStatus) IsValid() bool {
	switch s {
	case SimulationStatusPending, SimulationStatusInProgress, SimulationStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation
func (s SimulationStatus) String() string {
	return string(s)
}

// DifficultyLevel represents the difficulty rating of a dialogue
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// IsValid checks if the difficulty is a valid value
func (d DifficultyLevel) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// String returns the string representation
func (d DifficultyLevel) String() string {
	return string(d)
}
