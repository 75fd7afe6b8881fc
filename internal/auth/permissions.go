package auth

// Resource represents a protected resource type
type Resource string

const (
	ResourceParticipants Resource = "participants"
	ResourceSimulations  Resource = "simulations"
	ResourceDialogues    Resource = "dialogues"
	ResourceLines        Resource = "lines"
	ResourceRecordings   Resource = "recordings"
	ResourceUsers        Resource = "users"
)

// Action represents an operation on a resource
type Action string

const (
	ActionRead     Action = "read"
	ActionWrite    Action = "write"
	ActionGenerate Action = "generate"
)
