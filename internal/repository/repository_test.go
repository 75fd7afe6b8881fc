package repository

// Compile-time checks that each concrete repository satisfies its interface.
// The base repository works with int64 keys, so every concrete type must
// provide the int-typed wrappers its interface declares instead of relying
// on the promoted methods.
var (
	_ UserRepository        = (*userRepository)(nil)
	_ ParticipantRepository = (*participantRepository)(nil)
	_ SimulationRepository  = (*simulationRepository)(nil)
	_ DialogueRepository    = (*dialogueRepository)(nil)
	_ LineRepository        = (*lineRepository)(nil)
	_ RecordingRepository   = (*recordingRepository)(nil)
)
