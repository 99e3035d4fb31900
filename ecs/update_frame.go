package ecs

// UpdateFrame is the per-frame context handed to every system.
type UpdateFrame struct {
	// Tick counts frames from 1.
	Tick      uint64
	// ElapsedMs is the time since the scheduler's epoch, in milliseconds.
	ElapsedMs float64
	// DeltaMs is ElapsedMs minus the previous frame's ElapsedMs.
	DeltaMs   float64
	Commands  *Commands
	Storage   *Storage
}
