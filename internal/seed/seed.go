package seed

import (
	"time"
)

// Origin records how a seed entered the corpus.
type Origin string

const (
	OriginMutation Origin = "mutation"
	OriginUser     Origin = "user-provided"
	OriginRestored Origin = "restored"
)

// Metadata carries execution provenance for a seed. All fields are optional.
type Metadata struct {
	Origin       Origin        `json:"origin,omitempty"`
	CrashCount   int           `json:"crash_count,omitempty"`
	LastExecTime time.Duration `json:"last_exec_time,omitempty"`
}

// Seed is one test input together with the coverage it produced when it was
// executed against the target. The ID is derived from the input bytes, never
// assigned externally.
type Seed struct {
	ID        string    `json:"id"`
	Input     []byte    `json:"input"`
	Coverage  []uint32  `json:"coverage"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// New builds a seed for the given input, stamping it with the current time.
func New(input []byte, coverage []uint32, metadata *Metadata) *Seed {
	return &Seed{
		ID:        ContentID(input),
		Input:     input,
		Coverage:  coverage,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
