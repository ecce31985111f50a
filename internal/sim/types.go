package sim

import (
	"github.com/san-kum/oceansim/internal/dynamo"
)

// Phase is the engine lifecycle state.
type Phase int

const (
	Initialized Phase = iota
	Stepping
	Completed
	Diverged
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Initialized:
		return "initialized"
	case Stepping:
		return "stepping"
	case Completed:
		return "completed"
	case Diverged:
		return "diverged"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type Config struct {
	Dt    float64
	Steps int

	// CourantLimit bounds the gravity-wave Courant number checked before
	// stepping.
	CourantLimit float64

	// MaxElevation and MaxSpeed bound the candidate state; zero disables the
	// bound but non-finite values are always rejected.
	MaxElevation float64
	MaxSpeed     float64

	// RecordEvery keeps a snapshot every N steps; zero keeps none.
	RecordEvery int

	// OutputStep selects the snapshot handed to the renderer; negative means
	// the final state.
	OutputStep int

	Workers int
}

type Result struct {
	Phase      Phase
	StepsTaken int
	Time       float64

	Final     *dynamo.State
	Output    *dynamo.State
	Snapshots []*dynamo.State

	// Times and Series hold one entry per committed state, starting at step 0.
	Times   []float64
	Series  map[string][]float64
	Metrics map[string]float64
}
