package dynamo

import (
	"math"
)

// Field holds one value per mesh cell in row-major order (row 0 is the
// southernmost row).
type Field []float64

func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

func (f Field) IsValid() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest magnitude in the field and its index, or -1
// for an empty field.
func (f Field) MaxAbs() (float64, int) {
	best, at := 0.0, -1
	for i, v := range f {
		if a := math.Abs(v); a > best || at < 0 {
			best, at = a, i
		}
	}
	return best, at
}

// State is the ocean state at one instant. U lives on each cell's east face
// and V on its north face, so all three fields have one entry per cell.
type State struct {
	Eta  Field
	U    Field
	V    Field
	Time float64
	Step int
}

func NewState(n int) *State {
	return &State{
		Eta: make(Field, n),
		U:   make(Field, n),
		V:   make(Field, n),
	}
}

func (s *State) Len() int {
	return len(s.Eta)
}

func (s *State) Clone() *State {
	return &State{
		Eta:  s.Eta.Clone(),
		U:    s.U.Clone(),
		V:    s.V.Clone(),
		Time: s.Time,
		Step: s.Step,
	}
}

func (s *State) IsValid() bool {
	return s.Eta.IsValid() && s.U.IsValid() && s.V.IsValid()
}

// Metric is a scalar diagnostic updated after every committed step.
type Metric interface {
	Name() string
	Observe(s *State)
	Value() float64
	Reset()
}

// Observer is notified after every committed step. Implementations must not
// retain s; it is reused by the engine.
type Observer interface {
	OnStep(s *State)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(s *State)

func (f ObserverFunc) OnStep(s *State) { f(s) }
