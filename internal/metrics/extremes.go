package metrics

import (
	"math"

	"github.com/san-kum/oceansim/internal/dynamo"
)

// MaxSpeed tracks the largest face velocity seen so far in m/s.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(s *dynamo.State) {
	u, _ := s.U.MaxAbs()
	v, _ := s.V.MaxAbs()
	m.max = math.Max(m.max, math.Max(u, v))
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }

// PeakElevation reports the largest |eta| of the last observed state.
type PeakElevation struct {
	name  string
	value float64
}

func NewPeakElevation() *PeakElevation {
	return &PeakElevation{name: "peak_elevation"}
}

func (p *PeakElevation) Name() string { return p.name }

func (p *PeakElevation) Observe(s *dynamo.State) {
	p.value, _ = s.Eta.MaxAbs()
}

func (p *PeakElevation) Value() float64 { return p.value }

func (p *PeakElevation) Reset() { p.value = 0 }
