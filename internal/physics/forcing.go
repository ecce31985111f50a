package physics

import "math"

// Forcing supplies the surface wind stress in N/m² at time t.
type Forcing interface {
	Stress(t float64) (tx, ty float64)
}

// Wind is a spatially uniform stress, ramped linearly from zero over Ramp
// seconds.
type Wind struct {
	StressX float64
	StressY float64
	Ramp    float64
}

func (w Wind) Stress(t float64) (float64, float64) {
	f := 1.0
	if w.Ramp > 0 {
		f = math.Min(1, math.Max(0, t/w.Ramp))
	}
	return f * w.StressX, f * w.StressY
}
