package metrics

import (
	"math"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/physics"
)

// Volume reports the elevation anomaly volume sum(eta*A) in m³.
type Volume struct {
	name  string
	mesh  *mesh.Mesh
	value float64
}

func NewVolume(m *mesh.Mesh) *Volume {
	return &Volume{name: "volume", mesh: m}
}

func (v *Volume) Name() string { return v.name }

func (v *Volume) Observe(s *dynamo.State) {
	v.value = physics.Volume(v.mesh, s)
}

func (v *Volume) Value() float64 { return v.value }

func (v *Volume) Reset() { v.value = 0 }

// VolumeDrift reports the largest absolute departure from the first observed
// volume. It stays at round-off level in closed basins; open boundaries
// exchange volume with the outside.
type VolumeDrift struct {
	name     string
	mesh     *mesh.Mesh
	initial  float64
	maxDrift float64
	samples  int
}

func NewVolumeDrift(m *mesh.Mesh) *VolumeDrift {
	return &VolumeDrift{name: "volume_drift", mesh: m}
}

func (v *VolumeDrift) Name() string { return v.name }

func (v *VolumeDrift) Observe(s *dynamo.State) {
	vol := physics.Volume(v.mesh, s)
	if v.samples == 0 {
		v.initial = vol
	}
	v.samples++
	v.maxDrift = math.Max(v.maxDrift, math.Abs(vol-v.initial))
}

func (v *VolumeDrift) Value() float64 { return v.maxDrift }

func (v *VolumeDrift) Reset() {
	v.initial = 0
	v.maxDrift = 0
	v.samples = 0
}
