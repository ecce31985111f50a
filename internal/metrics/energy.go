package metrics

import (
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/physics"
)

// Energy reports the total kinetic plus potential energy of the last
// observed state in joules.
type Energy struct {
	name  string
	model *physics.ShallowWater
	value float64
}

func NewEnergy(model *physics.ShallowWater) *Energy {
	return &Energy{name: "energy", model: model}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s *dynamo.State) {
	ke, pe := e.model.Energy(s)
	e.value = ke + pe
}

func (e *Energy) Value() float64 { return e.value }

func (e *Energy) Reset() { e.value = 0 }

// Kinetic reports only the kinetic part, which starts at zero for every run
// and shows how quickly the forcing spins the basin up.
type Kinetic struct {
	name  string
	model *physics.ShallowWater
	value float64
}

func NewKinetic(model *physics.ShallowWater) *Kinetic {
	return &Kinetic{name: "kinetic_energy", model: model}
}

func (k *Kinetic) Name() string { return k.name }

func (k *Kinetic) Observe(s *dynamo.State) {
	k.value, _ = k.model.Energy(s)
}

func (k *Kinetic) Value() float64 { return k.value }

func (k *Kinetic) Reset() { k.value = 0 }
