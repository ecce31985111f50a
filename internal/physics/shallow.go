package physics

import (
	"math"

	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
)

type Params struct {
	Gravity        float64 `yaml:"gravity" json:"gravity"`
	LinearDrag     float64 `yaml:"linear_drag" json:"linear_drag"`
	QuadraticDrag  float64 `yaml:"quadratic_drag" json:"quadratic_drag"`
	OpenRelaxation float64 `yaml:"open_relaxation" json:"open_relaxation"`
	WaterDensity   float64 `yaml:"water_density" json:"water_density"`
}

func DefaultParams() Params {
	return Params{
		Gravity:        9.81,
		LinearDrag:     0,
		QuadraticDrag:  0.0025,
		OpenRelaxation: 0.05,
		WaterDensity:   1025,
	}
}

// ShallowWater is the per-step kernel. It holds no state between steps.
type ShallowWater struct {
	mesh    *mesh.Mesh
	params  Params
	forcing Forcing
	workers int
}

func NewShallowWater(m *mesh.Mesh, p Params, f Forcing) *ShallowWater {
	if f == nil {
		f = Wind{}
	}
	return &ShallowWater{mesh: m, params: p, forcing: f}
}

func (w *ShallowWater) Mesh() *mesh.Mesh { return w.mesh }
func (w *ShallowWater) Params() Params   { return w.params }

// SetWorkers sets the number of row partitions per step; n <= 0 uses one
// per CPU. Results do not depend on n.
func (w *ShallowWater) SetWorkers(n int) { w.workers = n }

// Courant returns the largest gravity-wave Courant number over wet cells for
// the given dt and the cell where it occurs.
func (w *ShallowWater) Courant(dt float64) (float64, int) {
	m := w.mesh
	worst, at := 0.0, -1
	for c := range m.Class {
		if !m.Wet(c) {
			continue
		}
		cr := dt * w.waveFactor(c)
		if cr > worst {
			worst, at = cr, c
		}
	}
	return worst, at
}

// MaxStableDt returns the largest dt whose Courant number stays at limit.
func (w *ShallowWater) MaxStableDt(limit float64) float64 {
	m := w.mesh
	best := math.Inf(1)
	for c := range m.Class {
		if !m.Wet(c) {
			continue
		}
		if f := w.waveFactor(c); f > 0 {
			best = math.Min(best, limit/f)
		}
	}
	return best
}

func (w *ShallowWater) waveFactor(c int) float64 {
	m := w.mesh
	speed := math.Sqrt(w.params.Gravity * m.Depth[c])
	return speed * math.Sqrt(1/(m.Dx[c]*m.Dx[c])+1/(m.Dy[c]*m.Dy[c]))
}

// Step reads cur and writes next. Both states must be sized for the mesh
// and must not alias.
func (w *ShallowWater) Step(cur, next *dynamo.State, dt float64) {
	m := w.mesh
	tx, ty := w.forcing.Stress(cur.Time)

	dynamo.ParallelFor(m.Ny, w.workers, func(j0, j1 int) {
		for j := j0; j < j1; j++ {
			w.momentumRow(j, cur, next, dt, tx, ty)
		}
	})

	dynamo.ParallelFor(m.Ny, w.workers, func(j0, j1 int) {
		for j := j0; j < j1; j++ {
			w.continuityRow(j, cur, next, dt)
		}
	})

	next.Time = cur.Time + dt
	next.Step = cur.Step + 1
}

func (w *ShallowWater) momentumRow(j int, cur, next *dynamo.State, dt, tx, ty float64) {
	m, p := w.mesh, w.params
	nx := m.Nx

	for i := 0; i < nx; i++ {
		c := j*nx + i

		if m.EastOpen[c] {
			h := m.EastDepth[c]
			u := cur.U[c]
			vbar := (cur.V[c] + cur.V[c+1] + w.v(cur, i, j-1) + w.v(cur, i+1, j-1)) / 4
			speed := math.Sqrt(u*u + vbar*vbar)

			grad := (cur.Eta[c+1] - cur.Eta[c]) / m.EastDist[c]
			star := u - dt*p.Gravity*grad + dt*tx/(p.WaterDensity*h)
			next.U[c] = star / (1 + dt*(p.LinearDrag+p.QuadraticDrag*speed/h))
		} else {
			next.U[c] = 0
		}

		if m.NorthOpen[c] {
			h := m.NorthDepth[c]
			v := cur.V[c]
			ubar := (cur.U[c] + cur.U[c+nx] + w.u(cur, i-1, j) + w.u(cur, i-1, j+1)) / 4
			speed := math.Sqrt(v*v + ubar*ubar)

			grad := (cur.Eta[c+nx] - cur.Eta[c]) / m.NorthDist[c]
			star := v - dt*p.Gravity*grad + dt*ty/(p.WaterDensity*h)
			next.V[c] = star / (1 + dt*(p.LinearDrag+p.QuadraticDrag*speed/h))
		} else {
			next.V[c] = 0
		}
	}
}

// u and v read a face velocity, treating faces outside the domain as zero.
func (w *ShallowWater) u(s *dynamo.State, i, j int) float64 {
	if i < 0 || j < 0 || j >= w.mesh.Ny {
		return 0
	}
	return s.U[j*w.mesh.Nx+i]
}

func (w *ShallowWater) v(s *dynamo.State, i, j int) float64 {
	if j < 0 || i >= w.mesh.Nx {
		return 0
	}
	return s.V[j*w.mesh.Nx+i]
}

func (w *ShallowWater) continuityRow(j int, cur, next *dynamo.State, dt float64) {
	m := w.mesh
	nx := m.Nx
	keep := 1 - w.params.OpenRelaxation

	for i := 0; i < nx; i++ {
		c := j*nx + i
		if m.Class[c] == mesh.Land {
			next.Eta[c] = 0
			continue
		}

		fe := next.U[c] * m.EastDepth[c] * m.EastLen[c]
		fn := next.V[c] * m.NorthDepth[c] * m.NorthLen[c]
		fw, fs := 0.0, 0.0
		if i > 0 {
			fw = next.U[c-1] * m.EastDepth[c-1] * m.EastLen[c-1]
		}
		if j > 0 {
			fs = next.V[c-nx] * m.NorthDepth[c-nx] * m.NorthLen[c-nx]
		}

		eta := cur.Eta[c] - dt/m.Area[c]*((fe-fw)+(fn-fs))
		if m.Class[c] == mesh.OpenBoundary {
			eta *= keep
		}
		next.Eta[c] = eta
	}
}
