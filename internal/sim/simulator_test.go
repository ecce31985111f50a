package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/oceansim/internal/bathymetry"
	"github.com/san-kum/oceansim/internal/dynamo"
	"github.com/san-kum/oceansim/internal/mesh"
	"github.com/san-kum/oceansim/internal/physics"
	"github.com/san-kum/oceansim/internal/sim"
)

type volumeMetric struct {
	m *mesh.Mesh
	v float64
}

func (vm *volumeMetric) Name() string             { return "volume" }
func (vm *volumeMetric) Observe(s *dynamo.State) { vm.v = physics.Volume(vm.m, s) }
func (vm *volumeMetric) Value() float64           { return vm.v }
func (vm *volumeMetric) Reset()                   { vm.v = 0 }

func flatMesh(n int, depth float64) *mesh.Mesh {
	g, err := bathymetry.Uniform(n, n, depth, 1000)
	Expect(err).NotTo(HaveOccurred())
	m, err := mesh.Build(g, mesh.Options{})
	Expect(err).NotTo(HaveOccurred())
	return m
}

func borderedMesh(n int, depth float64) *mesh.Mesh {
	rows := make([][]float64, n)
	for j := range rows {
		rows[j] = make([]float64, n)
		for i := range rows[j] {
			if i > 0 && j > 0 && i < n-1 && j < n-1 {
				rows[j][i] = depth
			}
		}
	}
	g, err := bathymetry.FromRows(rows, 1000, "bordered")
	Expect(err).NotTo(HaveOccurred())
	m, err := mesh.Build(g, mesh.Options{})
	Expect(err).NotTo(HaveOccurred())
	return m
}

func impulse(m *mesh.Mesh, amplitude float64) *dynamo.State {
	s := dynamo.NewState(m.Cells())
	Expect(physics.Initial{Kind: physics.Impulse, Amplitude: amplitude, I: -1, J: -1}.Apply(m, s)).To(Succeed())
	return s
}

func baseConfig(w *physics.ShallowWater, courant float64, steps int) sim.Config {
	return sim.Config{
		Dt:           w.MaxStableDt(courant),
		Steps:        steps,
		CourantLimit: 0.9,
		MaxElevation: 50,
		MaxSpeed:     20,
		OutputStep:   -1,
		Workers:      3,
	}
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("on a flat 10x10 basin at rest", func() {
		It("keeps the rest state unchanged", func() {
			m := flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
			s := sim.New(w)

			res, err := s.Run(ctx, dynamo.NewState(m.Cells()), baseConfig(w, 0.5, 5))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Phase).To(Equal(sim.Completed))
			Expect(s.Phase()).To(Equal(sim.Completed))
			Expect(res.StepsTaken).To(Equal(5))

			for c := 0; c < m.Cells(); c++ {
				Expect(res.Final.Eta[c]).To(BeZero())
				Expect(res.Final.U[c]).To(BeZero())
				Expect(res.Final.V[c]).To(BeZero())
			}
		})
	})

	Context("with a center impulse", func() {
		var (
			m   *mesh.Mesh
			res *sim.Result
		)

		BeforeEach(func() {
			m = flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)

			var err error
			res, err = sim.New(w).Run(ctx, impulse(m, 1), baseConfig(w, 0.5, 3))
			Expect(err).NotTo(HaveOccurred())
		})

		It("spreads outward from the center", func() {
			eta := res.Final.Eta
			Expect(eta[m.Index(5, 5)]).To(BeNumerically("<", 1))
			for _, c := range []int{m.Index(6, 5), m.Index(4, 5), m.Index(5, 6), m.Index(5, 4)} {
				Expect(eta[c]).NotTo(BeZero())
			}
		})

		It("stays symmetric about the center", func() {
			eta := res.Final.Eta
			for k := 1; k <= 3; k++ {
				east, west := eta[m.Index(5+k, 5)], eta[m.Index(5-k, 5)]
				north, south := eta[m.Index(5, 5+k)], eta[m.Index(5, 5-k)]

				Expect(north).To(Equal(east))
				Expect(west).To(BeNumerically("~", east, 1e-12))
				Expect(south).To(BeNumerically("~", north, 1e-12))
			}
		})
	})

	Context("with a one-cell land border", func() {
		It("keeps velocity on land exactly zero at every step", func() {
			m := borderedMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), physics.Wind{StressX: 0.3, StressY: -0.1})
			s := sim.New(w)

			checked := 0
			s.AddObserver(dynamo.ObserverFunc(func(st *dynamo.State) {
				for c := 0; c < m.Cells(); c++ {
					if !m.Wet(c) {
						Expect(st.U[c]).To(BeZero())
						Expect(st.V[c]).To(BeZero())
					}
				}
				checked++
			}))

			_, err := s.Run(ctx, impulse(m, 1), baseConfig(w, 0.5, 60))
			Expect(err).NotTo(HaveOccurred())
			Expect(checked).To(Equal(61))
		})

		It("conserves volume in the closed basin", func() {
			m := borderedMesh(12, 80)
			w := physics.NewShallowWater(m, physics.DefaultParams(), physics.Wind{StressX: 0.2})
			s := sim.New(w)
			s.AddMetric(&volumeMetric{m: m})

			x0 := impulse(m, 2)
			v0 := physics.Volume(m, x0)

			res, err := s.Run(ctx, x0, baseConfig(w, 0.5, 400))
			Expect(err).NotTo(HaveOccurred())

			series := res.Series["volume"]
			Expect(series).To(HaveLen(401))
			for _, v := range series {
				Expect(v).To(BeNumerically("~", v0, 1e-9*v0))
			}
		})
	})

	Context("validation", func() {
		It("rejects a Courant-violating dt before any step", func() {
			m := flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
			s := sim.New(w)

			stepped := false
			s.AddObserver(dynamo.ObserverFunc(func(*dynamo.State) { stepped = true }))

			cfg := baseConfig(w, 0.5, 10)
			cfg.Dt = w.MaxStableDt(2)

			res, err := s.Run(ctx, impulse(m, 1), cfg)
			Expect(res).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidConfiguration)).To(BeTrue())

			var cfgErr *dynamo.InvalidConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("time.dt"))
			Expect(stepped).To(BeFalse())
			Expect(s.Phase()).To(Equal(sim.Initialized))
		})

		DescribeTable("static checks",
			func(mutate func(*sim.Config), field string) {
				m := flatMesh(10, 100)
				w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
				cfg := baseConfig(w, 0.5, 10)
				mutate(&cfg)

				_, err := sim.New(w).Run(ctx, dynamo.NewState(m.Cells()), cfg)
				var cfgErr *dynamo.InvalidConfigurationError
				Expect(errors.As(err, &cfgErr)).To(BeTrue())
				Expect(cfgErr.Field).To(Equal(field))
			},
			Entry("zero dt", func(c *sim.Config) { c.Dt = 0 }, "time.dt"),
			Entry("negative dt", func(c *sim.Config) { c.Dt = -1 }, "time.dt"),
			Entry("no steps", func(c *sim.Config) { c.Steps = 0 }, "time.steps"),
			Entry("output past end", func(c *sim.Config) { c.OutputStep = 11 }, "output.step"),
		)

		It("rejects a state sized for another mesh", func() {
			m := flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)

			_, err := sim.New(w).Run(ctx, dynamo.NewState(5), baseConfig(w, 0.5, 1))
			Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
		})

		It("rejects a non-finite initial state", func() {
			m := flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
			x0 := dynamo.NewState(m.Cells())
			x0.U[m.Index(5, 5)] = math.Inf(1)

			res, err := sim.New(w).Run(ctx, x0, baseConfig(w, 0.5, 1))
			Expect(res).To(BeNil())
			Expect(errors.Is(err, dynamo.ErrInvalidConfiguration)).To(BeTrue())

			var cfgErr *dynamo.InvalidConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Field).To(Equal("initial"))
		})
	})

	Context("divergence", func() {
		It("stops before committing a state past the elevation bound", func() {
			m := flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
			cfg := baseConfig(w, 0.1, 10)
			cfg.MaxElevation = 0.5

			res, err := sim.New(w).Run(ctx, impulse(m, 1), cfg)

			var inst *dynamo.NumericalInstabilityError
			Expect(errors.As(err, &inst)).To(BeTrue())
			Expect(inst.LastStableStep).To(Equal(0))
			Expect(inst.Field).To(Equal("eta"))
			Expect(res.Phase).To(Equal(sim.Diverged))
			Expect(res.Final).To(BeNil())
			Expect(res.Output).To(BeNil())
		})

		It("detects runaway growth from an unstable dt", func() {
			m := flatMesh(10, 100)
			p := physics.DefaultParams()
			p.QuadraticDrag, p.OpenRelaxation = 0, 0
			w := physics.NewShallowWater(m, p, nil)

			cfg := baseConfig(w, 2.5, 500)
			cfg.CourantLimit = 5
			cfg.MaxElevation, cfg.MaxSpeed = 0, 0

			res, err := sim.New(w).Run(ctx, impulse(m, 1), cfg)

			var inst *dynamo.NumericalInstabilityError
			Expect(errors.As(err, &inst)).To(BeTrue())
			Expect(inst.LastStableStep).To(BeNumerically(">=", 1))
			Expect(inst.LastStableStep).To(BeNumerically("<", 500))
			Expect(res.StepsTaken).To(Equal(inst.LastStableStep))
			Expect(res.Phase).To(Equal(sim.Diverged))
		})
	})

	Context("cancellation", func() {
		It("aborts between steps", func() {
			m := flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
			s := sim.New(w)

			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			s.AddObserver(dynamo.ObserverFunc(func(st *dynamo.State) {
				if st.Step == 3 {
					cancel()
				}
			}))

			res, err := s.Run(cctx, impulse(m, 1), baseConfig(w, 0.5, 100))
			Expect(errors.Is(err, dynamo.ErrAborted)).To(BeTrue())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(res.Phase).To(Equal(sim.Aborted))
			Expect(res.StepsTaken).To(Equal(3))
			Expect(res.Output).To(BeNil())
		})
	})

	Context("recording", func() {
		It("keeps snapshots, the requested output and per-step series", func() {
			m := flatMesh(10, 100)
			w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
			s := sim.New(w)
			s.AddMetric(&volumeMetric{m: m})

			cfg := baseConfig(w, 0.5, 6)
			cfg.RecordEvery = 2
			cfg.OutputStep = 3

			res, err := s.Run(ctx, impulse(m, 1), cfg)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Snapshots).To(HaveLen(4))
			Expect(res.Snapshots[1].Step).To(Equal(2))
			Expect(res.Output.Step).To(Equal(3))
			Expect(res.Final.Step).To(Equal(6))
			Expect(res.Times).To(HaveLen(7))
			Expect(res.Series["volume"]).To(HaveLen(7))
			Expect(res.Metrics).To(HaveKey("volume"))
		})

		It("produces identical states for any worker count", func() {
			m := borderedMesh(16, 60)
			run := func(workers int) *dynamo.State {
				w := physics.NewShallowWater(m, physics.DefaultParams(), physics.Wind{StressY: 0.1})
				cfg := baseConfig(w, 0.5, 80)
				cfg.Workers = workers
				res, err := sim.New(w).Run(ctx, impulse(m, 1), cfg)
				Expect(err).NotTo(HaveOccurred())
				return res.Final
			}

			a, b := run(1), run(5)
			Expect(b.Eta).To(Equal(a.Eta))
			Expect(b.U).To(Equal(a.U))
			Expect(b.V).To(Equal(a.V))
		})
	})
})
