package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/forcing"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
)

func mustBuild(b *chem.Builder) *chem.Network {
	net, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	return net
}

func run(net *chem.Network, cfg sim.Config) *sim.Result {
	res, err := sim.New(nil).Run(context.Background(), net, cfg)
	Expect(err).NotTo(HaveOccurred())
	return res
}

func config(m integrators.Method, end float64, steps int) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Method = m
	cfg.End = end
	cfg.Steps = steps
	return cfg
}

var _ = Describe("Simulator", func() {
	var isomer *chem.Network

	BeforeEach(func() {
		isomer = mustBuild(chem.NewBuilder().
			AddSpecies("A", 1, chem.Free).
			AddSpecies("B", 0, chem.Free).
			AddReaction(chem.ReactionSpec{Label: "iso", Kf: 2, Kb: 1, Inputs: []string{"A"}, Outputs: []string{"B"}}))
	})

	Describe("mass conservation", func() {
		DescribeTable("keeps A+B constant",
			func(m integrators.Method) {
				res := run(isomer, config(m, 5, 500))
				_, a := res.Store.Series(0)
				_, b := res.Store.Series(1)
				for t := range a {
					Expect(a[t]+b[t]).To(BeNumerically("~", 1, 1e-6))
				}
			},
			Entry("euler", integrators.MethodEuler),
			Entry("rk4", integrators.MethodRK4),
			Entry("stiff", integrators.MethodStiff),
		)
	})

	Describe("equilibrium", func() {
		DescribeTable("relaxes to kb/(kf+kb)",
			func(m integrators.Method) {
				res := run(isomer, config(m, 20, 2000))
				Expect(res.Store.Final()[0]).To(BeNumerically("~", 1.0/3.0, 1e-4))
				Expect(res.Store.Final()[1]).To(BeNumerically("~", 2.0/3.0, 1e-4))
			},
			Entry("modified euler", integrators.MethodModifiedEuler),
			Entry("rk4", integrators.MethodRK4),
			Entry("rk45", integrators.MethodRK45),
			Entry("stiff", integrators.MethodStiff),
		)
	})

	Describe("non-negativity", func() {
		var net *chem.Network

		BeforeEach(func() {
			net = mustBuild(chem.NewBuilder().
				AddSpecies("A", 1, chem.Free).
				AddSpecies("B", 1, chem.Free).
				AddSpecies("C", 0, chem.Free).
				AddReaction(chem.ReactionSpec{Kf: 50, Inputs: []string{"A", "B"}, Outputs: []string{"C"}}))
		})

		DescribeTable("never reports a negative concentration even with coarse steps",
			func(m integrators.Method, steps int) {
				res := run(net, config(m, 2, steps))
				for i := 0; i < net.NumSpecies(); i++ {
					_, xs := res.Store.Series(i)
					for _, x := range xs {
						Expect(x).To(BeNumerically(">=", 0), "species %d", i)
					}
				}
			},
			Entry("euler", integrators.MethodEuler, 10),
			Entry("rk4", integrators.MethodRK4, 10),
			Entry("stiff", integrators.MethodStiff, 100),
		)

		It("reports non-convergence for the stiff method on the coarse grid", func() {
			_, err := sim.New(nil).Run(context.Background(), net, config(integrators.MethodStiff, 2, 10))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, integrators.ErrNonConvergence)).To(BeTrue())

			var se *sim.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Window).To(Equal(0))
		})
	})

	Describe("adaptive stepping", func() {
		It("agrees with fine fixed-step RK4", func() {
			rk4 := run(isomer, config(integrators.MethodRK4, 1, 2000))
			ad := run(isomer, config(integrators.MethodRK45Adaptive, 1, 2000))

			Expect(ad.Warnings).To(BeEmpty())
			for i := range rk4.Store.Final() {
				Expect(ad.Store.Final()[i]).To(BeNumerically("~", rk4.Store.Final()[i], 1e-4))
			}
		})

		It("records non-uniform accepted times", func() {
			ad := run(isomer, config(integrators.MethodRK45Adaptive, 1, 2000))
			tr := ad.Store.Last()
			Expect(tr.Adaptive).To(BeTrue())
			Expect(tr.Top()).To(BeNumerically("<", 2000))
			Expect(tr.Time(tr.Top())).To(BeNumerically("~", 1, 5e-6))
		})
	})

	Describe("Michaelis-Menten kinetics", func() {
		It("conserves the enzyme and converts substrate to product", func() {
			net := mustBuild(chem.NewBuilder().
				AddSpecies("E", 0.1, chem.Free).
				AddSpecies("S", 1, chem.Free).
				AddSpecies("P", 0, chem.Free).
				AddReaction(chem.ReactionSpec{
					Label: "mm", Kinetics: chem.MichaelisMenten,
					Kf: 10, Kb: 1, Kf2: 5, Kb2: 0,
					Inputs: []string{"E", "S"}, Outputs: []string{"E", "P"},
				}))

			res := run(net, config(integrators.MethodRK4, 10, 1000))
			x := res.Store.Final()
			Expect(x[0]).To(Equal(0.1))
			Expect(x[1] + x[2]).To(BeNumerically("~", 1, 1e-9))
			Expect(x[2]).To(BeNumerically(">", 0.5))
		})
	})

	Describe("pulsed forcing", func() {
		var (
			sched *forcing.Schedule
			net   *chem.Network
		)

		BeforeEach(func() {
			sched = &forcing.Schedule{
				Shape:  forcing.Trapezoid,
				Start:  1,
				Base:   0,
				Pulses: []forcing.Pulse{{Duration: 1, Target: 1}, {Duration: 1, Target: 0}},
			}
			net = mustBuild(chem.NewBuilder().
				AddForcedSpecies("S", 0, sched).
				AddSpecies("P", 0, chem.Free).
				AddReaction(chem.ReactionSpec{Kf: 1, Inputs: []string{"S"}, Outputs: []string{"S", "P"}}))
		})

		It("splits the run at pulse boundaries", func() {
			res := run(net, config(integrators.MethodRK4, 5, 20))
			Expect(res.Windows).To(HaveLen(5))
			Expect(res.Store.Len()).To(Equal(5))
			for _, w := range res.Windows {
				Expect(w.Length()).To(BeNumerically("~", 1, 1e-12))
			}
		})

		It("drives the forced species along the schedule", func() {
			res := run(net, config(integrators.MethodRK4, 5, 20))
			times, values := res.Store.Series(0)
			for k, t := range times {
				Expect(values[k]).To(BeNumerically("~", sched.Value(t, 0), 1e-12), "t=%v", t)
			}
		})

		It("accumulates product only while the pulse is on", func() {
			res := run(net, config(integrators.MethodRK4, 5, 20))
			first := res.Store.Windows()[0]
			Expect(first.Final()[1]).To(Equal(0.0))
			// each triangular pulse integrates to 1
			Expect(res.Store.Final()[1]).To(BeNumerically("~", 2, 1e-2))
		})
	})
})
