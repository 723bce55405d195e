package sim

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
)

func TestSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sim Suite")
}

var _ = Describe("Scenario", func() {
	var s *Scenario

	BeforeEach(func() {
		var err error
		s, err = New(DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("a full race", func() {
		var result *dynamo.Result

		BeforeEach(func() {
			var err error
			result, err = s.Run(context.Background(), dynamo.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
		})

		It("ends with every body stopped at the far wall", func() {
			Expect(result.AllStoppedTime).NotTo(BeNil())
			for _, b := range result.Frames[len(result.Frames)-1].Bodies {
				Expect(b.Phase).To(Equal(dynamo.PhaseStopped))
				Expect(b.T).To(BeNumerically("==", 1.0))
				Expect(b.Velocity).To(BeZero())
			}
		})

		It("ranks the cycloid first", func() {
			Expect(result.Summaries).To(HaveLen(3))
			Expect(result.Summaries[0].Curve).To(Equal(ramp.Cycloid.String()))
			Expect(result.Summaries[0].Rank).To(Equal(1))
		})

		It("records one impact and one stop per body", func() {
			counts := map[dynamo.EventKind]int{}
			for _, e := range result.Events {
				counts[e.Kind]++
			}
			Expect(counts[dynamo.EventImpact]).To(Equal(3))
			Expect(counts[dynamo.EventStop]).To(Equal(3))
			Expect(counts[dynamo.EventAllStopped]).To(Equal(1))
		})

		It("keeps event times ordered", func() {
			for i := 1; i < len(result.Events); i++ {
				Expect(result.Events[i].Time).To(BeNumerically(">=", result.Events[i-1].Time))
			}
		})
	})

	Describe("Reconfigure", func() {
		It("moves every body onto the new tracks", func() {
			Expect(s.Reconfigure(dynamo.Vec3{0, 4, 0}, 2)).To(Succeed())
			geom := s.Geometry()
			for _, k := range ramp.Kinds() {
				Expect(geom.Physics[k].Center[0].X()).To(BeNumerically("~", 0, 1e-9))
				Expect(geom.Physics[k].ZOffset).To(Equal(s.Ramps().ZOffset(k)))
			}
		})

		It("can race again after the rebuild", func() {
			Expect(s.Reconfigure(dynamo.Vec3{1, 3, 0}, 1)).To(Succeed())
			result, err := s.Run(context.Background(), dynamo.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AllStoppedTime).NotTo(BeNil())
		})
	})

	Describe("Sweep", func() {
		It("races each start height independently", func() {
			runs, err := NewSweep(DefaultSettings(), []float64{3, 5, 7}).
				Run(context.Background(), dynamo.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(3))
			for _, r := range runs {
				Expect(r.Result.AllStoppedTime).NotTo(BeNil())
				Expect(r.Result.Summaries[0].Curve).To(Equal("cycloid"))
			}
		})

		It("fails when a height is below the finish", func() {
			_, err := NewSweep(DefaultSettings(), []float64{5, 0.5}).
				Run(context.Background(), dynamo.DefaultConfig())
			Expect(err).To(MatchError(dynamo.ErrDegenerateAnchors))
		})
	})
})
