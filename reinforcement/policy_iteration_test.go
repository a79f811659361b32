package reinforcement

import (
	"math"
	"testing"

	"planning/grid_world"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPolicyIteration(t *testing.T) {
	Convey("Given the exit game", t, func() {
		agent := NewPolicyIterationAgent[string, string](newExitGame(), 0.9)

		Convey("Every state starts without an action", func() {
			for _, s := range []string{"A", "B"} {
				_, ok := agent.Policy(s)
				So(ok, ShouldBeFalse)
				So(agent.Value(s), ShouldEqual, 0.0)
			}
		})

		Convey("The first round sets a policy, the second confirms it", func() {
			So(agent.Iterate(), ShouldBeFalse)
			action, ok := agent.Policy("A")
			So(ok, ShouldBeTrue)
			So(action, ShouldEqual, "finish")
			_, ok = agent.Policy("B")
			So(ok, ShouldBeFalse)

			So(agent.Iterate(), ShouldBeTrue)
			So(agent.Value("A"), ShouldEqual, 10.0)
			So(agent.Value("B"), ShouldEqual, 0.0)
			So(agent.Iterations(), ShouldEqual, 2)
		})

		Convey("Evaluation without any policy changes nothing", func() {
			So(agent.EvaluatePolicy(DefaultEpsilon), ShouldEqual, 1)
			So(agent.Value("A"), ShouldEqual, 0.0)
		})
	})

	Convey("Given an unbounded evaluation", t, func() {
		agent := NewPolicyIterationAgent[string, string](newCycleGame(), 1.0, WithMaxEvalRounds(10))
		So(agent.ImprovePolicy(), ShouldBeFalse)

		Convey("The round guard ends it", func() {
			So(agent.EvaluatePolicy(DefaultEpsilon), ShouldEqual, 10)
			So(agent.Delta(), ShouldBeGreaterThan, DefaultEpsilon)
		})
	})

	Convey("Given the book grid", t, func() {
		g, err := grid_world.NewGridWorld(grid_world.BookGrid)
		So(err, ShouldBeNil)
		agent := NewPolicyIterationAgent[grid_world.State, grid_world.Action](g, 0.9)

		Convey("Improvement is idempotent without re-evaluation", func() {
			So(agent.Iterate(), ShouldBeFalse)
			So(agent.ImprovePolicy(), ShouldBeTrue)
		})

		Convey("Evaluation leaves every value within epsilon of its policy q-value", func() {
			agent.Iterate()
			agent.Iterate()
			epsilon := 1e-6
			agent.EvaluatePolicy(epsilon)
			for _, s := range g.States() {
				action, ok := agent.Policy(s)
				if !ok {
					continue
				}
				So(math.Abs(agent.Value(s)-agent.QValue(s, action)), ShouldBeLessThan, epsilon)
			}
		})

		Convey("It converges to the same solution as value iteration", func() {
			converged := false
			for i := 0; i < 20 && !converged; i++ {
				converged = agent.Iterate()
			}
			So(converged, ShouldBeTrue)
			So(agent.ImprovePolicy(), ShouldBeTrue)

			vi := NewValueIterationAgent[grid_world.State, grid_world.Action](g, 0.9)
			for i := 0; i < 100; i++ {
				vi.Iterate()
			}
			for _, s := range g.States() {
				So(agent.Value(s), ShouldAlmostEqual, vi.Value(s), 1e-4)
				want, wantOk := vi.BestPolicy(s)
				got, gotOk := agent.Policy(s)
				So(gotOk, ShouldEqual, wantOk)
				So(got, ShouldEqual, want)
			}
		})
	})
}
