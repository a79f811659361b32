package mdp

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// tableGame is a literal MDP, keyed by state then action.
type tableGame struct {
	states []string
	dists  map[string]map[string][]Transition[string]
	order  map[string][]string
}

func (g *tableGame) States() []string              { return g.states }
func (g *tableGame) Actions(state string) []string { return g.order[state] }
func (g *tableGame) Transitions(state, action string) []Transition[string] {
	return g.dists[state][action]
}
func (g *tableGame) Reward(state, action, next string) float64 { return 1 }

func newTableGame(dist []Transition[string]) *tableGame {
	return &tableGame{
		states: []string{"a", "b"},
		dists: map[string]map[string][]Transition[string]{
			"a": {"go": dist},
		},
		order: map[string][]string{"a": {"go"}},
	}
}

func TestValidate(t *testing.T) {
	Convey("When validating a game", t, func() {
		Convey("A well formed distribution passes", func() {
			game := newTableGame([]Transition[string]{{"a", 0.25}, {"b", 0.75}})
			So(Validate[string, string](game), ShouldBeNil)
		})

		Convey("A sum off by rounding error passes, a larger error fails", func() {
			game := newTableGame([]Transition[string]{{"a", 0.7 + 1e-12}, {"b", 0.3}})
			So(Validate[string, string](game), ShouldBeNil)

			game = newTableGame([]Transition[string]{{"a", 0.7 + 1e-6}, {"b", 0.3}})
			So(errors.Is(Validate[string, string](game), ErrDistributionSum), ShouldBeTrue)
		})

		Convey("Terminal states have nothing to check", func() {
			game := newTableGame(nil)
			game.order = map[string][]string{}
			So(Validate[string, string](game), ShouldBeNil)
		})

		Convey("A distribution that does not sum to one fails", func() {
			game := newTableGame([]Transition[string]{{"a", 0.5}, {"b", 0.4}})
			err := Validate[string, string](game)
			So(errors.Is(err, ErrDistributionSum), ShouldBeTrue)
		})

		Convey("A negative probability fails", func() {
			game := newTableGame([]Transition[string]{{"a", -0.5}, {"b", 1.5}})
			err := Validate[string, string](game)
			So(errors.Is(err, ErrNegativeProbability), ShouldBeTrue)
		})

		Convey("An unknown successor fails", func() {
			game := newTableGame([]Transition[string]{{"z", 1}})
			err := Validate[string, string](game)
			So(errors.Is(err, ErrUnknownState), ShouldBeTrue)
		})

		Convey("A repeated successor fails", func() {
			game := newTableGame([]Transition[string]{{"b", 0.5}, {"b", 0.5}})
			err := Validate[string, string](game)
			So(errors.Is(err, ErrDuplicateSuccessor), ShouldBeTrue)
		})
	})
}

func TestExpectation(t *testing.T) {
	Convey("Expectation weights each successor by its probability", t, func() {
		dist := []Transition[string]{{"a", 0.25}, {"b", 0.75}}
		vals := map[string]float64{"a": 4, "b": 8}
		So(Expectation(dist, func(s string) float64 { return vals[s] }), ShouldEqual, 7.0)
		So(Expectation[string](nil, func(string) float64 { return 1 }), ShouldEqual, 0.0)
	})
}
