package reinforcement

import "planning/mdp"

// outcome is a literal transition with its reward.
type outcome struct {
	next   string
	prob   float64
	reward float64
}

// tableGame is a literal MDP for tests: per state, an ordered list of actions and
// their outcomes. States absent from acts are terminal.
type tableGame struct {
	states []string
	acts   map[string][]string
	dists  map[string]map[string][]outcome
}

func (g *tableGame) States() []string { return g.states }

func (g *tableGame) Actions(state string) []string { return g.acts[state] }

func (g *tableGame) Transitions(state, action string) (dist []mdp.Transition[string]) {
	for _, o := range g.dists[state][action] {
		dist = append(dist, mdp.Transition[string]{Next: o.next, Prob: o.prob})
	}
	return
}

func (g *tableGame) Reward(state, action, next string) float64 {
	for _, o := range g.dists[state][action] {
		if o.next == next {
			return o.reward
		}
	}
	return 0
}

// newExitGame is the two state game: in A, "stay" loops for -1 and "finish" moves to
// the terminal state B for +10.
func newExitGame() *tableGame {
	return &tableGame{
		states: []string{"A", "B"},
		acts:   map[string][]string{"A": {"stay", "finish"}},
		dists: map[string]map[string][]outcome{
			"A": {
				"stay":   {{"A", 1, -1}},
				"finish": {{"B", 1, 10}},
			},
		},
	}
}

// newCycleGame is a two state cycle: A pays 1 moving to B, B pays 0 moving to A.
// A sweep that reused same-sweep values would give B a nonzero value after one sweep.
func newCycleGame() *tableGame {
	return &tableGame{
		states: []string{"A", "B"},
		acts:   map[string][]string{"A": {"go"}, "B": {"go"}},
		dists: map[string]map[string][]outcome{
			"A": {"go": {{"B", 1, 1}}},
			"B": {"go": {{"A", 1, 0}}},
		},
	}
}

// newCoinGame has one stochastic action and a tie between two actions.
func newCoinGame() *tableGame {
	return &tableGame{
		states: []string{"S", "H", "T"},
		acts:   map[string][]string{"S": {"flip", "left", "right"}},
		dists: map[string]map[string][]outcome{
			"S": {
				"flip":  {{"H", 0.25, 4}, {"T", 0.75, -2}},
				"left":  {{"H", 1, 1}},
				"right": {{"T", 1, 1}},
			},
		},
	}
}
