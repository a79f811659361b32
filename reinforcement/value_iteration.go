package reinforcement

import "planning/mdp"

// ValueIterationAgent computes optimal values by repeated one-step Bellman maximization.
type ValueIterationAgent[S, A comparable] struct {
	*Bellman[S, A]
	delta      float64
	iterations int
}

// NewValueIterationAgent returns an agent whose values start at zero.
func NewValueIterationAgent[S, A comparable](
	game mdp.Game[S, A],
	discount float64,
) *ValueIterationAgent[S, A] {
	return &ValueIterationAgent[S, A]{
		Bellman: NewBellman(game, discount),
	}
}

// Iterate runs one synchronous sweep: V_{k+1}(s) = max_a Q_k(s,a) for every state.
// Every q-value reads the previous sweep's table, and the new table replaces it only
// after all states are computed. Terminal states keep their value.
func (agent *ValueIterationAgent[S, A]) Iterate() {
	states := agent.game.States()
	next := make(map[S]float64, len(states))
	for _, s := range states {
		if _, maxQ, ok := agent.maxAction(s); ok {
			next[s] = maxQ
		} else {
			next[s] = agent.values[s]
		}
	}

	agent.delta = agent.replace(next)
	agent.iterations++
}

// Delta is the largest absolute value change made by the last sweep; zero before any sweep.
func (agent *ValueIterationAgent[S, A]) Delta() float64 {
	return agent.delta
}

// Iterations is the number of sweeps run so far.
func (agent *ValueIterationAgent[S, A]) Iterations() int {
	return agent.iterations
}
