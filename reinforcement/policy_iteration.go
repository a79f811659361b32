package reinforcement

import "planning/mdp"

// DefaultEpsilon is the policy evaluation stopping threshold used by Iterate.
const DefaultEpsilon = 1e-6

// choice is a policy table entry; set is false for "no action".
type choice[A comparable] struct {
	action A
	set    bool
}

// PolicyIterationAgent alternates full evaluation of a fixed policy with greedy
// improvement against the evaluated values. It shares the Bellman machinery of the
// value iteration agent by embedding, not by extending it.
//
// Evaluation only terminates if the discount is below one or every policy reaches
// a terminal state; WithMaxEvalRounds bounds it otherwise.
type PolicyIterationAgent[S, A comparable] struct {
	*Bellman[S, A]
	policy        map[S]choice[A]
	maxEvalRounds int
	delta         float64
	iterations    int
}

// PolicyIterationOption configures a PolicyIterationAgent.
type PolicyIterationOption func(*policyIterationOptions)

type policyIterationOptions struct {
	maxEvalRounds int
}

// WithMaxEvalRounds caps the rounds of a single policy evaluation. Zero means unbounded.
func WithMaxEvalRounds(rounds int) PolicyIterationOption {
	return func(opts *policyIterationOptions) {
		opts.maxEvalRounds = rounds
	}
}

// NewPolicyIterationAgent returns an agent with zero values and no action for every state.
func NewPolicyIterationAgent[S, A comparable](
	game mdp.Game[S, A],
	discount float64,
	opts ...PolicyIterationOption,
) *PolicyIterationAgent[S, A] {
	options := policyIterationOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	states := game.States()
	policy := make(map[S]choice[A], len(states))
	for _, s := range states {
		policy[s] = choice[A]{}
	}

	return &PolicyIterationAgent[S, A]{
		Bellman:       NewBellman(game, discount),
		policy:        policy,
		maxEvalRounds: options.maxEvalRounds,
	}
}

// Policy returns the stored action of @state, or false if it has none.
func (agent *PolicyIterationAgent[S, A]) Policy(state S) (A, bool) {
	c := agent.policy[state]
	return c.action, c.set
}

// EvaluatePolicy iterates V(s) = Q(s, π(s)) for the fixed policy until a round changes no
// value by @epsilon or more, and returns the number of rounds run. Each round reads the
// previous round's table. States without a policy action keep their value.
func (agent *PolicyIterationAgent[S, A]) EvaluatePolicy(epsilon float64) (rounds int) {
	states := agent.game.States()
	for {
		next := agent.Values()
		for _, s := range states {
			if c := agent.policy[s]; c.set {
				next[s] = agent.QValue(s, c.action)
			}
		}
		agent.delta = agent.replace(next)
		rounds++

		if agent.delta < epsilon {
			return
		}
		if agent.maxEvalRounds > 0 && rounds >= agent.maxEvalRounds {
			return
		}
	}
}

// ImprovePolicy re-extracts the greedy action of every state against the current values.
// It returns true iff no state's action changed, including to or from no action.
func (agent *PolicyIterationAgent[S, A]) ImprovePolicy() (stable bool) {
	stable = true
	for _, s := range agent.game.States() {
		best, ok := agent.BestPolicy(s)
		next := choice[A]{action: best, set: ok}
		if next != agent.policy[s] {
			agent.policy[s] = next
			stable = false
		}
	}
	return
}

// Iterate evaluates the current policy to DefaultEpsilon and then improves it.
// It returns true when the policy did not change: the policy is a fixed point.
func (agent *PolicyIterationAgent[S, A]) Iterate() (converged bool) {
	agent.EvaluatePolicy(DefaultEpsilon)
	agent.iterations++
	return agent.ImprovePolicy()
}

// Delta is the largest value change made by the last evaluation round.
func (agent *PolicyIterationAgent[S, A]) Delta() float64 {
	return agent.delta
}

// Iterations is the number of Iterate calls so far.
func (agent *PolicyIterationAgent[S, A]) Iterations() int {
	return agent.iterations
}
