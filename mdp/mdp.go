// mdp defines the boundary between the planners and the environments they plan over.
// A Game is a finite Markov decision process: a state set, per-state legal actions,
// transition distributions and a reward function. The planners only consume it.
package mdp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Transition is one successor of a (state, action) pair and its probability.
type Transition[S comparable] struct {
	Next S
	Prob float64
}

// Game is a finite MDP. States and actions are opaque, hashable identifiers.
type Game[S, A comparable] interface {
	// States returns every valid state exactly once.
	States() []S
	// Actions returns the legal actions of a state; an empty result marks a terminal state.
	Actions(state S) []A
	// Transitions returns the successor distribution of taking @action in @state.
	// Each successor appears at most once. Order is fixed per call, which keeps
	// q-value summation reproducible.
	Transitions(state S, action A) []Transition[S]
	// Reward is the immediate reward of the (state, action, next) triple.
	Reward(state S, action A, next S) float64
}

// Tolerance is the slack allowed when checking that a distribution sums to one.
const Tolerance = 1e-9

var (
	// ErrNegativeProbability is returned when a transition carries a negative probability.
	ErrNegativeProbability = errors.New("negative transition probability")
	// ErrDistributionSum is returned when a transition distribution does not sum to one.
	ErrDistributionSum = errors.New("transition probabilities do not sum to one")
	// ErrUnknownState is returned when a successor is not a member of the state set.
	ErrUnknownState = errors.New("successor is not a known state")
	// ErrDuplicateSuccessor is returned when a distribution lists a successor twice.
	ErrDuplicateSuccessor = errors.New("successor listed more than once")
)

// Validate checks the well-formedness of every transition distribution of the game.
// It is meant for fixtures and tests; the planners never call it.
func Validate[S, A comparable](game Game[S, A]) error {
	states := game.States()
	known := make(map[S]struct{}, len(states))
	for _, s := range states {
		known[s] = struct{}{}
	}

	for _, s := range states {
		for _, a := range game.Actions(s) {
			dist := game.Transitions(s, a)
			probs := make([]float64, 0, len(dist))
			seen := make(map[S]struct{}, len(dist))
			for _, t := range dist {
				if t.Prob < 0 {
					return fmt.Errorf("%v/%v -> %v: %w", s, a, t.Next, ErrNegativeProbability)
				}
				if _, ok := known[t.Next]; !ok {
					return fmt.Errorf("%v/%v -> %v: %w", s, a, t.Next, ErrUnknownState)
				}
				if _, dup := seen[t.Next]; dup {
					return fmt.Errorf("%v/%v -> %v: %w", s, a, t.Next, ErrDuplicateSuccessor)
				}
				seen[t.Next] = struct{}{}
				probs = append(probs, t.Prob)
			}

			if sum := floats.Sum(probs); !scalar.EqualWithinAbs(sum, 1, Tolerance) {
				return fmt.Errorf("%v/%v sums to %v: %w", s, a, sum, ErrDistributionSum)
			}
		}
	}
	return nil
}

// Expectation returns Σ p·fn(next) over a distribution, summed in distribution order.
func Expectation[S comparable](dist []Transition[S], fn func(next S) float64) (sum float64) {
	for _, t := range dist {
		sum += t.Prob * fn(t.Next)
	}
	return
}
