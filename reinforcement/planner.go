package reinforcement

import (
	"fmt"

	"planning/mdp"
)

// Planner is the driver's view of either agent: the Bellman queries plus a single
// Step that reports whether planning has converged.
type Planner[S, A comparable] interface {
	Value(S) float64
	QValue(S, A) float64
	BestPolicy(S) (A, bool)
	// Step runs one iteration of the algorithm and reports convergence.
	Step() (converged bool)
	// Delta is the largest value change made by the last step.
	Delta() float64
}

// valueIterationPlanner converges once a sweep changes no value by epsilon or more.
type valueIterationPlanner[S, A comparable] struct {
	*ValueIterationAgent[S, A]
	epsilon float64
}

func (p *valueIterationPlanner[S, A]) Step() bool {
	p.Iterate()
	return p.Delta() < p.epsilon
}

// policyIterationPlanner converges once improvement leaves the policy unchanged.
type policyIterationPlanner[S, A comparable] struct {
	*PolicyIterationAgent[S, A]
}

func (p *policyIterationPlanner[S, A]) Step() bool {
	return p.Iterate()
}

// NewPlanner builds the configured algorithm over @game.
func NewPlanner[S, A comparable](
	game mdp.Game[S, A],
	cfg *TrainingConfig,
) (Planner[S, A], error) {
	switch name := cfg.AlgorithmName(); name {
	case ValueIteration:
		return &valueIterationPlanner[S, A]{
			ValueIterationAgent: NewValueIterationAgent(game, cfg.Discount()),
			epsilon:             cfg.Epsilon(),
		}, nil
	case PolicyIteration:
		return &policyIterationPlanner[S, A]{
			PolicyIterationAgent: NewPolicyIterationAgent(
				game,
				cfg.Discount(),
				WithMaxEvalRounds(cfg.MaxEvalRounds())),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, name)
	}
}
