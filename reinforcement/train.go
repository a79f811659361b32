package reinforcement

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"planning/atomic_float"
	"planning/mdp"
)

// Snapshot is a consistent copy of a planner's values and greedy policy after a step.
// States without an action are absent from Policy.
type Snapshot[S, A comparable] struct {
	Iteration int
	Delta     float64
	Converged bool
	Values    map[S]float64
	Policy    map[S]A
}

// ProgressFunc is a callback by which the training method can lend progress details,
// while exercising some level of control over its cancellation to prevent blocking.
// ProgressFunc is synchronous/blocking and should be defined to complete quickly.
type ProgressFunc[S, A comparable] func(context.Context, Snapshot[S, A])

// TakeSnapshot copies the planner's current values and greedy policy over every state.
func TakeSnapshot[S, A comparable](
	game mdp.Game[S, A],
	planner Planner[S, A],
) Snapshot[S, A] {
	states := game.States()
	snap := Snapshot[S, A]{
		Delta:  planner.Delta(),
		Values: make(map[S]float64, len(states)),
		Policy: make(map[S]A, len(states)),
	}
	for _, s := range states {
		snap.Values[s] = planner.Value(s)
		if action, ok := planner.BestPolicy(s); ok {
			snap.Policy[s] = action
		}
	}
	return snap
}

// Monitor is a progress gauge written by Train and read concurrently, e.g. by a status
// endpoint, without locking the planner.
type Monitor struct {
	iteration atomic.Int64
	converged atomic.Bool
	delta     *atomic_float.AtomicFloat64
	swept     *atomic_float.AtomicFloat64
}

func NewMonitor() *Monitor {
	return &Monitor{
		delta: atomic_float.NewAtomicFloat64(0),
		swept: atomic_float.NewAtomicFloat64(0),
	}
}

// Status is a point-in-time read of a Monitor.
type Status struct {
	Iteration int64   `json:"iteration"`
	Delta     float64 `json:"delta"`
	Converged bool    `json:"converged"`

	// SweptDelta is the running sum of every step's delta.
	SweptDelta float64 `json:"sweptDelta"`
}

func (m *Monitor) Status() Status {
	return Status{
		Iteration:  m.iteration.Load(),
		Delta:      m.delta.AtomicRead(),
		Converged:  m.converged.Load(),
		SweptDelta: m.swept.AtomicRead(),
	}
}

func (m *Monitor) observe(iteration int, delta float64, converged bool) {
	// A single writer, so the set never races another set.
	_ = m.delta.AtomicSet(delta)
	for ok := false; !ok; _, ok = m.swept.AtomicAdd(delta) {
	}
	m.iteration.Store(int64(iteration))
	m.converged.Store(converged)
}

// Train steps the planner until it converges, the config's iteration budget is spent
// (zero means no budget), or @ctx is done. @progressFn is called with a snapshot after
// every step; @monitor may be nil. The last snapshot is returned; on cancellation it is
// returned alongside the context's error.
func Train[S, A comparable](
	ctx context.Context,
	game mdp.Game[S, A],
	planner Planner[S, A],
	cfg *TrainingConfig,
	monitor *Monitor,
	progressFn ProgressFunc[S, A],
) (last Snapshot[S, A], err error) {
	budget := cfg.Iterations()
	log.Printf("training %s: discount=%v budget=%d states=%d\n",
		cfg.AlgorithmName(), cfg.Discount(), budget, len(game.States()))

	last = TakeSnapshot(game, planner)
	for i := 1; budget == 0 || i <= budget; i++ {
		select {
		case <-ctx.Done():
			err = fmt.Errorf("training stopped at iteration %d: %w", last.Iteration, ctx.Err())
			return
		default:
		}

		converged := planner.Step()
		last = TakeSnapshot(game, planner)
		last.Iteration = i
		last.Converged = converged
		if monitor != nil {
			monitor.observe(i, last.Delta, converged)
		}
		if progressFn != nil {
			progressFn(ctx, last)
		}

		if converged {
			log.Printf("converged after %d iterations, delta=%g\n", i, last.Delta)
			return
		}
	}

	log.Printf("iteration budget spent, delta=%g\n", last.Delta)
	return
}
