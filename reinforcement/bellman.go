package reinforcement

import (
	"planning/mdp"

	"golang.org/x/exp/maps"
)

// Bellman is the machinery shared by both planners: a value table over the game's
// states, q-values computed from it by a one-step Bellman backup, and greedy policy
// extraction. Neither planner inherits from the other; each embeds a Bellman.
type Bellman[S, A comparable] struct {
	game     mdp.Game[S, A]
	discount float64
	values   map[S]float64
}

// NewBellman returns an evaluator whose value table holds a zero for every state.
// The discount is fixed for the lifetime of the evaluator.
func NewBellman[S, A comparable](game mdp.Game[S, A], discount float64) *Bellman[S, A] {
	states := game.States()
	values := make(map[S]float64, len(states))
	for _, s := range states {
		values[s] = 0
	}
	return &Bellman[S, A]{
		game:     game,
		discount: discount,
		values:   values,
	}
}

// Discount returns the discount factor.
func (b *Bellman[S, A]) Discount() float64 {
	return b.discount
}

// Game returns the environment the evaluator plans over.
func (b *Bellman[S, A]) Game() mdp.Game[S, A] {
	return b.game
}

// Value returns the stored value of @state, or zero for a state absent from the table.
func (b *Bellman[S, A]) Value(state S) float64 {
	return b.values[state]
}

// QValue computes Q(s,a) = Σ_s' T(s,a,s')·[R(s,a,s') + γ·V(s')] against the current table.
// The sum runs over the full distribution as given; nothing is renormalized.
func (b *Bellman[S, A]) QValue(state S, action A) float64 {
	return mdp.Expectation(
		b.game.Transitions(state, action),
		func(next S) float64 {
			return b.game.Reward(state, action, next) + b.discount*b.values[next]
		})
}

// BestPolicy returns the action maximizing QValue at @state and true, or false when the
// state has no legal actions. Ties go to the first maximal action in the order the game
// enumerates them: the scan only replaces the incumbent on a strictly greater q-value.
func (b *Bellman[S, A]) BestPolicy(state S) (best A, ok bool) {
	best, _, ok = b.maxAction(state)
	return
}

// maxAction is the argmax scan behind BestPolicy, also returning the max q-value.
func (b *Bellman[S, A]) maxAction(state S) (best A, maxQ float64, ok bool) {
	for i, action := range b.game.Actions(state) {
		q := b.QValue(state, action)
		if i == 0 || q > maxQ {
			best, maxQ = action, q
		}
		ok = true
	}
	return
}

// Values returns a copy of the value table.
func (b *Bellman[S, A]) Values() map[S]float64 {
	return maps.Clone(b.values)
}

// replace swaps in a complete new table and returns the max absolute change per state.
func (b *Bellman[S, A]) replace(next map[S]float64) (delta float64) {
	for s, v := range next {
		delta = maxAbsDiff(delta, v, b.values[s])
	}
	b.values = next
	return
}

func maxAbsDiff(delta, a, b float64) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > delta {
		return d
	}
	return delta
}
