// Package analysis holds the gridworld parameter settings that produce particular
// optimal behaviors, and the tooling to check them by planning and then following the
// greedy policy.
package analysis

import (
	"context"
	"fmt"

	"planning/grid_world"
	"planning/reinforcement"
)

// Params are the environment and planner settings for one behavior. A behavior that
// no setting produces is NotPossible.
type Params struct {
	Discount     float64
	Noise        float64
	LivingReward float64
	Possible     bool
}

var NotPossible = Params{}

func (p Params) String() string {
	if !p.Possible {
		return "NOT POSSIBLE"
	}
	return fmt.Sprintf("discount=%v noise=%v livingReward=%v", p.Discount, p.Noise, p.LivingReward)
}

// Apply overrides the config's environment and discount parameters.
func (p Params) Apply(cfg *reinforcement.TrainingConfig) {
	cfg.SetHyperParam(reinforcement.DiscountKey, p.Discount)
	cfg.SetHyperParam(reinforcement.NoiseKey, p.Noise)
	cfg.SetHyperParam(reinforcement.LivingRewardKey, p.LivingReward)
}

// BridgeCrossing makes the agent cross the bridge to the distant exit. Noise is all
// but removed so a step onto the bridge no longer risks the chasm.
func BridgeCrossing() Params {
	return Params{Discount: 0.9, Noise: 0.00001, Possible: true}
}

// PreferCloseExitRiskCliff takes the +1 exit along the cliff edge: a steep living
// cost makes the short path worth the risk.
func PreferCloseExitRiskCliff() Params {
	return Params{Discount: 0.9, Noise: 0.2, LivingReward: -3, Possible: true}
}

// PreferCloseExitAvoidCliff takes the +1 exit the long way round. Heavy discounting
// devalues the distant exit and high noise makes the cliff edge costly.
func PreferCloseExitAvoidCliff() Params {
	return Params{Discount: 0.5, Noise: 0.4, LivingReward: -1, Possible: true}
}

// PreferDistantExitRiskCliff runs along the cliff edge to the +10 exit.
func PreferDistantExitRiskCliff() Params {
	return Params{Discount: 0.9, Noise: 0.05, LivingReward: -1, Possible: true}
}

// PreferDistantExitAvoidCliff takes the +10 exit the long way round.
func PreferDistantExitAvoidCliff() Params {
	return Params{Discount: 0.9, Noise: 0.4, LivingReward: -0.5, Possible: true}
}

// AvoidExitsAndCliff never exits: living is worth more than either exit.
func AvoidExitsAndCliff() Params {
	return Params{Discount: 0.9, Noise: 0, LivingReward: 2, Possible: true}
}

// Question pairs a behavior with the layout it is posed on.
type Question struct {
	Name   string
	Layout string
	Params func() Params
}

var Questions = []Question{
	{Name: "bridge-crossing", Layout: "bridge", Params: BridgeCrossing},
	{Name: "close-exit-risk-cliff", Layout: "discount", Params: PreferCloseExitRiskCliff},
	{Name: "close-exit-avoid-cliff", Layout: "discount", Params: PreferCloseExitAvoidCliff},
	{Name: "distant-exit-risk-cliff", Layout: "discount", Params: PreferDistantExitRiskCliff},
	{Name: "distant-exit-avoid-cliff", Layout: "discount", Params: PreferDistantExitAvoidCliff},
	{Name: "avoid-exits-and-cliff", Layout: "discount", Params: AvoidExitsAndCliff},
}

// Solve builds @layout with @params and trains the configured planner on it.
// @cfg is copied, not modified.
func Solve(
	ctx context.Context,
	layout []string,
	params Params,
	cfg *reinforcement.TrainingConfig,
) (*grid_world.GridWorld, reinforcement.Snapshot[grid_world.State, grid_world.Action], error) {
	var last reinforcement.Snapshot[grid_world.State, grid_world.Action]
	if !params.Possible {
		return nil, last, fmt.Errorf("solve: %v", params)
	}

	local := *cfg
	local.HyperParams = append([]reinforcement.HyperParameter(nil), cfg.HyperParams...)
	params.Apply(&local)
	if err := local.Validate(); err != nil {
		return nil, last, err
	}

	grid, err := grid_world.NewGridWorld(
		layout,
		grid_world.WithNoise(local.Noise()),
		grid_world.WithLivingReward(local.LivingReward()))
	if err != nil {
		return nil, last, err
	}

	planner, err := reinforcement.NewPlanner[grid_world.State, grid_world.Action](grid, &local)
	if err != nil {
		return nil, last, err
	}

	last, err = reinforcement.Train[grid_world.State, grid_world.Action](
		ctx, grid, planner, &local, nil, nil)
	return grid, last, err
}

// Path is the course taken by following a policy along intended moves.
type Path struct {
	States     []grid_world.State
	Exited     bool
	ExitReward float64
}

// GreedyPath follows @policy from @start without slips for at most @maxSteps moves,
// stopping at the first exit or at a state with no action.
func GreedyPath(
	grid *grid_world.GridWorld,
	policy map[grid_world.State]grid_world.Action,
	start grid_world.State,
	maxSteps int,
) (path Path) {
	state := start
	path.States = append(path.States, state)
	for step := 0; step < maxSteps; step++ {
		action, ok := policy[state]
		if !ok {
			return
		}
		if action == grid_world.Exit {
			cell, _ := grid.Cell(state)
			path.Exited = true
			path.ExitReward = cell.Reward
			return
		}
		state = grid.Move(state, action)
		path.States = append(path.States, state)
	}
	return
}

// Visits reports whether any state after the first satisfies @pred.
func (p Path) Visits(pred func(grid_world.State) bool) bool {
	for _, s := range p.States[1:] {
		if pred(s) {
			return true
		}
	}
	return false
}
