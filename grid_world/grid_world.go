package grid_world

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"planning/mdp"
)

// State is a grid position. The bottom/left most cell of a layout (when printed in a
// console) is (0,0), so +y is up.
type State struct {
	X, Y int
}

// TerminalState is the absorbing state entered by taking Exit; it has no actions.
var TerminalState = State{X: -1, Y: -1}

// Action is a compass move, or Exit from an exit cell.
type Action string

const (
	North Action = "north"
	South Action = "south"
	East  Action = "east"
	West  Action = "west"
	Exit  Action = "exit"
)

// Cell kinds
const (
	WALL  = '#'
	OPEN  = '_'
	START = 'S'
	EXIT  = 'E'
)

// Cell is one position of the layout. Reward is only meaningful for EXIT cells.
type Cell struct {
	X, Y   int
	Kind   rune
	Reward float64
}

var (
	ErrEmptyLayout  = errors.New("empty layout")
	ErrRaggedLayout = errors.New("layout rows differ in length")
	ErrBadToken     = errors.New("unrecognized layout token")
)

// GridWorld is a noisy gridworld MDP. An open cell offers the four compass moves: the
// intended move happens with probability 1-noise, and each perpendicular move with
// noise/2. Moves into walls or off the grid leave the agent in place. An exit cell
// offers only Exit, which collects the cell's reward and enters TerminalState. Every
// other transition pays the living reward.
type GridWorld struct {
	cells        [][]Cell // indexed [x][y]
	width        int
	height       int
	noise        float64
	livingReward float64
	states       []State
}

var _ mdp.Game[State, Action] = (*GridWorld)(nil)

// Option configures a GridWorld.
type Option func(*GridWorld)

// WithNoise sets the probability that a move slips perpendicular to its intent.
func WithNoise(noise float64) Option {
	return func(g *GridWorld) {
		g.noise = noise
	}
}

// WithLivingReward sets the reward of every non-exit transition.
func WithLivingReward(reward float64) Option {
	return func(g *GridWorld) {
		g.livingReward = reward
	}
}

// DefaultNoise matches the classic gridworld.
const DefaultNoise = 0.2

// NewGridWorld converts a layout into a gridworld. Layout rows hold whitespace separated
// tokens, top row first: # is a wall, _ is open, S is the (open) start cell, and a number
// is an exit cell paying that reward.
func NewGridWorld(layout []string, opts ...Option) (*GridWorld, error) {
	cells, err := Convert(layout)
	if err != nil {
		return nil, err
	}

	g := &GridWorld{
		cells:  cells,
		width:  len(cells),
		height: len(cells[0]),
		noise:  DefaultNoise,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.VisitCells(func(c Cell) {
		if c.Kind != WALL {
			g.states = append(g.states, State{c.X, c.Y})
		}
	})
	g.states = append(g.states, TerminalState)
	return g, nil
}

// Convert parses a layout into a cell grid indexed [x][y]. The orientation is flipped
// such that the bottom/left most position of the printed layout is (0,0).
func Convert(layout []string) (cells [][]Cell, err error) {
	height := len(layout)
	if height == 0 {
		return nil, ErrEmptyLayout
	}
	rows := make([][]string, height)
	for i, line := range layout {
		rows[i] = strings.Fields(line)
	}
	width := len(rows[0])
	if width == 0 {
		return nil, ErrEmptyLayout
	}

	cells = make([][]Cell, width)
	for x := range cells {
		cells[x] = make([]Cell, height)
	}
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d: %w", r, len(row), width, ErrRaggedLayout)
		}
		y := height - r - 1
		for x, token := range row {
			cell := Cell{X: x, Y: y}
			switch token {
			case "#":
				cell.Kind = WALL
			case "_":
				cell.Kind = OPEN
			case "S":
				cell.Kind = START
			default:
				reward, parseErr := strconv.ParseFloat(token, 64)
				if parseErr != nil {
					return nil, fmt.Errorf("row %d: %q: %w", r, token, ErrBadToken)
				}
				cell.Kind = EXIT
				cell.Reward = reward
			}
			cells[x][y] = cell
		}
	}
	return cells, nil
}

// Dims returns the width and height of the grid.
func (g *GridWorld) Dims() (width, height int) {
	return g.width, g.height
}

func (g *GridWorld) Noise() float64 {
	return g.noise
}

func (g *GridWorld) LivingReward() float64 {
	return g.livingReward
}

// Cell returns the cell at @state; false for TerminalState and off-grid positions.
func (g *GridWorld) Cell(state State) (Cell, bool) {
	if state.X < 0 || state.X >= g.width || state.Y < 0 || state.Y >= g.height {
		return Cell{}, false
	}
	return g.cells[state.X][state.Y], true
}

// Start returns the layout's start cell, if it has one.
func (g *GridWorld) Start() (start State, ok bool) {
	g.VisitCells(func(c Cell) {
		if c.Kind == START && !ok {
			start, ok = State{c.X, c.Y}, true
		}
	})
	return
}

// States returns every non-wall cell, x-major, followed by TerminalState.
func (g *GridWorld) States() []State {
	return g.states
}

var compass = []Action{North, West, South, East}

func (g *GridWorld) Actions(state State) []Action {
	cell, ok := g.Cell(state)
	if !ok || cell.Kind == WALL {
		return nil
	}
	if cell.Kind == EXIT {
		return []Action{Exit}
	}
	return compass
}

// Transitions returns the successor distribution of @action, merging successors that
// coincide (e.g. two slips into walls) in first-seen order. Illegal actions yield nil.
func (g *GridWorld) Transitions(state State, action Action) []mdp.Transition[State] {
	cell, ok := g.Cell(state)
	if !ok || cell.Kind == WALL {
		return nil
	}
	if cell.Kind == EXIT {
		if action != Exit {
			return nil
		}
		return []mdp.Transition[State]{{Next: TerminalState, Prob: 1}}
	}

	var intended, left, right Action
	switch action {
	case North:
		intended, left, right = North, West, East
	case South:
		intended, left, right = South, West, East
	case East:
		intended, left, right = East, North, South
	case West:
		intended, left, right = West, North, South
	default:
		return nil
	}

	return aggregate([]mdp.Transition[State]{
		{Next: g.Move(state, intended), Prob: 1 - g.noise},
		{Next: g.Move(state, left), Prob: g.noise / 2},
		{Next: g.Move(state, right), Prob: g.noise / 2},
	})
}

// Reward pays the exit reward when leaving an exit cell, nothing from TerminalState, and
// the living reward otherwise.
func (g *GridWorld) Reward(state State, action Action, next State) float64 {
	cell, ok := g.Cell(state)
	if !ok {
		return 0
	}
	if cell.Kind == EXIT {
		return cell.Reward
	}
	return g.livingReward
}

// Move returns the neighbor in direction @action, or @state itself if blocked.
func (g *GridWorld) Move(state State, action Action) State {
	next := state
	switch action {
	case North:
		next.Y++
	case South:
		next.Y--
	case East:
		next.X++
	case West:
		next.X--
	}
	if cell, ok := g.Cell(next); !ok || cell.Kind == WALL {
		return state
	}
	return next
}

func aggregate(dist []mdp.Transition[State]) (merged []mdp.Transition[State]) {
	index := map[State]int{}
	for _, t := range dist {
		if i, ok := index[t.Next]; ok {
			merged[i].Prob += t.Prob
			continue
		}
		index[t.Next] = len(merged)
		merged = append(merged, t)
	}
	return
}

// VisitCells visits every cell, x-major, using the passed function.
func (g *GridWorld) VisitCells(fn func(c Cell)) {
	for x := range g.cells {
		for y := range g.cells[x] {
			fn(g.cells[x][y])
		}
	}
}
