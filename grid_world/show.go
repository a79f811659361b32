package grid_world

import (
	"fmt"
	"io"
)

// Returns reversed indices of a slice, e.g. for ranging over.
func Rev(length int) []int {
	indices := make([]int, length)
	for i := 0; i < length; i++ {
		indices[i] = length - i - 1
	}
	return indices
}

// ShowGrid prints the layout, for visual reference. Exit cells print as their reward sign.
func (g *GridWorld) ShowGrid(w io.Writer) {
	for _, y := range Rev(g.height) {
		for x := 0; x < g.width; x++ {
			cell := g.cells[x][y]
			switch {
			case cell.Kind != EXIT:
				fmt.Fprintf(w, "%c ", cell.Kind)
			case cell.Reward >= 0:
				fmt.Fprint(w, "+ ")
			default:
				fmt.Fprint(w, "- ")
			}
		}
		fmt.Fprintln(w)
	}
}

// ShowValues prints the value of every cell, walls as dashes, and their total.
func (g *GridWorld) ShowValues(w io.Writer, value func(State) float64) {
	fmt.Fprintln(w, "Values:")
	total := 0.0
	for _, y := range Rev(g.height) {
		fmt.Fprint(w, " ")
		for x := 0; x < g.width; x++ {
			if g.cells[x][y].Kind == WALL {
				fmt.Fprintf(w, "%8s ", "-")
				continue
			}
			val := value(State{x, y})
			total += val
			fmt.Fprintf(w, "%8.2f ", val)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total: %.2f\n", total)
}

// ShowPolicy prints an arrow per open cell for its policy action, x for exits, # for walls,
// and . for cells without an action.
func (g *GridWorld) ShowPolicy(w io.Writer, policy func(State) (Action, bool)) {
	for _, y := range Rev(g.height) {
		fmt.Fprint(w, " ")
		for x := 0; x < g.width; x++ {
			if g.cells[x][y].Kind == WALL {
				fmt.Fprint(w, "# ")
				continue
			}
			action, ok := policy(State{x, y})
			if !ok {
				fmt.Fprint(w, ". ")
				continue
			}
			fmt.Fprintf(w, "%c ", Arrow(action))
		}
		fmt.Fprintln(w)
	}
}

// Arrow returns a printable rune for an action.
func Arrow(action Action) rune {
	switch action {
	case North:
		return '^'
	case South:
		return 'v'
	case East:
		return '>'
	case West:
		return '<'
	case Exit:
		return 'x'
	}
	return '?'
}
