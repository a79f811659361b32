// cell_views contains views derived from the Cell view-model.
package cell_views

import (
	"fmt"

	"planning/grid_world"
	"planning/reinforcement"
)

// GridSnapshot is a planner snapshot over the gridworld.
type GridSnapshot = reinforcement.Snapshot[grid_world.State, grid_world.Action]

// Cell is a gridworld position oriented in the svg coordinate system, such that [x][0]
// is the cell that would be printed in the console at the top. As a rule of thumb, Cell
// fields should be immediately usable as view parameters.
type Cell struct {
	X, Y  int
	Kind  rune
	Value float64
	// Text is the formatted value, empty for walls.
	Text string
	// Arrow is the policy glyph, empty where the state has no action.
	Arrow string
	Fill  string
}

// NewConverter returns the conversion of snapshots of @grid into [x][y]Cells.
// The y indices are flipped per svg y-axis orientation, where 0 is the top of the
// coordinate system.
func NewConverter(grid *grid_world.GridWorld) func(GridSnapshot) [][]Cell {
	width, height := grid.Dims()
	return func(snap GridSnapshot) (cells [][]Cell) {
		cells = make([][]Cell, width)
		for x := range cells {
			cells[x] = make([]Cell, height)
		}

		grid.VisitCells(func(c grid_world.Cell) {
			cell := Cell{
				X:    c.X,
				Y:    height - c.Y - 1,
				Kind: c.Kind,
				Fill: getFill(c),
			}
			if c.Kind != grid_world.WALL {
				state := grid_world.State{X: c.X, Y: c.Y}
				cell.Value = snap.Values[state]
				cell.Text = fmt.Sprintf("%.2f", cell.Value)
				if action, ok := snap.Policy[state]; ok {
					cell.Arrow = getArrow(action)
				}
			}
			cells[c.X][c.Y] = cell
		})
		return
	}
}

func getArrow(action grid_world.Action) string {
	switch action {
	case grid_world.North:
		return "↑"
	case grid_world.South:
		return "↓"
	case grid_world.East:
		return "→"
	case grid_world.West:
		return "←"
	case grid_world.Exit:
		return "⊙"
	}
	return ""
}

func getFill(c grid_world.Cell) (fill string) {
	switch c.Kind {
	case grid_world.WALL:
		fill = "dimgray"
	case grid_world.OPEN:
		fill = "white"
	case grid_world.START:
		fill = "lightblue"
	case grid_world.EXIT:
		fill = "lightgreen"
		if c.Reward < 0 {
			fill = "salmon"
		}
	}
	return
}
