package grid_world

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// The classic layouts. Rows are printed orientation: the first row is the top of the grid.
var (
	BookGrid []string = []string{
		"_ _ _ 1",
		"_ # _ -1",
		"S _ _ _",
	}

	BridgeGrid []string = []string{
		"#  -100 -100 -100 -100 -100  #",
		"1   S    _    _    _    _   10",
		"#  -100 -100 -100 -100 -100  #",
	}

	CliffGrid []string = []string{
		"_    _    _    _    _",
		"S    _    _    _    10",
		"-100 -100 -100 -100 -100",
	}

	Cliff2Grid []string = []string{
		"_    _    _    _    _",
		"8    S    _    _    10",
		"-100 -100 -100 -100 -100",
	}

	DiscountGrid []string = []string{
		"_   _   _   _   _",
		"_   #   _   _   _",
		"_   #   1   #   10",
		"S   _   _   _   _",
		"-10 -10 -10 -10 -10",
	}

	MazeGrid []string = []string{
		"_ _ _ 1",
		"# # _ #",
		"_ # _ _",
		"_ # # _",
		"S _ _ _",
	}
)

// Layouts are the built-in layouts by name.
var Layouts = map[string][]string{
	"book":     BookGrid,
	"bridge":   BridgeGrid,
	"cliff":    CliffGrid,
	"cliff2":   Cliff2Grid,
	"discount": DiscountGrid,
	"maze":     MazeGrid,
}

// LayoutNames returns the registered layout names, sorted.
func LayoutNames() []string {
	names := maps.Keys(Layouts)
	slices.Sort(names)
	return names
}

// Layout looks up a built-in layout.
func Layout(name string) ([]string, error) {
	layout, ok := Layouts[name]
	if !ok {
		return nil, fmt.Errorf("no layout %q, have %v", name, LayoutNames())
	}
	return layout, nil
}
