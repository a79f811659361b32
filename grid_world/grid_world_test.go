package grid_world

import (
	"bytes"
	"errors"
	"testing"

	"planning/mdp"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConvert(t *testing.T) {
	Convey("When converting a layout", t, func() {
		Convey("The bottom left printed cell is (0,0)", func() {
			cells, err := Convert(BookGrid)
			So(err, ShouldBeNil)
			So(len(cells), ShouldEqual, 4)
			So(len(cells[0]), ShouldEqual, 3)
			So(cells[0][0].Kind, ShouldEqual, START)
			So(cells[1][1].Kind, ShouldEqual, WALL)
			So(cells[3][2].Kind, ShouldEqual, EXIT)
			So(cells[3][2].Reward, ShouldEqual, 1.0)
			So(cells[3][1].Reward, ShouldEqual, -1.0)
			So(cells[2][2].Kind, ShouldEqual, OPEN)
		})

		Convey("Malformed layouts are rejected", func() {
			_, err := Convert(nil)
			So(errors.Is(err, ErrEmptyLayout), ShouldBeTrue)

			_, err = Convert([]string{"_ _", "_"})
			So(errors.Is(err, ErrRaggedLayout), ShouldBeTrue)

			_, err = Convert([]string{"_ ?"})
			So(errors.Is(err, ErrBadToken), ShouldBeTrue)
		})
	})
}

func TestGridWorldDynamics(t *testing.T) {
	Convey("Given the book grid with default noise", t, func() {
		g, err := NewGridWorld(BookGrid)
		So(err, ShouldBeNil)

		Convey("Every non-wall cell and the terminal state are states", func() {
			So(len(g.States()), ShouldEqual, 12)
			So(g.States()[len(g.States())-1], ShouldResemble, TerminalState)
			start, ok := g.Start()
			So(ok, ShouldBeTrue)
			So(start, ShouldResemble, State{0, 0})
		})

		Convey("Open cells offer the compass moves", func() {
			So(g.Actions(State{0, 0}), ShouldResemble, []Action{North, West, South, East})
		})

		Convey("An intended move slips perpendicular with the noise", func() {
			dist := g.Transitions(State{0, 0}, North)
			So(len(dist), ShouldEqual, 3)
			So(dist[0].Next, ShouldResemble, State{0, 1})
			So(dist[0].Prob, ShouldAlmostEqual, 0.8)
			So(dist[1].Next, ShouldResemble, State{0, 0})
			So(dist[1].Prob, ShouldAlmostEqual, 0.1)
			So(dist[2].Next, ShouldResemble, State{1, 0})
			So(dist[2].Prob, ShouldAlmostEqual, 0.1)
		})

		Convey("Blocked moves stay put and coinciding successors merge", func() {
			dist := g.Transitions(State{0, 0}, South)
			So(len(dist), ShouldEqual, 2)
			So(dist[0].Next, ShouldResemble, State{0, 0})
			So(dist[0].Prob, ShouldAlmostEqual, 0.9)
			So(dist[1].Next, ShouldResemble, State{1, 0})

			// (1,0) has the wall at (1,1) above it.
			dist = g.Transitions(State{1, 0}, North)
			So(dist[0].Next, ShouldResemble, State{1, 0})
		})

		Convey("Exit cells only exit, into the terminal state, paying their reward", func() {
			exit := State{3, 2}
			So(g.Actions(exit), ShouldResemble, []Action{Exit})
			So(g.Transitions(exit, Exit), ShouldResemble, []mdp.Transition[State]{{Next: TerminalState, Prob: 1}})
			So(g.Transitions(exit, North), ShouldBeNil)
			So(g.Reward(exit, Exit, TerminalState), ShouldEqual, 1.0)
			So(g.Reward(State{3, 1}, Exit, TerminalState), ShouldEqual, -1.0)
		})

		Convey("The terminal state has no actions and pays nothing", func() {
			So(g.Actions(TerminalState), ShouldBeEmpty)
			So(g.Transitions(TerminalState, North), ShouldBeNil)
			So(g.Reward(TerminalState, Exit, TerminalState), ShouldEqual, 0.0)
		})
	})

	Convey("Options set the noise and living reward", t, func() {
		g, err := NewGridWorld(CliffGrid, WithNoise(0), WithLivingReward(-0.5))
		So(err, ShouldBeNil)
		So(g.Noise(), ShouldEqual, 0.0)
		So(g.LivingReward(), ShouldEqual, -0.5)
		So(g.Reward(State{0, 1}, East, State{1, 1}), ShouldEqual, -0.5)

		dist := g.Transitions(State{0, 1}, East)
		So(dist[0].Next, ShouldResemble, State{1, 1})
		So(dist[0].Prob, ShouldEqual, 1.0)
	})
}

func TestLayoutsAreWellFormed(t *testing.T) {
	Convey("Every built-in layout is a valid MDP", t, func() {
		for _, name := range LayoutNames() {
			layout, err := Layout(name)
			So(err, ShouldBeNil)
			for _, noise := range []float64{0, 0.00001, 0.2, 0.4} {
				g, err := NewGridWorld(layout, WithNoise(noise))
				So(err, ShouldBeNil)
				So(mdp.Validate[State, Action](g), ShouldBeNil)
			}
		}

		_, err := Layout("nope")
		So(err, ShouldNotBeNil)
	})

	Convey("Layout names are listed in sorted order", t, func() {
		So(LayoutNames(), ShouldResemble, []string{"book", "bridge", "cliff", "cliff2", "discount", "maze"})
	})
}

func TestShow(t *testing.T) {
	Convey("When rendering the book grid", t, func() {
		g, err := NewGridWorld(BookGrid)
		So(err, ShouldBeNil)

		Convey("The grid prints top row first", func() {
			buf := &bytes.Buffer{}
			g.ShowGrid(buf)
			So(buf.String(), ShouldEqual, "_ _ _ + \n_ # _ - \nS _ _ _ \n")
		})

		Convey("The policy prints arrows", func() {
			buf := &bytes.Buffer{}
			g.ShowPolicy(buf, func(s State) (Action, bool) {
				if cell, _ := g.Cell(s); cell.Kind == EXIT {
					return Exit, true
				}
				return North, s.X != 2
			})
			So(buf.String(), ShouldEqual, " ^ ^ . x \n ^ # . x \n ^ ^ . ^ \n")
		})

		Convey("Values print with their total", func() {
			buf := &bytes.Buffer{}
			g.ShowValues(buf, func(State) float64 { return 1 })
			So(buf.String(), ShouldContainSubstring, "Total: 11.00")
		})
	})
}
