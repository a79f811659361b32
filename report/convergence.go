package report

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"planning/reinforcement"
)

var ErrNoPoints = errors.New("no points recorded")

// Point is one planner step: the largest value change and the mean state value.
type Point struct {
	Iteration int
	Delta     float64
	MeanValue float64
}

// Convergence accumulates a training run's progress for plotting.
type Convergence[S, A comparable] struct {
	title  string
	mu     sync.Mutex
	points []Point
}

func NewConvergence[S, A comparable](title string) *Convergence[S, A] {
	return &Convergence[S, A]{title: title}
}

// Record adds a point for @snap.
func (c *Convergence[S, A]) Record(snap reinforcement.Snapshot[S, A]) {
	mean := 0.0
	if len(snap.Values) > 0 {
		mean = stat.Mean(maps.Values(snap.Values), nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, Point{
		Iteration: snap.Iteration,
		Delta:     snap.Delta,
		MeanValue: mean,
	})
}

func (c *Convergence[S, A]) Points() []Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Point(nil), c.points...)
}

// Save renders the delta and mean value curves to @path; the extension picks the format.
func (c *Convergence[S, A]) Save(path string) error {
	points := c.Points()
	if len(points) == 0 {
		return ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = c.title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Value"

	deltas := make(plotter.XYs, len(points))
	means := make(plotter.XYs, len(points))
	for i, pt := range points {
		deltas[i] = plotter.XY{X: float64(pt.Iteration), Y: pt.Delta}
		means[i] = plotter.XY{X: float64(pt.Iteration), Y: pt.MeanValue}
	}

	for i, series := range []struct {
		name string
		xys  plotter.XYs
	}{
		{"Delta", deltas},
		{"Mean value", means},
	} {
		line, err := plotter.NewLine(series.xys)
		if err != nil {
			return fmt.Errorf("plot %s: %w", series.name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
