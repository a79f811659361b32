package cell_views

import (
	"fmt"
	"html/template"
	"math"

	channerics "github.com/niceyeti/channerics/channels"

	"planning/grid_world"
	"planning/server/fastview"
)

// Heatmap shades each non-wall cell by where its value lies between the smallest and
// largest values of the grid: blue for the smallest, red for the largest.
type Heatmap struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewHeatmap(
	done <-chan struct{},
	cells <-chan [][]Cell,
) (hm *Heatmap) {
	hm = &Heatmap{id: "heatmap"}
	hm.updates = channerics.Convert(done, cells, hm.onUpdate)
	return
}

func (hm *Heatmap) Updates() <-chan []fastview.EleUpdate {
	return hm.updates
}

func heatRectId(cell Cell) string {
	return fmt.Sprintf("%d-%d-heat-rect", cell.X, cell.Y)
}

func valueRange(cells [][]Cell) (minVal, maxVal float64) {
	minVal, maxVal = math.MaxFloat64, -math.MaxFloat64
	for _, row := range cells {
		for _, cell := range row {
			if cell.Kind == grid_world.WALL {
				continue
			}
			minVal = math.Min(minVal, cell.Value)
			maxVal = math.Max(maxVal, cell.Value)
		}
	}
	return
}

func (hm *Heatmap) onUpdate(cells [][]Cell) (ops []fastview.EleUpdate) {
	minVal, maxVal := valueRange(cells)
	for _, row := range cells {
		for _, cell := range row {
			if cell.Kind == grid_world.WALL {
				continue
			}
			ops = append(ops, fastview.EleUpdate{
				EleId: heatRectId(cell),
				Ops: []fastview.Op{
					{Key: "fill", Value: getRGBFill(cell.Value, minVal, maxVal)},
				},
			})
		}
	}
	return
}

// getRGBFill mixes red and blue by the relative position of val in [minVal, maxVal].
func getRGBFill(val, minVal, maxVal float64) string {
	redPct := 0
	if span := maxVal - minVal; span > 0 {
		redPct = int(math.Round(100 * (val - minVal) / span))
	}
	return fmt.Sprintf("rgb(%d%%,0%%,%d%%)", redPct, 100-redPct)
}

// Parse defines the heatmap's svg in @t; cells start with their kind's fill.
func (hm *Heatmap) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + hm.id + `" }}
<div style="padding:20px; display:inline-block;">
	{{ $size := 40 }}
	<svg id="` + hm.id + `" xmlns="http://www.w3.org/2000/svg"
		width="{{ add (mult $size (len .)) 1 }}px"
		height="{{ add (mult $size (len (index . 0))) 1 }}px"
		style="shape-rendering: crispEdges;">
	{{ range $column := . }}{{ range $cell := $column }}
		<rect id="{{ $cell.X }}-{{ $cell.Y }}-heat-rect"
			x="{{ mult $cell.X $size }}" y="{{ mult $cell.Y $size }}" width="{{ $size }}" height="{{ $size }}"
			fill="{{ $cell.Fill }}" stroke="lightgrey" stroke-width="1"/>
	{{ end }}{{ end }}
	</svg>
</div>
{{ end }}`)
	return hm.id, err
}
