package cell_views

import (
	"fmt"
	"html/template"

	channerics "github.com/niceyeti/channerics/channels"

	"planning/grid_world"
	"planning/server/fastview"
)

// ValuesGrid is a table of cells showing each state's value and greedy action.
type ValuesGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewValuesGrid(
	done <-chan struct{},
	cells <-chan [][]Cell,
) (vg *ValuesGrid) {
	vg = &ValuesGrid{id: "valuesgrid"}
	vg.updates = channerics.Convert(done, cells, vg.onUpdate)
	return
}

func (vg *ValuesGrid) Updates() <-chan []fastview.EleUpdate {
	return vg.updates
}

func valueTextId(cell Cell) string {
	return fmt.Sprintf("%d-%d-value-text", cell.X, cell.Y)
}

func policyArrowId(cell Cell) string {
	return fmt.Sprintf("%d-%d-policy-arrow", cell.X, cell.Y)
}

// onUpdate rewrites the value and arrow text of every non-wall cell.
func (vg *ValuesGrid) onUpdate(cells [][]Cell) (ops []fastview.EleUpdate) {
	for _, row := range cells {
		for _, cell := range row {
			if cell.Kind == grid_world.WALL {
				continue
			}
			ops = append(ops,
				fastview.EleUpdate{
					EleId: valueTextId(cell),
					Ops:   []fastview.Op{{Key: "textContent", Value: cell.Text}},
				},
				fastview.EleUpdate{
					EleId: policyArrowId(cell),
					Ops:   []fastview.Op{{Key: "textContent", Value: cell.Arrow}},
				})
		}
	}
	return
}

// Parse defines the grid's svg, drawn from the initial [][]Cell, in @t. Each cell is a
// group translated to its corner holding a rect, the value text and the policy arrow.
func (vg *ValuesGrid) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + vg.id + `" }}
<div style="padding:20px; display:inline-block;">
	{{ $size := 100 }}
	{{ $mid := div $size 2 }}
	<svg id="` + vg.id + `" xmlns="http://www.w3.org/2000/svg"
		width="{{ add (mult $size (len .)) 1 }}px"
		height="{{ add (mult $size (len (index . 0))) 1 }}px"
		style="shape-rendering: crispEdges; font-family: monospace;">
	{{ range $column := . }}{{ range $cell := $column }}
		<g transform="translate({{ mult $cell.X $size }} {{ mult $cell.Y $size }})">
			<rect width="{{ $size }}" height="{{ $size }}" fill="{{ $cell.Fill }}" stroke="black" stroke-width="1"/>
			<text id="{{ $cell.X }}-{{ $cell.Y }}-value-text" x="{{ $mid }}" y="{{ sub $mid 10 }}"
				fill="navy" text-anchor="middle">{{ $cell.Text }}</text>
			<text id="{{ $cell.X }}-{{ $cell.Y }}-policy-arrow" x="{{ $mid }}" y="{{ add $mid 20 }}"
				fill="navy" font-size="24" text-anchor="middle" dominant-baseline="central">{{ $cell.Arrow }}</text>
		</g>
	{{ end }}{{ end }}
	</svg>
</div>
{{ end }}`)
	return vg.id, err
}
