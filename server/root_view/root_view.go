package root_view

import (
	"context"
	"html/template"
	"strings"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/exp/maps"

	"planning/server/cell_views"
	"planning/server/fastview"
)

const (
	pageName  = "mainpage"
	batchRate = 20 * time.Millisecond
)

// Integer arithmetic for laying out svg cells in templates.
var layoutFuncs = template.FuncMap{
	"add":  func(i, j int) int { return i + j },
	"sub":  func(i, j int) int { return i - j },
	"mult": func(i, j int) int { return i * j },
	"div":  func(i, j int) int { return i / j },
}

// The page script opens the websocket back to the serving host and applies each
// pushed batch of element updates; ids missing from the page are ignored.
const pageTemplate = `
{{ define "` + pageName + `" }}
<!DOCTYPE html>
<html>
	<head>
		<link rel="icon" href="data:,">
		<script>
			const sock = new WebSocket("ws://" + location.host + "/ws");
			sock.onopen = () => console.log("websocket open");
			sock.onerror = (event) => console.log("websocket error:", event);
			sock.onmessage = (event) => {
				for (const update of JSON.parse(event.data)) {
					const ele = document.getElementById(update.EleId);
					if (ele === null) {
						continue;
					}
					for (const op of update.Ops) {
						if (op.Key === "textContent") {
							ele.textContent = op.Value;
						} else {
							ele.setAttribute(op.Key, op.Value);
						}
					}
				}
			};
		</script>
	</head>
	<body>
	BODY
	</body>
</html>
{{ end }}
`

// RootView is the index page: it owns the views and the single merged stream of
// their element updates.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the values grid and heatmap over @snapshots, each converted to
// cells once by @convert.
func NewRootView(
	ctx context.Context,
	snapshots <-chan cell_views.GridSnapshot,
	convert func(cell_views.GridSnapshot) [][]cell_views.Cell,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[cell_views.GridSnapshot, [][]cell_views.Cell]().
		WithContext(ctx).
		WithModel(snapshots, convert).
		WithView(func(done <-chan struct{}, cells <-chan [][]cell_views.Cell) fastview.ViewComponent {
			return cell_views.NewValuesGrid(done, cells)
		}).
		WithView(func(done <-chan struct{}, cells <-chan [][]cell_views.Cell) fastview.ViewComponent {
			return cell_views.NewHeatmap(done, cells)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}

	return &RootView{
		views:   views,
		updates: batchify(ctx.Done(), channerics.Merge(ctx.Done(), inputs...), batchRate),
	}, nil
}

func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse defines the page, and every view within it, in @parent.
func (rv *RootView) Parse(parent *template.Template) (string, error) {
	page := parent.Funcs(layoutFuncs)

	var body strings.Builder
	for _, view := range rv.views {
		name, err := view.Parse(page)
		if err != nil {
			return "", err
		}
		body.WriteString(`{{ template "` + name + `" . }}`)
	}

	if _, err := page.Parse(strings.Replace(pageTemplate, "BODY", body.String(), 1)); err != nil {
		return "", err
	}
	return pageName, nil
}

// batchify coalesces updates per element id and emits the pending batch at most once
// per @rate, so an element updated several times within a tick is sent once with its
// latest ops. Whatever is pending when @source closes is flushed.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		pending := map[string]fastview.EleUpdate{}
		flush := func() bool {
			if len(pending) == 0 {
				return true
			}
			select {
			case output <- maps.Values(pending):
				pending = map[string]fastview.EleUpdate{}
				return true
			case <-done:
				return false
			}
		}

		ticks := channerics.NewTicker(done, rate)
		for {
			select {
			case <-done:
				return
			case updates, ok := <-source:
				if !ok {
					flush()
					return
				}
				for _, update := range updates {
					pending[update.EleId] = update
				}
			case <-ticks:
				if !flush() {
					return
				}
			}
		}
	}()

	return output
}
