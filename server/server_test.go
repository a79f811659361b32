package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"planning/grid_world"
	"planning/reinforcement"
	"planning/server/cell_views"
	"planning/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func TestServer(t *testing.T) {
	Convey("Given a server over a trained book grid", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		grid, err := grid_world.NewGridWorld(grid_world.BookGrid)
		So(err, ShouldBeNil)
		cfg := reinforcement.DefaultConfig()
		planner, err := reinforcement.NewPlanner[grid_world.State, grid_world.Action](grid, cfg)
		So(err, ShouldBeNil)
		monitor := reinforcement.NewMonitor()
		last, err := reinforcement.Train[grid_world.State, grid_world.Action](ctx, grid, planner, cfg, monitor, nil)
		So(err, ShouldBeNil)

		snapshots := make(chan cell_views.GridSnapshot)
		srv, err := NewServer(ctx, ":0", grid, last, snapshots, monitor)
		So(err, ShouldBeNil)
		ts := httptest.NewServer(srv.Handler())
		defer ts.Close()

		Convey("The status endpoint reports the monitor", func() {
			resp, err := http.Get(ts.URL + "/status")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var status reinforcement.Status
			So(json.NewDecoder(resp.Body).Decode(&status), ShouldBeNil)
			So(status.Converged, ShouldBeTrue)
			So(status.Iteration, ShouldEqual, int64(last.Iteration))
			So(status.SweptDelta, ShouldBeGreaterThan, 0.0)
		})

		Convey("The index page is drawn from the latest snapshot", func() {
			resp, err := http.Get(ts.URL + "/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldContainSubstring, `id="valuesgrid"`)
			So(string(body), ShouldContainSubstring, "0.49")
		})

		Convey("Unknown routes are not found", func() {
			resp, err := http.Get(ts.URL + "/nope")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("The websocket publishes view updates", func() {
			go func() {
				ticker := time.NewTicker(50 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						select {
						case snapshots <- last:
						case <-ctx.Done():
							return
						}
					}
				}
			}()

			wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			So(conn.SetReadDeadline(time.Now().Add(5*time.Second)), ShouldBeNil)
			var updates []fastview.EleUpdate
			So(conn.ReadJSON(&updates), ShouldBeNil)
			So(len(updates), ShouldBeGreaterThan, 0)
		})
	})
}
