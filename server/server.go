package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"planning/grid_world"
	"planning/reinforcement"
	"planning/server/cell_views"
	"planning/server/fastview"
	"planning/server/root_view"
)

const shutdownGracePeriod = 5 * time.Second

// Server serves a single page whose views follow training snapshots over a websocket,
// plus a json status endpoint. The page's ele-update channel has a single reader, so
// only one websocket client receives a given update.
type Server struct {
	addr       string
	router     *mux.Router
	rootView   *root_view.RootView
	monitor    *reinforcement.Monitor
	lastUpdate atomic.Pointer[[][]cell_views.Cell]
}

// NewServer initializes all of the views and returns a server. @initial is rendered
// until the first of @snapshots arrives. @monitor may be nil.
func NewServer(
	ctx context.Context,
	addr string,
	grid *grid_world.GridWorld,
	initial cell_views.GridSnapshot,
	snapshots <-chan cell_views.GridSnapshot,
	monitor *reinforcement.Monitor,
) (*Server, error) {
	server := &Server{
		addr:    addr,
		monitor: monitor,
	}

	convert := cell_views.NewConverter(grid)
	initialCells := convert(initial)
	server.lastUpdate.Store(&initialCells)

	rootView, err := root_view.NewRootView(
		ctx,
		snapshots,
		func(snap cell_views.GridSnapshot) [][]cell_views.Cell {
			cells := convert(snap)
			server.lastUpdate.Store(&cells)
			return cells
		})
	if err != nil {
		return nil, fmt.Errorf("build views: %w", err)
	}
	server.rootView = rootView

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/status", server.serveStatus).Methods(http.MethodGet)
	server.router = router

	return server, nil
}

// Handler returns the server's routes.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens until @ctx is done, then shuts down.
func (server *Server) Serve(ctx context.Context) (err error) {
	srv := &http.Server{
		Addr:    server.addr,
		Handler: server.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("serving on %s\n", server.addr)
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client via websocket.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		log.Println(err)
		return
	}
	defer cli.Close()

	if err = cli.Sync(); err != nil {
		log.Println("sync:", err)
	}
}

func (server *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	var status reinforcement.Status
	if server.monitor != nil {
		status = server.monitor.Status()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Println("status:", err)
	}
}

// Serve the index.html main page, drawn from the latest cells.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, *server.lastUpdate.Load()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
