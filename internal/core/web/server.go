package web

import (
	"log"
	"net/http"
	"sync"

	"github.com/seckatie/workshopd/internal/core"
	"github.com/seckatie/workshopd/internal/core/db"
)

// Server exposes the workshop list and download runs over a JSON API.
type Server struct {
	db       *db.DB
	fetcher  core.PageFetcher
	pipeline *core.Pipeline

	mu   sync.Mutex
	last *core.Session
}

func StartServer(addr string, database *db.DB, fetcher core.PageFetcher, pipeline *core.Pipeline) {
	ws := newServer(database, fetcher, pipeline)

	mux := http.NewServeMux()
	ws.registerRoutes(mux)

	log.Printf("Starting web server at %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Web server failed: %v", err)
	}
}

func newServer(database *db.DB, fetcher core.PageFetcher, pipeline *core.Pipeline) *Server {
	return &Server{
		db:       database,
		fetcher:  fetcher,
		pipeline: pipeline,
	}
}

func (ws *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/entries", ws.handleEntries)
	mux.HandleFunc("/entries/", ws.handleEntryRoutes) // Handles /entries/{id} and /entries/clear
	mux.HandleFunc("/download", ws.handleDownload)
	mux.HandleFunc("/status", ws.handleStatus)
	mux.HandleFunc("/appid", ws.handleAppID)
	mux.HandleFunc("/attempts", ws.handleAttempts)
}
