package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/seckatie/workshopd/internal/core/db"
)

type addEntriesRequest struct {
	URL  string   `json:"url"`
	URLs []string `json:"urls"`
}

type addEntriesResponse struct {
	Added    []entryView       `json:"added"`
	Rejected map[string]string `json:"rejected,omitempty"`
}

func (ws *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		ws.createEntries(w, r)
	case http.MethodGet:
		ws.listEntries(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

// createEntries adds one or more URLs. It accepts a JSON body with "url" or
// "urls", or a form value "url" like a plain HTML form post.
func (ws *Server) createEntries(w http.ResponseWriter, r *http.Request) {
	if ws.rejectWhileBusy(w) {
		return
	}

	var req addEntriesRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		req.URL = r.FormValue("url")
	}

	urls := req.URLs
	if req.URL != "" {
		urls = append([]string{req.URL}, urls...)
	}
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "Missing url parameter")
		return
	}

	resp := addEntriesResponse{Added: []entryView{}}
	var firstErr error
	for _, u := range urls {
		e, err := ws.db.AddEntry(u)
		if err != nil {
			if !errors.Is(err, db.ErrInvalidURL) && !errors.Is(err, db.ErrDuplicateEntry) {
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
				log.Printf("Failed to insert entry: %v", err)
				return
			}
			if resp.Rejected == nil {
				resp.Rejected = make(map[string]string)
			}
			resp.Rejected[u] = err.Error()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resp.Added = append(resp.Added, newEntryView(e))
	}

	switch {
	case len(resp.Added) > 0:
		writeJSON(w, http.StatusCreated, resp)
	case errors.Is(firstErr, db.ErrDuplicateEntry):
		writeJSON(w, http.StatusConflict, resp)
	default:
		writeJSON(w, http.StatusBadRequest, resp)
	}
}

func (ws *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	var (
		entries []db.Entry
		err     error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		entries, err = ws.db.ListEntriesByStatus(db.EntryStatus(status))
	} else {
		entries, err = ws.db.ListEntries()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		log.Printf("Failed to get entries: %v", err)
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(e))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleEntryRoutes routes /entries/clear and /entries/{id}.
func (ws *Server) handleEntryRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/entries/"), "/")

	if path == "clear" {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		ws.clearEntries(w)
		return
	}

	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		ws.getEntry(w, id)
	case http.MethodDelete:
		ws.deleteEntry(w, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (ws *Server) getEntry(w http.ResponseWriter, id int64) {
	e, err := ws.db.GetEntry(id)
	if err != nil {
		if errors.Is(err, db.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		log.Printf("Failed to get entry %d: %v", id, err)
		return
	}
	writeJSON(w, http.StatusOK, newEntryView(e))
}

func (ws *Server) deleteEntry(w http.ResponseWriter, id int64) {
	if ws.rejectWhileBusy(w) {
		return
	}
	if err := ws.db.DeleteEntry(id); err != nil {
		if errors.Is(err, db.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		log.Printf("Failed to delete entry %d: %v", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ws *Server) clearEntries(w http.ResponseWriter) {
	if ws.rejectWhileBusy(w) {
		return
	}
	if err := ws.db.ClearEntries(); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		log.Printf("Failed to clear entries: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
