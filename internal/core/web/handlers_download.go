package web

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/seckatie/workshopd/internal/core"
)

// handleDownload starts a run over the list. ?retry=failed limits it to
// Failed and Error entries; ?app_id overrides the stored AppID.
func (ws *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	opts := core.DownloadOptions{
		AppID:       strings.TrimSpace(r.URL.Query().Get("app_id")),
		RetryFailed: r.URL.Query().Get("retry") == "failed",
	}

	// The run outlives the request.
	s, err := core.StartDownload(context.Background(), ws.db, ws.fetcher, ws.pipeline, opts)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrRunInProgress):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, core.ErrNothingToDownload):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			log.Printf("Failed to start download: %v", err)
		}
		return
	}

	ws.mu.Lock()
	ws.last = s
	ws.mu.Unlock()

	log.Printf("Started download run %s", s.Run.ID)
	writeJSON(w, http.StatusAccepted, newRunView(s))
}

func (ws *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	appID, err := ws.db.GetAppID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		log.Printf("Failed to get AppId: %v", err)
		return
	}
	entries, err := ws.db.ListEntries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		log.Printf("Failed to get entries: %v", err)
		return
	}

	ws.mu.Lock()
	last := ws.last
	ws.mu.Unlock()

	writeJSON(w, http.StatusOK, statusView{
		Busy:    ws.pipeline.Busy(),
		AppID:   appID,
		Entries: len(entries),
		LastRun: newRunView(last),
	})
}

type appIDRequest struct {
	AppID string `json:"app_id"`
}

func (ws *Server) handleAppID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		appID, err := ws.db.GetAppID()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			log.Printf("Failed to get AppId: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, appIDRequest{AppID: appID})
	case http.MethodPut:
		if ws.rejectWhileBusy(w) {
			return
		}
		var req appIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		appID := strings.TrimSpace(req.AppID)
		if appID != "" {
			if id, ok := core.ParseWorkshopID(appID); !ok || id != appID {
				writeError(w, http.StatusBadRequest, "AppId must be numeric")
				return
			}
		}
		if err := ws.db.SetAppID(appID); err != nil {
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			log.Printf("Failed to set AppId: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, appIDRequest{AppID: appID})
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

// handleAttempts lists the download history, newest first.
func (ws *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	attempts, err := ws.db.ListAttempts(r.URL.Query().Get("run"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		log.Printf("Failed to list attempts: %v", err)
		return
	}

	views := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		views = append(views, attemptView{
			RunID:      a.RunID,
			ItemID:     a.ItemID,
			EntryID:    a.EntryID,
			Status:     a.Status,
			StartedAt:  a.StartedAt,
			FinishedAt: a.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}
