package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/seckatie/workshopd/internal/core"
	"github.com/seckatie/workshopd/internal/core/db"
)

const workshopBase = "https://steamcommunity.com/sharedfiles/filedetails/?id="

// pageFetcher serves canned pages.
type pageFetcher map[string]string

func (f pageFetcher) Fetch(_ context.Context, url string) (string, error) {
	html, ok := f[url]
	if !ok {
		return "", fmt.Errorf("%w: HTTP 404", core.ErrFetch)
	}
	return html, nil
}

func itemPage(appID string) string {
	return `<html><body>
<div class="breadcrumbs"><a href="https://steamcommunity.com/app/` + appID + `/workshop/">Game</a></div>
<div class="workshopItemTitle">Item</div>
</body></html>`
}

// newTestDB creates a new in-memory SQLite database for testing.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return database
}

// writeTool writes an executable shell script standing in for steamcmd.
func writeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tool requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "steamcmd.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write tool script: %v", err)
	}
	return path
}

// newTestServer creates a new Server instance for testing. toolPath may be empty.
func newTestServer(t *testing.T, pages pageFetcher, toolPath string) *Server {
	t.Helper()
	database := newTestDB(t)
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("failed to close db: %v", err)
		}
	})
	pipeline := core.NewPipeline(pages, core.NewDriver(core.Tool{Path: toolPath, Timeout: 30 * time.Second}))
	return newServer(database, pages, pipeline)
}

// waitIdle waits for the last started run to finish.
func waitIdle(t *testing.T, ws *Server) {
	t.Helper()
	ws.mu.Lock()
	last := ws.last
	ws.mu.Unlock()
	if last == nil {
		return
	}
	select {
	case <-last.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for run to finish")
	}
}

func TestNewServer(t *testing.T) {
	ws := newTestServer(t, pageFetcher{}, "")
	if ws.db == nil {
		t.Error("expected db to be set")
	}
	if ws.pipeline == nil {
		t.Error("expected pipeline to be set")
	}
	if ws.fetcher == nil {
		t.Error("expected fetcher to be set")
	}
}

func TestRegisterRoutes(t *testing.T) {
	ws := newTestServer(t, pageFetcher{}, "")
	mux := http.NewServeMux()
	ws.registerRoutes(mux)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/entries", http.StatusOK},
		{http.MethodGet, "/status", http.StatusOK},
		{http.MethodGet, "/appid", http.StatusOK},
		{http.MethodGet, "/attempts", http.StatusOK},
		{http.MethodGet, "/entries/42", http.StatusNotFound},
		{http.MethodGet, "/download", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}
