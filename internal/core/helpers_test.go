package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/seckatie/workshopd/internal/core/db"
)

const workshopBase = "https://steamcommunity.com/sharedfiles/filedetails/?id="

func itemURL(id string) string { return workshopBase + id }

// fakeFetcher serves canned pages and counts requests per URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("%w: HTTP 404", ErrFetch)
	}
	return html, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func singleItemPage(title string) string {
	return `<html><head><title>Steam Workshop</title></head><body>
<div class="breadcrumbs"><a href="https://steamcommunity.com/app/480/workshop/">Spacewar</a> &gt; <a href="https://steamcommunity.com/workshop/browse/?appid=480">Workshop</a></div>
<div class="workshopItemTitle">` + title + `</div>
<img id="previewImage" src="https://images.example/` + title + `.jpg">
<div class="friendBlockContent">
  modder
  Offline
</div>
<div class="detailsStatsContainerRight">
  <div class="detailsStatRight">12.345 MB</div>
  <div class="detailsStatRight">3 Jan, 2024 @ 1:02pm</div>
</div>
<table class="stats_table"><tr><td>1,024</td><td>Unique Visitors</td></tr></table>
</body></html>`
}

func collectionPage(title string, memberIDs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta property="og:image" content="https://images.example/collection.jpg"></head><body>
<div class="breadcrumbs"><a href="https://steamcommunity.com/app/480/workshop/">Spacewar</a></div>
<div class="workshopItemTitle">` + title + `</div>
<div class="friendBlockContent">curator
Online</div>
<span class="childCount">` + fmt.Sprint(len(memberIDs)) + `</span>
<div class="detailsStatsContainerLeft"><div>2,048</div><div>17</div></div>
<div class="detailsStatsContainerRight"><div>Items</div><div>5 Feb, 2024 @ 3:04pm</div></div>
<div class="collectionChildren">
`)
	for _, id := range memberIDs {
		b.WriteString(`<div class="collectionItem"><div class="collectionItemDetails"><a href="` + itemURL(id) + `"><div class="workshopItemTitle">Item ` + id + `</div></a></div></div>
`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// writeTool writes an executable shell script standing in for steamcmd.
// $7 is the workshop item id in the argument list built by Tool.Args.
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

// successTool appends every requested item id to logPath and reports success.
func successTool(t *testing.T, logPath string) string {
	return writeTool(t, `echo "$7" >> "`+logPath+`"
echo "Loading Steam API...OK"
echo "Downloading item $7 ..."
echo "Success. Downloaded item $7 to \"/tmp/content/$6/$7\" (42 bytes)"
exit 0`)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Fields(string(data))
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}
