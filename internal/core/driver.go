package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrToolUnavailable is returned when the steamcmd executable cannot be found.
var ErrToolUnavailable = errors.New("steamcmd is not available")

// waitDelay bounds how long Wait keeps reading output after the process was killed.
const waitDelay = 5 * time.Second

// Tool describes how to invoke steamcmd.
type Tool struct {
	// Path is the steamcmd executable, absolute or looked up on PATH.
	Path string
	// InstallDir is passed to +force_install_dir. Defaults to the directory of Path.
	InstallDir string
	// Timeout bounds each item. If <= 0, DefaultDownloadTimeout is used.
	Timeout time.Duration
}

// Check verifies that the executable exists and is runnable.
func (t Tool) Check() error {
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("%w: no path configured", ErrToolUnavailable)
	}
	if _, err := exec.LookPath(t.Path); err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	return nil
}

func (t Tool) installDir() string {
	if t.InstallDir != "" {
		return t.InstallDir
	}
	return filepath.Dir(t.Path)
}

func (t Tool) timeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultDownloadTimeout
	}
	return t.Timeout
}

// Args returns the steamcmd arguments that download one item anonymously and quit.
func (t Tool) Args(appID, itemID string) []string {
	return []string{
		"+force_install_dir", t.installDir(),
		"+login", "anonymous",
		"+workshop_download_item", appID, itemID,
		"+quit",
	}
}

// ItemResult is the outcome of downloading one item.
type ItemResult struct {
	ItemID     string
	Status     ProgressStatus
	SawMarker  bool
	TimedOut   bool
	Err        error // process error, if any
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunResult counts the outcomes of a driver run.
type RunResult struct {
	Attempted int
	Succeeded int
	Failed    int
	// Skipped counts items never started because the context was cancelled.
	Skipped int
}

// Driver runs steamcmd once per item, strictly one at a time.
type Driver struct {
	tool Tool
}

// NewDriver returns a driver for tool.
func NewDriver(tool Tool) *Driver {
	return &Driver{tool: tool}
}

// Tool returns the driver's tool configuration.
func (d *Driver) Tool() Tool {
	return d.tool
}

// Download invokes steamcmd for a single item and waits for it to finish.
//
// The item succeeds only if the success marker appears on stdout before the
// process exits and the timeout has not fired. A process still running at the
// timeout is killed. Stderr lines are logged and never fail the item on their own.
func (d *Driver) Download(ctx context.Context, appID, itemID string) ItemResult {
	res := ItemResult{ItemID: itemID, StartedAt: time.Now()}

	runCtx, cancel := context.WithTimeout(ctx, d.tool.timeout())
	defer cancel()

	var sawMarker atomic.Bool
	stdout := &lineWriter{onLine: func(line string) {
		if strings.Contains(line, SuccessMarker) {
			sawMarker.Store(true)
		}
	}}
	stderr := &lineWriter{onLine: func(line string) {
		log.Printf("[steamcmd ERR]: %s", line)
	}}

	cmd := exec.CommandContext(runCtx, d.tool.Path, d.tool.Args(appID, itemID)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	log.Printf("steamcmd started for item: %s", itemID)
	res.Err = cmd.Run()
	stdout.flush()
	stderr.flush()
	res.FinishedAt = time.Now()

	res.SawMarker = sawMarker.Load()
	res.TimedOut = errors.Is(runCtx.Err(), context.DeadlineExceeded)

	switch {
	case runCtx.Err() != nil:
		res.Status = ProgressFailed
		log.Printf("Download failed for item %s: %v (process killed)", itemID, runCtx.Err())
	case res.SawMarker:
		res.Status = ProgressSuccess
		log.Printf("Download succeeded for item: %s", itemID)
	default:
		res.Status = ProgressFailed
		log.Printf("Download failed for item %s: no success marker (exit: %v)", itemID, res.Err)
	}
	return res
}

// Run downloads ids in order. For every item emit receives a Downloading event
// right before steamcmd starts and a Success or Failed event once it is done.
// A cancelled ctx stops the run after the current item.
func (d *Driver) Run(ctx context.Context, appID string, ids []string, emit func(ProgressEvent)) RunResult {
	log.Printf("Starting steamcmd run. AppId: %s, Items: %d", appID, len(ids))

	var out RunResult
	for i, id := range ids {
		if ctx.Err() != nil {
			out.Skipped = len(ids) - i
			log.Printf("Run cancelled, %d item(s) skipped", out.Skipped)
			break
		}

		emit(ProgressEvent{ItemID: id, Status: ProgressDownloading, Index: i + 1, Total: len(ids), Time: time.Now()})
		res := d.Download(ctx, appID, id)
		out.Attempted++
		if res.Status == ProgressSuccess {
			out.Succeeded++
		} else {
			out.Failed++
		}
		emit(ProgressEvent{ItemID: id, Status: res.Status, Index: i + 1, Total: len(ids), Time: res.FinishedAt})
	}

	log.Printf("steamcmd run finished: %d succeeded, %d failed", out.Succeeded, out.Failed)
	return out
}

// lineWriter splits a byte stream into lines for onLine.
type lineWriter struct {
	mu     sync.Mutex
	buf    []byte
	onLine func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		w.onLine(line)
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.onLine(strings.TrimRight(string(w.buf), "\r"))
		w.buf = nil
	}
}
