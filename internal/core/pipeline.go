package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrRunInProgress is returned by Start while another run is in flight.
	ErrRunInProgress = errors.New("a download run is already in progress")
	// ErrNothingToDownload is returned by Start for a request without entries.
	ErrNothingToDownload = errors.New("no items to download")
	// ErrEmptyQueue is returned when no item identifiers could be resolved.
	ErrEmptyQueue = errors.New("final download queue is empty")
)

// RunRequest selects what a run downloads.
type RunRequest struct {
	// AppID is the owning application. If empty it is detected from the first
	// http URL of Entries.
	AppID   string
	Entries []QueueEntry

	// holdBusy keeps the pipeline busy after the run until release is called,
	// so a consumer can finish writing the run's results first.
	holdBusy bool
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID string
	// AppID is the id used for the run, detected or given.
	AppID       string
	AppDetected bool
	Queue       Queue
	// Total is the number of queued items (the progress maximum).
	Total  int
	Result RunResult
}

// Pipeline builds the download queue and drives the downloads for one run at a
// time. Busy reports whether a run is in flight; callers use it to reject list
// changes while downloading.
type Pipeline struct {
	fetcher PageFetcher
	driver  *Driver
	busy    atomic.Bool
}

// NewPipeline returns a pipeline using fetcher for page lookups and driver for downloads.
func NewPipeline(fetcher PageFetcher, driver *Driver) *Pipeline {
	return &Pipeline{fetcher: fetcher, driver: driver}
}

// Busy reports whether a run is in progress.
func (p *Pipeline) Busy() bool {
	return p.busy.Load()
}

func (p *Pipeline) release() {
	p.busy.Store(false)
}

// Run is a started pipeline run.
type Run struct {
	ID      string
	events  *mailbox
	done    chan struct{}
	summary RunSummary
	err     error
}

// Events delivers progress events in queue order. The channel is closed once
// the run is over. Consumers must drain it.
func (r *Run) Events() <-chan ProgressEvent {
	return r.events.out
}

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its summary. The error is
// non-nil when the run aborted before downloading (ErrAppIDNotDetected,
// ErrEmptyQueue, ErrToolUnavailable) or ctx was cancelled.
func (r *Run) Wait() (RunSummary, error) {
	<-r.done
	return r.summary, r.err
}

// Start launches a run in the background and returns immediately.
// It fails with ErrRunInProgress if a run is already active.
func (p *Pipeline) Start(ctx context.Context, req RunRequest) (*Run, error) {
	if len(req.Entries) == 0 {
		log.Println("No items to download.")
		return nil, ErrNothingToDownload
	}
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}

	run := &Run{
		ID:     uuid.NewString(),
		events: newMailbox(),
		done:   make(chan struct{}),
	}
	run.summary.RunID = run.ID

	go func() {
		defer close(run.done)
		if !req.holdBusy {
			defer p.release()
		}
		defer run.events.close()

		run.summary, run.err = p.execute(ctx, run.ID, req, run.events.push)
		if run.err != nil {
			log.Printf("Run %s aborted: %v", run.ID, run.err)
			return
		}
		log.Println("Download process finished.")
	}()

	return run, nil
}

func (p *Pipeline) execute(ctx context.Context, runID string, req RunRequest, emit func(ProgressEvent)) (RunSummary, error) {
	summary := RunSummary{RunID: runID, AppID: strings.TrimSpace(req.AppID)}
	log.Printf("Starting download process for %d items.", len(req.Entries))

	if summary.AppID == "" {
		urls := make([]string, len(req.Entries))
		for i, e := range req.Entries {
			urls[i] = e.URL
		}
		appID, err := DetectAppID(ctx, p.fetcher, urls)
		if err != nil {
			return summary, err
		}
		summary.AppID = appID
		summary.AppDetected = true
		log.Printf("Auto-detected AppId: %s", appID)
	}

	q := BuildQueue(ctx, p.fetcher, req.Entries)
	summary.Queue = q
	summary.Total = q.Len()
	if q.Len() == 0 {
		return summary, ErrEmptyQueue
	}

	if err := p.driver.Tool().Check(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run cancelled: %w", err)
	}

	originSize := make(map[string]int, len(q.Origins))
	for _, origin := range q.Origins {
		originSize[origin]++
	}

	summary.Result = p.driver.Run(ctx, summary.AppID, q.IDs, func(ev ProgressEvent) {
		ev.RunID = runID
		ev.Origin = q.Origins[ev.ItemID]
		ev.OriginSize = originSize[ev.Origin]
		ev.Sharers = q.Sharers[ev.ItemID]
		emit(ev)
	})
	return summary, nil
}
