package core

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/seckatie/workshopd/internal/core/db"
)

// DownloadOptions selects what StartDownload runs.
type DownloadOptions struct {
	// AppID overrides the stored AppID. If both are empty the id is detected.
	AppID string
	// RetryFailed limits the run to entries in Failed or Error status.
	RetryFailed bool
	// OnEvent, if set, observes every progress event after it was applied to
	// the list. It runs on the session goroutine and must not block for long.
	OnEvent func(ProgressEvent)
}

// Session is a download run over the stored list. Its progress is written to
// the entries as it happens. The pipeline stays busy until Done is closed.
type Session struct {
	Run  *Run
	done chan struct{}

	mu        sync.Mutex
	completed int
	total     int
	summary   RunSummary
	err       error
}

// Done is closed once the run finished and every event was applied.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session is over.
func (s *Session) Wait() (RunSummary, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.err
}

// Progress returns the number of finished items and the queue length seen so far.
func (s *Session) Progress() (completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, s.total
}

// SelectEntries returns the list entries a run should cover, in list order.
// Entries whose kind is still unknown are classified first so collections
// are expanded rather than queued as single items.
func SelectEntries(ctx context.Context, database *db.DB, fetcher PageFetcher, retryFailed bool) ([]QueueEntry, error) {
	var entries []db.Entry
	if retryFailed {
		for _, status := range []db.EntryStatus{db.StatusFailed, db.StatusError} {
			list, err := database.ListEntriesByStatus(status)
			if err != nil {
				return nil, err
			}
			entries = append(entries, list...)
		}
		slices.SortFunc(entries, func(a, b db.Entry) int {
			return cmp.Compare(a.Position, b.Position)
		})
	} else {
		list, err := database.ListEntries()
		if err != nil {
			return nil, err
		}
		entries = list
	}

	out := make([]QueueEntry, 0, len(entries))
	for _, e := range entries {
		if e.Kind == db.KindUnknown {
			classified, err := ClassifyAndPersist(ctx, database, fetcher, e)
			if err != nil {
				log.Printf("Could not classify %s before download: %v", e.URL, err)
			} else {
				e = classified
			}
		}
		out = append(out, QueueEntry{URL: e.URL, Kind: e.Kind})
	}
	return out, nil
}

// StartDownload starts a pipeline run over the stored list and applies its
// progress to the entries in the background. A detected AppID is saved.
func StartDownload(ctx context.Context, database *db.DB, fetcher PageFetcher, pipeline *Pipeline, opts DownloadOptions) (*Session, error) {
	if pipeline.Busy() {
		return nil, ErrRunInProgress
	}

	appID := opts.AppID
	if appID == "" {
		stored, err := database.GetAppID()
		if err != nil {
			return nil, err
		}
		appID = stored
	}

	entries, err := SelectEntries(ctx, database, fetcher, opts.RetryFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}

	run, err := pipeline.Start(ctx, RunRequest{AppID: appID, Entries: entries, holdBusy: true})
	if err != nil {
		return nil, err
	}

	s := &Session{Run: run, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer pipeline.release()
		s.consume(database, opts.OnEvent)
	}()
	return s, nil
}

func (s *Session) consume(database *db.DB, onEvent func(ProgressEvent)) {
	tracker := NewTracker(database)
	for ev := range s.Run.Events() {
		if err := tracker.Apply(ev); err != nil {
			log.Printf("Failed to record progress for item %s: %v", ev.ItemID, err)
		}
		s.mu.Lock()
		s.total = ev.Total
		if ev.Status.IsTerminal() {
			s.completed++
		}
		s.mu.Unlock()
		if onEvent != nil {
			onEvent(ev)
		}
	}

	summary, err := s.Run.Wait()
	if ferr := tracker.Finish(summary); ferr != nil {
		log.Printf("Failed to mark unexpanded collections: %v", ferr)
	}
	if summary.AppDetected && !errors.Is(err, ErrAppIDNotDetected) {
		if serr := database.SetAppID(summary.AppID); serr != nil {
			log.Printf("Failed to save detected AppId %s: %v", summary.AppID, serr)
		}
	}

	s.mu.Lock()
	s.summary = summary
	s.err = err
	if s.total == 0 {
		s.total = summary.Total
	}
	s.mu.Unlock()
}
