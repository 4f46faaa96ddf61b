package core

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/seckatie/workshopd/internal/core/db"
)

// Tracker applies progress events of one run to the stored list entries and
// records every finished item in the download history.
//
// Single items take the status of their event. A collection is Downloading
// while its members run and ends Success only if every member succeeded.
// It is not safe for concurrent use; feed it from the goroutine draining
// Run.Events.
type Tracker struct {
	db       *db.DB
	started  map[string]time.Time
	finished map[string]int
	failed   map[string]bool
}

// NewTracker returns a tracker writing to database.
func NewTracker(database *db.DB) *Tracker {
	return &Tracker{
		db:       database,
		started:  make(map[string]time.Time),
		finished: make(map[string]int),
		failed:   make(map[string]bool),
	}
}

// Apply updates the entry that queued ev.ItemID and every single-item entry
// sharing that item. Events for entries removed from the list are still
// recorded in the history.
func (t *Tracker) Apply(ev ProgressEvent) error {
	if err := t.applyOrigin(ev); err != nil {
		return err
	}
	return t.applySharers(ev)
}

func (t *Tracker) applySharers(ev ProgressEvent) error {
	var errs []error
	for _, url := range ev.Sharers {
		entry, err := t.db.GetEntryByURL(url)
		if err != nil {
			if !errors.Is(err, db.ErrEntryNotFound) {
				errs = append(errs, err)
			}
			continue
		}
		if err := t.db.UpdateEntryStatus(entry.ID, ev.Status.EntryStatus()); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", entry.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Tracker) applyOrigin(ev ProgressEvent) error {
	entry, err := t.db.GetEntryByURL(ev.Origin)
	if err != nil && !errors.Is(err, db.ErrEntryNotFound) {
		return err
	}
	known := err == nil

	if ev.Status == ProgressDownloading {
		t.started[ev.ItemID] = ev.Time
		if !known {
			return nil
		}
		if entry.Kind == db.KindCollection {
			log.Printf("Download status for %s: Downloading (%d/%d)", entry.Name, t.finished[ev.Origin]+1, ev.OriginSize)
		} else {
			log.Printf("Download status for %s: %s", entry.Name, ev.Status)
		}
		return t.db.UpdateEntryStatus(entry.ID, db.StatusDownloading)
	}

	started, ok := t.started[ev.ItemID]
	if !ok {
		started = ev.Time
	}
	if err := t.db.RecordAttempt(ev.RunID, ev.ItemID, entry.ID, ev.Status.String(), started, ev.Time); err != nil {
		return err
	}
	if !known {
		return nil
	}

	t.finished[ev.Origin]++
	if ev.Status == ProgressFailed {
		t.failed[ev.Origin] = true
	}

	if entry.Kind != db.KindCollection {
		log.Printf("Download status for %s: %s", entry.Name, ev.Status)
		return t.db.UpdateEntryStatus(entry.ID, ev.Status.EntryStatus())
	}
	if t.finished[ev.Origin] < ev.OriginSize {
		return nil
	}
	status := db.StatusSuccess
	if t.failed[ev.Origin] {
		status = db.StatusFailed
	}
	log.Printf("Collection %s finished: %s", entry.Name, status)
	return t.db.UpdateEntryStatus(entry.ID, status)
}

// Finish marks collections that could not be expanded as Error.
func (t *Tracker) Finish(summary RunSummary) error {
	var errs []error
	for _, url := range summary.Queue.Unexpanded {
		entry, err := t.db.GetEntryByURL(url)
		if err != nil {
			if !errors.Is(err, db.ErrEntryNotFound) {
				errs = append(errs, err)
			}
			continue
		}
		if err := t.db.UpdateEntryStatus(entry.ID, db.StatusError); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", entry.ID, err))
		}
	}
	return errors.Join(errs...)
}
