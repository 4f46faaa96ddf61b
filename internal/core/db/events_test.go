package db

import (
	"errors"
	"testing"
)

// TestEventKindString tests the String method on EventKind.
func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind     EventKind
		expected string
	}{
		{OnEntryCreatedEvent, "entry_created"},
		{OnEntryDeletedEvent, "entry_deleted"},
		{OnEntryClassifiedEvent, "entry_classified"},
		{OnEntryStatusChangedEvent, "entry_status_changed"},
		{OnEntriesClearedEvent, "entries_cleared"},
		{EventKind(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// TestEntryCreatedEvent tests that an event is emitted on insert.
func TestEntryCreatedEvent(t *testing.T) {
	db := newTestDB(t)

	var received EntryCreatedEvent
	calls := 0
	db.RegisterEventListener(OnEntryCreatedEvent, func(event Event) error {
		received = event.(EntryCreatedEvent)
		calls++
		return nil
	})

	e, _ := db.AddEntry(itemURL)
	db.AddEntry(itemURL) // duplicate, no event

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if received.Entry.ID != e.ID {
		t.Errorf("expected entry ID %d, got %d", e.ID, received.Entry.ID)
	}
	if received.Entry.URL != itemURL {
		t.Errorf("expected URL %q, got %q", itemURL, received.Entry.URL)
	}
}

// TestEntryStatusChangedEvent tests old/new status reporting and no-op updates.
func TestEntryStatusChangedEvent(t *testing.T) {
	db := newTestDB(t)

	e, _ := db.AddEntry(itemURL)

	var events []EntryStatusChangedEvent
	db.RegisterEventListener(OnEntryStatusChangedEvent, func(event Event) error {
		events = append(events, event.(EntryStatusChangedEvent))
		return nil
	})

	db.UpdateEntryStatus(e.ID, StatusDownloading)
	db.UpdateEntryStatus(e.ID, StatusDownloading)
	db.UpdateEntryStatus(e.ID, StatusSuccess)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Old != StatusPending || events[0].New != StatusDownloading {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Old != StatusDownloading || events[1].New != StatusSuccess {
		t.Errorf("unexpected second event: %+v", events[1])
	}
}

// TestEntryClassifiedEvent tests that the saved entry is delivered.
func TestEntryClassifiedEvent(t *testing.T) {
	db := newTestDB(t)

	e, _ := db.AddEntry(collectionURL)

	var received EntryClassifiedEvent
	db.RegisterEventListener(OnEntryClassifiedEvent, func(event Event) error {
		received = event.(EntryClassifiedEvent)
		return nil
	})

	db.SaveClassification(e.ID, Classification{Kind: KindCollection, Name: "Pack [Collection]"}, StatusPending)

	if received.Entry.Kind != KindCollection {
		t.Errorf("expected Collection, got %q", received.Entry.Kind)
	}
	if received.Entry.Name != "Pack [Collection]" {
		t.Errorf("unexpected name %q", received.Entry.Name)
	}
}

// TestEntryDeletedAndClearedEvents tests removal events.
func TestEntryDeletedAndClearedEvents(t *testing.T) {
	db := newTestDB(t)

	a, _ := db.AddEntry(itemURL)
	db.AddEntry(otherItemURL)
	db.AddEntry(collectionURL)

	var deleted EntryDeletedEvent
	db.RegisterEventListener(OnEntryDeletedEvent, func(event Event) error {
		deleted = event.(EntryDeletedEvent)
		return nil
	})
	var cleared EntriesClearedEvent
	db.RegisterEventListener(OnEntriesClearedEvent, func(event Event) error {
		cleared = event.(EntriesClearedEvent)
		return nil
	})

	db.DeleteEntry(a.ID)
	if deleted.Entry.URL != itemURL {
		t.Errorf("expected deleted entry URL %q, got %q", itemURL, deleted.Entry.URL)
	}

	db.ClearEntries()
	if cleared.Count != 2 {
		t.Errorf("expected 2 cleared entries, got %d", cleared.Count)
	}
}

// TestListenerErrorDoesNotFailOperation tests that listener errors are only logged.
func TestListenerErrorDoesNotFailOperation(t *testing.T) {
	db := newTestDB(t)

	second := false
	db.RegisterEventListener(OnEntryCreatedEvent, func(event Event) error {
		return errors.New("listener failed")
	})
	db.RegisterEventListener(OnEntryCreatedEvent, func(event Event) error {
		second = true
		return nil
	})

	if _, err := db.AddEntry(itemURL); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !second {
		t.Error("expected second listener to be called")
	}
}
