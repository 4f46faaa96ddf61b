package db

import "log"

// ------------------------------
// Event System
// ------------------------------
//
// The DB emits typed events when entries are added, classified, change status,
// or are removed. Register listeners to react to these changes.
//
// Example usage:
//
//	db.RegisterEventListener(db.OnEntryCreatedEvent, func(event db.Event) error {
//	    ev := event.(db.EntryCreatedEvent)
//	    log.Printf("New entry: %d - %s", ev.Entry.ID, ev.Entry.URL)
//	    // Queue a classification job here
//	    return nil
//	})
//
// Event is the common interface for all database events.
type Event interface {
	Kind() EventKind
}

// EventKind represents all the kinds of events that can be emitted by the DB.
type EventKind int

const (
	// OnEntryCreatedEvent is emitted when an entry is added to the list.
	OnEntryCreatedEvent EventKind = iota
	// OnEntryDeletedEvent is emitted when an entry is removed.
	OnEntryDeletedEvent
	// OnEntryClassifiedEvent is emitted when page metadata is saved for an entry.
	OnEntryClassifiedEvent
	// OnEntryStatusChangedEvent is emitted when an entry's status changes.
	OnEntryStatusChangedEvent
	// OnEntriesClearedEvent is emitted when the whole list is cleared.
	OnEntriesClearedEvent
)

func (k EventKind) String() string {
	switch k {
	case OnEntryCreatedEvent:
		return "entry_created"
	case OnEntryDeletedEvent:
		return "entry_deleted"
	case OnEntryClassifiedEvent:
		return "entry_classified"
	case OnEntryStatusChangedEvent:
		return "entry_status_changed"
	case OnEntriesClearedEvent:
		return "entries_cleared"
	default:
		return "unknown"
	}
}

// EntryCreatedEvent is emitted after a new entry is successfully inserted.
type EntryCreatedEvent struct {
	Entry Entry
}

func (e EntryCreatedEvent) Kind() EventKind { return OnEntryCreatedEvent }

// EntryDeletedEvent is emitted after an entry is deleted.
// The Entry field contains the state before deletion (if available).
type EntryDeletedEvent struct {
	Entry Entry
}

func (e EntryDeletedEvent) Kind() EventKind { return OnEntryDeletedEvent }

// EntryClassifiedEvent is emitted after classification results are saved.
type EntryClassifiedEvent struct {
	Entry Entry
}

func (e EntryClassifiedEvent) Kind() EventKind { return OnEntryClassifiedEvent }

// EntryStatusChangedEvent is emitted after an entry's status is updated.
type EntryStatusChangedEvent struct {
	EntryID int64
	Old     EntryStatus
	New     EntryStatus
}

func (e EntryStatusChangedEvent) Kind() EventKind { return OnEntryStatusChangedEvent }

// EntriesClearedEvent is emitted after the list is cleared.
type EntriesClearedEvent struct {
	Count int64
}

func (e EntriesClearedEvent) Kind() EventKind { return OnEntriesClearedEvent }

// EventListener is a callback that handles events of a specific kind.
type EventListener func(event Event) error

// RegisterEventListener adds a listener for a specific event kind.
// Listeners are called synchronously in registration order after the DB operation succeeds.
func (db *DB) RegisterEventListener(eventKind EventKind, listener EventListener) {
	if db.eventListeners == nil {
		db.eventListeners = make(map[EventKind][]EventListener)
	}
	db.eventListeners[eventKind] = append(db.eventListeners[eventKind], listener)
}

// emit dispatches an event to all registered listeners for that event kind.
func (db *DB) emit(event Event) {
	listeners := db.eventListeners[event.Kind()]
	for _, listener := range listeners {
		if err := listener(event); err != nil {
			log.Printf("Event listener error for %s: %v", event.Kind(), err)
		}
	}
}
