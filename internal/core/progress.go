package core

import (
	"sync"
	"time"

	"github.com/seckatie/workshopd/internal/core/db"
)

// ProgressStatus is the per-item state reported by the download driver.
type ProgressStatus string

const (
	ProgressDownloading ProgressStatus = "Downloading..."
	ProgressSuccess     ProgressStatus = "Success"
	ProgressFailed      ProgressStatus = "Failed"
)

func (s ProgressStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the item is finished.
func (s ProgressStatus) IsTerminal() bool {
	return s == ProgressSuccess || s == ProgressFailed
}

// EntryStatus maps the progress status onto the list entry status.
func (s ProgressStatus) EntryStatus() db.EntryStatus {
	switch s {
	case ProgressSuccess:
		return db.StatusSuccess
	case ProgressFailed:
		return db.StatusFailed
	default:
		return db.StatusDownloading
	}
}

// ProgressEvent reports a state change of one queued item.
type ProgressEvent struct {
	RunID  string
	ItemID string
	Status ProgressStatus
	// Origin is the entry URL that queued the item, OriginSize the number of
	// queued items sharing that origin (more than one only for collections).
	Origin     string
	OriginSize int
	// Sharers are other single-item entry URLs naming the same item.
	Sharers []string
	// Index is the 1-based queue position, Total the queue length.
	Index int
	Total int
	Time  time.Time
}

// mailbox is an unbounded FIFO between the driver and a consumer. push never
// blocks; a forwarding goroutine feeds out and closes it after close is called
// and every queued event was delivered.
type mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []ProgressEvent
	closed bool
	out    chan ProgressEvent
}

func newMailbox() *mailbox {
	m := &mailbox{out: make(chan ProgressEvent)}
	m.cond = sync.NewCond(&m.mu)
	go m.forward()
	return m
}

func (m *mailbox) push(ev ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.items = append(m.items, ev)
	m.cond.Signal()
}

func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Signal()
}

func (m *mailbox) forward() {
	defer close(m.out)
	for {
		m.mu.Lock()
		for len(m.items) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.items) == 0 {
			m.mu.Unlock()
			return
		}
		ev := m.items[0]
		m.items = m.items[1:]
		m.mu.Unlock()

		m.out <- ev
	}
}
