package db

// EntryKind is the classification of a workshop URL.
type EntryKind string

const (
	KindUnknown    EntryKind = "Unknown"
	KindSingleItem EntryKind = "SingleItem"
	KindCollection EntryKind = "Collection"
)

// EntryStatus is the user-facing state of an entry in the list.
type EntryStatus string

const (
	StatusPending     EntryStatus = "Pending"
	StatusChecking    EntryStatus = "Checking"
	StatusDownloading EntryStatus = "Downloading"
	StatusSuccess     EntryStatus = "Success"
	StatusFailed      EntryStatus = "Failed"
	StatusError       EntryStatus = "Error"
)

// IsTerminal reports whether a download run has finished with the entry.
func (s EntryStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusError
}

// Entry is a single row of the workshop list.
type Entry struct {
	ID     int64
	URL    string
	Name   string
	Kind   EntryKind
	Status EntryStatus
	// Detail metadata is best-effort and may be empty.
	Author     string
	FileSize   string // item count for collections
	DatePosted string
	Visitors   string
	ImageURL   string
	Position   int64
	// CreatedAt is stored in the DB as RFC3339 text.
	CreatedAt string
}

// Classification is the metadata extracted from a workshop page.
type Classification struct {
	Kind       EntryKind
	Name       string
	Author     string
	FileSize   string
	DatePosted string
	Visitors   string
	ImageURL   string
}

// DownloadAttempt is one terminal download outcome for a workshop item.
type DownloadAttempt struct {
	ID         int64
	RunID      string
	ItemID     string
	EntryID    int64 // entry that queued the item; 0 once that entry is removed
	Status     string
	StartedAt  string
	FinishedAt string
}
