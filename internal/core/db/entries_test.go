package db

import (
	"errors"
	"testing"
)

const (
	itemURL       = "https://steamcommunity.com/sharedfiles/filedetails/?id=111"
	otherItemURL  = "https://steamcommunity.com/sharedfiles/filedetails/?id=222"
	collectionURL = "https://steamcommunity.com/sharedfiles/filedetails/?id=999"
)

func TestValidateEntryURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", itemURL, false},
		{"http", "http://steamcommunity.com/sharedfiles/filedetails/?id=1", false},
		{"empty", "", true},
		{"no scheme", "steamcommunity.com/sharedfiles/filedetails/?id=1", true},
		{"ftp", "ftp://example.com/1", true},
		{"missing host", "https:///path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntryURL(tt.url)
			if tt.wantErr && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("expected ErrInvalidURL, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestAddEntry(t *testing.T) {
	db := newTestDB(t)

	t.Run("adds pending unknown entry", func(t *testing.T) {
		e, err := db.AddEntry("  " + itemURL + "  ")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if e.ID <= 0 {
			t.Errorf("expected positive ID, got %d", e.ID)
		}
		if e.URL != itemURL {
			t.Errorf("expected trimmed URL, got %q", e.URL)
		}
		if e.Kind != KindUnknown {
			t.Errorf("expected kind Unknown, got %q", e.Kind)
		}
		if e.Status != StatusPending {
			t.Errorf("expected status Pending, got %q", e.Status)
		}
		if e.CreatedAt == "" {
			t.Error("expected CreatedAt to be set")
		}
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := db.AddEntry(itemURL)
		if !errors.Is(err, ErrDuplicateEntry) {
			t.Errorf("expected ErrDuplicateEntry, got %v", err)
		}
	})

	t.Run("rejects invalid URL", func(t *testing.T) {
		_, err := db.AddEntry("not a url")
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}

func TestListEntriesKeepsInsertOrder(t *testing.T) {
	db := newTestDB(t)

	urls := []string{collectionURL, itemURL, otherItemURL}
	for _, u := range urls {
		if _, err := db.AddEntry(u); err != nil {
			t.Fatalf("failed to add %s: %v", u, err)
		}
	}

	entries, err := db.ListEntries()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(entries) != len(urls) {
		t.Fatalf("expected %d entries, got %d", len(urls), len(entries))
	}
	for i, e := range entries {
		if e.URL != urls[i] {
			t.Errorf("entry %d: expected %s, got %s", i, urls[i], e.URL)
		}
	}
}

func TestGetEntry(t *testing.T) {
	db := newTestDB(t)

	added, _ := db.AddEntry(itemURL)

	t.Run("by id", func(t *testing.T) {
		e, err := db.GetEntry(added.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if e.URL != itemURL {
			t.Errorf("expected %s, got %s", itemURL, e.URL)
		}
	})

	t.Run("by url", func(t *testing.T) {
		e, err := db.GetEntryByURL(itemURL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if e.ID != added.ID {
			t.Errorf("expected id %d, got %d", added.ID, e.ID)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := db.GetEntry(9999); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
		if _, err := db.GetEntryByURL(otherItemURL); !errors.Is(err, ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
	})
}

func TestSaveClassification(t *testing.T) {
	db := newTestDB(t)

	e, _ := db.AddEntry(collectionURL)

	c := Classification{
		Kind:     KindCollection,
		Name:     "My Mods [Collection]",
		Author:   "someone",
		FileSize: "3",
		ImageURL: "https://images.example/preview.jpg",
	}
	if err := db.SaveClassification(e.ID, c, StatusPending); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	got, err := db.GetEntry(e.ID)
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if got.Kind != KindCollection {
		t.Errorf("expected Collection, got %q", got.Kind)
	}
	if got.Name != c.Name {
		t.Errorf("expected name %q, got %q", c.Name, got.Name)
	}
	if got.Author != "someone" || got.FileSize != "3" || got.ImageURL != c.ImageURL {
		t.Errorf("metadata not stored: %+v", got)
	}
	if got.DatePosted != "" || got.Visitors != "" {
		t.Errorf("expected absent metadata to read back empty, got %+v", got)
	}

	if err := db.SaveClassification(9999, c, StatusPending); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestUpdateEntryStatus(t *testing.T) {
	db := newTestDB(t)

	e, _ := db.AddEntry(itemURL)
	if err := db.UpdateEntryStatus(e.ID, StatusFailed); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	failed, err := db.ListEntriesByStatus(StatusFailed)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(failed) != 1 || failed[0].ID != e.ID {
		t.Errorf("expected the entry to be listed as Failed, got %+v", failed)
	}

	if err := db.UpdateEntryStatus(9999, StatusFailed); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDeleteAndClearEntries(t *testing.T) {
	db := newTestDB(t)

	a, _ := db.AddEntry(itemURL)
	db.AddEntry(otherItemURL)

	if err := db.DeleteEntry(a.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := db.DeleteEntry(a.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound on second delete, got %v", err)
	}

	if err := db.ClearEntries(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	entries, _ := db.ListEntries()
	if len(entries) != 0 {
		t.Errorf("expected empty list, got %d entries", len(entries))
	}

	// positions restart after a clear
	e, err := db.AddEntry(collectionURL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e.Position != 1 {
		t.Errorf("expected position 1, got %d", e.Position)
	}
}

func TestEntryStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   EntryStatus
		expected bool
	}{
		{StatusPending, false},
		{StatusChecking, false},
		{StatusDownloading, false},
		{StatusSuccess, true},
		{StatusFailed, true},
		{StatusError, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.expected {
			t.Errorf("EntryStatus(%s).IsTerminal() = %v, expected %v", tt.status, got, tt.expected)
		}
	}
}
