package web

import (
	"github.com/seckatie/workshopd/internal/core"
	"github.com/seckatie/workshopd/internal/core/db"
)

type entryView struct {
	ID         int64  `json:"id"`
	URL        string `json:"url"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Author     string `json:"author,omitempty"`
	FileSize   string `json:"file_size,omitempty"`
	DatePosted string `json:"date_posted,omitempty"`
	Visitors   string `json:"visitors,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func newEntryView(e db.Entry) entryView {
	return entryView{
		ID:         e.ID,
		URL:        e.URL,
		Name:       e.Name,
		Kind:       string(e.Kind),
		Status:     string(e.Status),
		Author:     e.Author,
		FileSize:   e.FileSize,
		DatePosted: e.DatePosted,
		Visitors:   e.Visitors,
		ImageURL:   e.ImageURL,
		CreatedAt:  e.CreatedAt,
	}
}

type runView struct {
	ID        string `json:"id"`
	Done      bool   `json:"done"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	AppID     string `json:"app_id,omitempty"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error,omitempty"`
}

func newRunView(s *core.Session) *runView {
	if s == nil {
		return nil
	}
	view := &runView{ID: s.Run.ID}
	select {
	case <-s.Done():
		view.Done = true
	default:
	}
	view.Completed, view.Total = s.Progress()
	if !view.Done {
		return view
	}

	summary, err := s.Wait()
	view.AppID = summary.AppID
	view.Succeeded = summary.Result.Succeeded
	view.Failed = summary.Result.Failed
	view.Skipped = summary.Result.Skipped
	if err != nil {
		view.Error = err.Error()
	}
	return view
}

type statusView struct {
	Busy    bool     `json:"busy"`
	AppID   string   `json:"app_id"`
	Entries int      `json:"entries"`
	LastRun *runView `json:"last_run,omitempty"`
}

type attemptView struct {
	RunID      string `json:"run_id"`
	ItemID     string `json:"item_id"`
	EntryID    int64  `json:"entry_id,omitempty"`
	Status     string `json:"status"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}
