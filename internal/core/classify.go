package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/seckatie/workshopd/internal/core/db"
)

// Classify fetches a workshop page and extracts its kind and display metadata.
//
// A page containing the collection children region is a Collection; anything
// else is a SingleItem. Metadata regions are optional: a missing region leaves
// the field empty. Only a failed fetch returns an error.
func Classify(ctx context.Context, fetcher PageFetcher, url string) (db.Classification, error) {
	doc, err := fetchDocument(ctx, fetcher, url)
	if err != nil {
		return db.Classification{}, err
	}
	return classifyDocument(doc), nil
}

func classifyDocument(doc *goquery.Document) db.Classification {
	title := text(doc.Find(selTitle))
	if title == "" {
		title = "Unknown"
	}

	c := db.Classification{
		Author: firstLine(text(doc.Find(selAuthor))),
	}

	if doc.Find(selCollectionMarker).Length() > 0 {
		c.Kind = db.KindCollection
		c.Name = title + " [Collection]"
		c.ImageURL = attr(doc.Find(selOGImage), "content")
		c.FileSize = text(doc.Find(selChildCount))
		c.Visitors = text(doc.Find(selStatsLeft).Eq(0))
		c.DatePosted = text(doc.Find(selStatsRight).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.Text(), "@")
		}))
		return c
	}

	c.Kind = db.KindSingleItem
	c.Name = title
	c.ImageURL = attr(doc.Find(selPreviewImage), "src")
	right := doc.Find(selStatsRight)
	c.FileSize = text(right.Eq(0))
	c.DatePosted = text(right.Eq(1))
	c.Visitors = text(doc.Find(selStatsTable).First().Find("td").First())
	return c
}

// ClassifyEntry classifies e.URL and applies the result to e in place.
// On fetch failure e is marked Error and the error is returned.
func ClassifyEntry(ctx context.Context, fetcher PageFetcher, e *db.Entry) error {
	c, err := Classify(ctx, fetcher, e.URL)
	if err != nil {
		e.Name = "Failed to add item"
		e.Status = db.StatusError
		return err
	}
	e.Kind = c.Kind
	e.Name = c.Name
	e.Author = c.Author
	e.FileSize = c.FileSize
	e.DatePosted = c.DatePosted
	e.Visitors = c.Visitors
	e.ImageURL = c.ImageURL
	if e.Status == db.StatusChecking || e.Status == db.StatusError || e.Status == "" {
		e.Status = db.StatusPending
	}
	return nil
}

// ClassifyAndPersist classifies an entry and stores the result.
//
// The entry is marked Checking while the page is fetched. On success it is
// stored with its kind and metadata and returned to Pending; on failure it is
// stored as Error with no metadata and the fetch error is returned.
func ClassifyAndPersist(ctx context.Context, database *db.DB, fetcher PageFetcher, e db.Entry) (db.Entry, error) {
	previous := e.Status
	if err := database.UpdateEntryStatus(e.ID, db.StatusChecking); err != nil {
		return e, err
	}
	e.Status = db.StatusChecking

	classifyErr := ClassifyEntry(ctx, fetcher, &e)
	if classifyErr != nil {
		log.Printf("Failed to classify entry id=%d url=%s: %v", e.ID, e.URL, classifyErr)
		if err := database.SaveClassification(e.ID, db.Classification{Kind: e.Kind, Name: e.Name}, db.StatusError); err != nil {
			return e, fmt.Errorf("classify failed (%v) and saving failure failed (%v)", classifyErr, err)
		}
		return e, classifyErr
	}

	// Reclassifying keeps a terminal download status visible.
	if previous.IsTerminal() && previous != db.StatusError {
		e.Status = previous
	}

	if err := database.SaveClassification(e.ID, db.Classification{
		Kind:       e.Kind,
		Name:       e.Name,
		Author:     e.Author,
		FileSize:   e.FileSize,
		DatePosted: e.DatePosted,
		Visitors:   e.Visitors,
		ImageURL:   e.ImageURL,
	}, e.Status); err != nil {
		return e, err
	}

	log.Printf("Classified entry id=%d as %s: %s", e.ID, e.Kind, e.Name)
	return e, nil
}

func text(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(s.First().Text())
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.First().Attr(name)
	return strings.TrimSpace(v)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
