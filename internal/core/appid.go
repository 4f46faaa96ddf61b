package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrAppIDNotDetected is returned when no application id can be read from the
// entry pages.
var ErrAppIDNotDetected = errors.New("could not detect app id")

// DetectAppID reads the application id from the breadcrumb link of the first
// http(s) URL in urls.
func DetectAppID(ctx context.Context, fetcher PageFetcher, urls []string) (string, error) {
	var first string
	for _, u := range urls {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(u)), "http") {
			first = strings.TrimSpace(u)
			break
		}
	}
	if first == "" {
		return "", fmt.Errorf("%w: no http URL in list", ErrAppIDNotDetected)
	}

	doc, err := fetchDocument(ctx, fetcher, first)
	if err != nil {
		log.Printf("Failed to fetch app id from %s: %v", first, err)
		return "", fmt.Errorf("%w: %v", ErrAppIDNotDetected, err)
	}

	href := attr(doc.Find(selBreadcrumbApp), "href")
	id, ok := ParseWorkshopID(href)
	if !ok {
		return "", fmt.Errorf("%w: no app breadcrumb on %s", ErrAppIDNotDetected, first)
	}
	log.Printf("AppId found: %s", id)
	return id, nil
}
