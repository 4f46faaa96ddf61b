package core

import (
	"context"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExpandCollection returns the member item URLs listed on a collection page,
// in page order.
//
// A missing or empty listing yields an empty slice. Fetch and parse failures
// are logged and also yield an empty slice, so one bad collection never aborts
// a download run.
func ExpandCollection(ctx context.Context, fetcher PageFetcher, url string) []string {
	urls, err := expandCollection(ctx, fetcher, url)
	if err != nil {
		log.Printf("Failed to get collection items for %s: %v", url, err)
		return []string{}
	}
	return urls
}

func expandCollection(ctx context.Context, fetcher PageFetcher, url string) ([]string, error) {
	doc, err := fetchDocument(ctx, fetcher, url)
	if err != nil {
		return nil, err
	}

	urls := []string{}
	doc.Find(selCollectionItems).Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		urls = append(urls, href)
	})
	log.Printf("Collection %s lists %d item(s)", url, len(urls))
	return urls, nil
}
