package core

import (
	"context"
	"log"
	"slices"
	"strings"

	"github.com/seckatie/workshopd/internal/core/db"
)

// QueueEntry is one user-selected list entry handed to BuildQueue.
type QueueEntry struct {
	URL  string
	Kind db.EntryKind
}

// Queue is the resolved download queue for one run.
type Queue struct {
	// IDs are unique workshop item identifiers in download order.
	IDs []string
	// Origins maps each identifier to the entry URL that first queued it.
	Origins map[string]string
	// Sharers maps an identifier to the other single-item entry URLs that
	// name it. Their duplicate was dropped but they follow the item's status.
	Sharers map[string][]string
	// Unexpanded lists collection URLs whose page could not be fetched.
	Unexpanded []string
}

// Len returns the number of items to download.
func (q Queue) Len() int {
	return len(q.IDs)
}

// BuildQueue resolves entries into a flat, deduplicated queue of item ids.
//
// Entries are processed sequentially in the given order. A Collection
// contributes its member URLs, every other entry its own URL. The raw URLs are
// then reduced to identifiers, keeping the first occurrence of each.
func BuildQueue(ctx context.Context, fetcher PageFetcher, entries []QueueEntry) Queue {
	var raw []string
	var origins []string
	var single []bool
	var unexpanded []string

	for _, e := range entries {
		if e.Kind != db.KindCollection {
			raw = append(raw, e.URL)
			origins = append(origins, e.URL)
			single = append(single, true)
			log.Printf("Single item added to queue: %s", e.URL)
			continue
		}

		members, err := expandCollection(ctx, fetcher, e.URL)
		if err != nil {
			log.Printf("Failed to get collection items for %s: %v", e.URL, err)
			unexpanded = append(unexpanded, e.URL)
			continue
		}
		for _, m := range members {
			raw = append(raw, m)
			origins = append(origins, e.URL)
			single = append(single, false)
		}
		log.Printf("Collection expanded: %s, items added: %d", e.URL, len(members))
	}

	q := Queue{
		IDs:        make([]string, 0, len(raw)),
		Origins:    make(map[string]string, len(raw)),
		Sharers:    make(map[string][]string),
		Unexpanded: unexpanded,
	}
	for i, line := range raw {
		id, ok := ParseWorkshopID(strings.TrimSpace(line))
		if !ok {
			log.Printf("No workshop id in %q, skipping", line)
			continue
		}
		if origin, dup := q.Origins[id]; dup {
			if single[i] && origins[i] != origin && !slices.Contains(q.Sharers[id], origins[i]) {
				q.Sharers[id] = append(q.Sharers[id], origins[i])
			}
			continue
		}
		q.Origins[id] = origins[i]
		q.IDs = append(q.IDs, id)
	}

	log.Printf("Final queue count: %d", q.Len())
	return q
}
