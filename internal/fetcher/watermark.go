package fetcher

import (
	"time"

	"github.com/tomakado/containers/set"

	"github.com/obeng-labs/newswire/internal/model"
)

// staleMargin tolerates clock skew and out-of-order publication around a
// source's watermark. An item this close behind the newest stored article
// is still considered fresh.
const staleMargin = time.Hour

// selectNew keeps only items the store has never seen: unknown link, and
// not older than the source's watermark minus the margin. Items whose
// publish date could not be resolved pass the watermark check, because a
// missing date must never silently drop a story.
func selectNew(items []model.Item, links []string, watermarks map[string]time.Time) []model.Item {
	known := set.New(links...)

	var fresh []model.Item
	for _, it := range items {
		if known.Contains(it.Link) {
			continue
		}
		if it.DateValid {
			if wm, ok := watermarks[it.SourceName]; ok && it.PublishedAt.Before(wm.Add(-staleMargin)) {
				continue
			}
		}
		fresh = append(fresh, it)
	}
	return fresh
}
