package engine

import (
	"sort"
	"time"

	"notification-orchestrator/internal/models"
)

type suppressionKey struct {
	caseID   string
	category models.Category
}

// Suppress drops dismissed notifications and collapses repeats of the same
// (case, category) pair seen within the dedup window of the last kept one.
//
// Events are evaluated oldest-first regardless of the order they arrive in; equal
// timestamps keep their input order. Survivors are returned in input order.
func Suppress(items []models.Notification, window time.Duration) []models.Notification {
	order := make([]int, 0, len(items))
	for i, n := range items {
		if n.IsDismissed {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].Timestamp.Before(items[order[b]].Timestamp)
	})

	lastKept := make(map[suppressionKey]time.Time, len(order))
	keep := make([]bool, len(items))
	for _, i := range order {
		n := items[i]
		key := suppressionKey{caseID: n.CaseID, category: n.Category}
		if seen, ok := lastKept[key]; ok && n.Timestamp.Sub(seen) < window {
			continue
		}
		lastKept[key] = n.Timestamp
		keep[i] = true
	}

	out := make([]models.Notification, 0, len(order))
	for i, n := range items {
		if keep[i] {
			out = append(out, n)
		}
	}
	return out
}
