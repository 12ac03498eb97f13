package engine

import (
	"fmt"
	"sort"
	"time"

	"notification-orchestrator/internal/models"
)

// Bundle folds clusters of more than minSize notifications sharing a cluster key,
// whose newest and oldest members are less than window apart, into one synthetic
// bulk_pattern notification. Everything else passes through individually.
//
// Unbundled items keep their input order and come first; bundles follow in the
// order their cluster key first appeared.
func Bundle(items []models.Notification, minSize int, window time.Duration) []models.Notification {
	clusters := make(map[string][]int)
	var keys []string
	for i, n := range items {
		key := n.ClusterKey()
		if key == "" {
			continue
		}
		if _, ok := clusters[key]; !ok {
			keys = append(keys, key)
		}
		clusters[key] = append(clusters[key], i)
	}

	absorbed := make([]bool, len(items))
	var bundles []models.Notification
	for _, key := range keys {
		idx := clusters[key]
		if len(idx) <= minSize {
			continue
		}
		members := make([]models.Notification, len(idx))
		for j, i := range idx {
			members[j] = items[i]
		}
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].Timestamp.After(members[b].Timestamp)
		})
		newest := members[0].Timestamp
		oldest := members[len(members)-1].Timestamp
		if newest.Sub(oldest) >= window {
			continue
		}
		bundles = append(bundles, newBundle(key, members))
		for _, i := range idx {
			absorbed[i] = true
		}
	}

	out := make([]models.Notification, 0, len(items))
	for i, n := range items {
		if !absorbed[i] {
			out = append(out, n)
		}
	}
	return append(out, bundles...)
}

// newBundle builds the representative for members, which are sorted newest-first.
func newBundle(key string, members []models.Notification) models.Notification {
	rep := members[0]
	label := rep.Payer()
	filter := "payer:" + label
	if label == "" {
		label = key
		filter = "cluster:" + key
	}

	b := rep
	b.ID = fmt.Sprintf("bundle_%s_%d", key, rep.Timestamp.UnixMilli())
	b.Category = models.CategoryBulkPattern
	b.Title = fmt.Sprintf("%d similar alerts for %s", len(members), label)
	b.Description = fmt.Sprintf("Multiple items require attention. The latest is: \"%s\"", rep.Title)
	b.Priority = models.PriorityHigh
	b.IsBundled = true
	b.Count = len(members)
	b.BundledItems = members
	b.Actions = []models.Action{{
		Label:   "Open in Worklist",
		Type:    "link",
		URL:     "/worklist?filter=" + filter,
		Primary: true,
	}}
	return b
}
