package engine

import "notification-orchestrator/internal/models"

// Routed holds the audience channels. Membership is not exclusive.
type Routed struct {
	Direct   []models.Notification
	Watching []models.Notification
}

// Route splits items into the direct and watching audiences.
func Route(items []models.Notification) Routed {
	r := Routed{
		Direct:   []models.Notification{},
		Watching: []models.Notification{},
	}
	for _, n := range items {
		if isDirect(n) {
			r.Direct = append(r.Direct, n)
		}
		if isWatching(n) {
			r.Watching = append(r.Watching, n)
		}
	}
	return r
}

func isDirect(n models.Notification) bool {
	return n.IsBundled || n.Priority == models.PriorityCritical || n.Priority == models.PriorityHigh
}

func isWatching(n models.Notification) bool {
	return n.Watched() || n.Priority == models.PriorityMedium
}
