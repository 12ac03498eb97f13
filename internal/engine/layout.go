package engine

import "notification-orchestrator/internal/models"

// AssignLayout sets the display tier of each item in its ranked order.
// Bundles always get the bundle tier and do not consume the top budget. At most
// topCap other items get the top tier, and only when their score reaches
// minScore unless ungated is set.
func AssignLayout(items []models.Notification, topCap int, minScore float64, ungated bool) []models.Notification {
	out := make([]models.Notification, len(items))
	top := 0
	for i, n := range items {
		switch {
		case n.IsBundled:
			n.Layout = models.LayoutBundle
		case top < topCap && (ungated || n.Score >= minScore):
			n.Layout = models.LayoutTop
			top++
		default:
			n.Layout = models.LayoutSecondary
		}
		out[i] = n
	}
	return out
}
