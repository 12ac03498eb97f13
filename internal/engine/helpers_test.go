package engine

import (
	"time"

	"notification-orchestrator/internal/models"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) time.Time {
	return testNow.Add(-d)
}

func notif(id string, ts time.Time, opts ...func(*models.Notification)) models.Notification {
	n := models.Notification{
		ID:          id,
		Category:    models.CategoryEligibilityChange,
		Title:       "Alert " + id,
		Priority:    models.PriorityHigh,
		Timestamp:   ts,
		CaseID:      "case-" + id,
		PatientName: "Patient " + id,
		Actions:     []models.Action{{Label: "Review Case", Type: "link", URL: "/case/" + id}},
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func withCase(caseID string) func(*models.Notification) {
	return func(n *models.Notification) { n.CaseID = caseID }
}

func withCategory(c models.Category) func(*models.Notification) {
	return func(n *models.Notification) { n.Category = c }
}

func withPriority(p models.Priority) func(*models.Notification) {
	return func(n *models.Notification) { n.Priority = p }
}

func withSignals(s models.Signals) func(*models.Notification) {
	return func(n *models.Notification) { n.Metadata = &s }
}

func withoutMetadata() func(*models.Notification) {
	return func(n *models.Notification) { n.Metadata = nil }
}

func dismissed() func(*models.Notification) {
	return func(n *models.Notification) { n.IsDismissed = true }
}

func ids(items []models.Notification) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}
