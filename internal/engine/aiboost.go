package engine

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"notification-orchestrator/internal/models"
)

const defaultExplanation = "Shown for its high potential impact."

var printer = message.NewPrinter(language.English)

// explanationRule pairs a predicate with the sentence it produces.
// Rules are evaluated in slice order and the first match wins.
type explanationRule struct {
	name    string
	matches func(n models.Notification) bool
	explain func(n models.Notification) string
}

var explanationRules = []explanationRule{
	{
		name: "synthetic",
		matches: func(n models.Notification) bool {
			return n.Metadata != nil && n.Metadata.Synthetic
		},
		explain: func(n models.Notification) string {
			return printer.Sprintf("This is a simulated alert for %s based on your work patterns, shown to keep your workflow warm.", n.Payer())
		},
	},
	{
		name: "high_value",
		matches: func(n models.Notification) bool {
			return highValue(n.Metadata)
		},
		explain: func(n models.Notification) string {
			return printer.Sprintf("This high-value case ($%d) requires immediate attention.", int64(math.Round(*n.Metadata.CaseValue)))
		},
	},
	{
		name: "denial_risk",
		matches: func(n models.Notification) bool {
			return highDenialRisk(n.Metadata)
		},
		explain: func(n models.Notification) string {
			return printer.Sprintf("Our model predicts a %v%% chance of denial based on the provided DX/CPT combo for this payer.", *n.Metadata.DenialRiskScore)
		},
	},
	{
		name: "expired_auth",
		matches: func(n models.Notification) bool {
			return n.Category == models.CategoryAuthExpired
		},
		explain: func(models.Notification) string {
			return "This authorization expired, putting a high-value case at immediate risk of denial."
		},
	},
}

func highValue(m *models.Signals) bool {
	return m != nil && m.CaseValue != nil && *m.CaseValue > 10000
}

func highDenialRisk(m *models.Signals) bool {
	return m != nil && m.DenialRiskScore != nil && *m.DenialRiskScore > 80
}

// AIScore is the additive curation score: +40 high value, +30 high denial risk,
// +10 when the date of service is at most one day away.
func AIScore(n models.Notification, now time.Time) float64 {
	m := n.Metadata
	if m == nil {
		return 0
	}
	var score float64
	if highValue(m) {
		score += 40
	}
	if highDenialRisk(m) {
		score += 30
	}
	if m.DOS != nil && m.DOS.Sub(now).Hours()/24 <= 1 {
		score += 10
	}
	return score
}

// Explain returns the sentence of the first matching rule, or the generic default.
func Explain(n models.Notification) string {
	for _, r := range explanationRules {
		if r.matches(n) {
			return r.explain(n)
		}
	}
	return defaultExplanation
}

func suggestedActions(c models.Category) []models.SuggestedAction {
	if c.IsAuth() {
		return []models.SuggestedAction{{Label: "Renew Auth", Confidence: 0.87}}
	}
	return []models.SuggestedAction{{Label: "Review Case", Confidence: 0.92}}
}

// Curate re-scores the head of a pool already ranked for the ai_boost channel,
// keeps the highest-impact items and attaches an explanation to each.
func Curate(ranked []models.Notification, poolSize, limit int, now time.Time) []models.Notification {
	if len(ranked) > poolSize {
		ranked = ranked[:poolSize]
	}
	pool := make([]models.Notification, len(ranked))
	for i, n := range ranked {
		score := AIScore(n, now)
		n.AIScore = &score
		pool[i] = n
	}
	sort.SliceStable(pool, func(a, b int) bool {
		return *pool[a].AIScore > *pool[b].AIScore
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}

	for i, n := range pool {
		ai := models.AIInsight{}
		if n.AI != nil {
			ai = *n.AI
		}
		ai.Explanation = Explain(n)
		ai.SuggestedActions = suggestedActions(n.Category)
		n.AI = &ai
		pool[i] = n
	}
	return pool
}
