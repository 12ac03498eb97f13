package engine

import (
	"math"
	"sort"
	"time"

	"notification-orchestrator/internal/models"
)

const (
	weightDenial  = 0.30
	weightExpiry  = 0.20
	weightValue   = 0.20
	weightTier    = 0.10
	weightStep    = 0.10
	weightRecency = 0.05

	recencyHalfLifeHours = 2.0
)

var channelModifiers = map[models.Channel]float64{
	models.ChannelDirect:   1.15,
	models.ChannelWatching: 1.0,
	models.ChannelAIBoost:  1.3,
}

// ChannelModifier returns the multiplier applied to base scores for ch.
func ChannelModifier(ch models.Channel) float64 {
	if m, ok := channelModifiers[ch]; ok {
		return m
	}
	return 1.0
}

func denialRiskFactor(score *float64) float64 {
	if score == nil {
		return 0
	}
	return clamp(*score/100, 0, 1)
}

func expiryFactor(days *float64) float64 {
	switch {
	case days == nil:
		return 0.2
	case *days < 0:
		return 1.0
	case *days <= 1:
		return 0.9
	case *days <= 2:
		return 0.7
	default:
		return 0.4
	}
}

func caseValueFactor(value *float64) float64 {
	switch {
	case value == nil:
		return 0
	case *value > 10000:
		return 1.0
	case *value > 1000:
		return 0.7
	case *value > 100:
		return 0.4
	default:
		return 0.1
	}
}

func tierFactor(tier string) float64 {
	switch tier {
	case "premium":
		return 1.0
	case "standard":
		return 0.7
	case "budget":
		return 0.4
	default:
		return 0.5
	}
}

func workflowStepFactor(step string) float64 {
	switch step {
	case "pre_service":
		return 1.0
	case "claims":
		return 0.6
	case "post_service":
		return 0.3
	default:
		return 0.5
	}
}

// recencyFactor halves every two hours. Future timestamps count as brand new.
func recencyFactor(ts, now time.Time) float64 {
	hours := now.Sub(ts).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Pow(0.5, hours/recencyHalfLifeHours)
}

// Score computes the bounded relevance of n for ch at instant now.
// Without metadata only recency contributes.
func Score(n models.Notification, ch models.Channel, now time.Time) float64 {
	base := weightRecency * recencyFactor(n.Timestamp, now)
	if m := n.Metadata; m != nil {
		base += weightDenial*denialRiskFactor(m.DenialRiskScore) +
			weightExpiry*expiryFactor(m.DaysUntilExpiration) +
			weightValue*caseValueFactor(m.CaseValue) +
			weightTier*tierFactor(m.InsuranceTier) +
			weightStep*workflowStepFactor(m.WorkflowStep)
	}
	return clamp(base*100*ChannelModifier(ch), 0, 100)
}

// Rank scores every notification for ch and returns them sorted by descending
// score. Ties keep their input order.
func Rank(items []models.Notification, ch models.Channel, now time.Time) []models.Notification {
	out := make([]models.Notification, len(items))
	for i, n := range items {
		n.Score = Score(n, ch, now)
		out[i] = n
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
