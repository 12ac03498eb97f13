package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"notification-orchestrator/internal/models"
)

func TestFactors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, denialRiskFactor(nil))
	assert.InDelta(t, 0.88, denialRiskFactor(models.Float(88)), 1e-9)
	assert.Equal(t, 1.0, denialRiskFactor(models.Float(250)))
	assert.Equal(t, 0.0, denialRiskFactor(models.Float(-5)))

	assert.Equal(t, 0.2, expiryFactor(nil))
	assert.Equal(t, 1.0, expiryFactor(models.Float(-1)))
	assert.Equal(t, 0.9, expiryFactor(models.Float(1)))
	assert.Equal(t, 0.7, expiryFactor(models.Float(2)))
	assert.Equal(t, 0.4, expiryFactor(models.Float(3)))

	assert.Equal(t, 0.0, caseValueFactor(nil))
	assert.Equal(t, 1.0, caseValueFactor(models.Float(32000)))
	assert.Equal(t, 0.7, caseValueFactor(models.Float(1200)))
	assert.Equal(t, 0.4, caseValueFactor(models.Float(550)))
	assert.Equal(t, 0.1, caseValueFactor(models.Float(100)))

	assert.Equal(t, 1.0, tierFactor("premium"))
	assert.Equal(t, 0.7, tierFactor("standard"))
	assert.Equal(t, 0.4, tierFactor("budget"))
	assert.Equal(t, 0.5, tierFactor("platinum"))

	assert.Equal(t, 1.0, workflowStepFactor("pre_service"))
	assert.Equal(t, 0.6, workflowStepFactor("claims"))
	assert.Equal(t, 0.3, workflowStepFactor("post_service"))
	assert.Equal(t, 0.5, workflowStepFactor(""))

	assert.InDelta(t, 1.0, recencyFactor(testNow, testNow), 1e-9)
	assert.InDelta(t, 0.5, recencyFactor(ago(2*time.Hour), testNow), 1e-9)
	assert.InDelta(t, 1.0, recencyFactor(testNow.Add(time.Hour), testNow), 1e-9)
}

func TestScore_NoMetadataUsesRecencyOnly(t *testing.T) {
	t.Parallel()

	n := notif("bare", ago(10*time.Hour), withoutMetadata())
	want := math.Pow(0.5, 5) * 0.05 * 100

	assert.InDelta(t, want, Score(n, models.ChannelWatching, testNow), 1e-9)
	assert.InDelta(t, want*1.15, Score(n, models.ChannelDirect, testNow), 1e-9)
	assert.InDelta(t, want*1.3, Score(n, models.ChannelAIBoost, testNow), 1e-9)
}

func TestScore_EmptyMetadataAppliesDefaults(t *testing.T) {
	t.Parallel()

	n := notif("empty", testNow, withSignals(models.Signals{}))
	// expiry 0.2*0.2 + tier 0.1*0.5 + step 0.1*0.5 + recency 0.05
	assert.InDelta(t, 19.0, Score(n, models.ChannelWatching, testNow), 1e-9)
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	maxed := notif("max", testNow, withSignals(models.Signals{
		DenialRiskScore:     models.Float(100),
		DaysUntilExpiration: models.Float(-3),
		CaseValue:           models.Float(1e6),
		InsuranceTier:       "premium",
		WorkflowStep:        "pre_service",
	}))
	weird := notif("weird", testNow.Add(48*time.Hour), withSignals(models.Signals{
		DenialRiskScore: models.Float(math.NaN()),
		CaseValue:       models.Float(-50),
	}))

	for _, ch := range []models.Channel{models.ChannelDirect, models.ChannelWatching, models.ChannelAIBoost} {
		for _, n := range []models.Notification{maxed, weird} {
			s := Score(n, ch, testNow)
			assert.GreaterOrEqual(t, s, 0.0, "%s/%s", n.ID, ch)
			assert.LessOrEqual(t, s, 100.0, "%s/%s", n.ID, ch)
		}
	}
	assert.Equal(t, 100.0, Score(maxed, models.ChannelDirect, testNow))
}

func TestRank_SortsDescendingAndStable(t *testing.T) {
	t.Parallel()

	items := []models.Notification{
		notif("low", testNow, withoutMetadata()),
		notif("tie-1", testNow, withSignals(models.Signals{CaseValue: models.Float(5000)})),
		notif("high", testNow, withSignals(models.Signals{DenialRiskScore: models.Float(90)})),
		notif("tie-2", testNow, withSignals(models.Signals{CaseValue: models.Float(5000)})),
	}
	got := Rank(items, models.ChannelDirect, testNow)
	assert.Equal(t, []string{"high", "tie-1", "tie-2", "low"}, ids(got))
	for _, n := range items {
		assert.Zero(t, n.Score, "input must not be scored in place")
	}
}

func TestChannelModifier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.15, ChannelModifier(models.ChannelDirect))
	assert.Equal(t, 1.0, ChannelModifier(models.ChannelWatching))
	assert.Equal(t, 1.3, ChannelModifier(models.ChannelAIBoost))
	assert.Equal(t, 1.0, ChannelModifier("unknown"))
}
