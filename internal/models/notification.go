package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Priority is the ordinal severity of a notification.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities from 1 (low) to 4 (critical). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Category is the alert kind. Unknown categories are kept and scored like any other.
type Category string

const (
	CategoryAuthExpired       Category = "auth_expired"
	CategoryAuthExpiring      Category = "auth_expiring"
	CategoryAuthMissing       Category = "auth_missing"
	CategoryEligibilityChange Category = "eligibility_change"
	CategorySubmissionFailed  Category = "submission_failed"
	CategoryEstimateChanged   Category = "estimate_changed"
	CategoryHighDenialRisk    Category = "high_denial_risk"
	CategoryAIRecommendation  Category = "ai_recommendation"
	CategoryBulkPattern       Category = "bulk_pattern"
)

// IsAuth reports whether the category belongs to the authorization family.
func (c Category) IsAuth() bool {
	return strings.Contains(string(c), "auth")
}

// Layout is the display tier assigned after ranking.
type Layout string

const (
	LayoutTop       Layout = "top"
	LayoutSecondary Layout = "secondary"
	LayoutBundle    Layout = "bundle"
)

// Channel is a destination feed.
type Channel string

const (
	ChannelDirect   Channel = "direct"
	ChannelWatching Channel = "watching"
	ChannelAIBoost  Channel = "ai_boost"
)

// Action is a user-invocable descriptor. The engine passes it through untouched.
type Action struct {
	Label   string `json:"label"`
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	API     string `json:"api,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// Signals is the optional situational bag attached to a notification.
// Every field may be absent; pointer fields distinguish "absent" from zero.
type Signals struct {
	Payer               string     `json:"payer,omitempty"`
	PolicyID            string     `json:"policyId,omitempty"`
	DenialRiskScore     *float64   `json:"denialRiskScore,omitempty"`
	DaysUntilExpiration *float64   `json:"daysUntilExpiration,omitempty"`
	CaseValue           *float64   `json:"caseValue,omitempty"`
	WorkflowStep        string     `json:"workflowStep,omitempty"`
	InsuranceTier       string     `json:"patientInsuranceTier,omitempty"`
	DOS                 *time.Time `json:"dos,omitempty"`
	Watch               bool       `json:"watch,omitempty"`
	ClusterKey          string     `json:"clusterKey,omitempty"`
	Source              string     `json:"source,omitempty"`
	Synthetic           bool       `json:"synthetic,omitempty"`
}

// SuggestedAction is a curated next step with a model confidence.
type SuggestedAction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// AIInsight carries explanation and curation output.
type AIInsight struct {
	Explanation       string            `json:"explanation,omitempty"`
	SuggestedActions  []SuggestedAction `json:"suggestedActions,omitempty"`
	SuppressionReason string            `json:"suppressionReason,omitempty"`
	Confidence        float64           `json:"confidence,omitempty"`
}

// Notification is an alert event plus the fields computed by the engine.
type Notification struct {
	ID          string     `json:"id"`
	Category    Category   `json:"type"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Timestamp   time.Time  `json:"timestamp"`
	CaseID      string     `json:"caseId"`
	PatientName string     `json:"patientName"`
	IsRead      bool       `json:"isRead"`
	IsDismissed bool       `json:"isDismissed"`
	Metadata    *Signals   `json:"metadata,omitempty"`
	Actions     []Action   `json:"actions"`
	AI          *AIInsight `json:"ai,omitempty"`

	// Computed by the engine, never persisted.
	Score        float64        `json:"score"`
	IsBundled    bool           `json:"isBundled,omitempty"`
	Count        int            `json:"count,omitempty"`
	BundledItems []Notification `json:"bundledItems,omitempty"`
	Layout       Layout         `json:"layout,omitempty"`
	AIScore      *float64       `json:"aiScore,omitempty"`
}

// UnmarshalJSON decodes a notification leniently: a malformed metadata object is
// dropped so every signal falls back to its default, instead of rejecting the event.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	aux := struct {
		*plain
		Metadata json.RawMessage `json:"metadata,omitempty"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Metadata = DecodeSignals(aux.Metadata)
	return nil
}

// DecodeSignals parses a raw metadata object. It returns nil when raw is empty,
// null or malformed.
func DecodeSignals(raw []byte) *Signals {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var m Signals
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return &m
}

// ClusterKey returns metadata.clusterKey or "" when absent.
func (n Notification) ClusterKey() string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata.ClusterKey
}

// Payer returns metadata.payer or "" when absent.
func (n Notification) Payer() string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata.Payer
}

// Watched reports metadata.watch.
func (n Notification) Watched() bool {
	return n.Metadata != nil && n.Metadata.Watch
}

// Stored returns a deep copy with every engine-computed field cleared.
func (n Notification) Stored() Notification {
	c := n.Clone()
	c.Score = 0
	c.IsBundled = false
	c.Count = 0
	c.BundledItems = nil
	c.Layout = ""
	c.AIScore = nil
	return c
}

// Clone returns a deep copy that shares no mutable state with n.
func (n Notification) Clone() Notification {
	c := n
	if n.Metadata != nil {
		m := *n.Metadata
		m.DenialRiskScore = cloneFloat(n.Metadata.DenialRiskScore)
		m.DaysUntilExpiration = cloneFloat(n.Metadata.DaysUntilExpiration)
		m.CaseValue = cloneFloat(n.Metadata.CaseValue)
		if n.Metadata.DOS != nil {
			dos := *n.Metadata.DOS
			m.DOS = &dos
		}
		c.Metadata = &m
	}
	if n.Actions != nil {
		c.Actions = append([]Action(nil), n.Actions...)
	}
	if n.AI != nil {
		ai := *n.AI
		if n.AI.SuggestedActions != nil {
			ai.SuggestedActions = append([]SuggestedAction(nil), n.AI.SuggestedActions...)
		}
		c.AI = &ai
	}
	if n.BundledItems != nil {
		c.BundledItems = make([]Notification, len(n.BundledItems))
		for i, item := range n.BundledItems {
			c.BundledItems[i] = item.Clone()
		}
	}
	c.AIScore = cloneFloat(n.AIScore)
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Float is a helper for building optional numeric signals.
func Float(v float64) *float64 {
	return &v
}
