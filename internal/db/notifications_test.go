package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notification-orchestrator/internal/models"
)

func TestEncodeDecodeJSON(t *testing.T) {
	t.Parallel()

	n := models.Notification{
		ID:       "notif_3",
		Metadata: &models.Signals{Payer: "Cigna", DenialRiskScore: models.Float(88)},
		Actions:  []models.Action{{Label: "Review Case", Type: "link", URL: "/case/789012", Primary: true}},
		AI:       &models.AIInsight{Explanation: "model says so", Confidence: 0.95},
	}
	metadata, actions, ai, err := encodeJSON(n)
	require.NoError(t, err)

	var got models.Notification
	require.NoError(t, decodeJSON(&got, metadata, actions, ai))
	assert.Equal(t, n.Metadata, got.Metadata)
	assert.Equal(t, n.Actions, got.Actions)
	assert.Equal(t, n.AI, got.AI)
}

func TestEncodeJSON_AbsentFieldsAreNull(t *testing.T) {
	t.Parallel()

	metadata, actions, ai, err := encodeJSON(models.Notification{ID: "bare"})
	require.NoError(t, err)
	assert.Nil(t, metadata)
	assert.Nil(t, ai)
	assert.JSONEq(t, `[]`, string(actions))
}

func TestDecodeJSON_MalformedMetadataIsDropped(t *testing.T) {
	t.Parallel()

	var got models.Notification
	require.NoError(t, decodeJSON(&got, []byte(`{"caseValue":"lots"}`), []byte(`[]`), nil))
	assert.Nil(t, got.Metadata)
	assert.Empty(t, got.Actions)
}

func TestDecodeJSON_MalformedActionsFail(t *testing.T) {
	t.Parallel()

	var got models.Notification
	assert.Error(t, decodeJSON(&got, nil, []byte(`{`), nil))
}
