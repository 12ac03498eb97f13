package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalJSON_MalformedMetadataFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"string risk score":   `{"payer":"Aetna","denialRiskScore":"high"}`,
		"string case value":   `{"caseValue":"32000"}`,
		"metadata not object": `"premium"`,
		"null":                `null`,
	}
	for name, metadata := range tests {
		var n Notification
		err := json.Unmarshal([]byte(`{"id":"n-1","type":"auth_expired","priority":"high","caseId":"c-1","metadata":`+metadata+`}`), &n)
		require.NoError(t, err, name)
		assert.Equal(t, "n-1", n.ID, name)
		assert.Equal(t, PriorityHigh, n.Priority, name)
		assert.Nil(t, n.Metadata, name)
	}
}

func TestUnmarshalJSON_KeepsWellFormedMetadata(t *testing.T) {
	t.Parallel()

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "n-1",
		"type": "submission_failed",
		"metadata": {"payer": "BCBS", "clusterKey": "bcbs-submission", "caseValue": 1200},
		"bundledItems": [{"id": "n-0", "metadata": {"caseValue": "bad"}}]
	}`), &n))

	require.NotNil(t, n.Metadata)
	assert.Equal(t, "bcbs-submission", n.ClusterKey())
	assert.Equal(t, 1200.0, *n.Metadata.CaseValue)
	require.Len(t, n.BundledItems, 1)
	assert.Nil(t, n.BundledItems[0].Metadata)
}

func TestUnmarshalJSON_RejectsMalformedEnvelope(t *testing.T) {
	t.Parallel()

	var n Notification
	assert.Error(t, json.Unmarshal([]byte(`{"id": 7}`), &n))
}

func TestDecodeSignals(t *testing.T) {
	t.Parallel()

	assert.Nil(t, DecodeSignals(nil))
	assert.Nil(t, DecodeSignals([]byte(" null ")))
	assert.Nil(t, DecodeSignals([]byte(`{"watch":"yes"}`)))

	m := DecodeSignals([]byte(`{"watch":true,"patientInsuranceTier":"premium"}`))
	require.NotNil(t, m)
	assert.True(t, m.Watch)
	assert.Equal(t, "premium", m.InsuranceTier)
}
