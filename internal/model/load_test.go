package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentType_ContextType(t *testing.T) {
	tests := []struct {
		intent   IntentType
		expected IntentType
	}{
		{IntentSpecificEntity, IntentSpecificEntity},
		{IntentEntitySearch, IntentEntitySearch},
		{IntentDomainGeneral, IntentDomainGeneral},
		{IntentButtonResponse, IntentNoContext},
		{IntentNoContext, IntentNoContext},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.intent.ContextType())
		})
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 42, ClampScore(42))
	assert.Equal(t, 100, ClampScore(230))
}

func TestLoad_RouteAndRatePerMile(t *testing.T) {
	miles := 800.0
	l := Load{
		ID: 1234, Status: "in_transit", Rate: 2400,
		OriginCity: "Dallas", OriginState: "TX",
		DestinationCity: "Atlanta", DestinationState: "GA",
		Miles: &miles,
	}

	assert.Equal(t, "Dallas, TX → Atlanta, GA", l.Route())
	assert.InDelta(t, 3.0, l.RatePerMile(), 0.0001)

	l.Miles = nil
	assert.Equal(t, 0.0, l.RatePerMile())
}

func TestLoad_Validate(t *testing.T) {
	assert.NoError(t, (&Load{ID: 1, Status: "booked"}).Validate())
	assert.Error(t, (&Load{ID: 0, Status: "booked"}).Validate())
	assert.Error(t, (&Load{ID: 1}).Validate())
	assert.Error(t, (&Load{ID: 1, Status: "booked", Rate: -1}).Validate())
}

func TestJSONArray_Scan(t *testing.T) {
	var a JSONArray
	require.NoError(t, a.Scan([]byte(`["detention","lumper"]`)))
	assert.Equal(t, JSONArray{"detention", "lumper"}, a)

	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)

	assert.Error(t, a.Scan(42))
}
