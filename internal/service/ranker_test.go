package service

import (
	"testing"

	"freightchat/internal/model"
	"freightchat/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankerLoads() []model.Load {
	return []model.Load{
		{ID: 1001, BrokerName: "Swift Logistics", Status: "booked", OriginCity: "Dallas", OriginState: "TX", DestinationCity: "Atlanta", DestinationState: "GA", Rate: 1800},
		{ID: 1002, BrokerName: "CH Robinson", Status: "delivered", OriginCity: "Memphis", OriginState: "TN", DestinationCity: "Dallas", DestinationState: "TX", Rate: 2450},
		{ID: 1003, BrokerName: "Swift Logistics", Status: "in_transit", OriginCity: "Houston", OriginState: "TX", DestinationCity: "Denver", DestinationState: "CO", Rate: 3100},
	}
}

func TestRanker_FieldWeights(t *testing.T) {
	r := NewRanker()
	loads := rankerLoads()

	tests := []struct {
		name       string
		query      string
		load       int
		wantScore  int
		wantFields []string
		wantReason string
	}{
		{"id", "1001", 0, 100, []string{model.FieldID}, "ID match"},
		{"broker", "swift", 0, 80, []string{model.FieldBroker}, "Broker match"},
		{"status", "booked", 0, 70, []string{model.FieldStatus}, "Status match"},
		{"status alias", "completed", 1, 70, []string{model.FieldStatus}, "Status match"},
		{"status alias for in transit", "rolling", 2, 70, []string{model.FieldStatus}, "Status match"},
		{"city", "memphis", 1, 60, []string{model.FieldLocation}, "Location match"},
		{"state code", "co", 2, 60, []string{model.FieldLocation}, "Location match"},
		{"rate", "$2,450", 1, 50, []string{model.FieldRate}, "Rate match"},
		{"broker and status", "swift booked", 0, 100, []string{model.FieldBroker, model.FieldStatus}, "Broker match, Status match"},
		{"broker and location", "swift dallas", 0, 100, []string{model.FieldBroker, model.FieldLocation}, "Broker match, Location match"},
		{"nothing", "reefer", 0, 0, []string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := r.Score(splitTerms(tt.query), &loads[tt.load])
			assert.Equal(t, tt.wantScore, record.RelevanceScore)
			assert.Equal(t, tt.wantFields, record.MatchedFields)
			assert.Equal(t, tt.wantReason, record.MatchReason)
		})
	}
}

func TestRanker_ShortNumbersDoNotMatchIDs(t *testing.T) {
	r := NewRanker()
	loads := rankerLoads()

	record := r.Score([]string{"10"}, &loads[0])
	assert.NotContains(t, record.MatchedFields, model.FieldID)
}

func TestRanker_RankResultsStableOnTies(t *testing.T) {
	r := NewRanker()

	results := r.RankResults("show me loads from Swift", rankerLoads())
	require.Len(t, results, 2)
	assert.Equal(t, int64(1001), results[0].Record.ID)
	assert.Equal(t, int64(1003), results[1].Record.ID)
	assert.Equal(t, 80, results[0].RelevanceScore)
}

func TestRanker_RankResultsOrdersByScore(t *testing.T) {
	r := NewRanker()

	results := r.RankResults("dallas delivered", rankerLoads())
	require.Len(t, results, 2)
	assert.Equal(t, int64(1002), results[0].Record.ID, "status and location beat location alone")
	assert.Equal(t, 100, results[0].RelevanceScore)
	assert.Equal(t, int64(1001), results[1].Record.ID)
	assert.Equal(t, 60, results[1].RelevanceScore)
}

func TestRanker_ScoreIsBoundedAndDeterministic(t *testing.T) {
	r := NewRanker()
	loads := rankerLoads()
	terms := splitTerms("1001 swift booked dallas 1800")

	first := r.Score(terms, &loads[0])
	second := r.Score(terms, &loads[0])
	assert.Equal(t, first, second)
	assert.Equal(t, 100, first.RelevanceScore)
	assert.Len(t, first.MatchedFields, 5)
}

func TestRanker_NoTerms(t *testing.T) {
	r := NewRanker()
	assert.Empty(t, r.RankResults("show me the loads", rankerLoads()))
}

func splitTerms(query string) []string {
	return utils.SearchTerms(query)
}
