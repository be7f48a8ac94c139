package service

import (
	"sort"
	"strconv"
	"strings"

	"freightchat/internal/model"
	"freightchat/internal/utils"
)

// Match reason constants
const (
	ReasonIDMatch       = "ID match"
	ReasonBrokerMatch   = "Broker match"
	ReasonStatusMatch   = "Status match"
	ReasonLocationMatch = "Location match"
	ReasonRateMatch     = "Rate match"
)

// Field weights
const (
	WeightID       = 100
	WeightBroker   = 80
	WeightStatus   = 70
	WeightLocation = 60
	WeightRate     = 50
)

// minIDDigits is the shortest numeric term that may match a load id
const minIDDigits = 3

type fieldRule struct {
	field  string
	reason string
	weight int
	match  func(term string, load *model.Load) bool
}

// Ranker scores repository candidates against a query
type Ranker struct {
	rules []fieldRule
}

// NewRanker creates a ranker with the standard field weights
func NewRanker() *Ranker {
	return &Ranker{
		rules: []fieldRule{
			{model.FieldID, ReasonIDMatch, WeightID, matchID},
			{model.FieldBroker, ReasonBrokerMatch, WeightBroker, matchBroker},
			{model.FieldStatus, ReasonStatusMatch, WeightStatus, matchStatus},
			{model.FieldLocation, ReasonLocationMatch, WeightLocation, matchLocation},
			{model.FieldRate, ReasonRateMatch, WeightRate, matchRate},
		},
	}
}

// RankResults scores and ranks loads. Loads scoring 0 are dropped; ties keep
// the input order.
func (r *Ranker) RankResults(query string, loads []model.Load) []model.ScoredRecord {
	terms := utils.SearchTerms(query)
	results := make([]model.ScoredRecord, 0, len(loads))
	if len(terms) == 0 {
		return results
	}

	for i := range loads {
		record := r.Score(terms, &loads[i])
		if record.RelevanceScore == 0 {
			continue
		}
		results = append(results, record)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	return results
}

// Score computes the relevance of a single load for pre-split terms
func (r *Ranker) Score(terms []string, load *model.Load) model.ScoredRecord {
	record := model.ScoredRecord{
		Record:        *load,
		MatchedFields: []string{},
	}

	total := 0
	reasons := []string{}
	for _, rule := range r.rules {
		for _, term := range terms {
			if rule.match(term, load) {
				total += rule.weight
				record.MatchedFields = append(record.MatchedFields, rule.field)
				reasons = append(reasons, rule.reason)
				break
			}
		}
	}

	record.RelevanceScore = model.ClampScore(total)
	record.MatchReason = strings.Join(reasons, ", ")
	return record
}

func matchID(term string, load *model.Load) bool {
	num, ok := utils.NumericTerm(term)
	if !ok || strings.Contains(num, ".") || len(num) < minIDDigits {
		return false
	}
	return strings.Contains(strconv.FormatInt(load.ID, 10), num)
}

func matchBroker(term string, load *model.Load) bool {
	if _, numeric := utils.NumericTerm(term); numeric {
		return false
	}
	return strings.Contains(strings.ToLower(load.BrokerName), term)
}

func matchStatus(term string, load *model.Load) bool {
	if _, numeric := utils.NumericTerm(term); numeric {
		return false
	}
	return utils.FuzzyMatchStatus(term, load.Status)
}

// matchLocation matches cities by substring and states by exact code
func matchLocation(term string, load *model.Load) bool {
	if _, numeric := utils.NumericTerm(term); numeric {
		return false
	}
	for _, city := range []string{load.OriginCity, load.DestinationCity} {
		if city != "" && strings.Contains(strings.ToLower(city), term) {
			return true
		}
	}
	for _, state := range []string{load.OriginState, load.DestinationState} {
		if state != "" && strings.EqualFold(state, term) {
			return true
		}
	}
	return false
}

func matchRate(term string, load *model.Load) bool {
	num, ok := utils.NumericTerm(term)
	if !ok {
		return false
	}
	if v, err := strconv.ParseFloat(num, 64); err == nil && v == load.Rate {
		return true
	}
	if len(num) < minIDDigits {
		return false
	}
	return strings.Contains(strconv.FormatFloat(load.Rate, 'f', -1, 64), num)
}
