package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"freightchat/internal/logger"
	"freightchat/internal/model"
	"freightchat/internal/utils"
)

// Matcher names reported in Classification.Matcher
const (
	MatcherAcknowledgement = "acknowledgement"
	MatcherExplicitID      = "explicit_id"
	MatcherAnchor          = "anchor"
	MatcherSearch          = "search"
	MatcherDomainKeyword   = "domain_keyword"
	MatcherFallback        = "fallback"
)

// Confidence assigned by each matcher
const (
	ConfidenceAcknowledgement = 90
	ConfidenceExplicitID      = 95
	ConfidenceAnchor          = 85
	ConfidenceSearchCap       = 85
	ConfidenceDomain          = 70
	ConfidenceFallback        = 30

	// MinSearchScore is the top relevance needed for an entity_search
	MinSearchScore = 50
)

var acknowledgements = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
	"no": true, "n": true, "nope": true,
	"ok": true, "okay": true, "sure": true,
	"skip": true, "cancel": true,
	"go ahead": true, "please do": true, "do it": true,
	"no thanks": true, "not now": true, "sounds good": true,
}

// Explicit id patterns in priority order
var explicitIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bload\s*#\s*(\d+)\b`),
	regexp.MustCompile(`#(\d+)\b`),
	regexp.MustCompile(`(?i)\b(\d{3,})\s+load\b`),
	regexp.MustCompile(`(?i)\b(?:load|order|shipment)\s+(?:(?:id|number|no\.?)\s*)?(\d+)\b`),
	regexp.MustCompile(`(?i)\b(?:id|ref|reference)\s*[:#]?\s*(\d+)\b`),
}

var deicticPhrases = []string{
	"this load", "that load", "the load", "this one", "that one",
	"this shipment", "it", "here", "this",
}

var pureSearchKeywords = []string{
	"search", "find", "show", "list", "status", "broker", "id", "number",
}

var analyticalKeywords = []string{
	"analyze", "compare", "recommend", "why", "how", "explain",
	"advice", "help", "best", "worst",
}

var domainVocabulary = []string{
	"freight", "trucking", "truck", "carrier", "shipper", "consignee", "broker",
	"dispatch", "lane", "backhaul", "deadhead", "detention", "layover", "lumper",
	"accessorial", "tonu", "reefer", "flatbed", "dry van", "trailer",
	"fuel", "diesel", "mpg", "efficiency", "ifta", "toll", "tolls",
	"rate per mile", "rpm", "per mile", "miles", "mileage",
	"invoice", "invoicing", "factoring", "settlement", "payment", "profit",
	"margin", "expense", "expenses", "revenue", "cost",
	"bol", "bill of lading", "pod", "proof of delivery", "rate confirmation", "rate con",
	"pickup", "delivery", "eld", "hos", "hours of service", "dot", "mc number",
	"insurance", "maintenance", "load board",
}

// classifierInput is the normalized view of one utterance
type classifierInput struct {
	text       string
	normalized string
	anchorID   *int64
}

type matcherFunc func(ctx context.Context, in classifierInput) *model.Classification

type matcher struct {
	name  string
	match matcherFunc
}

// Classifier runs an ordered cascade of matchers; the first non-nil result wins
type Classifier struct {
	repo     LoadRepository
	ranker   *Ranker
	log      logger.Logger
	matchers []matcher
}

// NewClassifier creates a classifier over the given repository
func NewClassifier(repo LoadRepository, ranker *Ranker, log logger.Logger) *Classifier {
	c := &Classifier{repo: repo, ranker: ranker, log: log}
	c.matchers = []matcher{
		{MatcherAcknowledgement, c.matchAcknowledgement},
		{MatcherExplicitID, c.matchExplicitID},
		{MatcherAnchor, c.matchAnchor},
		{MatcherSearch, c.matchSearch},
		{MatcherDomainKeyword, c.matchDomainKeyword},
		{MatcherFallback, c.matchFallback},
	}
	return c
}

// Classify turns an utterance and an optional anchor load id into a
// classification. It never fails; repository errors fall through the cascade.
func (c *Classifier) Classify(ctx context.Context, text string, anchorID *int64) *model.Classification {
	in := classifierInput{
		text:       text,
		normalized: NormalizeUtterance(text),
		anchorID:   anchorID,
	}

	for _, m := range c.matchers {
		result := m.match(ctx, in)
		if result == nil {
			continue
		}
		result.Matcher = m.name
		result.Confidence = model.ClampScore(result.Confidence)
		if result.AnchorEntityID == nil && anchorID != nil {
			id := *anchorID
			result.AnchorEntityID = &id
		}
		return result
	}

	// unreachable: the fallback matcher always answers
	return &model.Classification{IntentType: model.IntentNoContext, Confidence: ConfidenceFallback, RequiresAI: true, Matcher: MatcherFallback}
}

// NormalizeUtterance lowercases, trims and strips trailing '.' and '!'
func NormalizeUtterance(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRight(s, ".! ")
	return strings.Join(strings.Fields(s), " ")
}

// IsAcknowledgement reports whether text is a bare yes/no style reply
func IsAcknowledgement(text string) bool {
	return acknowledgements[NormalizeUtterance(text)]
}

// HasAnalyticalKeyword reports whether text asks for analysis rather than lookup
func HasAnalyticalKeyword(text string) bool {
	return containsAny(text, analyticalKeywords)
}

// HasPureSearchKeyword reports whether text contains a lookup verb or field name
func HasPureSearchKeyword(text string) bool {
	return containsAny(text, pureSearchKeywords)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if utils.ContainsWord(text, w) {
			return true
		}
	}
	return false
}

func (c *Classifier) matchAcknowledgement(_ context.Context, in classifierInput) *model.Classification {
	if !acknowledgements[in.normalized] {
		return nil
	}
	return &model.Classification{
		IntentType: model.IntentButtonResponse,
		Confidence: ConfidenceAcknowledgement,
		RequiresAI: true,
	}
}

// ExtractExplicitIDs returns referenced ids in pattern priority order, then
// left to right, without duplicates
func ExtractExplicitIDs(text string) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, re := range explicitIDPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil || id <= 0 || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Classifier) matchExplicitID(ctx context.Context, in classifierInput) *model.Classification {
	ids := ExtractExplicitIDs(in.text)
	if len(ids) == 0 {
		return nil
	}

	lookupFailed := false
	for _, id := range ids {
		load, err := c.repo.FindByID(ctx, id)
		if err != nil {
			c.log.WithError(err).Warn("load lookup failed during classification", map[string]interface{}{"load_id": id})
			lookupFailed = true
			continue
		}
		if load == nil {
			continue
		}
		return &model.Classification{
			IntentType:       model.IntentSpecificEntity,
			Confidence:       ConfidenceExplicitID,
			MatchedRecords:   []model.ScoredRecord{exactRecord(load, "Explicit load reference")},
			RequiresAI:       HasAnalyticalKeyword(in.text),
			SuggestedActions: entityActions(load),
		}
	}

	if lookupFailed {
		return nil
	}

	unresolved := ids[0]
	return &model.Classification{
		IntentType:         model.IntentNoContext,
		Confidence:         ConfidenceFallback,
		RequiresAI:         true,
		UnresolvedEntityID: &unresolved,
		SuggestedActions:   []string{"Search loads"},
	}
}

func (c *Classifier) matchAnchor(ctx context.Context, in classifierInput) *model.Classification {
	if in.anchorID == nil || !containsAny(in.normalized, deicticPhrases) {
		return nil
	}

	load, err := c.repo.FindByID(ctx, *in.anchorID)
	if err != nil {
		c.log.WithError(err).Warn("anchor lookup failed during classification", map[string]interface{}{"load_id": *in.anchorID})
		return nil
	}
	if load == nil {
		return nil
	}

	anchor := load.ID
	return &model.Classification{
		IntentType:       model.IntentSpecificEntity,
		Confidence:       ConfidenceAnchor,
		MatchedRecords:   []model.ScoredRecord{exactRecord(load, "Currently selected load")},
		RequiresAI:       HasAnalyticalKeyword(in.text),
		AnchorEntityID:   &anchor,
		SuggestedActions: entityActions(load),
	}
}

func (c *Classifier) matchSearch(ctx context.Context, in classifierInput) *model.Classification {
	candidates, err := c.repo.Search(ctx, in.text)
	if err != nil {
		c.log.WithError(err).Warn("load search failed during classification", nil)
		return nil
	}

	scored := c.ranker.RankResults(in.text, candidates)
	if len(scored) == 0 || scored[0].RelevanceScore < MinSearchScore {
		return nil
	}

	confidence := scored[0].RelevanceScore
	if confidence > ConfidenceSearchCap {
		confidence = ConfidenceSearchCap
	}

	return &model.Classification{
		IntentType:       model.IntentEntitySearch,
		Confidence:       confidence,
		MatchedRecords:   scored,
		RequiresAI:       searchRequiresAI(in.text),
		SuggestedActions: []string{"Open top match", "Refine search"},
	}
}

// searchRequiresAI is false only for pure lookups; analytical keywords win
// when both kinds are present
func searchRequiresAI(text string) bool {
	if HasAnalyticalKeyword(text) {
		return true
	}
	return !HasPureSearchKeyword(text)
}

func (c *Classifier) matchDomainKeyword(_ context.Context, in classifierInput) *model.Classification {
	if !containsAny(in.normalized, domainVocabulary) {
		return nil
	}
	return &model.Classification{
		IntentType: model.IntentDomainGeneral,
		Confidence: ConfidenceDomain,
		RequiresAI: true,
	}
}

func (c *Classifier) matchFallback(_ context.Context, _ classifierInput) *model.Classification {
	return &model.Classification{
		IntentType: model.IntentNoContext,
		Confidence: ConfidenceFallback,
		RequiresAI: true,
	}
}

func exactRecord(load *model.Load, reason string) model.ScoredRecord {
	return model.ScoredRecord{
		Record:         *load,
		RelevanceScore: 100,
		MatchedFields:  []string{model.FieldID},
		MatchReason:    reason,
	}
}

func entityActions(load *model.Load) []string {
	actions := []string{"View load details", "Check documents"}
	if utils.CanonicalStatus(load.Status) == "delivered" {
		actions = append(actions, "Review financials")
	}
	return actions
}
