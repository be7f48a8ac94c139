package model

// IntentType is the classified category of an utterance
type IntentType string

const (
	IntentSpecificEntity IntentType = "specific_entity"
	IntentEntitySearch   IntentType = "entity_search"
	IntentDomainGeneral  IntentType = "domain_general"
	IntentButtonResponse IntentType = "button_response"
	IntentNoContext      IntentType = "no_context"
)

// ContextType returns the context bundle kind for this intent.
// Acknowledgements carry no record context of their own.
func (t IntentType) ContextType() IntentType {
	if t == IntentButtonResponse {
		return IntentNoContext
	}
	return t
}

// Matched field names, in the order they are reported
const (
	FieldID       = "id"
	FieldBroker   = "broker"
	FieldStatus   = "status"
	FieldLocation = "location"
	FieldRate     = "rate"
)

// ScoredRecord is a load with its relevance to the current utterance
type ScoredRecord struct {
	Record         Load     `json:"record"`
	RelevanceScore int      `json:"relevance_score"`
	MatchedFields  []string `json:"matched_fields"`
	MatchReason    string   `json:"match_reason"`
}

// Classification is the result of classifying one utterance
type Classification struct {
	IntentType         IntentType     `json:"intent_type"`
	Confidence         int            `json:"confidence"`
	MatchedRecords     []ScoredRecord `json:"matched_records,omitempty"`
	RequiresAI         bool           `json:"requires_ai"`
	SuggestedActions   []string       `json:"suggested_actions,omitempty"`
	AnchorEntityID     *int64         `json:"anchor_entity_id,omitempty"`
	UnresolvedEntityID *int64         `json:"unresolved_entity_id,omitempty"`
	Matcher            string         `json:"matcher"`
}

// ClampScore clips a score or confidence into [0,100]
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ContextBundle is the prompt material assembled for one turn
type ContextBundle struct {
	PromptAugmentation string     `json:"prompt_augmentation"`
	RewrittenMessage   string     `json:"rewritten_message"`
	ContextType        IntentType `json:"context_type"`
	StructuredData     JSONMap    `json:"structured_data,omitempty"`
}
