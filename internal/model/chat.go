package model

import "time"

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged transcript entry
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// ActionKind tells the UI what a choice does when clicked
type ActionKind string

const (
	ActionNavigate         ActionKind = "navigate"
	ActionContinueDialogue ActionKind = "continueDialogue"
)

// ChoicePayload carries the navigation path or the follow-up message
type ChoicePayload struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

// InteractiveChoice is a discrete button offered with a reply
type InteractiveChoice struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	ActionKind ActionKind    `json:"action_kind"`
	Payload    ChoicePayload `json:"payload"`
}

// ParsedResponse is AI text re-segmented into content and choices
type ParsedResponse struct {
	MainContent             string              `json:"main_content"`
	InteractiveButtons      []InteractiveChoice `json:"interactive_buttons,omitempty"`
	DeferredQuestionContent string              `json:"deferred_question_content,omitempty"`
	Question                string              `json:"question,omitempty"`
	DroppedQuestion         string              `json:"-"`
}

// HistoryEntry records a question and how the user answered it
type HistoryEntry struct {
	QuestionText string    `json:"question_text"`
	Timestamp    time.Time `json:"timestamp"`
	UserAnswer   string    `json:"user_answer"`
}

// DialogueState is the session-scoped question bookkeeping
type DialogueState struct {
	LastQuestionID  string                  `json:"last_question_id,omitempty"`
	PendingResponse bool                    `json:"pending_response"`
	Context         string                  `json:"context,omitempty"`
	History         map[string]HistoryEntry `json:"history"`
}

// ChatRequest represents one user turn
type ChatRequest struct {
	SessionID    string        `json:"session_id,omitempty"`
	Message      string        `json:"message" binding:"required"`
	AnchorLoadID *int64        `json:"anchor_load_id,omitempty"`
	History      []ChatMessage `json:"history,omitempty"`
}

// ChatResponse is what the caller renders for a turn
type ChatResponse struct {
	SessionID        string              `json:"session_id"`
	DisplayText      string              `json:"display_text"`
	Choices          []InteractiveChoice `json:"choices"`
	Intent           IntentType          `json:"intent"`
	Confidence       int                 `json:"confidence"`
	RequiresAI       bool                `json:"requires_ai"`
	AICalled         bool                `json:"ai_called"`
	Question         string              `json:"question,omitempty"`
	DeferredQuestion string              `json:"deferred_question,omitempty"`
	Took             int64               `json:"took_ms"`
}

// LoadSearchRequest represents a direct load search
type LoadSearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// LoadSearchResponse represents scored load search results
type LoadSearchResponse struct {
	Results []ScoredRecord `json:"results"`
	Total   int            `json:"total"`
	Took    int64          `json:"took_ms"`
}

// LoadDetailResponse is a load with its related records
type LoadDetailResponse struct {
	Load    *Load    `json:"load"`
	Related *Related `json:"related,omitempty"`
}

// FeedbackRequest records a clicked interactive choice
type FeedbackRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	ChoiceID  string `json:"choice_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // navigate, continueDialogue, dismiss
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TurnLog is the audit row written after each turn
type TurnLog struct {
	SessionID  string
	Message    string
	Intent     IntentType
	Confidence int
	RequiresAI bool
	AICalled   bool
	LoadIDs    []int64
	ResponseMs int
}
