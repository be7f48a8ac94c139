package service

import (
	"context"
	"fmt"
	"strings"

	"freightchat/internal/logger"
	"freightchat/internal/metrics"
	"freightchat/internal/model"
	"freightchat/internal/notify"
	"freightchat/internal/utils"

	"github.com/google/uuid"
)

// maxTemplateMatches is how many search results a direct answer lists
const maxTemplateMatches = 5

// DispatchInput is everything the dispatcher needs for one turn
type DispatchInput struct {
	SessionID      string
	Utterance      string
	Classification *model.Classification
	Bundle         model.ContextBundle
	History        []model.ChatMessage
	Tracker        *DialogueTracker
}

// DispatchResult is the outcome of one turn
type DispatchResult struct {
	Parsed     model.ParsedResponse
	AICalled   bool
	QuestionID string
	Err        *AITransportError
}

// Dispatcher decides between a direct answer and a single AI call
type Dispatcher struct {
	ai         AIClient
	parser     *InteractiveParser
	notifier   notify.Notifier
	log        logger.Logger
	maxHistory int
	newID      func() string
}

// NewDispatcher creates a dispatcher. maxHistory caps the prior messages sent
// to the AI.
func NewDispatcher(ai AIClient, parser *InteractiveParser, notifier notify.Notifier, maxHistory int, log logger.Logger) *Dispatcher {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Dispatcher{
		ai:         ai,
		parser:     parser,
		notifier:   notifier,
		log:        log,
		maxHistory: maxHistory,
		newID:      func() string { return uuid.New().String() },
	}
}

// Dispatch runs one turn. It makes zero or one AI call and never fails: AI
// errors become a user-facing message and leave the tracker untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, in DispatchInput) DispatchResult {
	c := in.Classification
	if !c.RequiresAI && len(c.MatchedRecords) > 0 {
		return DispatchResult{Parsed: d.directAnswer(c)}
	}

	buttonTurn := c.IntentType == model.IntentButtonResponse
	transcript := NormalizeTranscript(in.History, in.Bundle.RewrittenMessage, d.maxHistory)

	reply, err := d.send(ctx, transcript, SystemPrompt(in.Bundle))
	if err != nil {
		te := AsTransportError(err)
		metrics.AICallsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		metrics.AIErrorsTotal.WithLabelValues(string(te.Kind)).Inc()
		d.log.WithError(err).Warn("AI call failed", map[string]interface{}{
			"session_id": in.SessionID,
			"kind":       string(te.Kind),
			"status":     te.StatusCode,
		})
		d.notifier.Notify(
			fmt.Sprintf("Chat assistant AI %s error", te.Kind),
			fmt.Sprintf("session=%s intent=%s error=%v", in.SessionID, c.IntentType, err),
			severityFor(te.Kind),
		)
		return DispatchResult{
			Parsed:   model.ParsedResponse{MainContent: te.UserMessage()},
			AICalled: true,
			Err:      te,
		}
	}
	metrics.AICallsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()

	policy := QuestionPolicy{Allow: !buttonTurn}
	if in.Tracker != nil {
		policy.Suppress = in.Tracker.ShouldSuppress
	}
	parsed := d.parser.Parse(reply, policy)
	if parsed.MainContent == "" && parsed.Question == "" && len(parsed.InteractiveButtons) == 0 {
		if parsed.DroppedQuestion == "" && parsed.DeferredQuestionContent == "" {
			parsed.MainContent = strings.TrimSpace(reply)
		} else {
			parsed.MainContent = "Got it."
		}
	}

	result := DispatchResult{Parsed: parsed, AICalled: true}
	switch {
	case parsed.Question != "":
		result.QuestionID = d.newID()
		if in.Tracker != nil {
			in.Tracker.SetQuestionState(result.QuestionID, true, parsed.Question)
		}
		metrics.QuestionsTotal.WithLabelValues(metrics.QuestionAsked).Inc()
	case parsed.DeferredQuestionContent != "":
		metrics.QuestionsTotal.WithLabelValues(metrics.QuestionSuppressed).Inc()
	case parsed.DroppedQuestion != "":
		metrics.QuestionsTotal.WithLabelValues(metrics.QuestionDropped).Inc()
	}
	return result
}

func (d *Dispatcher) send(ctx context.Context, transcript []model.ChatMessage, systemPrompt string) (string, error) {
	if d.ai == nil || !d.ai.IsEnabled() {
		return "", &AITransportError{Kind: ErrorKindAuth, Err: ErrAIDisabled}
	}
	return d.ai.Send(ctx, transcript, systemPrompt)
}

func severityFor(kind ErrorKind) notify.Severity {
	switch kind {
	case ErrorKindRateLimit, ErrorKindNetwork:
		return notify.SeverityWarning
	default:
		return notify.SeverityError
	}
}

// directAnswer renders matched loads without calling the AI
func (d *Dispatcher) directAnswer(c *model.Classification) model.ParsedResponse {
	if c.IntentType == model.IntentSpecificEntity {
		l := c.MatchedRecords[0].Record
		return model.ParsedResponse{
			MainContent:        singleLoadText(&l),
			InteractiveButtons: []model.InteractiveChoice{d.navigateChoice(&l)},
		}
	}

	top := c.MatchedRecords
	if len(top) > maxTemplateMatches {
		top = top[:maxTemplateMatches]
	}

	var b strings.Builder
	noun := "loads"
	if len(c.MatchedRecords) == 1 {
		noun = "load"
	}
	fmt.Fprintf(&b, "I found %d %s matching your search", len(c.MatchedRecords), noun)
	if len(c.MatchedRecords) > len(top) {
		fmt.Fprintf(&b, " (showing the top %d)", len(top))
	}
	b.WriteString(":\n")

	choices := make([]model.InteractiveChoice, 0, len(top))
	for i, r := range top {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, loadSummaryLine(&r.Record), r.MatchReason)
		choices = append(choices, d.navigateChoice(&r.Record))
	}

	return model.ParsedResponse{
		MainContent:        strings.TrimSpace(b.String()),
		InteractiveButtons: choices,
	}
}

func singleLoadText(l *model.Load) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Load #%d is %s.\n", l.ID, utils.StatusLabel(l.Status))
	fmt.Fprintf(&b, "Route: %s\n", l.Route())
	fmt.Fprintf(&b, "Rate: %s\n", rateLine(l))
	fmt.Fprintf(&b, "Broker: %s\n", l.BrokerName)
	fmt.Fprintf(&b, "Pickup: %s | Delivery: %s", formatDate(l.PickupDate), formatDate(l.DeliveryDate))
	return b.String()
}

func (d *Dispatcher) navigateChoice(l *model.Load) model.InteractiveChoice {
	return model.InteractiveChoice{
		ID:         d.newID(),
		Label:      fmt.Sprintf("Load #%d", l.ID),
		ActionKind: model.ActionNavigate,
		Payload:    model.ChoicePayload{Path: fmt.Sprintf("/loads/%d", l.ID)},
	}
}

// NormalizeTranscript produces a strictly alternating user/assistant
// transcript ending with the current message. Leading assistant messages are
// dropped, consecutive same-role messages are merged and at most maxHistory
// prior messages are kept.
func NormalizeTranscript(history []model.ChatMessage, current string, maxHistory int) []model.ChatMessage {
	merged := make([]model.ChatMessage, 0, len(history)+1)
	appendMsg := func(role, content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		if role != model.RoleUser && role != model.RoleAssistant {
			return
		}
		if len(merged) == 0 && role == model.RoleAssistant {
			return
		}
		if n := len(merged); n > 0 && merged[n-1].Role == role {
			merged[n-1].Content += "\n\n" + content
			return
		}
		merged = append(merged, model.ChatMessage{Role: role, Content: content})
	}

	for _, m := range history {
		appendMsg(m.Role, m.Content)
	}

	if maxHistory >= 0 && len(merged) > maxHistory {
		merged = merged[len(merged)-maxHistory:]
		for len(merged) > 0 && merged[0].Role == model.RoleAssistant {
			merged = merged[1:]
		}
	}

	appendMsg(model.RoleUser, current)
	return merged
}
