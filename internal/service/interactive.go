package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"freightchat/internal/model"
	"freightchat/internal/utils"

	"github.com/google/uuid"
)

// QuestionPolicy controls what happens to a trailing question in an AI reply
type QuestionPolicy struct {
	// Allow is false on turns that must not ask anything new
	Allow bool
	// Suppress reports whether the question repeats one already asked
	Suppress func(question string) bool
}

// suggestedActionsBlock is the optional trailing JSON the AI may append
type suggestedActionsBlock struct {
	SuggestedActions []suggestedAction `json:"suggested_actions"`
}

type suggestedAction struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// UnmarshalJSON accepts either a plain string or {label, message}
func (a *suggestedAction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Label = s
		return nil
	}
	type plain suggestedAction
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = suggestedAction(p)
	return nil
}

var (
	nextStepLine  = regexp.MustCompile(`(?i)^\s*(?:\*\*)?(?:next step|suggested action)s?(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.+)$`)
	optionLine    = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+(.+)$`)
	loadReference = regexp.MustCompile(`(?i)\bload\s*#\s*(\d+)\b`)
	yesNoStart    = regexp.MustCompile(`(?i)^(?:would|should|do|does|did|can|could|shall|is|are|was|will|want|may|has|have)\b`)
)

// InteractiveParser re-segments AI text into content and discrete choices.
// It never invents content: labels and messages come from the reply itself.
type InteractiveParser struct {
	newID func() string
}

// NewInteractiveParser creates a parser that ids choices with UUIDs
func NewInteractiveParser() *InteractiveParser {
	return &InteractiveParser{newID: func() string { return uuid.New().String() }}
}

// Parse splits raw AI output
func (p *InteractiveParser) Parse(raw string, policy QuestionPolicy) model.ParsedResponse {
	text := strings.TrimSpace(raw)
	var actions []model.InteractiveChoice

	// (a) trailing JSON block
	if snippet, prefix, ok := utils.TrailingJSONObject(text); ok {
		var block suggestedActionsBlock
		if err := utils.ParseAIJSON(snippet.Text, &block); err == nil && len(block.SuggestedActions) > 0 {
			for _, a := range block.SuggestedActions {
				label := strings.TrimSpace(a.Label)
				if label == "" {
					continue
				}
				message := strings.TrimSpace(a.Message)
				if message == "" {
					message = label
				}
				actions = append(actions, p.continueChoice(label, message))
			}
			text = prefix
		}
	}

	lines := strings.Split(text, "\n")
	lines = trimTrailingBlank(lines)

	// (b) trailing "Next step:" line
	if n := len(lines); n > 0 {
		if m := nextStepLine.FindStringSubmatch(lines[n-1]); m != nil {
			label := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*_"))
			if label != "" && !strings.HasSuffix(label, "?") {
				label = strings.TrimRight(label, ".")
				actions = append(actions, p.continueChoice(label, label))
				lines = trimTrailingBlank(lines[:n-1])
			}
		}
	}

	result := model.ParsedResponse{InteractiveButtons: actions}

	// (c) trailing question
	question, options, remaining, found := splitTrailingQuestion(lines)
	if !found {
		result.MainContent = strings.TrimSpace(strings.Join(lines, "\n"))
		return result
	}

	switch {
	case !policy.Allow:
		// dropped entirely; option lines stay as plain content
		result.MainContent = strings.TrimSpace(strings.Join(withoutQuestion(lines), "\n"))
		result.DroppedQuestion = question
		return result
	case policy.Suppress != nil && policy.Suppress(question):
		result.MainContent = strings.TrimSpace(strings.Join(withoutQuestion(lines), "\n"))
		result.DeferredQuestionContent = question
		return result
	}

	result.MainContent = strings.TrimSpace(strings.Join(remaining, "\n"))
	result.Question = question
	result.InteractiveButtons = append(result.InteractiveButtons, p.questionChoices(question, options)...)
	return result
}

func (p *InteractiveParser) continueChoice(label, message string) model.InteractiveChoice {
	return model.InteractiveChoice{
		ID:         p.newID(),
		Label:      label,
		ActionKind: model.ActionContinueDialogue,
		Payload:    model.ChoicePayload{Message: message},
	}
}

func (p *InteractiveParser) questionChoices(question string, options []string) []model.InteractiveChoice {
	if len(options) > 0 {
		choices := make([]model.InteractiveChoice, 0, len(options))
		for _, opt := range options {
			choices = append(choices, p.continueChoice(opt, opt))
		}
		return choices
	}

	if !yesNoStart.MatchString(question) {
		return nil
	}

	yes := p.continueChoice("Yes", "Yes")
	if m := loadReference.FindStringSubmatch(question); m != nil {
		yes = model.InteractiveChoice{
			ID:         p.newID(),
			Label:      "Yes",
			ActionKind: model.ActionNavigate,
			Payload:    model.ChoicePayload{Path: fmt.Sprintf("/loads/%s", m[1])},
		}
	}
	return []model.InteractiveChoice{yes, p.continueChoice("No", "No")}
}

// splitTrailingQuestion finds a single question at the end of the reply.
// Options may sit directly after the question, or directly before it when
// the question is not a yes/no question.
func splitTrailingQuestion(lines []string) (question string, options []string, remaining []string, found bool) {
	n := len(lines)
	if n == 0 {
		return "", nil, lines, false
	}

	// question then options
	optStart := n
	for optStart > 0 && optionLine.MatchString(lines[optStart-1]) {
		optStart--
	}
	if optStart < n && optStart > 0 {
		if q, before, ok := trailingQuestionSentence(lines[optStart-1]); ok {
			remaining = append(append([]string{}, lines[:optStart-1]...), before)
			return q, optionTexts(lines[optStart:]), trimTrailingBlank(remaining), true
		}
	}

	// options (optional) then question
	q, before, ok := trailingQuestionSentence(lines[n-1])
	if !ok {
		return "", nil, lines, false
	}
	if before != "" {
		remaining = append(append([]string{}, lines[:n-1]...), before)
		return q, nil, trimTrailingBlank(remaining), true
	}
	// a list before a yes/no question is content, not its answers
	if yesNoStart.MatchString(q) {
		return q, nil, trimTrailingBlank(append([]string{}, lines[:n-1]...)), true
	}
	start := n - 1
	for start > 0 && optionLine.MatchString(lines[start-1]) {
		start--
	}
	return q, optionTexts(lines[start : n-1]), trimTrailingBlank(append([]string{}, lines[:start]...)), true
}

// withoutQuestion removes only the question sentence from the lines
func withoutQuestion(lines []string) []string {
	out := append([]string{}, lines...)
	for i := len(out) - 1; i >= 0; i-- {
		if _, before, ok := trailingQuestionSentence(out[i]); ok {
			out[i] = before
			break
		}
		if !optionLine.MatchString(out[i]) {
			break
		}
	}
	return trimTrailingBlank(out)
}

// trailingQuestionSentence returns the last sentence of line when it is a
// question, plus whatever precedes it on the line
func trailingQuestionSentence(line string) (question, before string, ok bool) {
	trimmed := strings.TrimSpace(line)
	core := strings.TrimRight(trimmed, "*_ ")
	if !strings.HasSuffix(core, "?") || optionLine.MatchString(trimmed) {
		return "", "", false
	}

	body := core[:len(core)-1]
	cut := -1
	for _, sep := range []string{". ", "! ", "? ", ": "} {
		if i := strings.LastIndex(body, sep); i >= 0 && i+1 > cut {
			cut = i + 1
		}
	}
	if cut < 0 {
		return cleanQuestion(core), "", true
	}
	return cleanQuestion(core[cut:]), strings.TrimSpace(core[:cut]), true
}

func cleanQuestion(q string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(q), "*_"))
}

func optionTexts(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		m := optionLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		opt := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*_"))
		if opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

func trimTrailingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
