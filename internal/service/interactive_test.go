package service

import (
	"fmt"
	"testing"

	"freightchat/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *InteractiveParser {
	n := 0
	return &InteractiveParser{newID: func() string {
		n++
		return fmt.Sprintf("choice-%d", n)
	}}
}

var allowAll = QuestionPolicy{Allow: true}

func labels(choices []model.InteractiveChoice) []string {
	out := make([]string, 0, len(choices))
	for _, c := range choices {
		out = append(out, c.Label)
	}
	return out
}

func TestInteractiveParser_PlainText(t *testing.T) {
	parsed := newTestParser().Parse("  Load 1234 delivered on time.  ", allowAll)
	assert.Equal(t, "Load 1234 delivered on time.", parsed.MainContent)
	assert.Empty(t, parsed.InteractiveButtons)
	assert.Empty(t, parsed.Question)
}

func TestInteractiveParser_YesNoWithLoadReference(t *testing.T) {
	raw := "Load 1234 is in transit to Atlanta.\n\nWould you like me to open load #1234?"

	parsed := newTestParser().Parse(raw, allowAll)
	assert.Equal(t, "Load 1234 is in transit to Atlanta.", parsed.MainContent)
	assert.Equal(t, "Would you like me to open load #1234?", parsed.Question)
	require.Len(t, parsed.InteractiveButtons, 2)

	yes := parsed.InteractiveButtons[0]
	assert.Equal(t, "Yes", yes.Label)
	assert.Equal(t, model.ActionNavigate, yes.ActionKind)
	assert.Equal(t, "/loads/1234", yes.Payload.Path)

	no := parsed.InteractiveButtons[1]
	assert.Equal(t, "No", no.Label)
	assert.Equal(t, model.ActionContinueDialogue, no.ActionKind)
	assert.NotEqual(t, yes.ID, no.ID)
}

func TestInteractiveParser_QuestionOnSameLine(t *testing.T) {
	parsed := newTestParser().Parse("It's on schedule. Should I notify the broker?", allowAll)
	assert.Equal(t, "It's on schedule.", parsed.MainContent)
	assert.Equal(t, "Should I notify the broker?", parsed.Question)
	assert.Equal(t, []string{"Yes", "No"}, labels(parsed.InteractiveButtons))
	assert.Equal(t, "Yes", parsed.InteractiveButtons[0].Payload.Message)
}

func TestInteractiveParser_OptionsBeforeQuestion(t *testing.T) {
	raw := "I found two lanes:\n1. Dallas to Atlanta\n2. Houston to Phoenix\nWhich one should I analyze?"

	parsed := newTestParser().Parse(raw, allowAll)
	assert.Equal(t, "I found two lanes:", parsed.MainContent)
	assert.Equal(t, "Which one should I analyze?", parsed.Question)
	assert.Equal(t, []string{"Dallas to Atlanta", "Houston to Phoenix"}, labels(parsed.InteractiveButtons))
	assert.Equal(t, "Houston to Phoenix", parsed.InteractiveButtons[1].Payload.Message)
}

func TestInteractiveParser_ListBeforeYesNoQuestionStaysContent(t *testing.T) {
	raw := "Here are your Swift loads:\n- Load #1234 Dallas to Atlanta, $2,450\n- Load #1235 Houston to Phoenix, $3,100\nWould you like me to compare them?"

	parsed := newTestParser().Parse(raw, allowAll)
	assert.Contains(t, parsed.MainContent, "Here are your Swift loads:")
	assert.Contains(t, parsed.MainContent, "- Load #1234 Dallas to Atlanta, $2,450")
	assert.Contains(t, parsed.MainContent, "- Load #1235 Houston to Phoenix, $3,100")
	assert.Equal(t, "Would you like me to compare them?", parsed.Question)
	assert.Equal(t, []string{"Yes", "No"}, labels(parsed.InteractiveButtons))
}

func TestInteractiveParser_OptionsAfterQuestion(t *testing.T) {
	raw := "Two Swift loads match.\nWhich load do you want?\n- Load 1234\n- **Load 1235**"

	parsed := newTestParser().Parse(raw, allowAll)
	assert.Equal(t, "Two Swift loads match.", parsed.MainContent)
	assert.Equal(t, "Which load do you want?", parsed.Question)
	assert.Equal(t, []string{"Load 1234", "Load 1235"}, labels(parsed.InteractiveButtons))
}

func TestInteractiveParser_OpenQuestionHasNoButtons(t *testing.T) {
	parsed := newTestParser().Parse("Happy to help with lanes.\nWhat lane are you targeting?", allowAll)
	assert.Equal(t, "What lane are you targeting?", parsed.Question)
	assert.Empty(t, parsed.InteractiveButtons)
}

func TestInteractiveParser_DisallowedQuestionIsDropped(t *testing.T) {
	raw := "Proceeding with the rate confirmation request.\nWould you like anything else?"

	parsed := newTestParser().Parse(raw, QuestionPolicy{Allow: false})
	assert.Equal(t, "Proceeding with the rate confirmation request.", parsed.MainContent)
	assert.Empty(t, parsed.Question)
	assert.Equal(t, "Would you like anything else?", parsed.DroppedQuestion)
	assert.Empty(t, parsed.DeferredQuestionContent)
	assert.Empty(t, parsed.InteractiveButtons)
}

func TestInteractiveParser_DisallowedKeepsActions(t *testing.T) {
	raw := "Done.\nNext step: Upload the signed BOL."

	parsed := newTestParser().Parse(raw, QuestionPolicy{Allow: false})
	assert.Equal(t, "Done.", parsed.MainContent)
	assert.Equal(t, []string{"Upload the signed BOL"}, labels(parsed.InteractiveButtons))
}

func TestInteractiveParser_SuppressedQuestionIsDeferred(t *testing.T) {
	raw := "Load 1234 is in transit.\nWould you like me to open load #1234?"
	policy := QuestionPolicy{Allow: true, Suppress: func(string) bool { return true }}

	parsed := newTestParser().Parse(raw, policy)
	assert.Equal(t, "Load 1234 is in transit.", parsed.MainContent)
	assert.Equal(t, "Would you like me to open load #1234?", parsed.DeferredQuestionContent)
	assert.Empty(t, parsed.Question)
	assert.Empty(t, parsed.InteractiveButtons)
}

func TestInteractiveParser_TrailingJSONActions(t *testing.T) {
	raw := "Here is the summary.\n```json\n{\"suggested_actions\": [\"Call the broker\", {\"label\": \"Upload POD\", \"message\": \"Upload the POD for load 1234\"}]}\n```"

	parsed := newTestParser().Parse(raw, allowAll)
	assert.Equal(t, "Here is the summary.", parsed.MainContent)
	require.Len(t, parsed.InteractiveButtons, 2)
	assert.Equal(t, "Call the broker", parsed.InteractiveButtons[0].Payload.Message)
	assert.Equal(t, "Upload POD", parsed.InteractiveButtons[1].Label)
	assert.Equal(t, "Upload the POD for load 1234", parsed.InteractiveButtons[1].Payload.Message)
	for _, c := range parsed.InteractiveButtons {
		assert.Equal(t, model.ActionContinueDialogue, c.ActionKind)
	}
}

func TestInteractiveParser_UnrelatedJSONIsKept(t *testing.T) {
	raw := `Raw totals: {"revenue": 2450}`

	parsed := newTestParser().Parse(raw, allowAll)
	assert.Equal(t, raw, parsed.MainContent)
	assert.Empty(t, parsed.InteractiveButtons)
}

func TestInteractiveParser_NextStepLine(t *testing.T) {
	parsed := newTestParser().Parse("Delivery confirmed.\n**Next step:** Send the invoice to CH Robinson.", allowAll)
	assert.Equal(t, "Delivery confirmed.", parsed.MainContent)
	require.Len(t, parsed.InteractiveButtons, 1)
	assert.Equal(t, "Send the invoice to CH Robinson", parsed.InteractiveButtons[0].Label)
}
