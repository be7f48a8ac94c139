package service

import (
	"strings"
	"sync"
	"time"

	"freightchat/internal/model"
)

// DefaultSuppressionWindow is how long an answered question stays suppressed
const DefaultSuppressionWindow = 30 * time.Second

// Clock abstracts time for the suppression window
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }

// DialogueTracker is the question bookkeeping of one conversation.
// It never returns errors; inconsistent state is reset with Clear.
type DialogueTracker struct {
	mu     sync.Mutex
	clock  Clock
	window time.Duration
	state  model.DialogueState
}

// NewDialogueTracker creates an empty tracker
func NewDialogueTracker(clock Clock, window time.Duration) *DialogueTracker {
	if clock == nil {
		clock = SystemClock()
	}
	if window <= 0 {
		window = DefaultSuppressionWindow
	}
	return &DialogueTracker{
		clock:  clock,
		window: window,
		state:  model.DialogueState{History: map[string]model.HistoryEntry{}},
	}
}

// SetQuestionState records the question the assistant just asked
func (t *DialogueTracker) SetQuestionState(id string, pending bool, context string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.heal()
	t.state.LastQuestionID = id
	t.state.PendingResponse = pending
	t.state.Context = context
}

// TrackResponse stores the user's answer to a question and clears the pending flag
func (t *DialogueTracker) TrackResponse(id, questionText, userAnswer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.heal()
	if id == "" {
		id = t.state.LastQuestionID
	}
	if id != "" {
		t.state.History[id] = model.HistoryEntry{
			QuestionText: questionText,
			Timestamp:    t.clock.Now(),
			UserAnswer:   userAnswer,
		}
	}
	t.state.PendingResponse = false
}

// ShouldSuppress reports whether asking questionText now would repeat a
// pending or recently answered question
func (t *DialogueTracker) ShouldSuppress(questionText string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.heal()
	if t.state.PendingResponse {
		return true
	}

	q := strings.ToLower(strings.TrimSpace(questionText))
	if q == "" {
		return false
	}
	now := t.clock.Now()
	for _, entry := range t.state.History {
		prior := strings.ToLower(strings.TrimSpace(entry.QuestionText))
		if prior == "" {
			continue
		}
		if !strings.Contains(prior, q) && !strings.Contains(q, prior) {
			continue
		}
		if now.Sub(entry.Timestamp) <= t.window {
			return true
		}
	}
	return false
}

// Pending returns the pending question id and context, if any
func (t *DialogueTracker) Pending() (id, context string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.PendingResponse {
		return "", "", false
	}
	return t.state.LastQuestionID, t.state.Context, true
}

// Context returns the context of the last question, pending or not
func (t *DialogueTracker) Context() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Context
}

// Clear drops the pending question and context but keeps history
func (t *DialogueTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

// Reset ends the conversation, erasing history too
func (t *DialogueTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = model.DialogueState{History: map[string]model.HistoryEntry{}}
}

// Snapshot returns a deep copy of the state for persistence
func (t *DialogueTracker) Snapshot() model.DialogueState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.state
	out.History = make(map[string]model.HistoryEntry, len(t.state.History))
	for k, v := range t.state.History {
		out.History[k] = v
	}
	return out
}

// Restore replaces the state with a persisted snapshot
func (t *DialogueTracker) Restore(state model.DialogueState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.state.History = make(map[string]model.HistoryEntry, len(state.History))
	for k, v := range state.History {
		t.state.History[k] = v
	}
	t.heal()
}

func (t *DialogueTracker) clearLocked() {
	history := t.state.History
	if history == nil {
		history = map[string]model.HistoryEntry{}
	}
	t.state = model.DialogueState{History: history}
}

// heal repairs states that cannot occur through the public API
func (t *DialogueTracker) heal() {
	if t.state.History == nil || (t.state.PendingResponse && t.state.LastQuestionID == "") {
		t.clearLocked()
	}
}
