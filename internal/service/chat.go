package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"freightchat/internal/config"
	"freightchat/internal/logger"
	"freightchat/internal/metrics"
	"freightchat/internal/model"
	"freightchat/internal/notify"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrLoadNotFound   = errors.New("load not found")
	ErrInvalidAction  = errors.New("invalid feedback action")
	ErrEmptySessionID = errors.New("session id is empty")
)

// Feedback actions accepted by LogFeedback
var feedbackActions = map[string]bool{
	string(model.ActionNavigate):         true,
	string(model.ActionContinueDialogue): true,
	"dismiss":                            true,
}

// ChatService runs conversation turns and the load lookups behind them
type ChatService struct {
	repo       LoadRepository
	recorder   TurnRecorder
	sessions   SessionStore
	ranker     *Ranker
	classifier *Classifier
	assembler  *ContextAssembler
	dispatcher *Dispatcher
	log        logger.Logger

	wg sync.WaitGroup
}

// NewChatService wires the classifier, assembler and dispatcher around a
// repository. recorder may be nil.
func NewChatService(
	repo LoadRepository,
	recorder TurnRecorder,
	sessions SessionStore,
	ai AIClient,
	notifier notify.Notifier,
	cfg config.DialogueConfig,
	log logger.Logger,
) *ChatService {
	ranker := NewRanker()
	return &ChatService{
		repo:       repo,
		recorder:   recorder,
		sessions:   sessions,
		ranker:     ranker,
		classifier: NewClassifier(repo, ranker, log),
		assembler:  NewContextAssembler(repo, log),
		dispatcher: NewDispatcher(ai, NewInteractiveParser(), notifier, cfg.MaxHistoryMessages, log),
		log:        log,
	}
}

// ProcessTurn classifies a message, assembles its context and answers it
func (s *ChatService) ProcessTurn(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	startTime := time.Now()

	utterance := strings.TrimSpace(req.Message)
	if utterance == "" {
		return nil, ErrEmptyMessage
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	tracker := s.tracker(ctx, sessionID)
	c := s.classifier.Classify(ctx, utterance, req.AnchorLoadID)

	// restored when the AI call fails so the turn leaves no trace
	before := tracker.Snapshot()

	// an acknowledgement answers the pending question; anything else supersedes it
	dialogueContext := ""
	if id, question, ok := tracker.Pending(); ok {
		if c.IntentType == model.IntentButtonResponse {
			dialogueContext = question
			tracker.TrackResponse(id, question, utterance)
		} else {
			tracker.TrackResponse(id, question, "")
		}
	}

	bundle := s.assembler.Assemble(ctx, utterance, c, dialogueContext)
	result := s.dispatcher.Dispatch(ctx, DispatchInput{
		SessionID:      sessionID,
		Utterance:      utterance,
		Classification: c,
		Bundle:         bundle,
		History:        req.History,
		Tracker:        tracker,
	})
	if result.Err != nil {
		tracker.Restore(before)
	}

	if err := s.sessions.Save(ctx, sessionID, tracker); err != nil {
		s.log.WithError(err).Warn("Failed to save session", map[string]interface{}{
			"session_id": sessionID,
		})
	}

	took := time.Since(startTime)
	path := metrics.PathDirect
	if result.AICalled {
		path = metrics.PathAI
	}
	metrics.TurnsTotal.WithLabelValues(string(c.IntentType)).Inc()
	metrics.TurnDuration.WithLabelValues(path).Observe(took.Seconds())

	s.logTurn(model.TurnLog{
		SessionID:  sessionID,
		Message:    utterance,
		Intent:     c.IntentType,
		Confidence: c.Confidence,
		RequiresAI: c.RequiresAI,
		AICalled:   result.AICalled,
		LoadIDs:    loadIDs(c.MatchedRecords),
		ResponseMs: int(took.Milliseconds()),
	})

	s.log.Debug("Turn processed", map[string]interface{}{
		"session_id": sessionID,
		"intent":     string(c.IntentType),
		"matcher":    c.Matcher,
		"confidence": c.Confidence,
		"ai_called":  result.AICalled,
		"took_ms":    took.Milliseconds(),
	})

	displayText := result.Parsed.MainContent
	if displayText == "" {
		displayText = result.Parsed.Question
	}
	choices := result.Parsed.InteractiveButtons
	if choices == nil {
		choices = []model.InteractiveChoice{}
	}

	return &model.ChatResponse{
		SessionID:        sessionID,
		DisplayText:      displayText,
		Choices:          choices,
		Intent:           c.IntentType,
		Confidence:       c.Confidence,
		RequiresAI:       c.RequiresAI,
		AICalled:         result.AICalled,
		Question:         result.Parsed.Question,
		DeferredQuestion: result.Parsed.DeferredQuestionContent,
		Took:             took.Milliseconds(),
	}, nil
}

// tracker loads the session's tracker, falling back to an empty one
func (s *ChatService) tracker(ctx context.Context, sessionID string) *DialogueTracker {
	tracker, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.log.WithError(err).Warn("Failed to load session, starting fresh", map[string]interface{}{
			"session_id": sessionID,
		})
		return NewDialogueTracker(nil, 0)
	}
	return tracker
}

// logTurn writes the audit row without blocking the turn
func (s *ChatService) logTurn(entry model.TurnLog) {
	if s.recorder == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.recorder.LogTurn(context.Background(), entry); err != nil {
			s.log.WithError(err).Warn("Failed to log turn", map[string]interface{}{
				"session_id": entry.SessionID,
			})
		}
	}()
}

// Wait blocks until pending turn logs are written
func (s *ChatService) Wait() {
	s.wg.Wait()
}

// ResetTopic drops the pending question of a session, keeping its history
func (s *ChatService) ResetTopic(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrEmptySessionID
	}
	tracker, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	tracker.Clear()
	if err := s.sessions.Save(ctx, sessionID, tracker); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// EndConversation erases a session entirely
func (s *ChatService) EndConversation(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrEmptySessionID
	}
	if tracker, err := s.sessions.Get(ctx, sessionID); err == nil {
		tracker.Reset()
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SearchLoads ranks repository candidates for a free-text query
func (s *ChatService) SearchLoads(ctx context.Context, query string, limit int) (*model.LoadSearchResponse, error) {
	startTime := time.Now()

	loads, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search loads: %w", err)
	}

	results := s.ranker.RankResults(query, loads)
	total := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []model.ScoredRecord{}
	}

	return &model.LoadSearchResponse{
		Results: results,
		Total:   total,
		Took:    time.Since(startTime).Milliseconds(),
	}, nil
}

// GetLoad returns a load with its related records. A failed related lookup
// still returns the load.
func (s *ChatService) GetLoad(ctx context.Context, loadID int64) (*model.LoadDetailResponse, error) {
	load, err := s.repo.FindByID(ctx, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get load: %w", err)
	}
	if load == nil {
		return nil, ErrLoadNotFound
	}

	related, err := s.repo.GetRelated(ctx, loadID)
	if err != nil {
		s.log.WithError(err).Warn("Failed to load related records", map[string]interface{}{
			"load_id": loadID,
		})
		related = nil
	}
	return &model.LoadDetailResponse{Load: load, Related: related}, nil
}

// LogFeedback records a clicked interactive choice
func (s *ChatService) LogFeedback(ctx context.Context, req *model.FeedbackRequest) error {
	action := strings.TrimSpace(req.Action)
	if !feedbackActions[action] {
		return fmt.Errorf("%w: %q", ErrInvalidAction, req.Action)
	}
	if s.recorder == nil {
		return nil
	}
	return s.recorder.LogFeedback(ctx, req.SessionID, req.ChoiceID, action)
}

func loadIDs(records []model.ScoredRecord) []int64 {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Record.ID)
	}
	return ids
}
