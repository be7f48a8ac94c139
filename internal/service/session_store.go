package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"freightchat/internal/config"
	"freightchat/internal/logger"
	"freightchat/internal/metrics"
	"freightchat/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionStore holds one dialogue tracker per conversation
type SessionStore interface {
	// Get returns the tracker for a session, creating an empty one when absent
	Get(ctx context.Context, sessionID string) (*DialogueTracker, error)
	// Save persists tracker changes made during a turn
	Save(ctx context.Context, sessionID string, tracker *DialogueTracker) error
	// Delete ends the conversation
	Delete(ctx context.Context, sessionID string) error
}

// TrackerFactory builds empty trackers with shared clock and window
type TrackerFactory struct {
	Clock  Clock
	Window time.Duration
}

// New creates an empty tracker
func (f TrackerFactory) New() *DialogueTracker {
	return NewDialogueTracker(f.Clock, f.Window)
}

type memorySession struct {
	tracker  *DialogueTracker
	lastSeen time.Time
}

// MemorySessionStore keeps trackers in process memory
type MemorySessionStore struct {
	mu       sync.Mutex
	factory  TrackerFactory
	ttl      time.Duration
	sessions map[string]*memorySession
}

// NewMemorySessionStore creates a memory store. Sessions idle longer than
// ttl are evicted lazily; ttl <= 0 keeps them forever.
func NewMemorySessionStore(factory TrackerFactory, ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		factory:  factory,
		ttl:      ttl,
		sessions: make(map[string]*memorySession),
	}
}

func (s *MemorySessionStore) now() time.Time {
	if s.factory.Clock != nil {
		return s.factory.Clock.Now()
	}
	return time.Now()
}

// Get returns the session tracker
func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*DialogueTracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.evictLocked(now)

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &memorySession{tracker: s.factory.New()}
		s.sessions[sessionID] = sess
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	sess.lastSeen = now
	return sess.tracker, nil
}

// Save refreshes the session. Trackers are shared by pointer so there is
// nothing to copy.
func (s *MemorySessionStore) Save(_ context.Context, sessionID string, tracker *DialogueTracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = &memorySession{tracker: tracker, lastSeen: s.now()}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

// Delete removes the session
func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return nil
}

// Len returns the number of live sessions
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemorySessionStore) evictLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// RedisSessionStore persists tracker snapshots as JSON with a TTL
type RedisSessionStore struct {
	client  *redis.Client
	factory TrackerFactory
	prefix  string
	ttl     time.Duration
	log     logger.Logger
}

// NewRedisClient creates a Redis client from config
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// NewRedisSessionStore creates a Redis-backed store
func NewRedisSessionStore(client *redis.Client, factory TrackerFactory, prefix string, ttl time.Duration, log logger.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		client:  client,
		factory: factory,
		prefix:  prefix,
		ttl:     ttl,
		log:     log,
	}
}

func (s *RedisSessionStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Get loads the session snapshot. A corrupt snapshot yields a fresh tracker.
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*DialogueTracker, error) {
	tracker := s.factory.New()

	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return tracker, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state model.DialogueState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.log.WithError(err).Warn("discarding corrupt session state", map[string]interface{}{"session_id": sessionID})
		return tracker, nil
	}
	tracker.Restore(state)
	return tracker, nil
}

// Save writes the tracker snapshot and refreshes the TTL
func (s *RedisSessionStore) Save(ctx context.Context, sessionID string, tracker *DialogueTracker) error {
	data, err := json.Marshal(tracker.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session key
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
