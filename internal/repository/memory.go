package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"freightchat/internal/model"
)

// SeedData is the on-disk layout of a demo seed file
type SeedData struct {
	Loads          []model.Load             `json:"loads"`
	Documents      []model.Document         `json:"documents"`
	Communications []model.Communication    `json:"communications"`
	Financials     []model.FinancialSummary `json:"financials"`
}

// MemoryRepository keeps loads in insertion order. It backs tests and the
// demo mode used when no database is configured.
type MemoryRepository struct {
	mu             sync.RWMutex
	loads          []model.Load
	index          map[int64]int
	documents      map[int64][]model.Document
	communications map[int64][]model.Communication
	financials     map[int64]model.FinancialSummary
	turns          []model.TurnLog
	feedback       []string
}

// NewMemoryRepository creates a repository holding the given loads
func NewMemoryRepository(loads ...model.Load) (*MemoryRepository, error) {
	r := &MemoryRepository{
		index:          make(map[int64]int),
		documents:      make(map[int64][]model.Document),
		communications: make(map[int64][]model.Communication),
		financials:     make(map[int64]model.FinancialSummary),
	}
	for _, l := range loads {
		if err := r.AddLoad(l); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewMemoryRepositoryFromFile loads a JSON seed file
func NewMemoryRepositoryFromFile(path string) (*MemoryRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedData
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return NewMemoryRepositoryFromSeed(seed)
}

// NewMemoryRepositoryFromSeed builds a repository from decoded seed data
func NewMemoryRepositoryFromSeed(seed SeedData) (*MemoryRepository, error) {
	r, err := NewMemoryRepository(seed.Loads...)
	if err != nil {
		return nil, err
	}
	for _, d := range seed.Documents {
		r.documents[d.LoadID] = append(r.documents[d.LoadID], d)
	}
	for _, c := range seed.Communications {
		r.communications[c.LoadID] = append(r.communications[c.LoadID], c)
	}
	for _, f := range seed.Financials {
		r.financials[f.LoadID] = f
	}
	return r, nil
}

// AddLoad validates and stores a load, replacing any load with the same id
func (r *MemoryRepository) AddLoad(l model.Load) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("invalid load: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[l.ID]; ok {
		r.loads[i] = l
		return nil
	}
	r.index[l.ID] = len(r.loads)
	r.loads = append(r.loads, l)
	return nil
}

// FindByID returns the load or (nil, nil) when absent
func (r *MemoryRepository) FindByID(_ context.Context, loadID int64) (*model.Load, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[loadID]
	if !ok {
		return nil, nil
	}
	l := r.loads[i]
	return &l, nil
}

// Search returns every load whose searchable fields contain one of the
// query terms, in insertion order
func (r *MemoryRepository) Search(_ context.Context, text string) ([]model.Load, error) {
	patterns := searchPatterns(text)
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Load{}
	if len(patterns) == 0 {
		return out, nil
	}
	for _, l := range r.loads {
		haystack := strings.ToLower(strings.Join([]string{
			fmt.Sprintf("%d", l.ID),
			l.BrokerName,
			l.Status,
			l.OriginCity, l.OriginState,
			l.DestinationCity, l.DestinationState,
			fmt.Sprintf("%.2f", l.Rate),
		}, "|"))
		for _, p := range patterns {
			if strings.Contains(haystack, strings.Trim(p, "%")) {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

// GetRelated returns the sub-records of a load
func (r *MemoryRepository) GetRelated(_ context.Context, loadID int64) (*model.Related, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	related := &model.Related{
		Documents:      append([]model.Document{}, r.documents[loadID]...),
		Communications: append([]model.Communication{}, r.communications[loadID]...),
	}
	sort.SliceStable(related.Documents, func(i, j int) bool {
		return related.Documents[i].UploadedAt.After(related.Documents[j].UploadedAt)
	})
	sort.SliceStable(related.Communications, func(i, j int) bool {
		return related.Communications[i].OccurredAt.After(related.Communications[j].OccurredAt)
	})
	if f, ok := r.financials[loadID]; ok {
		related.Financials = &f
	}
	return related, nil
}

// LogTurn records a processed turn
func (r *MemoryRepository) LogTurn(_ context.Context, entry model.TurnLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, entry)
	return nil
}

// LogFeedback records a clicked choice
func (r *MemoryRepository) LogFeedback(_ context.Context, sessionID, choiceID, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, sessionID+"/"+choiceID+"/"+action)
	return nil
}

// Turns returns a copy of the logged turns
func (r *MemoryRepository) Turns() []model.TurnLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.TurnLog(nil), r.turns...)
}

// Feedback returns a copy of the logged feedback as "session/choice/action"
func (r *MemoryRepository) Feedback() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.feedback...)
}

// LoadCount returns the number of stored loads
func (r *MemoryRepository) LoadCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loads)
}

