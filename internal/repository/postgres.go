package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"freightchat/internal/model"
	"freightchat/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const loadColumns = `
	load_id, reference_number, broker_name, status,
	origin_city, origin_state, destination_city, destination_state,
	rate, miles, equipment, commodity, weight_lbs,
	pickup_date, delivery_date, accessorials, created_at, updated_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db          *sqlx.DB
	searchLimit int
}

// NewPostgresRepository creates a new PostgreSQL repository. searchLimit caps
// the candidate rows a search fetches before ranking.
func NewPostgresRepository(dsn string, maxConn, maxIdleConn, searchLimit int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresRepositoryFromDB(db, searchLimit), nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB, searchLimit int) *PostgresRepository {
	return &PostgresRepository{db: db, searchLimit: searchLimit}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// FindByID retrieves a single load. A missing load returns (nil, nil).
func (r *PostgresRepository) FindByID(ctx context.Context, loadID int64) (*model.Load, error) {
	var load model.Load
	query := `SELECT` + loadColumns + ` FROM loads WHERE load_id = $1`
	err := r.db.GetContext(ctx, &load, query, loadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get load: %w", err)
	}
	if err := load.Validate(); err != nil {
		return nil, fmt.Errorf("invalid load row: %w", err)
	}
	return &load, nil
}

// Search returns candidate loads for a free-text query in load_id order.
// Relevance is scored by the caller; this only narrows the candidate set.
func (r *PostgresRepository) Search(ctx context.Context, text string) ([]model.Load, error) {
	patterns := searchPatterns(text)
	if len(patterns) == 0 {
		return []model.Load{}, nil
	}

	query := `SELECT` + loadColumns + `
		FROM loads
		WHERE CAST(load_id AS TEXT) ILIKE ANY($1)
			OR broker_name ILIKE ANY($1)
			OR status ILIKE ANY($1)
			OR origin_city ILIKE ANY($1)
			OR origin_state ILIKE ANY($1)
			OR destination_city ILIKE ANY($1)
			OR destination_state ILIKE ANY($1)
			OR CAST(rate AS TEXT) ILIKE ANY($1)
		ORDER BY load_id
		LIMIT $2`

	var loads []model.Load
	if err := r.db.SelectContext(ctx, &loads, query, pq.Array(patterns), r.searchLimit); err != nil {
		return nil, fmt.Errorf("failed to search loads: %w", err)
	}

	valid := loads[:0]
	for _, l := range loads {
		if l.Validate() != nil {
			continue
		}
		valid = append(valid, l)
	}
	return valid, nil
}

// searchPatterns builds ILIKE patterns for each term, adding the canonical
// status for status aliases so "completed" also finds "delivered" rows
func searchPatterns(text string) []string {
	terms := utils.SearchTerms(text)
	patterns := make([]string, 0, len(terms))
	seen := make(map[string]bool)
	add := func(s string) {
		p := "%" + s + "%"
		if !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}
	for _, term := range terms {
		if num, ok := utils.NumericTerm(term); ok {
			add(num)
			continue
		}
		add(term)
		if canonical := utils.CanonicalStatus(term); canonical != "" {
			add(canonical)
		}
	}
	return patterns
}

// GetRelated loads documents, communications and the financial summary of a load
func (r *PostgresRepository) GetRelated(ctx context.Context, loadID int64) (*model.Related, error) {
	related := &model.Related{
		Documents:      []model.Document{},
		Communications: []model.Communication{},
	}

	err := r.db.SelectContext(ctx, &related.Documents, `
		SELECT id, load_id, kind, name, status, uploaded_at
		FROM load_documents
		WHERE load_id = $1
		ORDER BY uploaded_at DESC`, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	err = r.db.SelectContext(ctx, &related.Communications, `
		SELECT id, load_id, channel, counterparty, summary, occurred_at
		FROM load_communications
		WHERE load_id = $1
		ORDER BY occurred_at DESC
		LIMIT 20`, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get communications: %w", err)
	}

	var fin model.FinancialSummary
	err = r.db.GetContext(ctx, &fin, `
		SELECT load_id, revenue, fuel_cost, tolls, other_expenses, net_profit, invoice_status
		FROM load_financials
		WHERE load_id = $1`, loadID)
	switch {
	case err == nil:
		related.Financials = &fin
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("failed to get financials: %w", err)
	}

	return related, nil
}

// LogTurn logs a processed chat turn
func (r *PostgresRepository) LogTurn(ctx context.Context, entry model.TurnLog) error {
	query := `
		INSERT INTO chat_logs (session_id, message, intent, confidence, requires_ai, ai_called, load_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.SessionID,
		entry.Message,
		string(entry.Intent),
		entry.Confidence,
		entry.RequiresAI,
		entry.AICalled,
		pq.Array(entry.LoadIDs),
		entry.ResponseMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log turn: %w", err)
	}
	return nil
}

// LogFeedback logs a clicked interactive choice
func (r *PostgresRepository) LogFeedback(ctx context.Context, sessionID, choiceID, action string) error {
	query := `
		INSERT INTO chat_feedback (session_id, choice_id, action)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, sessionID, choiceID, strings.TrimSpace(action))
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}
