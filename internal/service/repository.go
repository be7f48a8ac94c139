package service

import (
	"context"

	"freightchat/internal/model"
)

// LoadRepository is the read side of the load store
type LoadRepository interface {
	// FindByID returns (nil, nil) when the load does not exist
	FindByID(ctx context.Context, loadID int64) (*model.Load, error)
	// Search returns candidate loads in repository order
	Search(ctx context.Context, text string) ([]model.Load, error)
	GetRelated(ctx context.Context, loadID int64) (*model.Related, error)
}

// TurnRecorder persists audit rows for turns and clicked choices
type TurnRecorder interface {
	LogTurn(ctx context.Context, entry model.TurnLog) error
	LogFeedback(ctx context.Context, sessionID, choiceID, action string) error
}
