package service

import (
	"context"

	"freightchat/internal/model"
)

// AIClient is the interface for generative AI providers
type AIClient interface {
	// Send posts the system prompt and transcript and returns the reply text.
	// Failures are *AITransportError.
	Send(ctx context.Context, transcript []model.ChatMessage, systemPrompt string) (string, error)

	// IsEnabled returns whether the AI client is configured and ready
	IsEnabled() bool
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
