package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"freightchat/internal/config"
	"freightchat/internal/logger"
	"freightchat/internal/model"
)

// OpenAIClient handles OpenAI-compatible API interactions
type OpenAIClient struct {
	config     *config.OpenAIConfig
	httpClient *http.Client
	provider   Provider
	extraBody  map[string]any
	log        logger.Logger
}

// NewOpenAIClient creates a new OpenAI-compatible client with auto-detection of provider
func NewOpenAIClient(cfg *config.OpenAIConfig, log logger.Logger) *OpenAIClient {
	provider := DetectProvider(cfg.APIBase)
	log.Info("AI provider detected", map[string]interface{}{
		"provider": provider.Name,
		"base":     cfg.APIBase,
		"model":    cfg.ChatModel,
	})

	var extraBody map[string]any
	if cfg.ChatExtraBody != "" {
		if err := json.Unmarshal([]byte(cfg.ChatExtraBody), &extraBody); err != nil {
			log.WithError(err).Warn("failed to parse OPENAI_CHAT_EXTRA_BODY, ignoring", nil)
			extraBody = nil
		}
	}

	return &OpenAIClient{
		config:    cfg,
		provider:  provider,
		extraBody: extraBody,
		log:       log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c.config.Enabled
}

// ChatCompletionRequest represents a chat completion request
type ChatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []ChatMessage  `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	TopP        float64        `json:"top_p,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	ExtraBody   map[string]any `json:"extra_body,omitempty"`
}

// ChatMessage represents a single message in the conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse represents the API response
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Send posts a system prompt plus transcript and returns the reply text
func (c *OpenAIClient) Send(ctx context.Context, transcript []model.ChatMessage, systemPrompt string) (string, error) {
	messages := make([]ChatMessage, 0, len(transcript)+1)
	if systemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range transcript {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.ChatCompletion(ctx, ChatCompletionRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", &AITransportError{Kind: ErrorKindUnknown, Err: errors.New("no choices in response")}
	}

	content := c.provider.CleanContent(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &AITransportError{Kind: ErrorKindUnknown, Err: errors.New("empty response content")}
	}

	c.log.Debug("chat completion finished", map[string]interface{}{
		"model":        resp.Model,
		"total_tokens": resp.Usage.TotalTokens,
		"finish":       resp.Choices[0].FinishReason,
	})
	return content, nil
}

// ChatCompletion performs a chat completion request
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if !c.config.Enabled {
		return nil, &AITransportError{Kind: ErrorKindAuth, Err: ErrAIDisabled}
	}

	// Use configured model if not specified
	if req.Model == "" {
		req.Model = c.config.ChatModel
	}

	// Apply default parameters from config
	if req.Temperature == 0 && c.config.ChatTemperature > 0 {
		req.Temperature = c.config.ChatTemperature
	}
	if req.TopP == 0 && c.config.ChatTopP > 0 {
		req.TopP = c.config.ChatTopP
	}
	if req.MaxTokens == 0 && c.config.ChatMaxTokens > 0 {
		req.MaxTokens = c.config.ChatMaxTokens
	}
	if req.ExtraBody == nil {
		req.ExtraBody = c.extraBody
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, &AITransportError{Kind: ErrorKindUnknown, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.config.APIBase, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &AITransportError{Kind: ErrorKindUnknown, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &AITransportError{Kind: classifyTransportFailure(err), Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AITransportError{Kind: ErrorKindNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AITransportError{
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API request failed: %s", truncate(string(body), 512)),
		}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &AITransportError{Kind: ErrorKindUnknown, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	return &result, nil
}

func classifyStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorKindAuth
	case code == http.StatusTooManyRequests:
		return ErrorKindRateLimit
	case code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout:
		return ErrorKindNetwork
	default:
		return ErrorKindUnknown
	}
}

func classifyTransportFailure(err error) ErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorKindNetwork
	case errors.As(err, &netErr):
		return ErrorKindNetwork
	default:
		return ErrorKindUnknown
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
