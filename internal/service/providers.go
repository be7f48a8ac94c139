package service

import (
	"regexp"
	"strings"
)

// Provider describes quirks of an OpenAI-compatible backend
type Provider struct {
	Name string
	// Reasoning providers may return thinking text inline in content
	Reasoning bool
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// DetectProvider picks a provider profile from the API base URL
func DetectProvider(baseURL string) Provider {
	switch {
	case IsNVIDIAProvider(baseURL):
		return Provider{Name: "nvidia", Reasoning: true}
	case IsOpenAIProvider(baseURL):
		return Provider{Name: "openai"}
	case strings.Contains(baseURL, "deepseek"):
		return Provider{Name: "deepseek", Reasoning: true}
	default:
		return Provider{Name: "openai-compatible"}
	}
}

// CleanContent strips reasoning output that some providers leave in the reply
func (p Provider) CleanContent(content string) string {
	if p.Reasoning {
		content = thinkBlock.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// IsNVIDIAProvider checks if the base URL is NVIDIA API
func IsNVIDIAProvider(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https://integrate.api.nvidia.com")
}

// IsOpenAIProvider checks if the base URL is official OpenAI API
func IsOpenAIProvider(baseURL string) bool {
	return strings.Contains(baseURL, "api.openai.com")
}
