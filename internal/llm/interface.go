// internal/llm/interface.go
package llm

import (
	"context"
)

// CompletionRequest is one chat turn: a system prompt plus a user message
// made of text and, optionally, one image.
type CompletionRequest struct {
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Prompt       string  `json:"prompt"`
	ImageURL     string  `json:"image_url,omitempty"` // http(s) or data: URL
	Model        string  `json:"model,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
}

type CompletionResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	PromptTokens int    `json:"prompt_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// Provider is a generative backend returning a single text completion.
type Provider interface {
	GetName() string
	CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
