package provider

import (
	"context"
	"time"
)

// Provider defines the interface for LLM providers. Call sites send a system
// instruction plus a user instruction and receive free text back; structured
// output is a prompt-level contract, not a transport-level one.
type Provider interface {
	ID() string
	Name() string
	Generate(ctx context.Context, system, user string) (*Response, error)
}

// Response holds the text completion and token accounting.
type Response struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Config holds configuration for a provider instance.
type Config struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	Endpoint string            `json:"endpoint"`
	APIKey   string            `json:"api_key"`
	Model    string            `json:"model"`
	Extra    map[string]string `json:"extra,omitempty"`
	Timeout  time.Duration     `json:"timeout,omitempty"`
}
