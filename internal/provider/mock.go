package provider

import (
	"context"
	"encoding/json"
	"strings"
)

// MockProvider is a deterministic offline provider. It recognizes the routing
// and reflection prompts by their schema keys and answers with canned JSON, so
// the whole pipeline can run without any API key.
type MockProvider struct {
	id string
}

// NewMockProvider creates a mock provider.
func NewMockProvider(id string) *MockProvider {
	if id == "" {
		id = "mock"
	}
	return &MockProvider{id: id}
}

func (p *MockProvider) ID() string   { return p.id }
func (p *MockProvider) Name() string { return "Mock" }

// Generate inspects the combined prompt text and fabricates a plausible reply.
func (p *MockProvider) Generate(ctx context.Context, system, user string) (*Response, error) {
	prompt := strings.ToLower(system + "\n" + user)
	question := questionLine(user)

	if strings.Contains(prompt, "return json") {
		if strings.Contains(prompt, "next_tool") && strings.Contains(prompt, "next_tool_input") {
			payload := map[string]any{
				"sufficient":      true,
				"reflection":      "Observation is sufficient for a grounded answer.",
				"next_tool":       "none",
				"next_tool_input": "",
			}
			text, _ := json.Marshal(payload)
			return &Response{Text: string(text), Model: "mock"}, nil
		}

		q := strings.ToLower(question)
		tool := "retrieval_text"
		switch {
		case containsAny(q, "match", "recommend", "plan", "split", "program"):
			tool = "matcher"
		case containsAny(q, "relation", "depends", "leads to", "path", "cause", "chain"):
			tool = "retrieval_graph"
		}
		payload := map[string]any{
			"intent":     "Answer the question using tools if needed.",
			"tool":       tool,
			"tool_input": truncate(question, 240),
		}
		text, _ := json.Marshal(payload)
		return &Response{Text: string(text), Model: "mock"}, nil
	}

	return &Response{
		Text:  "(mock) No LLM provider configured. Set a provider in the config to get real answers.",
		Model: "mock",
	}, nil
}

// questionLine pulls the user's question out of a templated prompt. Routing
// must key off the question itself, not the template vocabulary around it.
func questionLine(user string) string {
	for _, line := range strings.Split(user, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "question:") || strings.HasPrefix(lower, "user question:") {
			if i := strings.Index(trimmed, ":"); i != -1 {
				return strings.TrimSpace(trimmed[i+1:])
			}
		}
	}
	return strings.TrimSpace(user)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
