package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/nidhogg/gym-advisor/internal/history"
	"github.com/nidhogg/gym-advisor/internal/memory"
	"github.com/nidhogg/gym-advisor/internal/provider"
	"go.uber.org/zap"
)

// Queries carrying these phrases are routed deterministically instead of
// asking the model: the intents are reliably detectable lexically.
var (
	whatIfKeywords = []string{
		"what if", "what-if", "what happens if", "simulate", "simulation",
		"scenario", "without equipment", "remove equipment", "no equipment",
		"lose access",
	}
	analyticsKeywords = []string{
		"how many", "count", "number of", "sum of", "average", "aggregate",
		"filter", "sorted by", "sort by",
	}
)

// Agent runs the bounded plan/act/reflect loop over the tool dispatcher.
// Memory is caller-owned and scoped to one session; the agent itself holds
// no per-conversation state.
type Agent struct {
	llm        *provider.Router
	dispatcher *Dispatcher
	log        history.Log
	maxSteps   int
	logger     *zap.Logger
}

// New creates an agent. maxSteps bounds the number of ACT phases per run.
func New(llm *provider.Router, dispatcher *Dispatcher, log history.Log, maxSteps int, logger *zap.Logger) *Agent {
	if maxSteps <= 0 {
		maxSteps = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{llm: llm, dispatcher: dispatcher, log: log, maxSteps: maxSteps, logger: logger}
}

// Run answers one user question. It routes to a tool, executes it, reflects
// on the observation, and loops until the reflection reports sufficiency or
// the step cap forces synthesis from the last observation.
func (a *Agent) Run(ctx context.Context, question string, mem *memory.Memory) (*Result, error) {
	var trace []TraceStep
	var sources []Source

	forced := forcedTool(question)

	routeResp, err := a.llm.Generate(ctx, systemPrompt, routerUserPrompt(question, mem.AsText()))
	if err != nil {
		return nil, fmt.Errorf("routing call: %w", err)
	}
	route, ok := parseJSON(routeResp.Text)
	if !ok {
		// Planning output that is not JSON even after recovery fails the
		// run: surface the raw text rather than guess at a route.
		a.logger.Warn("routing response was not parseable JSON")
		return &Result{
			Answer:          strings.TrimSpace(routeResp.Text),
			Trace:           trace,
			Sources:         sources,
			PlanParseFailed: true,
		}, nil
	}

	intent := stringField(route, "intent")
	if intent == "" {
		intent = "Answer the user request."
	}
	tool := ClampTool(stringField(route, "tool"))
	if forced != "" {
		tool = forced
	}
	toolInput := stringField(route, "tool_input")
	if toolInput == "" {
		toolInput = question
	}

	lastObservation := ""
	for step := 1; step <= a.maxSteps; step++ {
		observation, stepSources := a.dispatcher.Dispatch(ctx, tool, toolInput, question)
		sources = append(sources, stepSources...)
		lastObservation = observation

		refResp, err := a.llm.Generate(ctx, systemPrompt,
			reflectionUserPrompt(question, intent, tool, toolInput, observation))
		if err != nil {
			return nil, fmt.Errorf("reflection call: %w", err)
		}
		ref, ok := parseJSON(refResp.Text)
		if !ok {
			// Fail open: an unparsable reflection must not spin the loop.
			ref = map[string]any{"sufficient": true, "reflection": "OK."}
		}

		sufficient := boolField(ref, "sufficient", true)
		reflection := stringField(ref, "reflection")
		if reflection == "" {
			reflection = "OK."
		}
		nextTool := stringField(ref, "next_tool")
		if nextTool == "" {
			nextTool = string(ToolNone)
		}
		nextInput := stringField(ref, "next_tool_input")

		trace = append(trace, TraceStep{
			Step:        step,
			Intent:      intent,
			Tool:        tool,
			ToolInput:   toolInput,
			Observation: observation,
			Reflection:  reflection,
		})

		if sufficient || nextTool == string(ToolNone) {
			break
		}
		tool = ClampTool(nextTool)
		if nextInput != "" {
			toolInput = nextInput
		}
	}

	ansResp, err := a.llm.Generate(ctx, systemPrompt, answerUserPrompt(question, intent, lastObservation))
	if err != nil {
		return nil, fmt.Errorf("answer call: %w", err)
	}
	answer := strings.TrimSpace(ansResp.Text)

	mem.Add(question, answer)
	if a.log != nil {
		payload := map[string]any{"question": question, "answer": answer, "steps": len(trace)}
		if err := a.log.Append(ctx, "answer", payload); err != nil {
			a.logger.Warn("failed to log answer event", zap.Error(err))
		}
	}

	return &Result{Answer: answer, Trace: trace, Sources: sources}, nil
}

// forcedTool applies the lexical override before the first routing call.
func forcedTool(question string) Tool {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, k := range whatIfKeywords {
		if strings.Contains(q, k) {
			return ToolWhatIf
		}
	}
	for _, k := range analyticsKeywords {
		if strings.Contains(q, k) {
			return ToolAnalytics
		}
	}
	return ""
}
