package agent

import (
	"context"
	"fmt"

	"github.com/nidhogg/gym-advisor/internal/analytics"
	"github.com/nidhogg/gym-advisor/internal/graph"
	"github.com/nidhogg/gym-advisor/internal/history"
	"github.com/nidhogg/gym-advisor/internal/matcher"
	"github.com/nidhogg/gym-advisor/internal/retrieval"
	"github.com/nidhogg/gym-advisor/internal/whatif"
	"go.uber.org/zap"
)

// RemoteGraph is the optional remote edge search; graphdb.Client implements
// it. Leave the field unset (not a typed nil) when there is no remote.
type RemoteGraph interface {
	QueryEdges(ctx context.Context, queryText string, limit int) (*graph.Result, error)
}

// DispatcherConfig wires the tool implementations into the loop.
type DispatcherConfig struct {
	Retriever *retrieval.Retriever
	// Compare runs every retrieval strategy and merges, instead of the
	// first-success fallback chain.
	Compare bool

	LocalGraph  *graph.Graph
	RemoteGraph RemoteGraph // optional; falls back to LocalGraph
	MaxHops     int
	TopK        int

	Matcher   *matcher.Matcher
	Analytics *analytics.Engine
	WhatIf    *whatif.Simulator
	Log       history.Log
}

// Dispatcher executes one tool per call. It never panics and never fails the
// run: collaborator errors come back as error-tagged observations so the
// reflection step can route around them.
type Dispatcher struct {
	cfg    DispatcherConfig
	logger *zap.Logger
}

// NewDispatcher creates a tool dispatcher.
func NewDispatcher(cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = 2
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Dispatcher{cfg: cfg, logger: logger}
}

// Dispatch runs the named tool with its free-form input and returns an
// observation digest plus the raw results for the run's source list.
// userQuery is the original question, used for event logging.
func (d *Dispatcher) Dispatch(ctx context.Context, tool Tool, input, userQuery string) (string, []Source) {
	switch tool {
	case ToolMatcher:
		return d.runMatcher(ctx, input, userQuery)
	case ToolWhatIf:
		return d.runWhatIf(ctx, input)
	case ToolAnalytics:
		return d.runAnalytics(ctx, input)
	case ToolRetrievalText:
		return d.runRetrievalText(ctx, input)
	case ToolRetrievalGraph:
		return d.runRetrievalGraph(ctx, input)
	case ToolNone:
		return "No tool used.", nil
	default:
		d.logger.Warn("unknown tool requested", zap.String("tool", string(tool)))
		return fmt.Sprintf("Tool error: unknown tool %q.", tool), nil
	}
}

func (d *Dispatcher) runMatcher(ctx context.Context, input, userQuery string) (string, []Source) {
	if d.cfg.Matcher == nil {
		return "Tool error: matcher is not configured.", nil
	}
	overrides, _ := parseJSON(input)
	res, err := d.cfg.Matcher.Match(overrides, matcher.DefaultTopK)
	if err != nil {
		return "Tool error: matcher failed: " + err.Error(), nil
	}
	plan := matcher.BuildThreeDaySplit(res)

	if d.cfg.Log != nil {
		payload := map[string]any{"query": userQuery, "top": res.Top, "plan": plan.Plan}
		if err := d.cfg.Log.Append(ctx, "match_result", payload); err != nil {
			d.logger.Warn("failed to log match result", zap.Error(err))
		}
	}
	sources := []Source{
		{Type: "matcher", Items: res},
		{Type: "plan_3day", Items: plan},
	}
	return digestMatcher(res, plan), sources
}

func (d *Dispatcher) runWhatIf(ctx context.Context, input string) (string, []Source) {
	if d.cfg.WhatIf == nil {
		return "Tool error: what-if simulation is not configured.", nil
	}
	patch, ok := parseJSON(input)
	if !ok {
		patch = nil
	}
	out, err := d.cfg.WhatIf.Simulate(ctx, patch, 0)
	if err != nil {
		return "Tool error: what-if simulation failed: " + err.Error(), nil
	}
	return digestJSON("What-if scenario", out), []Source{{Type: "what_if", Items: out}}
}

func (d *Dispatcher) runAnalytics(ctx context.Context, input string) (string, []Source) {
	if d.cfg.Analytics == nil {
		return "Tool error: analytics is not configured.", nil
	}
	raw, _ := parseJSON(input)
	spec := analytics.ParseSpec(raw)
	out := d.cfg.Analytics.Run(ctx, spec)
	return digestJSON("Analytics", out), []Source{{Type: "analytics", Items: out}}
}

func (d *Dispatcher) runRetrievalText(ctx context.Context, input string) (string, []Source) {
	if d.cfg.Retriever == nil {
		return "Tool error: text retrieval is not configured.", nil
	}
	var (
		ret *retrieval.Retrieval
		err error
	)
	if d.cfg.Compare {
		ret, err = d.cfg.Retriever.Compare(ctx, input, d.cfg.TopK)
	} else {
		ret, err = d.cfg.Retriever.Retrieve(ctx, input, d.cfg.TopK)
	}
	if err != nil {
		return "Tool error: text retrieval failed: " + err.Error(), nil
	}
	return digestRetrieval(ret), []Source{{Type: "retrieval_text", Items: ret.Results}}
}

func (d *Dispatcher) runRetrievalGraph(ctx context.Context, input string) (string, []Source) {
	mode := "local"
	warning := ""
	var res graph.Result

	remoteErr := error(nil)
	served := false
	if d.cfg.RemoteGraph != nil {
		remote, err := d.cfg.RemoteGraph.QueryEdges(ctx, input, 25)
		if err == nil {
			mode = "neo4j"
			res = *remote
			served = true
		} else {
			d.logger.Warn("remote graph query failed, using local engine", zap.Error(err))
			warning = fmt.Sprintf("remote graph unavailable (%v), used local engine", err)
			remoteErr = err
		}
	}
	if !served {
		if d.cfg.LocalGraph == nil {
			if remoteErr != nil {
				return "Tool error: graph retrieval failed: " + remoteErr.Error(), nil
			}
			return "Tool error: graph retrieval is not configured.", nil
		}
		res = d.cfg.LocalGraph.Query(input, d.cfg.MaxHops)
	}

	items := map[string]any{
		"mode":          mode,
		"matched_nodes": res.MatchedNodes,
		"edges":         res.Edges,
		"paths":         res.Paths,
	}
	if warning != "" {
		items["warning"] = warning
	}
	return digestGraph(mode, &res, warning), []Source{{Type: "retrieval_graph", Items: items}}
}
