package agent

// Tool names the closed set of actions the loop can dispatch. Anything else
// coming back from the model is clamped to the default at the boundary.
type Tool string

const (
	ToolRetrievalText  Tool = "retrieval_text"
	ToolRetrievalGraph Tool = "retrieval_graph"
	ToolMatcher        Tool = "matcher"
	ToolAnalytics      Tool = "analytics"
	ToolWhatIf         Tool = "what_if"
	ToolNone           Tool = "none"
)

// ClampTool maps a model-proposed tool name onto the closed set. Unrecognized
// names fall back to general-purpose text retrieval.
func ClampTool(name string) Tool {
	switch Tool(name) {
	case ToolRetrievalText, ToolRetrievalGraph, ToolMatcher, ToolAnalytics, ToolWhatIf, ToolNone:
		return Tool(name)
	default:
		return ToolRetrievalText
	}
}

// TraceStep records one PLAN/ACT/REFLECT cycle for inspection.
type TraceStep struct {
	Step        int    `json:"step"`
	Intent      string `json:"intent"`
	Tool        Tool   `json:"tool"`
	ToolInput   string `json:"tool_input"`
	Observation string `json:"observation"`
	Reflection  string `json:"reflection"`
}

// Source is a raw tool result attached to the run for citation checking.
type Source struct {
	Type  string `json:"type"`
	Items any    `json:"items"`
}

// Result is the outcome of one agent run.
type Result struct {
	Answer  string      `json:"answer"`
	Trace   []TraceStep `json:"trace"`
	Sources []Source    `json:"sources"`

	// PlanParseFailed marks runs where the routing response was not valid
	// JSON even after recovery; Answer then carries the raw model text.
	PlanParseFailed bool `json:"plan_parse_failed,omitempty"`
}
