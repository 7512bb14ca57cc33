package agent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nidhogg/gym-advisor/internal/graph"
	"github.com/nidhogg/gym-advisor/internal/matcher"
	"github.com/nidhogg/gym-advisor/internal/retrieval"
)

// Observation digests keep prompts small: a handful of lines per tool call,
// with text snippets truncated. The raw results still travel on the run as
// sources.

const snippetLen = 240

// snippet truncates to snippetLen bytes without splitting a multi-byte rune.
func snippet(s string) string {
	if len(s) <= snippetLen {
		return s
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func digestRetrieval(ret *retrieval.Retrieval) string {
	if ret == nil || len(ret.Results) == 0 {
		return "Text retrieval: no matches."
	}
	lines := []string{fmt.Sprintf("Text retrieval (%s) top snippets:", ret.Strategy)}
	for i, r := range ret.Results {
		if i >= 5 {
			break
		}
		txt := snippet(strings.TrimSpace(strings.ReplaceAll(r.Document.Text, "\n", " ")))
		lines = append(lines, fmt.Sprintf("- [%s] %s", r.Document.ID, txt))
	}
	if ret.Warning != "" {
		lines = append(lines, "Warning: "+ret.Warning)
	}
	return strings.Join(lines, "\n")
}

func digestGraph(mode string, res *graph.Result, warning string) string {
	lines := []string{fmt.Sprintf("Graph retrieval (%s) matches:", mode)}
	if len(res.MatchedNodes) > 0 {
		n := res.MatchedNodes
		if len(n) > 10 {
			n = n[:10]
		}
		lines = append(lines, "Nodes: "+strings.Join(n, ", "))
	}
	if len(res.Edges) > 0 {
		lines = append(lines, "Edges:")
		for i, e := range res.Edges {
			if i >= 10 {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s -[%s]-> %s", e.Source, e.Relation, e.Target))
		}
	}
	if len(res.Paths) > 0 {
		lines = append(lines, "Paths:")
		for i, p := range res.Paths {
			if i >= 5 {
				break
			}
			lines = append(lines, "- "+strings.Join(p, " -> "))
		}
	}
	if len(lines) == 1 {
		lines = append(lines, "No graph evidence found.")
	}
	if warning != "" {
		lines = append(lines, "Warning: "+warning)
	}
	return strings.Join(lines, "\n")
}

func digestMatcher(m *matcher.Result, plan *matcher.SplitPlan) string {
	lines := []string{fmt.Sprintf("Matcher candidates: %d", m.Count), "Top picks:"}
	for i, c := range m.Top {
		if i >= 6 {
			break
		}
		reasons := strings.Join(c.Reasons, ", ")
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("- %s [%s] (score=%.2f) %s", c.Name, c.ID, c.Score, reasons)))
	}
	if plan != nil && len(plan.Plan) > 0 {
		lines = append(lines, "", "3-day split (draft):")
		days := make([]string, 0, len(plan.Plan))
		for day := range plan.Plan {
			days = append(days, day)
		}
		sort.Strings(days)
		for _, day := range days {
			var names []string
			for i, c := range plan.Plan[day] {
				if i >= 8 {
					break
				}
				names = append(names, c.Name)
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", day, strings.Join(names, "; ")))
		}
	}
	return strings.Join(lines, "\n")
}

func digestJSON(label string, v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return label + ":\n" + fmt.Sprintf("%v", v)
	}
	return label + ":\n" + string(data)
}
