package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nidhogg/gym-advisor/internal/catalog"
	"github.com/nidhogg/gym-advisor/internal/history"
	"go.uber.org/zap"
)

// supportedOps lists every deterministic operation the engine evaluates.
var supportedOps = []string{
	"count",
	"filter",
	"aggregate",
	"aggregate_muscles",
	"latest_match",
	"diff_matches",
}

// Spec is the structured analytics request decoded from the tool input.
type Spec struct {
	Op    string `json:"op"`
	By    string `json:"by,omitempty"`
	Value string `json:"value,omitempty"`

	Equipment                []string `json:"equipment,omitempty"`
	Tags                     []string `json:"tags,omitempty"`
	ExcludeContraindications []string `json:"exclude_contraindications,omitempty"`
	Limit                    int      `json:"limit,omitempty"`

	ExerciseIDs []string `json:"exercise_ids,omitempty"`
	Input       string   `json:"input,omitempty"` // "last_match_top"
}

// ParseSpec decodes a loose key/value mapping into a Spec. An empty mapping
// defaults to counting by tag.
func ParseSpec(raw map[string]any) Spec {
	if len(raw) == 0 {
		return Spec{Op: "count", By: "tag"}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Spec{Op: "count", By: "tag"}
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return Spec{Op: "count", By: "tag"}
	}
	// Accept the shorter alias used by some prompts.
	if spec.ExcludeContraindications == nil {
		if v, ok := raw["exclude_contra"]; ok {
			if items, ok := v.([]any); ok {
				for _, it := range items {
					if s, ok := it.(string); ok {
						spec.ExcludeContraindications = append(spec.ExcludeContraindications, s)
					}
				}
			}
		}
	}
	return spec
}

// Engine evaluates deterministic aggregations over the exercise catalog and
// the event history. Everything here is computed, never generated.
type Engine struct {
	catalogPath string
	log         history.Log
	logger      *zap.Logger
}

// New creates an analytics engine.
func New(catalogPath string, log history.Log, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalogPath: catalogPath, log: log, logger: logger}
}

// Run evaluates one analytics spec. Unsupported ops return an error payload
// naming the supported set rather than an error value, so the agent loop can
// show the model what went wrong.
func (e *Engine) Run(ctx context.Context, spec Spec) map[string]any {
	op := strings.TrimSpace(spec.Op)
	switch op {
	case "latest_match", "diff_matches":
		return e.runTemporal(ctx, op)
	case "count", "filter", "aggregate", "aggregate_muscles":
		cat, err := catalog.LoadCatalog(e.catalogPath)
		if err != nil {
			return map[string]any{"op": op, "error": err.Error()}
		}
		switch op {
		case "count":
			return runCount(cat, spec)
		case "filter":
			return runFilter(cat, spec)
		default:
			return e.runAggregateMuscles(ctx, cat, spec, op)
		}
	default:
		return map[string]any{
			"error":     fmt.Sprintf("Unsupported op: %s", op),
			"supported": supportedOps,
		}
	}
}

// matchPayload is the slice of a match_result event the temporal ops need.
type matchPayload struct {
	Top []struct {
		ID string `json:"id"`
	} `json:"top"`
}

func (e *Engine) runTemporal(ctx context.Context, op string) map[string]any {
	events, err := e.log.Read(ctx, 200)
	if err != nil {
		return map[string]any{"op": op, "error": err.Error()}
	}
	var matches []history.Event
	for _, ev := range events {
		if ev.Type == "match_result" {
			matches = append(matches, ev)
		}
	}
	if len(matches) == 0 {
		return map[string]any{"op": op, "items": []any{}, "note": "No match history yet."}
	}

	if op == "latest_match" {
		return map[string]any{"op": op, "match": matches[len(matches)-1]}
	}

	if len(matches) < 2 {
		return map[string]any{
			"op":    op,
			"note":  "Need at least two match runs to compute diff.",
			"match": matches[len(matches)-1],
		}
	}

	a, b := matches[len(matches)-2], matches[len(matches)-1]
	aIDs := topIDs(a)
	bIDs := topIDs(b)
	aSet := toSet(aIDs)
	bSet := toSet(bIDs)

	var added, removed []string
	for _, id := range bIDs {
		if !aSet[id] {
			added = append(added, id)
		}
	}
	for _, id := range aIDs {
		if !bSet[id] {
			removed = append(removed, id)
		}
	}
	return map[string]any{
		"op":      op,
		"added":   added,
		"removed": removed,
		"a_ts":    a.TS,
		"b_ts":    b.TS,
	}
}

func topIDs(ev history.Event) []string {
	var p matchPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return nil
	}
	var ids []string
	for _, item := range p.Top {
		if item.ID != "" {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func runCount(cat *catalog.Catalog, spec Spec) map[string]any {
	by := strings.TrimSpace(spec.By)
	if by == "" {
		by = "tag"
	}
	value := strings.ToLower(strings.TrimSpace(spec.Value))

	counts := map[string]int{}
	switch by {
	case "tag":
		for _, ex := range cat.Exercises {
			for _, t := range ex.Tags {
				counts[t]++
			}
		}
	case "movement":
		for _, ex := range cat.Exercises {
			counts[ex.Movement]++
		}
	case "difficulty":
		for _, ex := range cat.Exercises {
			counts[string(ex.Difficulty)]++
		}
	default:
		return map[string]any{
			"error":        fmt.Sprintf("Unsupported count.by: %s", by),
			"supported_by": []string{"tag", "movement", "difficulty"},
		}
	}

	if value != "" {
		return map[string]any{"op": "count", "by": by, "value": value, "count": counts[value]}
	}
	return map[string]any{"op": "count", "by": by, "counts": counts}
}

func runFilter(cat *catalog.Catalog, spec Spec) map[string]any {
	equipment := toLowerSet(spec.Equipment)
	tags := toLowerSet(spec.Tags)
	excluded := toLowerSet(spec.ExcludeContraindications)

	var items []map[string]any
	for _, ex := range cat.Exercises {
		eq := toLowerSet(ex.Equipment)
		t := toLowerSet(ex.Tags)
		contras := toLowerSet(ex.Contraindications)

		if len(equipment) > 0 && !subset(equipment, eq) {
			continue
		}
		if len(tags) > 0 && !subset(tags, t) {
			continue
		}
		if len(excluded) > 0 && intersects(excluded, contras) {
			continue
		}
		items = append(items, map[string]any{
			"id":        ex.ID,
			"name":      ex.Name,
			"movement":  ex.Movement,
			"tags":      ex.Tags,
			"equipment": ex.Equipment,
		})
	}

	limit := spec.Limit
	if limit <= 0 {
		limit = 20
	}
	total := len(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return map[string]any{"op": "filter", "items": items, "total": total}
}

// runAggregateMuscles weighs muscle coverage across a set of exercises:
// primary muscles count 1.0, secondary 0.5.
func (e *Engine) runAggregateMuscles(ctx context.Context, cat *catalog.Catalog, spec Spec, op string) map[string]any {
	ids := spec.ExerciseIDs
	if len(ids) == 0 && spec.Input == "last_match_top" {
		events, err := e.log.Read(ctx, 200)
		if err == nil {
			for i := len(events) - 1; i >= 0; i-- {
				if events[i].Type == "match_result" {
					ids = topIDs(events[i])
					break
				}
			}
		}
	}

	idSet := toSet(ids)
	coverage := map[string]float64{}
	for _, ex := range cat.Exercises {
		if !idSet[ex.ID] {
			continue
		}
		for _, m := range ex.MusclesPrimary {
			coverage[m] += 1.0
		}
		for _, m := range ex.MusclesSecondary {
			coverage[m] += 0.5
		}
	}
	return map[string]any{"op": op, "exercise_ids": ids, "muscle_coverage": coverage}
}

func toSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		if v != "" {
			out[v] = true
		}
	}
	return out
}

func toLowerSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		s := strings.ToLower(strings.TrimSpace(v))
		if s != "" {
			out[s] = true
		}
	}
	return out
}

func subset(want, have map[string]bool) bool {
	for k := range want {
		if !have[k] {
			return false
		}
	}
	return true
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}
