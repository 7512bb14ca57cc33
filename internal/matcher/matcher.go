package matcher

import (
	"sort"
	"strings"

	"github.com/nidhogg/gym-advisor/internal/catalog"
	"go.uber.org/zap"
)

// DefaultTopK bounds the returned candidate list.
const DefaultTopK = 10

// Candidate is one ranked exercise with its scoring rationale.
type Candidate struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Score          float64            `json:"score"`
	Breakdown      map[string]float64 `json:"score_breakdown"`
	Reasons        []string           `json:"reasons"`
	MusclesPrimary []string           `json:"muscles_primary"`
	Equipment      []string           `json:"equipment"`
	Tags           []string           `json:"tags"`
}

// Result is the full matcher output: profile used, ranked top picks, and the
// candidate count after hard filtering.
type Result struct {
	Profile catalog.UserProfile `json:"profile"`
	Top     []Candidate         `json:"top"`
	Count   int                 `json:"count"`
	Note    string              `json:"note"`
}

// Matcher ranks catalog exercises against a user profile. Hard filters
// (equipment, contraindications) eliminate candidates; soft scoring orders
// the survivors.
type Matcher struct {
	catalogPath string
	profilePath string
	logger      *zap.Logger
}

// New creates a matcher bound to a catalog and a default profile file.
func New(catalogPath, profilePath string, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{catalogPath: catalogPath, profilePath: profilePath, logger: logger}
}

// Match loads the default profile, applies loose overrides from the tool
// input, and ranks the catalog.
func (m *Matcher) Match(overrides map[string]any, topK int) (*Result, error) {
	profile, err := catalog.LoadProfile(m.profilePath)
	if err != nil {
		return nil, err
	}
	applyOverrides(&profile, overrides)
	return m.MatchProfile(profile, topK)
}

// MatchProfile ranks the catalog against an explicit profile. Used directly
// by the what-if simulator, which builds scenario profiles itself.
func (m *Matcher) MatchProfile(profile catalog.UserProfile, topK int) (*Result, error) {
	cat, err := catalog.LoadCatalog(m.catalogPath)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	var candidates []Candidate
	for _, ex := range cat.Exercises {
		if !hasEquipment(ex.Equipment, profile.EquipmentAvailable) {
			continue
		}
		if !contraOK(ex.Contraindications, profile.InjuriesLimitations, profile.Avoid) {
			continue
		}
		score, breakdown, reasons := scoreExercise(ex, profile)
		candidates = append(candidates, Candidate{
			ID:             ex.ID,
			Name:           ex.Name,
			Score:          score,
			Breakdown:      breakdown,
			Reasons:        reasons,
			MusclesPrimary: ex.MusclesPrimary,
			Equipment:      ex.Equipment,
			Tags:           ex.Tags,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	count := len(candidates)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	m.logger.Debug("matcher ranked catalog",
		zap.Int("candidates", count), zap.Int("returned", len(candidates)))

	return &Result{
		Profile: profile,
		Top:     candidates,
		Count:   count,
		Note:    "Hard filters: equipment + contraindications. Ranking: goal/injury/preferences/level.",
	}, nil
}

// hasEquipment reports whether every required piece is available. Exercises
// with no equipment requirement always pass.
func hasEquipment(required, available []string) bool {
	if len(required) == 0 {
		return true
	}
	avail := lowerSet(available)
	for _, r := range required {
		if !avail[strings.ToLower(strings.TrimSpace(r))] {
			return false
		}
	}
	return true
}

// contraOK rejects exercises whose contraindications intersect the user's
// injuries or explicit avoid list.
func contraOK(contras, injuries, avoid []string) bool {
	bad := lowerSet(append(append([]string{}, injuries...), avoid...))
	for _, c := range contras {
		if bad[strings.ToLower(strings.TrimSpace(c))] {
			return false
		}
	}
	return true
}

func scoreExercise(ex catalog.Exercise, profile catalog.UserProfile) (float64, map[string]float64, []string) {
	breakdown := map[string]float64{}
	var reasons []string

	goal := strings.ToLower(profile.Goal)
	tags := lowerSet(ex.Tags)

	switch {
	case goal == "hypertrophy" && tags["hypertrophy"]:
		breakdown["goal"] = 2.0
		reasons = append(reasons, "tag: hypertrophy")
	case goal == "strength" && tags["strength"]:
		breakdown["goal"] = 2.0
		reasons = append(reasons, "tag: strength")
	default:
		breakdown["goal"] = 0.5
	}

	injuries := lowerSet(profile.InjuriesLimitations)
	if injuries["shoulder_pressing_pain"] && (tags["shoulder_friendly"] || tags["neutral_grip"]) {
		breakdown["injury"] = 1.5
		reasons = append(reasons, "shoulder-friendly")
	} else {
		breakdown["injury"] = 0.0
	}

	prefs := lowerSet(profile.Preferences)
	eq := lowerSet(ex.Equipment)
	if prefs["dumbbells"] && (eq["dumbbells"] || eq["dumbbell"]) {
		breakdown["prefs"] = 0.8
		reasons = append(reasons, "pref: dumbbells")
	} else {
		breakdown["prefs"] = 0.0
	}

	lvl := strings.ToLower(profile.Level)
	diff := string(ex.Difficulty)
	switch {
	case lvl == diff:
		breakdown["level"] = 0.6
	case lvl == "beginner" && (diff == "intermediate" || diff == "advanced"):
		breakdown["level"] = -0.4
		reasons = append(reasons, "harder than level")
	default:
		breakdown["level"] = 0.2
	}

	var score float64
	for _, v := range breakdown {
		score += v
	}
	return score, breakdown, reasons
}

func lowerSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		s := strings.ToLower(strings.TrimSpace(v))
		if s != "" {
			out[s] = true
		}
	}
	return out
}

// applyOverrides patches the profile from a loose tool-input mapping.
// Supported keys: goal, equipment/equipment_available, limitations/injuries.
func applyOverrides(p *catalog.UserProfile, req map[string]any) {
	if len(req) == 0 {
		return
	}
	if goal := stringValue(req["goal"]); goal != "" {
		p.Goal = goal
	}
	eq := listValue(req["equipment"])
	if eq == nil {
		eq = listValue(req["equipment_available"])
	}
	if len(eq) > 0 {
		for i, e := range eq {
			eq[i] = strings.ToLower(strings.TrimSpace(e))
		}
		p.EquipmentAvailable = eq
	}
	lim := listValue(req["limitations"])
	if lim == nil {
		lim = listValue(req["injuries"])
	}
	if lim == nil {
		lim = listValue(req["injuries_limitations"])
	}
	if len(lim) > 0 {
		p.InjuriesLimitations = normalizeLimitations(lim)
	}
}

// normalizeLimitations maps friendly limitation labels to catalog vocabulary
// and deduplicates while keeping order.
func normalizeLimitations(vals []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range vals {
		k := strings.ToLower(strings.TrimSpace(v))
		if k == "" {
			continue
		}
		switch k {
		case "shoulder_pain", "shoulder_pressing_pain":
			k = "shoulder_pressing_pain"
		case "knee_pain", "knee_pain_deep_flexion":
			k = "knee_pain_deep_flexion"
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// listValue accepts either a list or a comma-separated string.
func listValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		var out []string
		for _, item := range val {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
