package whatif

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nidhogg/gym-advisor/internal/catalog"
	"github.com/nidhogg/gym-advisor/internal/history"
	"github.com/nidhogg/gym-advisor/internal/matcher"
	"go.uber.org/zap"
)

// Diff partitions baseline and scenario top picks by exercise ID.
type Diff struct {
	TopN    int      `json:"top_n"`
	Removed []string `json:"removed"`
	Added   []string `json:"added"`
	Kept    []string `json:"kept"`
}

// Outcome is the full counterfactual result: the applied patch, the scenario
// ranking and draft plan, the baseline ranking, and the pick-level diff.
type Outcome struct {
	ProfilePatch map[string]any      `json:"profile_patch"`
	Baseline     []matcher.Candidate `json:"baseline"`
	Match        *matcher.Result     `json:"match"`
	Plan         *matcher.SplitPlan  `json:"plan"`
	Diff         Diff                `json:"diff"`
}

// Simulator answers "what changes if the profile looked like this" by
// patching the stored profile and rerunning the matcher.
type Simulator struct {
	matcher     *matcher.Matcher
	profilePath string
	log         history.Log
	logger      *zap.Logger
}

// New creates a what-if simulator.
func New(m *matcher.Matcher, profilePath string, log history.Log, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{matcher: m, profilePath: profilePath, log: log, logger: logger}
}

// Simulate applies the patch to the stored profile, reranks, and diffs the
// top picks against the unpatched baseline. The scenario is logged to the
// event history.
func (s *Simulator) Simulate(ctx context.Context, patch map[string]any, topN int) (*Outcome, error) {
	if topN <= 0 {
		topN = 10
	}

	base, err := catalog.LoadProfile(s.profilePath)
	if err != nil {
		return nil, err
	}
	scenario, err := patchProfile(base, patch)
	if err != nil {
		return nil, err
	}

	baseline, err := s.matcher.MatchProfile(base, topN)
	if err != nil {
		return nil, err
	}
	scenarioMatch, err := s.matcher.MatchProfile(scenario, topN)
	if err != nil {
		return nil, err
	}
	plan := matcher.BuildThreeDaySplit(scenarioMatch)

	out := &Outcome{
		ProfilePatch: patch,
		Baseline:     baseline.Top,
		Match:        scenarioMatch,
		Plan:         plan,
		Diff:         diffPicks(baseline.Top, scenarioMatch.Top, topN),
	}

	if s.log != nil {
		if err := s.log.Append(ctx, "what_if", out); err != nil {
			s.logger.Warn("failed to log what-if event", zap.Error(err))
		}
	}
	return out, nil
}

// patchProfile overlays loose patch keys onto the profile's JSON form, so the
// patch vocabulary matches the profile file exactly.
func patchProfile(base catalog.UserProfile, patch map[string]any) (catalog.UserProfile, error) {
	data, err := json.Marshal(base)
	if err != nil {
		return base, fmt.Errorf("marshal profile: %w", err)
	}
	var loose map[string]any
	if err := json.Unmarshal(data, &loose); err != nil {
		return base, fmt.Errorf("unmarshal profile: %w", err)
	}
	for k, v := range patch {
		loose[k] = v
	}
	patched, err := json.Marshal(loose)
	if err != nil {
		return base, fmt.Errorf("marshal patched profile: %w", err)
	}
	var out catalog.UserProfile
	if err := json.Unmarshal(patched, &out); err != nil {
		return base, fmt.Errorf("apply profile patch: %w", err)
	}
	return out, nil
}

func diffPicks(baseline, scenario []matcher.Candidate, topN int) Diff {
	bIDs := pickIDs(baseline, topN)
	sIDs := pickIDs(scenario, topN)
	sSet := toSet(sIDs)
	bSet := toSet(bIDs)

	d := Diff{TopN: topN, Removed: []string{}, Added: []string{}, Kept: []string{}}
	for _, id := range bIDs {
		if sSet[id] {
			d.Kept = append(d.Kept, id)
		} else {
			d.Removed = append(d.Removed, id)
		}
	}
	for _, id := range sIDs {
		if !bSet[id] {
			d.Added = append(d.Added, id)
		}
	}
	return d
}

func pickIDs(list []matcher.Candidate, n int) []string {
	if len(list) > n {
		list = list[:n]
	}
	var ids []string
	for _, c := range list {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
