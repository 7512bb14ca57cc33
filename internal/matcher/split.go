package matcher

import "strings"

// SplitPlan is a draft 3-day push/pull/legs split assembled from top picks.
type SplitPlan struct {
	Plan     map[string][]Candidate `json:"plan"`
	Guidance string                 `json:"guidance"`
}

// BuildThreeDaySplit buckets the top candidates into push/pull/legs days,
// sprinkling prehab work across all three.
func BuildThreeDaySplit(res *Result) *SplitPlan {
	var push, pull, legs, prehab []Candidate
	for _, c := range res.Top {
		muscles := lowerSet(c.MusclesPrimary)
		tags := lowerSet(c.Tags)
		switch {
		case tags["rotator_cuff"] || tags["scapular"] || tags["prehab"]:
			prehab = append(prehab, c)
		case anyKey(muscles, "chest", "shoulders", "triceps"):
			push = append(push, c)
		case anyKey(muscles, "back", "lats", "biceps", "rear delts"):
			pull = append(pull, c)
		case anyKey(muscles, "quads", "hamstrings", "glutes", "calves"):
			legs = append(legs, c)
		}
	}

	return &SplitPlan{
		Plan: map[string][]Candidate{
			"day1_push": appendCapped(capped(push, 5), capped(prehab, 2)),
			"day2_pull": appendCapped(capped(pull, 5), capped(prehab, 2)),
			"day3_legs": appendCapped(capped(legs, 5), capped(prehab, 1)),
		},
		Guidance: "Main: 3-4 sets x 6-12 reps. Accessories/prehab: 2-3 sets x 12-20 reps.",
	}
}

func anyKey(set map[string]bool, keys ...string) bool {
	for _, k := range keys {
		if set[strings.ToLower(k)] {
			return true
		}
	}
	return false
}

func capped(list []Candidate, n int) []Candidate {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func appendCapped(a, b []Candidate) []Candidate {
	out := make([]Candidate, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
