// Package heuristics implements the seven independent rule-based analyzers
// that score slices of an account snapshot. Each analyzer is a pure
// function of the snapshot: no shared state, no I/O, no ordering
// requirements between them.
//
// The set is closed, so dispatch is a fixed list rather than a registry;
// the engine iterates All() uniformly and substitutes Defaults() for any
// analyzer that fails.
package heuristics

import (
	"math"

	"github.com/bencan1a/RedditRanger/detector"
)

// Result holds one analyzer's named sub-scores (each in [0,1], higher =
// more human-like) and its diagnostic metrics bag.
type Result struct {
	Scores  map[string]float64
	Metrics map[string]float64
}

// Heuristic is one rule-based analyzer. Analyze is expected not to panic;
// the engine still guards each invocation and falls back to Defaults().
type Heuristic interface {
	Name() string
	Analyze(acct *detector.AccountSnapshot) Result
	// Defaults returns the documented neutral result substituted when the
	// analyzer fails or lacks the data it needs.
	Defaults() Result
}

// All returns the fixed list of analyzers, one instance each.
func All() []Heuristic {
	return []Heuristic{
		AccountAge{},
		Karma{},
		NewUsername(),
		PostingBehavior{},
		NewSubreddit(),
		Engagement{},
		NewLinguistic(),
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64) float64 {
	return math.Sqrt(variance(vals))
}
