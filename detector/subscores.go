package detector

// SubScores is the flat diagnostic structure the aggregator returns next to
// the final score. Scores maps "<heuristic>_<metric>" keys to values in
// [0,1]; Metrics holds per-heuristic bags of non-score diagnostic numbers
// that are excluded from weighting.
//
// Values are clamped at the point of computation, never on insertion.
type SubScores struct {
	Scores  map[string]float64            `json:"scores"`
	Metrics map[string]map[string]float64 `json:"metrics"`
}

func NewSubScores() SubScores {
	return SubScores{
		Scores:  map[string]float64{},
		Metrics: map[string]map[string]float64{},
	}
}

// Flatten renders the combined map shape consumers expect: score keys at
// the top level plus one "<heuristic>_metrics" entry per diagnostic bag.
func (s SubScores) Flatten() map[string]any {
	out := make(map[string]any, len(s.Scores)+len(s.Metrics))
	for k, v := range s.Scores {
		out[k] = v
	}
	for name, bag := range s.Metrics {
		out[name+"_metrics"] = bag
	}
	return out
}

// Clamp01 bounds v to [0,1]. Used at every score computation site.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
