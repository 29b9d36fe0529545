package heuristics

import (
	"sort"
	"time"

	"github.com/bencan1a/RedditRanger/detector"
)

// Engagement scores how the account participates in conversation: the mix
// of comments versus submissions, how quickly it replies to parents, and
// how deep its comment threads run.
type Engagement struct{}

func (Engagement) Name() string { return "engagement" }

func (Engagement) Defaults() Result {
	return Result{
		Scores: map[string]float64{
			"interaction": 0.8,
			"response":    0.8,
			"depth":       0.8,
		},
		Metrics: map[string]float64{
			"comment_ratio":      0,
			"total_interactions": 0,
			"avg_response_time":  0,
			"conversation_depth": 0,
		},
	}
}

func (h Engagement) Analyze(acct *detector.AccountSnapshot) Result {
	if acct == nil {
		return h.Defaults()
	}
	numComments := len(acct.Comments)
	numSubmissions := len(acct.Submissions)
	total := numComments + numSubmissions

	responseTimes := responseTimes(acct.Comments)
	depths := threadDepths(acct.Comments)

	commentRatio := 0.0
	if total > 0 {
		commentRatio = float64(numComments) / float64(total)
	}

	return Result{
		Scores: map[string]float64{
			"interaction": interactionScore(numComments, numSubmissions),
			"response":    responseScore(responseTimes),
			"depth":       depthScore(depths),
		},
		Metrics: map[string]float64{
			"comment_ratio":      commentRatio,
			"total_interactions": max(1, float64(total)),
			"avg_response_time":  mean(responseTimes),
			"conversation_depth": mean(depths),
		},
	}
}

func interactionScore(numComments, numSubmissions int) float64 {
	if numComments+numSubmissions == 0 {
		return 0.8
	}
	ratio := float64(numComments) / max(1, float64(numComments+numSubmissions))
	switch {
	case ratio < 0.1:
		// account that almost never comments
		return 0.3
	case ratio < 0.3:
		return 0.5
	case ratio > 0.9:
		return 0.7
	default:
		return 0.9
	}
}

// responseTimes returns seconds between each comment and its parent, for
// the comments where the fetcher resolved a parent timestamp.
func responseTimes(comments []detector.Comment) []float64 {
	var out []float64
	for _, c := range comments {
		if c.ParentCreatedUTC == nil || c.CreatedUTC.IsZero() {
			continue
		}
		out = append(out, c.CreatedUTC.Sub(*c.ParentCreatedUTC).Seconds())
	}
	return out
}

func responseScore(responseTimes []float64) float64 {
	if len(responseTimes) == 0 {
		return 0.8
	}
	quick := 0
	for _, t := range responseTimes {
		if t < 30 {
			quick++
		}
	}
	quickRatio := float64(quick) / max(1, float64(len(responseTimes)))
	switch {
	case quickRatio > 0.5:
		return 0.3
	case quickRatio > 0.3:
		return 0.5
	case quickRatio > 0.1:
		return 0.7
	default:
		return 0.9
	}
}

// threadDepths groups consecutive comments within one hour of each other
// into threads and returns the length of each thread.
func threadDepths(comments []detector.Comment) []float64 {
	var stamps []time.Time
	for _, c := range comments {
		if !c.CreatedUTC.IsZero() {
			stamps = append(stamps, c.CreatedUTC)
		}
	}
	if len(stamps) == 0 {
		return nil
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	var depths []float64
	current := 1
	for i := 1; i < len(stamps); i++ {
		if stamps[i].Sub(stamps[i-1]) > time.Hour {
			depths = append(depths, float64(current))
			current = 1
			continue
		}
		current++
	}
	depths = append(depths, float64(current))
	return depths
}

func depthScore(depths []float64) float64 {
	if len(depths) == 0 {
		return 0.8
	}
	avg := mean(depths)
	switch {
	case avg < 1.5:
		return 0.5
	case avg < 2.5:
		return 0.7
	case avg < 4:
		return 0.9
	default:
		return 1.0
	}
}
