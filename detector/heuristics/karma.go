package heuristics

import (
	"github.com/bencan1a/RedditRanger/detector"
)

// Karma scores total karma against a 10k reference, then penalizes the
// patterns bots tend to show: extreme totals in either direction, a heavily
// link-skewed ratio, and karma earned almost entirely in recent comments.
type Karma struct{}

func (Karma) Name() string { return "karma" }

func (Karma) Defaults() Result {
	return Result{
		Scores: map[string]float64{"score": 0.5},
		Metrics: map[string]float64{
			"total_karma":        0,
			"link_ratio":         0,
			"recent_karma_ratio": 0,
		},
	}
}

func (h Karma) Analyze(acct *detector.AccountSnapshot) Result {
	if acct == nil {
		return h.Defaults()
	}
	totalKarma := max(1.0, acct.CommentKarma+acct.LinkKarma)
	score := detector.Clamp01(totalKarma / 10000)

	linkRatio := acct.LinkKarma / totalKarma

	// karma acceleration: share of total earned in the last 50 comments
	var recentRatio float64
	if n := len(acct.Comments); n > 0 {
		start := n - 50
		if start < 0 {
			start = 0
		}
		var recent float64
		for _, c := range acct.Comments[start:] {
			recent += c.Score
		}
		recentRatio = recent / totalKarma
	}

	if totalKarma > 100000 {
		score *= 0.8
	} else if totalKarma < 10 {
		score *= 0.6
	}

	if linkRatio > 0.9 {
		score *= 0.7
	} else if linkRatio < 0.1 {
		score *= 0.9
	}

	if recentRatio > 0.5 {
		score *= 0.8
	}

	return Result{
		Scores: map[string]float64{"score": detector.Clamp01(score)},
		Metrics: map[string]float64{
			"total_karma":        totalKarma,
			"link_ratio":         linkRatio,
			"recent_karma_ratio": recentRatio,
		},
	}
}
