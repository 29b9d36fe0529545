package heuristics

import (
	"time"

	"github.com/bencan1a/RedditRanger/detector"
)

// AccountAge scores account maturity. New accounts score low, accounts with
// a year or more of history score high, and two automation patterns pull
// the score back down: very high posting volume on accounts under a month
// old, and dormant accounts that suddenly reactivate.
type AccountAge struct{}

func (AccountAge) Name() string { return "age" }

func (AccountAge) Defaults() Result {
	return Result{
		Scores: map[string]float64{"score": 0.8},
		Metrics: map[string]float64{
			"account_age_days":      0,
			"post_frequency":        0,
			"active_days":           0,
			"recent_activity_ratio": 0,
		},
	}
}

func (h AccountAge) Analyze(acct *detector.AccountSnapshot) Result {
	if acct == nil || acct.CreatedUTC.IsZero() {
		return h.Defaults()
	}
	now := time.Now().UTC()
	ageDays := acct.AgeDays(now)

	postRate := float64(len(acct.Comments)) / max(1, ageDays)
	activeDays := activeDays(acct.Comments)

	// normalize against a one-year reference window
	score := detector.Clamp01(ageDays / 365)

	// high volume on a brand-new account
	if ageDays < 30 && postRate > 50 {
		score *= 0.5
	}

	// sudden reactivation: no historical activity, only trailing-30d posts
	var recentRatio float64
	if ageDays >= 180 {
		var recent, historical float64
		for _, d := range activeDays {
			if now.Sub(d).Hours() <= 30*24 {
				recent++
			} else {
				historical++
			}
		}
		if historical == 0 && recent > 0 {
			score *= 0.7
		}
		if recent+historical > 0 {
			recentRatio = recent / (recent + historical)
		}
	}

	return Result{
		Scores: map[string]float64{"score": detector.Clamp01(score)},
		Metrics: map[string]float64{
			"account_age_days":      ageDays,
			"post_frequency":        postRate,
			"active_days":           float64(len(activeDays)),
			"recent_activity_ratio": recentRatio,
		},
	}
}

// activeDays returns the distinct UTC days with comment activity.
func activeDays(comments []detector.Comment) []time.Time {
	seen := map[string]time.Time{}
	for _, c := range comments {
		if c.CreatedUTC.IsZero() {
			continue
		}
		day := c.CreatedUTC.UTC().Truncate(24 * time.Hour)
		seen[day.Format(time.DateOnly)] = day
	}
	out := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	return out
}
