package detector

import (
	"math"
	"sort"
	"time"
)

// automation timing markers attached to ActivityPatterns.AutomationFlags
const (
	FlagRegularIntervals = "regular-intervals"
	FlagRapidResponse    = "rapid-response"
	FlagClusteredSeconds = "clustered-seconds"
)

// ActivityPatterns is the derived activity aggregate over an account
// snapshot. It is computed once by the caller and passed read-only into the
// scoring engine and classifier.
type ActivityPatterns struct {
	TotalComments    int            `json:"total_comments"`
	TotalSubmissions int            `json:"total_submissions"`
	UniqueSubreddits int            `json:"unique_subreddits"`
	AvgScore         float64        `json:"avg_score"`
	ActivityHours    map[int]int    `json:"activity_hours"`
	TopSubreddits    map[string]int `json:"top_subreddits"`
	AutomationFlags  []string       `json:"automation_flags,omitempty"`
}

const topSubredditCount = 5

// ComputeActivityPatterns derives activity aggregates from a snapshot:
// counts, subreddit distribution, hour-of-day histogram, and the
// automation-timing flag set.
func ComputeActivityPatterns(acct *AccountSnapshot) ActivityPatterns {
	pat := ActivityPatterns{
		ActivityHours: map[int]int{},
		TopSubreddits: map[string]int{},
	}
	if acct == nil {
		return pat
	}
	pat.TotalComments = len(acct.Comments)
	pat.TotalSubmissions = len(acct.Submissions)

	subCounts := map[string]int{}
	var scoreSum float64
	var scored int
	var stamps []time.Time

	for _, c := range acct.Comments {
		if c.Subreddit != "" {
			subCounts[c.Subreddit]++
		}
		if !c.CreatedUTC.IsZero() {
			pat.ActivityHours[c.CreatedUTC.UTC().Hour()]++
			stamps = append(stamps, c.CreatedUTC)
		}
		scoreSum += c.Score
		scored++
	}
	for _, s := range acct.Submissions {
		if s.Subreddit != "" {
			subCounts[s.Subreddit]++
		}
		if !s.CreatedUTC.IsZero() {
			pat.ActivityHours[s.CreatedUTC.UTC().Hour()]++
			stamps = append(stamps, s.CreatedUTC)
		}
		scoreSum += s.Score
		scored++
	}

	pat.UniqueSubreddits = len(subCounts)
	if scored > 0 {
		pat.AvgScore = scoreSum / float64(scored)
	}
	pat.TopSubreddits = topN(subCounts, topSubredditCount)
	pat.AutomationFlags = timingFlags(stamps)
	return pat
}

func topN(counts map[string]int, n int) map[string]int {
	type kv struct {
		k string
		v int
	}
	all := make([]kv, 0, len(counts))
	for k, v := range counts {
		all = append(all, kv{k, v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].v != all[j].v {
			return all[i].v > all[j].v
		}
		return all[i].k < all[j].k
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make(map[string]int, len(all))
	for _, e := range all {
		out[e.k] = e.v
	}
	return out
}

// timingFlags inspects consecutive post gaps for automation markers:
// near-constant intervals, a high share of sub-30s responses, and bursts
// landing on the same clock second.
func timingFlags(stamps []time.Time) []string {
	if len(stamps) < 3 {
		return nil
	}
	sorted := make([]time.Time, len(stamps))
	copy(sorted, stamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]float64, 0, len(sorted)-1)
	clustered := 0
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Sub(sorted[i-1]).Seconds()
		gaps = append(gaps, gap)
		if sorted[i].Unix() == sorted[i-1].Unix() {
			clustered++
		}
	}

	var flags []string
	mean, std := meanStd(gaps)
	if mean > 0 && std/mean < 0.1 {
		flags = append(flags, FlagRegularIntervals)
	}
	rapid := 0
	for _, g := range gaps {
		if g < 30 {
			rapid++
		}
	}
	if float64(rapid)/float64(len(gaps)) > 0.3 {
		flags = append(flags, FlagRapidResponse)
	}
	if float64(clustered)/float64(len(gaps)) > 0.1 {
		flags = append(flags, FlagClusteredSeconds)
	}
	return flags
}

func meanStd(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	var varSum float64
	for _, v := range vals {
		d := v - mean
		varSum += d * d
	}
	return mean, math.Sqrt(varSum / float64(len(vals)))
}
