package heuristics

import (
	"sort"
	"time"

	"github.com/bencan1a/RedditRanger/detector"
)

// PostingBehavior scores how the account posts over time: raw frequency,
// the regularity of inter-post intervals, and how much activity falls in
// the 02:00-06:00 UTC sleep window.
type PostingBehavior struct{}

func (PostingBehavior) Name() string { return "posting" }

func (PostingBehavior) Defaults() Result {
	return Result{
		Scores: map[string]float64{
			"frequency": 0.8,
			"interval":  0.8,
			"timezone":  0.8,
		},
		Metrics: map[string]float64{
			"posts_per_day": 0,
			"interval_cv":   0,
			"sleep_ratio":   0,
		},
	}
}

func (h PostingBehavior) Analyze(acct *detector.AccountSnapshot) Result {
	if acct == nil {
		return h.Defaults()
	}
	stamps := postTimestamps(acct)
	if len(stamps) == 0 {
		// no history to judge; treat as unremarkable
		return Result{
			Scores: map[string]float64{
				"frequency": 1.0,
				"interval":  1.0,
				"timezone":  1.0,
			},
			Metrics: map[string]float64{
				"posts_per_day": 0,
				"interval_cv":   0,
				"sleep_ratio":   0,
			},
		}
	}

	spanDays := max(1.0, stamps[len(stamps)-1].Sub(stamps[0]).Hours()/24)
	postsPerDay := float64(len(stamps)) / spanDays

	intervals := make([]float64, 0, len(stamps)-1)
	for i := 1; i < len(stamps); i++ {
		intervals = append(intervals, stamps[i].Sub(stamps[i-1]).Minutes())
	}

	intervalScore, cv := intervalRegularity(intervals)
	sleepRatio := sleepWindowRatio(stamps)

	return Result{
		Scores: map[string]float64{
			"frequency": frequencyScore(postsPerDay),
			"interval":  intervalScore,
			"timezone":  timezoneScore(sleepRatio),
		},
		Metrics: map[string]float64{
			"posts_per_day": postsPerDay,
			"interval_cv":   cv,
			"sleep_ratio":   sleepRatio,
		},
	}
}

func postTimestamps(acct *detector.AccountSnapshot) []time.Time {
	var stamps []time.Time
	for _, c := range acct.Comments {
		if !c.CreatedUTC.IsZero() {
			stamps = append(stamps, c.CreatedUTC)
		}
	}
	for _, s := range acct.Submissions {
		if !s.CreatedUTC.IsZero() {
			stamps = append(stamps, s.CreatedUTC)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	return stamps
}

func frequencyScore(postsPerDay float64) float64 {
	switch {
	case postsPerDay > 50:
		return 0.2
	case postsPerDay > 20:
		return 0.4
	case postsPerDay > 10:
		return 0.6
	default:
		return 0.8
	}
}

// intervalRegularity scores the coefficient of variation of inter-post
// gaps. Robotic schedules have low variation; humans do not.
func intervalRegularity(intervals []float64) (float64, float64) {
	if len(intervals) == 0 {
		return 1.0, 0
	}
	m := mean(intervals)
	if m == 0 {
		// every post at the exact same instant
		return 0.0, 0
	}
	cv := stddev(intervals) / m
	switch {
	case cv < 0.1:
		return 0.2, cv
	case cv < 0.3:
		return 0.4, cv
	case cv < 0.5:
		return 0.8, cv
	default:
		return 1.0, cv
	}
}

func sleepWindowRatio(stamps []time.Time) float64 {
	if len(stamps) == 0 {
		return 0
	}
	sleep := 0
	for _, t := range stamps {
		h := t.UTC().Hour()
		if h >= 2 && h < 6 {
			sleep++
		}
	}
	return float64(sleep) / float64(len(stamps))
}

func timezoneScore(sleepRatio float64) float64 {
	switch {
	case sleepRatio > 0.2:
		return 0.4
	case sleepRatio > 0.1:
		return 0.6
	default:
		return 0.8
	}
}
