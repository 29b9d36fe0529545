package heuristics

import (
	"sort"
	"strings"
	"time"

	"github.com/bencan1a/RedditRanger/detector"
)

// Subreddit scores where the account posts: concentration in a single
// community, wholesale topic changes between the first and second half of
// history, and presence in commercially-named subreddits.
type Subreddit struct {
	promoKeywords []string
}

func NewSubreddit() Subreddit {
	return Subreddit{
		promoKeywords: []string{
			"free", "deal", "discount", "promo", "sale", "offer",
			"buy", "sell", "price", "shop", "store", "marketing",
		},
	}
}

func (Subreddit) Name() string { return "subreddit" }

func (Subreddit) Defaults() Result {
	return Result{
		Scores: map[string]float64{
			"diversity":    0.8,
			"topic_change": 0.8,
			"promotional":  0.8,
		},
		Metrics: map[string]float64{
			"unique_subreddits": 0,
			"total_subreddits":  0,
			"promo_ratio":       0,
			"topic_similarity":  0,
		},
	}
}

type subredditVisit struct {
	time      time.Time
	subreddit string
}

func (h Subreddit) Analyze(acct *detector.AccountSnapshot) Result {
	if acct == nil {
		return h.Defaults()
	}
	history := subredditHistory(acct)
	if len(history) == 0 {
		return h.Defaults()
	}

	subs := make([]string, len(history))
	uniq := map[string]int{}
	for i, v := range history {
		subs[i] = v.subreddit
		uniq[v.subreddit]++
	}

	promoCount := 0
	for _, s := range subs {
		if h.isPromo(s) {
			promoCount++
		}
	}
	promoRatio := float64(promoCount) / max(1, float64(len(subs)))

	return Result{
		Scores: map[string]float64{
			"diversity":    diversityScore(subs, uniq),
			"topic_change": topicChangeScore(history),
			"promotional":  promotionalScore(promoRatio),
		},
		Metrics: map[string]float64{
			"unique_subreddits": float64(len(uniq)),
			"total_subreddits":  float64(len(subs)),
			"promo_ratio":       promoRatio,
			"topic_similarity":  halfSplitSimilarity(history),
		},
	}
}

func (h Subreddit) isPromo(subreddit string) bool {
	for _, kw := range h.promoKeywords {
		if strings.Contains(subreddit, kw) {
			return true
		}
	}
	return false
}

// subredditHistory is the chronological sequence of subreddit visits across
// comments and submissions, dropping entries with no timestamp or name.
func subredditHistory(acct *detector.AccountSnapshot) []subredditVisit {
	var history []subredditVisit
	for _, c := range acct.Comments {
		if !c.CreatedUTC.IsZero() && c.Subreddit != "" {
			history = append(history, subredditVisit{c.CreatedUTC, strings.ToLower(c.Subreddit)})
		}
	}
	for _, s := range acct.Submissions {
		if !s.CreatedUTC.IsZero() && s.Subreddit != "" {
			history = append(history, subredditVisit{s.CreatedUTC, strings.ToLower(s.Subreddit)})
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].time.Before(history[j].time) })
	return history
}

func diversityScore(subs []string, uniq map[string]int) float64 {
	if len(subs) < 5 {
		// too few posts for a meaningful read
		return 0.8
	}
	top := 0
	for _, n := range uniq {
		if n > top {
			top = n
		}
	}
	topRatio := float64(top) / float64(len(subs))
	switch {
	case len(uniq) == 1:
		return 0.4
	case topRatio > 0.8:
		return 0.5
	case topRatio > 0.6:
		return 0.7
	default:
		return 0.9
	}
}

func topicChangeScore(history []subredditVisit) float64 {
	if len(history) < 10 {
		return 0.8
	}
	similarity := halfSplitSimilarity(history)
	switch {
	case similarity < 0.1:
		return 0.3
	case similarity < 0.3:
		return 0.5
	case similarity < 0.5:
		return 0.7
	default:
		return 0.9
	}
}

// halfSplitSimilarity is the Jaccard overlap between the subreddit sets of
// the older and newer halves of history.
func halfSplitSimilarity(history []subredditVisit) float64 {
	if len(history) < 2 {
		return 1.0
	}
	mid := len(history) / 2
	older := map[string]bool{}
	newer := map[string]bool{}
	for _, v := range history[:mid] {
		older[v.subreddit] = true
	}
	for _, v := range history[mid:] {
		newer[v.subreddit] = true
	}
	if len(older) == 0 || len(newer) == 0 {
		return 1.0
	}
	intersection := 0
	union := len(newer)
	for s := range older {
		if newer[s] {
			intersection++
		} else {
			union++
		}
	}
	return float64(intersection) / max(1, float64(union))
}

func promotionalScore(promoRatio float64) float64 {
	switch {
	case promoRatio > 0.5:
		return 0.3
	case promoRatio > 0.3:
		return 0.5
	case promoRatio > 0.1:
		return 0.7
	default:
		return 0.9
	}
}
