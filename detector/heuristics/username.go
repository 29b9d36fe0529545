package heuristics

import (
	"math"
	"regexp"
	"strings"

	"github.com/bencan1a/RedditRanger/detector"
	"github.com/bencan1a/RedditRanger/detector/keyword"
)

// Username checks the account name itself for bot-like construction:
// generated-looking digit runs, "bot" substrings, commercial terms,
// embedded contact info, high randomness, and excessive length.
type Username struct {
	patterns []*regexp.Regexp
}

func NewUsername() Username {
	return Username{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\d{4,}`),                                         // 4+ consecutive digits
			regexp.MustCompile(`(?i)bot\d*`),                                     // contains "bot"
			regexp.MustCompile(`[A-Z][a-z]+\d{2,}`),                              // CamelCase followed by digits
			regexp.MustCompile(`[a-zA-Z]\d{3,}[a-zA-Z]`),                         // letters sandwiching 3+ digits
			regexp.MustCompile(`(?i)(best|top|cheap|deal|price|buy|sell)\w*`),    // commercial terms
			regexp.MustCompile(`\w+_\w+_\d{2,}`),                                 // words_with_numbers
			regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`), // email-like
			regexp.MustCompile(`\d{3}[-.]?\d{3}[-.]?\d{4}`),                      // phone-like
		},
	}
}

func (Username) Name() string { return "username" }

func (Username) Defaults() Result {
	return Result{
		Scores: map[string]float64{"score": 0.8},
		Metrics: map[string]float64{
			"pattern_matches": 0,
			"entropy":         0,
			"length":          0,
			"token_count":     0,
		},
	}
}

func (h Username) Analyze(acct *detector.AccountSnapshot) Result {
	if acct == nil || acct.Username == "" {
		return h.Defaults()
	}
	name := acct.Username
	score := 1.0

	matches := 0
	for _, p := range h.patterns {
		if p.MatchString(name) {
			score *= 0.8
			matches++
		}
	}

	entropy := shannonEntropy(strings.ToLower(name))
	if entropy > 4.5 {
		score *= 0.9
	}
	if len(name) > 20 {
		score *= 0.9
	}

	tokens := keyword.TokenizeIdentifier(name)
	if len(tokens) == 0 {
		// nothing but single-character fragments, eg "x_q_9_z"
		score *= 0.8
	}
	seen := map[string]bool{}
	for _, tok := range tokens {
		if seen[tok] {
			// stuttered names like "deal_deal_99"
			score *= 0.9
			break
		}
		seen[tok] = true
	}

	return Result{
		Scores: map[string]float64{"score": detector.Clamp01(score)},
		Metrics: map[string]float64{
			"pattern_matches": float64(matches),
			"entropy":         entropy,
			"length":          float64(len(name)),
			"token_count":     float64(len(tokens)),
		},
	}
}

// shannonEntropy returns the per-character entropy of s in bits.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := map[rune]int{}
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	var entropy float64
	for _, n := range counts {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
