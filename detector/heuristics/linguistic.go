package heuristics

import (
	"regexp"
	"strings"

	"github.com/bencan1a/RedditRanger/detector"
	"github.com/bencan1a/RedditRanger/detector/keyword"
)

// Linguistic scores writing style across the account's comments: trigram
// overlap between comments, sentence/word-length uniformity, template and
// promotional phrasing, and the variance of basic stylometric features.
type Linguistic struct {
	templatePhrases []*regexp.Regexp
	promoLanguage   []*regexp.Regexp
}

func NewLinguistic() Linguistic {
	return Linguistic{
		templatePhrases: compileAll(
			`thanks for sharing`,
			`great post`,
			`nice work`,
			`check out`,
			`click here`,
		),
		promoLanguage: compileAll(
			`discount`,
			`offer`,
			`limited time`,
			`best price`,
			`check out my`,
		),
	}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func (Linguistic) Name() string { return "linguistic" }

func (Linguistic) Defaults() Result {
	return Result{
		Scores: map[string]float64{
			"similarity": 0.8,
			"complexity": 0.8,
			"pattern":    0.8,
			"style":      0.8,
		},
		Metrics: map[string]float64{
			"total_comments":     0,
			"avg_comment_length": 0,
			"pattern_matches":    0,
		},
	}
}

func (h Linguistic) Analyze(acct *detector.AccountSnapshot) Result {
	if acct == nil {
		return h.Defaults()
	}
	texts := acct.CommentBodies()
	if len(texts) == 0 {
		return h.Defaults()
	}

	var totalLen int
	for _, t := range texts {
		totalLen += len(t)
	}
	patternMatches := h.countPatternMatches(texts)

	return Result{
		Scores: map[string]float64{
			"similarity": similarityScore(texts),
			"complexity": complexityScore(texts),
			"pattern":    h.patternScore(texts, patternMatches),
			"style":      styleScore(texts),
		},
		Metrics: map[string]float64{
			"total_comments":     float64(len(texts)),
			"avg_comment_length": float64(totalLen) / max(1, float64(len(texts))),
			"pattern_matches":    float64(patternMatches),
		},
	}
}

func (h Linguistic) countPatternMatches(texts []string) int {
	count := 0
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, p := range h.templatePhrases {
			if p.MatchString(lower) {
				count++
			}
		}
		for _, p := range h.promoLanguage {
			if p.MatchString(lower) {
				count++
			}
		}
	}
	return count
}

// similarityScore measures average pairwise trigram overlap. High overlap
// means the account repeats itself.
func similarityScore(texts []string) float64 {
	if len(texts) < 2 {
		return 0.8
	}
	grams := make([]map[string]bool, 0, len(texts))
	for _, t := range texts {
		toks := keyword.TokenizeText(t)
		set := map[string]bool{}
		for _, g := range keyword.NGrams(toks, 3) {
			set[g] = true
		}
		if len(set) > 0 {
			grams = append(grams, set)
		}
	}
	if len(grams) < 2 {
		return 0.8
	}

	var similarities []float64
	for i := 0; i < len(grams); i++ {
		for j := i + 1; j < len(grams); j++ {
			inter, union := 0, len(grams[j])
			for g := range grams[i] {
				if grams[j][g] {
					inter++
				} else {
					union++
				}
			}
			if union > 0 {
				similarities = append(similarities, float64(inter)/float64(union))
			}
		}
	}
	if len(similarities) == 0 {
		return 0.8
	}

	switch avg := mean(similarities); {
	case avg > 0.5:
		return 0.3
	case avg > 0.3:
		return 0.5
	case avg > 0.1:
		return 0.7
	default:
		return 0.9
	}
}

// complexityScore looks at sentence- and word-length variance; uniform
// values across comments suggest generated text.
func complexityScore(texts []string) float64 {
	var sentLengths, wordLengths []float64
	for _, text := range texts {
		sentences := 0
		for _, s := range strings.Split(text, ".") {
			if strings.TrimSpace(s) != "" {
				sentences++
			}
		}
		words := keyword.TokenizeText(text)
		if sentences > 0 && len(words) > 0 {
			sentLengths = append(sentLengths, float64(len(words))/float64(sentences))
		}
		if len(words) > 0 {
			wordLengths = append(wordLengths, meanWordLength(words))
		}
	}
	if len(sentLengths) == 0 || len(wordLengths) == 0 {
		return 0.8
	}

	sentVar := variance(sentLengths)
	wordVar := variance(wordLengths)
	switch {
	case sentVar < 1 && wordVar < 0.5:
		return 0.4
	case sentVar < 2 && wordVar < 1:
		return 0.6
	default:
		return 0.8
	}
}

func (h Linguistic) patternScore(texts []string, matches int) float64 {
	totalPatterns := len(h.templatePhrases) + len(h.promoLanguage)
	if totalPatterns == 0 {
		return 0.8
	}
	ratio := float64(matches) / (max(1, float64(len(texts))) * float64(totalPatterns))
	switch {
	case ratio > 0.3:
		return 0.3
	case ratio > 0.2:
		return 0.5
	case ratio > 0.1:
		return 0.7
	default:
		return 0.9
	}
}

// styleScore measures the variance of per-comment stylometric features
// (average word length, punctuation ratio); a near-constant style across
// comments is suspicious.
func styleScore(texts []string) float64 {
	if len(texts) < 3 {
		return 0.8
	}
	var wordLens, punctRatios []float64
	for _, text := range texts {
		words := keyword.TokenizeText(text)
		if len(words) == 0 {
			continue
		}
		wordLens = append(wordLens, meanWordLength(words))
		punct := 0
		for _, c := range text {
			if strings.ContainsRune(".,!?;:", c) {
				punct++
			}
		}
		punctRatios = append(punctRatios, float64(punct)/max(1, float64(len(text))))
	}
	if len(wordLens) < 3 {
		return 0.8
	}

	avgVar := (variance(wordLens) + variance(punctRatios)) / 2
	switch {
	case avgVar < 0.1:
		return 0.4
	case avgVar < 0.3:
		return 0.6
	default:
		return 0.8
	}
}

func meanWordLength(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return float64(total) / float64(len(words))
}
