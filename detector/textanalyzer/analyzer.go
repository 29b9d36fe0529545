// Package textanalyzer derives bot-pattern metrics from an account's raw
// comment bodies: n-gram repetition, TF-IDF template similarity, posting
// timing regularity, lexical complexity, and a table of suspicious-pattern
// frequencies. All of it folds into a single bot-probability estimate.
package textanalyzer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bencan1a/RedditRanger/detector"
	"github.com/bencan1a/RedditRanger/detector/keyword"

	"github.com/spaolacci/murmur3"
)

// based on: https://stackoverflow.com/a/48769624, with no trailing period allowed
var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

// Analyzer is stateless after construction and safe for concurrent use.
type Analyzer struct {
	greetingRegex *regexp.Regexp
	promoRegex    *regexp.Regexp
	genericRegex  *regexp.Regexp
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		greetingRegex: regexp.MustCompile(`^(hi|hello|hey|greetings|thanks|thank you|good (morning|afternoon|evening))\b`),
		promoRegex:    regexp.MustCompile(`(buy now|discount|limited time|best price|click here|check out my|free shipping|promo code|special offer)`),
		genericRegex:  regexp.MustCompile(`^(nice|cool|great|awesome|interesting|this|wow|lol|agreed|same|\+1)(( one| post| work| share))?[\s.!]*$`),
	}
}

// AnalyzeComments computes the full metrics bundle for a set of comment
// bodies. Timestamps are optional; without at least two the timing score is
// zero. Empty input returns the neutral structure and never fails.
func (a *Analyzer) AnalyzeComments(bodies []string, timestamps []time.Time) detector.TextMetrics {
	if len(bodies) == 0 {
		return detector.NeutralTextMetrics()
	}

	docs := make([][]string, len(bodies))
	for i, b := range bodies {
		docs[i] = keyword.TokenizeText(b)
	}

	metrics := detector.TextMetrics{
		RepetitionScore:    repetitionScore(docs),
		ComplexityScore:    complexityScore(docs),
		TimingScore:        timingScore(timestamps),
		SuspiciousPatterns: a.suspiciousPatterns(bodies),
	}

	avgSim := meanPairwiseSimilarity(docs)
	metrics.AvgSimilarity = avgSim
	metrics.TemplateScore = math.Min(1, 3*avgSim)

	fillVocabulary(&metrics, docs)
	metrics.BotProbability = botProbability(metrics)
	return metrics
}

// repetitionScore is the peak n-gram frequency (n of 2 through 4, across
// every comment) over the distinct n-gram count, amplified by 3.
func repetitionScore(docs [][]string) float64 {
	counts := map[string]int{}
	for _, tokens := range docs {
		for n := 2; n <= 4; n++ {
			for _, g := range keyword.NGrams(tokens, n) {
				counts[g]++
			}
		}
	}
	if len(counts) == 0 {
		return 0
	}
	maxFreq := 0
	for _, c := range counts {
		if c > maxFreq {
			maxFreq = c
		}
	}
	return math.Min(1, 3*float64(maxFreq)/float64(len(counts)))
}

// meanPairwiseSimilarity is the average TF-IDF cosine similarity over all
// comment pairs, excluding self-similarity.
func meanPairwiseSimilarity(docs [][]string) float64 {
	vectors := tfidfVectors(docs)
	if len(vectors) < 2 {
		return 0
	}
	var total float64
	pairs := 0
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			total += dot(vectors[i], vectors[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}

// tfidfVectors builds l2-normalized TF-IDF term vectors, one per non-empty
// document, with smoothed inverse document frequency.
func tfidfVectors(docs [][]string) []map[string]float64 {
	df := map[string]int{}
	var kept [][]string
	for _, tokens := range docs {
		if len(tokens) == 0 {
			continue
		}
		kept = append(kept, tokens)
		seen := map[string]bool{}
		for _, t := range tokens {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := len(kept)

	vectors := make([]map[string]float64, 0, n)
	for _, tokens := range kept {
		tf := map[string]float64{}
		for _, t := range tokens {
			tf[t]++
		}
		vec := map[string]float64{}
		var norm float64
		for t, f := range tf {
			w := f * (math.Log(float64(1+n)/float64(1+df[t])) + 1)
			vec[t] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range vec {
				vec[t] /= norm
			}
		}
		vectors = append(vectors, vec)
	}
	return vectors
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var total float64
	for t, w := range a {
		total += w * b[t]
	}
	return total
}

// complexityScore averages a per-comment dampening score built from lexical
// diversity and mean word length. Simple, repetitive vocabularies push the
// score up.
func complexityScore(docs [][]string) float64 {
	var perComment []float64
	for _, tokens := range docs {
		if len(tokens) == 0 {
			continue
		}
		uniq := map[string]bool{}
		totalLen := 0
		for _, t := range tokens {
			uniq[t] = true
			totalLen += len(t)
		}
		lexDiv := float64(len(uniq)) / float64(len(tokens))
		avgWordLen := float64(totalLen) / float64(len(tokens))
		score := 1 - (0.7*lexDiv + 0.3*math.Min(1, avgWordLen/8))
		perComment = append(perComment, detector.Clamp01(score))
	}
	if len(perComment) == 0 {
		return 0
	}
	var total float64
	for _, s := range perComment {
		total += s
	}
	return total / float64(len(perComment))
}

// timingScore combines gap regularity (inverse coefficient of variation)
// with the share of gaps under 30 seconds. Needs at least two timestamps.
func timingScore(timestamps []time.Time) float64 {
	var stamps []time.Time
	for _, t := range timestamps {
		if !t.IsZero() {
			stamps = append(stamps, t)
		}
	}
	if len(stamps) < 2 {
		return 0
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	gaps := make([]float64, 0, len(stamps)-1)
	rapid := 0
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1]).Seconds()
		gaps = append(gaps, gap)
		if gap < 30 {
			rapid++
		}
	}

	var meanGap float64
	for _, g := range gaps {
		meanGap += g
	}
	meanGap /= float64(len(gaps))

	regularity := 1.0
	if meanGap > 0 {
		var varSum float64
		for _, g := range gaps {
			varSum += (g - meanGap) * (g - meanGap)
		}
		cv := math.Sqrt(varSum/float64(len(gaps))) / meanGap
		regularity = 1 / (1 + cv)
	}

	rapidRatio := float64(rapid) / float64(len(gaps))
	return math.Min(1, 1.5*(0.6*regularity+0.4*rapidRatio))
}

// suspiciousPatterns reports each pattern category as a percentage of
// comments, amplified by 1.5 and capped at 100.
func (a *Analyzer) suspiciousPatterns(bodies []string) map[string]float64 {
	greetingHashes := map[uint32]int{}
	var greetings, urls, promos, generics int

	for _, body := range bodies {
		lower := strings.ToLower(strings.TrimSpace(body))
		if a.greetingRegex.MatchString(lower) {
			greetingHashes[greetingHash(lower)]++
		}
		if urlRegex.MatchString(body) {
			urls++
		}
		if a.promoRegex.MatchString(lower) {
			promos++
		}
		if a.genericRegex.MatchString(lower) {
			generics++
		}
	}
	// only greetings that repeat verbatim count as identical
	for _, n := range greetingHashes {
		if n > 1 {
			greetings += n
		}
	}

	total := float64(len(bodies))
	pct := func(n int) float64 {
		return math.Min(100, 1.5*100*float64(n)/total)
	}
	return map[string]float64{
		detector.PatternIdenticalGreetings: pct(greetings),
		detector.PatternURLs:               pct(urls),
		detector.PatternPromotional:        pct(promos),
		detector.PatternGenericResponses:   pct(generics),
	}
}

// greetingHash fingerprints the opening of a comment so verbatim-repeated
// greetings collide without storing the text.
func greetingHash(lower string) uint32 {
	const prefixLen = 50
	if len(lower) > prefixLen {
		lower = lower[:prefixLen]
	}
	return murmur3.Sum32([]byte(lower))
}

// botProbability folds the four sub-scores and the pattern table into one
// estimate: an 80/20 blend of the dampened weighted sub-scores and half the
// mean pattern percentage.
func botProbability(m detector.TextMetrics) float64 {
	weights := []struct {
		score  float64
		weight float64
	}{
		{m.RepetitionScore, 0.25},
		{m.TemplateScore, 0.20},
		{m.ComplexityScore, 0.15},
		{m.TimingScore, 0.15},
	}

	var weighted, weightSum float64
	for _, w := range weights {
		s := w.score
		if s < 0.3 {
			s /= 2
		}
		weighted += s * w.weight
		weightSum += w.weight
	}
	if weightSum > 0 {
		weighted /= weightSum
	}

	var patternMean float64
	if len(m.SuspiciousPatterns) > 0 {
		for _, pct := range m.SuspiciousPatterns {
			patternMean += pct
		}
		patternMean /= float64(len(m.SuspiciousPatterns))
	}

	return detector.Clamp01(0.8*weighted + 0.2*(patternMean/100/2))
}

// fillVocabulary populates vocabulary size, average word length, and the
// ten most common words, with stopwords removed.
func fillVocabulary(m *detector.TextMetrics, docs [][]string) {
	counts := map[string]int{}
	totalLen, totalWords := 0, 0
	for _, tokens := range docs {
		for _, t := range tokens {
			if stopwords[t] {
				continue
			}
			counts[t]++
			totalLen += len(t)
			totalWords++
		}
	}

	m.VocabSize = len(counts)
	if totalWords > 0 {
		m.AvgWordLength = float64(totalLen) / float64(totalWords)
	}

	type wordCount struct {
		word string
		n    int
	}
	ranked := make([]wordCount, 0, len(counts))
	for w, n := range counts {
		ranked = append(ranked, wordCount{w, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].word < ranked[j].word
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	m.CommonWords = make(map[string]int, len(ranked))
	for _, wc := range ranked {
		m.CommonWords[wc.word] = wc.n
	}
}
