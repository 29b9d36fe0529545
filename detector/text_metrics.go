package detector

// suspicious-pattern table keys in TextMetrics.SuspiciousPatterns
const (
	PatternIdenticalGreetings = "identical_greetings"
	PatternURLs               = "url_patterns"
	PatternPromotional        = "promotional_phrases"
	PatternGenericResponses   = "generic_responses"
)

// TextMetrics is the derived aggregate over an account's comment bodies,
// produced by the text analyzer. Immutable once computed.
//
// The four sub-scores and BotProbability are in [0,1] with higher meaning
// more bot-like. SuspiciousPatterns values are percentages of comments
// (0-100).
type TextMetrics struct {
	VocabSize     int            `json:"vocab_size"`
	AvgWordLength float64        `json:"avg_word_length"`
	CommonWords   map[string]int `json:"common_words"`

	RepetitionScore float64 `json:"repetition_score"`
	TemplateScore   float64 `json:"template_score"`
	ComplexityScore float64 `json:"complexity_score"`
	TimingScore     float64 `json:"timing_score"`
	AvgSimilarity   float64 `json:"avg_similarity"`

	BotProbability     float64            `json:"bot_probability"`
	SuspiciousPatterns map[string]float64 `json:"suspicious_patterns"`
}

// NeutralTextMetrics is the documented result for empty comment input:
// zeroed metrics and a zero bot probability.
func NeutralTextMetrics() TextMetrics {
	return TextMetrics{
		CommonWords: map[string]int{},
		SuspiciousPatterns: map[string]float64{
			PatternIdenticalGreetings: 0,
			PatternURLs:               0,
			PatternPromotional:        0,
			PatternGenericResponses:   0,
		},
	}
}
