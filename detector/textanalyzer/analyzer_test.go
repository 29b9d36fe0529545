package textanalyzer

import (
	"testing"
	"time"

	"github.com/bencan1a/RedditRanger/detector"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeCommentsEmptyInput(t *testing.T) {
	assert := assert.New(t)

	m := NewAnalyzer().AnalyzeComments(nil, nil)
	assert.Equal(0.0, m.BotProbability)
	assert.Equal(0, m.VocabSize)
	assert.Empty(m.CommonWords)
	assert.Equal(0.0, m.SuspiciousPatterns[detector.PatternURLs])
}

func TestAnalyzeCommentsIdenticalComments(t *testing.T) {
	assert := assert.New(t)

	bodies := []string{
		"great post check it out",
		"great post check it out",
		"great post check it out",
		"great post check it out",
		"great post check it out",
	}
	m := NewAnalyzer().AnalyzeComments(bodies, nil)
	assert.Greater(m.RepetitionScore, 0.8)
	assert.Greater(m.TemplateScore, 0.8)
	assert.Greater(m.BotProbability, 0.3)
}

func TestAnalyzeCommentsVariedComments(t *testing.T) {
	assert := assert.New(t)

	bodies := []string{
		"I upgraded the firmware last week and the crackling finally stopped on mine.",
		"Honestly the sequel never matched the pacing of the first book for me.",
		"We switched to drip irrigation and water usage dropped by about a third.",
		"The ferry schedule changes after labor day, worth checking before you book.",
	}
	m := NewAnalyzer().AnalyzeComments(bodies, nil)
	assert.Less(m.RepetitionScore, 0.5)
	assert.Less(m.TemplateScore, 0.5)
	assert.GreaterOrEqual(m.BotProbability, 0.0)
	assert.LessOrEqual(m.BotProbability, 1.0)
	assert.Greater(m.VocabSize, 20)
	assert.LessOrEqual(len(m.CommonWords), 10)
}

func TestTimingScoreRoboticCadence(t *testing.T) {
	assert := assert.New(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var robotic, human []time.Time
	for i := 0; i < 10; i++ {
		robotic = append(robotic, base.Add(time.Duration(i)*10*time.Second))
	}
	humanGaps := []time.Duration{0, 3 * time.Minute, 40 * time.Minute, 5 * time.Hour, 26 * time.Hour, 27 * time.Hour, 51 * time.Hour}
	for _, g := range humanGaps {
		human = append(human, base.Add(g))
	}

	assert.Equal(1.0, timingScore(robotic))
	assert.Less(timingScore(human), timingScore(robotic))
	assert.Equal(0.0, timingScore([]time.Time{base}))
	assert.Equal(0.0, timingScore(nil))
}

func TestSuspiciousPatternsDetection(t *testing.T) {
	assert := assert.New(t)

	a := NewAnalyzer()
	bodies := []string{
		"hello everyone, big fan of this sub",
		"hello everyone, big fan of this sub",
		"hello everyone, big fan of this sub",
		"use promo code SAVE20 at https://shop.example.com for a special offer",
		"nice post!",
		"the weather turned cold early this year",
	}
	patterns := a.suspiciousPatterns(bodies)

	assert.Greater(patterns[detector.PatternIdenticalGreetings], 0.0)
	assert.Greater(patterns[detector.PatternURLs], 0.0)
	assert.Greater(patterns[detector.PatternPromotional], 0.0)
	assert.Greater(patterns[detector.PatternGenericResponses], 0.0)
	for key, pct := range patterns {
		assert.LessOrEqual(pct, 100.0, key)
	}
}

func TestSuspiciousPatternsUniqueGreetingsNotIdentical(t *testing.T) {
	assert := assert.New(t)

	a := NewAnalyzer()
	bodies := []string{
		"hello from the other coast, first time posting here",
		"hey, does anyone know if the north lot is still free",
	}
	patterns := a.suspiciousPatterns(bodies)
	assert.Equal(0.0, patterns[detector.PatternIdenticalGreetings])
}

func TestBotProbabilityDampensLowScores(t *testing.T) {
	assert := assert.New(t)

	low := botProbability(detector.TextMetrics{
		RepetitionScore:    0.1,
		TemplateScore:      0.1,
		ComplexityScore:    0.1,
		TimingScore:        0.1,
		SuspiciousPatterns: map[string]float64{"a": 0, "b": 0},
	})
	// every sub-score under 0.3 is halved: 0.8 * 0.05
	assert.InDelta(0.04, low, 1e-9)

	high := botProbability(detector.TextMetrics{
		RepetitionScore:    0.9,
		TemplateScore:      0.9,
		ComplexityScore:    0.9,
		TimingScore:        0.9,
		SuspiciousPatterns: map[string]float64{"a": 100, "b": 100},
	})
	// 0.8*0.9 + 0.2*0.5
	assert.InDelta(0.82, high, 1e-9)
}

func TestComplexityScoreRange(t *testing.T) {
	assert := assert.New(t)

	repetitive := complexityScore([][]string{
		{"spam", "spam", "spam", "spam", "spam"},
		{"spam", "spam", "spam", "spam", "spam"},
	})
	diverse := complexityScore([][]string{
		{"migratory", "shorebirds", "staging", "estuaries", "autumn"},
		{"harbor", "dredging", "postponed", "pending", "review"},
	})
	assert.Greater(repetitive, diverse)
	assert.GreaterOrEqual(diverse, 0.0)
	assert.LessOrEqual(repetitive, 1.0)
}
