// Package engine aggregates the individual analyzers into one account
// score. The seven heuristics run concurrently per request; each one is
// isolated so a panic or bad input degrades to documented defaults instead
// of failing the whole evaluation.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/bencan1a/RedditRanger/detector"
	"github.com/bencan1a/RedditRanger/detector/heuristics"

	"golang.org/x/sync/errgroup"
)

// scoreWeights is the fixed weight table over heuristic sub-score keys.
// Traditional account metrics carry 40%, behavioral 35%, content 25%.
// Sub-scores without a weight are diagnostic only.
var scoreWeights = map[string]float64{
	"age_score":              0.10,
	"karma_score":            0.10,
	"username_score":         0.05,
	"subreddit_diversity":    0.15,
	"posting_frequency":      0.10,
	"posting_interval":       0.10,
	"engagement_interaction": 0.05,
	"engagement_depth":       0.05,
	"posting_timezone":       0.05,
	"linguistic_similarity":  0.05,
	"linguistic_complexity":  0.05,
	"linguistic_pattern":     0.10,
	"linguistic_style":       0.05,
}

// dampeningThreshold marks sub-scores weak enough to halve before
// weighting, reducing the impact of any single harsh heuristic.
const dampeningThreshold = 0.3

// RiskModel is the classifier surface the scorer needs.
type RiskModel interface {
	AnalyzeAccount(acct *detector.AccountSnapshot, activity *detector.ActivityPatterns, text *detector.TextMetrics) (float64, map[string]float64)
}

// AccountScorer runs every analyzer over a snapshot and folds the results
// into a single legitimacy score. Higher means more human-like; the HTTP
// layer converts to a bot-probability percentage.
type AccountScorer struct {
	Logger     *slog.Logger
	Heuristics []heuristics.Heuristic
	Model      RiskModel
}

func NewAccountScorer(logger *slog.Logger, model RiskModel) *AccountScorer {
	if logger == nil {
		logger = slog.Default().With("system", "scorer")
	}
	return &AccountScorer{
		Logger:     logger,
		Heuristics: heuristics.All(),
		Model:      model,
	}
}

// CalculateScore evaluates acct and returns the final score in [0,1] plus
// the full sub-score breakdown. Unusable input yields the neutral 0.5 with
// an error marker rather than an error return.
func (s *AccountScorer) CalculateScore(ctx context.Context, acct *detector.AccountSnapshot, activity *detector.ActivityPatterns, text *detector.TextMetrics) (float64, detector.SubScores) {
	start := time.Now()
	defer func() {
		scoreDuration.Observe(time.Since(start).Seconds())
		scoreCount.Inc()
	}()

	subScores := detector.NewSubScores()
	if acct == nil || (acct.Username == "" && acct.CreatedUTC.IsZero()) {
		malformedAccountCount.Inc()
		s.Logger.Warn("unusable account data, returning neutral score")
		subScores.Scores["error"] = 1
		return 0.5, subScores
	}

	results := make([]heuristics.Result, len(s.Heuristics))
	g, _ := errgroup.WithContext(ctx)
	for i, h := range s.Heuristics {
		g.Go(func() error {
			results[i] = s.runHeuristic(h, acct)
			return nil
		})
	}
	_ = g.Wait()

	for i, h := range s.Heuristics {
		for key, v := range results[i].Scores {
			subScores.Scores[h.Name()+"_"+key] = v
		}
		if len(results[i].Metrics) > 0 {
			subScores.Metrics[h.Name()] = results[i].Metrics
		}
	}

	subScores.Scores["ml_risk"] = s.classifierRisk(acct, activity, text)
	if text != nil {
		subScores.Metrics["text"] = textDiagnostics(text)
	}

	return weightedScore(subScores.Scores), subScores
}

// runHeuristic isolates one analyzer invocation, substituting its
// documented defaults if it panics.
func (s *AccountScorer) runHeuristic(h heuristics.Heuristic, acct *detector.AccountSnapshot) (res heuristics.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("heuristic execution exception", "err", r, "heuristic", h.Name(), "username", acct.Username)
			heuristicFailureCount.WithLabelValues(h.Name()).Inc()
			res = h.Defaults()
		}
	}()
	return h.Analyze(acct)
}

// classifierRisk is the model's suspiciousness probability, neutral 0.5
// when no model is wired or it panics. Exposed as a diagnostic sub-score;
// it carries no weight in the final score.
func (s *AccountScorer) classifierRisk(acct *detector.AccountSnapshot, activity *detector.ActivityPatterns, text *detector.TextMetrics) (risk float64) {
	risk = 0.5
	if s.Model == nil {
		return risk
	}
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("classifier execution exception", "err", r, "username", acct.Username)
			classifierFailureCount.Inc()
			risk = 0.5
		}
	}()
	risk, _ = s.Model.AnalyzeAccount(acct, activity, text)
	return detector.Clamp01(risk)
}

// weightedScore folds the weighted sub-scores into the final score,
// halving weak sub-scores first and normalizing by the weights actually
// present. No matching sub-scores at all yields the neutral 0.5.
func weightedScore(scores map[string]float64) float64 {
	var total, weightSum float64
	for key, weight := range scoreWeights {
		v, ok := scores[key]
		if !ok {
			continue
		}
		if v < dampeningThreshold {
			v /= 2
		}
		total += v * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return 0.5
	}
	return detector.Clamp01(total / weightSum)
}

func textDiagnostics(text *detector.TextMetrics) map[string]float64 {
	diag := map[string]float64{
		"vocab_size":       float64(text.VocabSize),
		"avg_word_length":  text.AvgWordLength,
		"avg_similarity":   text.AvgSimilarity,
		"repetition_score": text.RepetitionScore,
		"template_score":   text.TemplateScore,
		"complexity_score": text.ComplexityScore,
		"timing_score":     text.TimingScore,
		"bot_probability":  text.BotProbability,
	}
	for key, pct := range text.SuspiciousPatterns {
		diag["pattern_"+key] = pct
	}
	return diag
}
