// Package classifier holds the incremental account classifier: a bagged
// decision-tree ensemble retrained in-process from labeled feedback, with a
// rule-based fallback while untrained. Trained models are cached on disk as
// JSON and reloaded on startup.
package classifier

import (
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bencan1a/RedditRanger/detector"
)

// FeatureCount is the fixed width of the extracted feature vector.
const FeatureCount = 12

// FeatureNames are the human-readable labels for each feature position,
// used in importance maps.
var FeatureNames = [FeatureCount]string{
	"account_age",
	"comment_karma",
	"link_karma",
	"karma_ratio",
	"subreddit_diversity",
	"avg_score",
	"activity_hours",
	"active_subreddits",
	"vocab_size",
	"word_length",
	"comment_similarity",
	"vocab_diversity",
}

// fallbackRisk defaults, used until the first successful fit
const (
	baseRisk          = 0.3
	minAccountAgeDays = 30
	minKarma          = 100
	minSubreddits     = 3
	minVocabSize      = 200
)

type Config struct {
	CacheDir            string
	MinTrainingExamples int
	NumTrees            int
	MaxDepth            int
	Logger              *slog.Logger
}

// trainedModel is the immutable unit swapped in atomically after a fit, so
// in-flight predictions never observe a half-updated model.
type trainedModel struct {
	Forest *Forest `json:"forest"`
	Scaler *Scaler `json:"scaler"`
}

// Classifier accumulates labeled examples and retrains once enough are
// buffered. Predictions are lock-free against the current model; example
// accumulation and retraining are serialized by a mutex. Once trained, a
// classifier never reverts to the rule fallback.
type Classifier struct {
	cfg    Config
	logger *slog.Logger

	model atomic.Pointer[trainedModel]

	mu       sync.Mutex
	features [][]float64
	labels   []int
	rng      *rand.Rand
}

func New(cfg Config) *Classifier {
	if cfg.MinTrainingExamples <= 0 {
		cfg.MinTrainingExamples = 5
	}
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("system", "classifier")
	}

	c := &Classifier{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(42)),
	}
	if cfg.CacheDir != "" {
		if m, err := loadCachedModel(cfg.CacheDir); err == nil {
			c.model.Store(m)
			logger.Info("loaded cached model", "cacheDir", cfg.CacheDir)
		}
	}
	return c
}

// Trained reports whether a fitted model is active.
func (c *Classifier) Trained() bool {
	return c.model.Load() != nil
}

// PendingExamples is the number of buffered labeled examples not yet
// consumed by a fit.
func (c *Classifier) PendingExamples() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.labels)
}

// ExtractFeatures builds the fixed-order feature vector from an account
// and its derived activity and text metrics. Nil inputs contribute zeros.
func (c *Classifier) ExtractFeatures(acct *detector.AccountSnapshot, activity *detector.ActivityPatterns, text *detector.TextMetrics) []float64 {
	features := make([]float64, FeatureCount)
	now := time.Now().UTC()

	if acct != nil {
		if !acct.CreatedUTC.IsZero() {
			features[0] = acct.AgeDays(now)
		}
		features[1] = acct.CommentKarma
		features[2] = acct.LinkKarma
		features[3] = acct.CommentKarma / max(1, acct.LinkKarma)
	}
	if activity != nil {
		features[4] = float64(activity.UniqueSubreddits)
		features[5] = activity.AvgScore
		features[6] = float64(len(activity.ActivityHours))
		features[7] = float64(len(activity.TopSubreddits))
	}
	if text != nil {
		features[8] = float64(text.VocabSize)
		features[9] = text.AvgWordLength
		features[10] = text.AvgSimilarity
		features[11] = float64(len(text.CommonWords))
	}
	return features
}

// PredictRisk maps a feature vector to a suspiciousness probability in
// [0,1]. Untrained classifiers fall back to threshold rules.
func (c *Classifier) PredictRisk(features []float64) float64 {
	if len(features) != FeatureCount {
		return baseRisk
	}
	model := c.model.Load()
	if model == nil {
		return fallbackRisk(features)
	}
	return model.Forest.PredictProba(model.Scaler.Transform(features))
}

// fallbackRisk counts unmet account-quality thresholds: each one adds an
// equal share of risk on top of the base.
func fallbackRisk(features []float64) float64 {
	riskFactors := 0
	if features[0] < minAccountAgeDays {
		riskFactors++
	}
	if features[1]+features[2] < minKarma {
		riskFactors++
	}
	if features[4] < minSubreddits {
		riskFactors++
	}
	if features[8] < minVocabSize {
		riskFactors++
	}
	return baseRisk + 0.7*float64(riskFactors)/4
}

// AddTrainingExample buffers a labeled account and retrains once the
// threshold is reached. Returns false only when the fit itself fails.
func (c *Classifier) AddTrainingExample(acct *detector.AccountSnapshot, activity *detector.ActivityPatterns, text *detector.TextMetrics, isLegitimate bool) bool {
	features := c.ExtractFeatures(acct, activity, text)

	label := 1
	if isLegitimate {
		label = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.features = append(c.features, features)
	c.labels = append(c.labels, label)
	c.logger.Info("added training example", "total", len(c.labels), "label", label)

	if len(c.labels) < c.cfg.MinTrainingExamples {
		return true
	}
	return c.trainLocked()
}

// trainLocked fits a new model from the buffered examples and swaps it in.
// The buffer is cleared only on success. Caller must hold c.mu.
func (c *Classifier) trainLocked() bool {
	ones := 0
	for _, l := range c.labels {
		ones += l
	}
	if ones == 0 || ones == len(c.labels) {
		// single-class data cannot fit a useful ensemble; keep buffering
		c.logger.Warn("deferring fit, examples are single-class", "total", len(c.labels))
		return true
	}

	scaler := FitScaler(c.features)
	forest := FitForest(scaler.TransformAll(c.features), c.labels, c.cfg.NumTrees, c.cfg.MaxDepth, c.rng)
	model := &trainedModel{Forest: forest, Scaler: scaler}

	c.model.Store(model)
	c.features = nil
	c.labels = nil
	c.logger.Info("model trained", "trees", c.cfg.NumTrees)

	if c.cfg.CacheDir != "" {
		if err := saveCachedModel(c.cfg.CacheDir, model); err != nil {
			c.logger.Warn("failed to cache model", "err", err)
		}
	}
	return true
}

// AnalyzeAccount runs feature extraction and prediction in one step and,
// when trained, reports per-feature importance from the ensemble's split
// frequencies.
func (c *Classifier) AnalyzeAccount(acct *detector.AccountSnapshot, activity *detector.ActivityPatterns, text *detector.TextMetrics) (float64, map[string]float64) {
	features := c.ExtractFeatures(acct, activity, text)
	risk := c.PredictRisk(features)

	importance := map[string]float64{}
	if model := c.model.Load(); model != nil {
		for i, imp := range model.Forest.FeatureImportance() {
			importance[FeatureNames[i]] = imp
		}
	}
	return risk, importance
}
