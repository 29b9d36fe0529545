package classifier

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bencan1a/RedditRanger/detector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func humanExample(i int) (*detector.AccountSnapshot, *detector.ActivityPatterns, *detector.TextMetrics) {
	acct := &detector.AccountSnapshot{
		Username:     "human",
		CreatedUTC:   time.Now().UTC().Add(-time.Duration(400+i*30) * 24 * time.Hour),
		CommentKarma: float64(8000 + i*500),
		LinkKarma:    float64(900 + i*50),
	}
	activity := &detector.ActivityPatterns{
		UniqueSubreddits: 12 + i,
		AvgScore:         6.5,
		ActivityHours:    map[int]int{9: 3, 12: 5, 18: 8, 21: 4},
		TopSubreddits:    map[string]int{"golang": 10, "cooking": 8, "hiking": 6},
	}
	text := &detector.TextMetrics{
		VocabSize:     900 + i*40,
		AvgWordLength: 5.1,
		AvgSimilarity: 0.05,
		CommonWords:   map[string]int{"really": 9, "think": 8, "time": 7},
	}
	return acct, activity, text
}

func botExample(i int) (*detector.AccountSnapshot, *detector.ActivityPatterns, *detector.TextMetrics) {
	acct := &detector.AccountSnapshot{
		Username:     "bot",
		CreatedUTC:   time.Now().UTC().Add(-time.Duration(3+i) * 24 * time.Hour),
		CommentKarma: float64(2 + i),
		LinkKarma:    float64(40 + i*5),
	}
	activity := &detector.ActivityPatterns{
		UniqueSubreddits: 1,
		AvgScore:         0.8,
		ActivityHours:    map[int]int{3: 40},
		TopSubreddits:    map[string]int{"dealsdealsdeals": 40},
	}
	text := &detector.TextMetrics{
		VocabSize:     30 + i,
		AvgWordLength: 4.0,
		AvgSimilarity: 0.85,
		CommonWords:   map[string]int{"check": 40, "price": 38},
	}
	return acct, activity, text
}

func TestFallbackRisk(t *testing.T) {
	assert := assert.New(t)

	c := New(Config{})

	// all four thresholds unmet
	worst := make([]float64, FeatureCount)
	assert.InDelta(1.0, c.PredictRisk(worst), 1e-9)

	// all four thresholds met
	best := make([]float64, FeatureCount)
	best[0] = 365  // age
	best[1] = 5000 // comment karma
	best[4] = 10   // unique subreddits
	best[8] = 500  // vocab size
	assert.InDelta(0.3, c.PredictRisk(best), 1e-9)

	// two unmet: 0.3 + 0.7*2/4
	half := make([]float64, FeatureCount)
	half[0] = 365
	half[1] = 5000
	assert.InDelta(0.65, c.PredictRisk(half), 1e-9)

	// malformed vector gets the safe default
	assert.InDelta(0.3, c.PredictRisk([]float64{1, 2, 3}), 1e-9)
}

func TestExtractFeaturesOrder(t *testing.T) {
	assert := assert.New(t)

	c := New(Config{})
	acct, activity, text := humanExample(0)
	features := c.ExtractFeatures(acct, activity, text)

	require.Len(t, features, FeatureCount)
	assert.InDelta(400, features[0], 1.0)
	assert.Equal(acct.CommentKarma, features[1])
	assert.Equal(acct.LinkKarma, features[2])
	assert.InDelta(acct.CommentKarma/acct.LinkKarma, features[3], 1e-9)
	assert.Equal(12.0, features[4])
	assert.Equal(6.5, features[5])
	assert.Equal(4.0, features[6])
	assert.Equal(3.0, features[7])
	assert.Equal(900.0, features[8])
	assert.Equal(5.1, features[9])
	assert.Equal(0.05, features[10])
	assert.Equal(3.0, features[11])

	// nil inputs contribute zeros rather than failing
	assert.Equal(make([]float64, FeatureCount), c.ExtractFeatures(nil, nil, nil))
}

func TestTrainingLifecycle(t *testing.T) {
	assert := assert.New(t)

	c := New(Config{MinTrainingExamples: 5, NumTrees: 20, MaxDepth: 5})
	assert.False(c.Trained())

	for i := 0; i < 3; i++ {
		acct, activity, text := humanExample(i)
		assert.True(c.AddTrainingExample(acct, activity, text, true))
	}
	assert.False(c.Trained())
	assert.Equal(3, c.PendingExamples())

	for i := 0; i < 2; i++ {
		acct, activity, text := botExample(i)
		assert.True(c.AddTrainingExample(acct, activity, text, false))
	}

	assert.True(c.Trained())
	assert.Equal(0, c.PendingExamples())

	humanAcct, humanActivity, humanText := humanExample(9)
	botAcct, botActivity, botText := botExample(9)
	humanRisk, _ := c.AnalyzeAccount(humanAcct, humanActivity, humanText)
	botRisk, importance := c.AnalyzeAccount(botAcct, botActivity, botText)

	assert.GreaterOrEqual(humanRisk, 0.0)
	assert.LessOrEqual(botRisk, 1.0)
	assert.Less(humanRisk, botRisk)
	assert.NotEmpty(importance)

	var total float64
	for name, imp := range importance {
		assert.Contains(FeatureNames, name)
		total += imp
	}
	assert.InDelta(1.0, total, 1e-9)
}

func TestSingleClassExamplesDeferFit(t *testing.T) {
	assert := assert.New(t)

	c := New(Config{MinTrainingExamples: 5, NumTrees: 10, MaxDepth: 3})
	for i := 0; i < 6; i++ {
		acct, activity, text := humanExample(i)
		assert.True(c.AddTrainingExample(acct, activity, text, true))
	}
	assert.False(c.Trained())
	assert.Equal(6, c.PendingExamples())
}

func TestModelCacheRoundTrip(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	c := New(Config{CacheDir: dir, MinTrainingExamples: 4, NumTrees: 10, MaxDepth: 4})
	for i := 0; i < 2; i++ {
		acct, activity, text := humanExample(i)
		c.AddTrainingExample(acct, activity, text, true)
	}
	for i := 0; i < 2; i++ {
		acct, activity, text := botExample(i)
		c.AddTrainingExample(acct, activity, text, false)
	}
	require.True(t, c.Trained())

	// a cold process picks the fitted model back up from disk
	warm := New(Config{CacheDir: dir})
	assert.True(warm.Trained())

	acct, activity, text := botExample(7)
	cold := c.ExtractFeatures(acct, activity, text)
	assert.InDelta(c.PredictRisk(cold), warm.PredictRisk(cold), 1e-9)
}

func TestForestSeparatesClasses(t *testing.T) {
	assert := assert.New(t)

	rows := [][]float64{
		{1, 10}, {2, 11}, {1.5, 9}, {2.2, 12},
		{8, 90}, {9, 85}, {8.5, 95}, {7.8, 88},
	}
	labels := []int{0, 0, 0, 0, 1, 1, 1, 1}

	scaler := FitScaler(rows)
	forest := FitForest(scaler.TransformAll(rows), labels, 25, 5, rand.New(rand.NewSource(1)))

	assert.Less(forest.PredictProba(scaler.Transform([]float64{1.7, 10.5})), 0.5)
	assert.Greater(forest.PredictProba(scaler.Transform([]float64{8.4, 91})), 0.5)
}
