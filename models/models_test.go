package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/bencan1a/RedditRanger/util/cliutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := cliutil.SetupDatabase("sqlite://"+filepath.Join(t.TempDir(), "test.sqlite"), 1)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestGetOrCreateAnalysis(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)

	missing, err := GetAnalysis(db, "spez")
	assert.NoError(err)
	assert.Nil(missing)

	row, err := GetOrCreateAnalysis(db, "spez", 12.5)
	require.NoError(t, err)
	assert.Equal("spez", row.Username)
	assert.Equal(12.5, row.BotProbability)
	assert.Equal(1, row.AnalysisCount)

	// re-analysis updates in place rather than inserting
	row, err = GetOrCreateAnalysis(db, "spez", 47.0)
	require.NoError(t, err)
	assert.Equal(47.0, row.BotProbability)
	assert.Equal(2, row.AnalysisCount)

	var count int64
	require.NoError(t, db.Model(&AnalysisResult{}).Count(&count).Error)
	assert.EqualValues(1, count)
}

func TestAnalysisFreshness(t *testing.T) {
	assert := assert.New(t)

	row := &AnalysisResult{LastAnalyzed: time.Now().UTC().Add(-30 * time.Minute)}
	assert.True(row.Fresh(time.Hour))
	assert.False(row.Fresh(10 * time.Minute))
}

func TestRecentAnalysesOrdering(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)

	for i, name := range []string{"first", "second", "third"} {
		row := &AnalysisResult{
			Username:       name,
			BotProbability: float64(i * 10),
			AnalysisCount:  1,
			LastAnalyzed:   time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(row).Error)
	}

	rows, err := RecentAnalyses(db, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal("third", rows[0].Username)
	assert.Equal("second", rows[1].Username)
}

func TestGetAnalysisStats(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)

	empty, err := GetAnalysisStats(db)
	require.NoError(t, err)
	assert.EqualValues(0, empty.TotalAccounts)

	fixtures := map[string]float64{
		"definitely_bot": 92.0,
		"maybe_bot":      55.0,
		"regular_user":   12.0,
		"another_user":   30.0,
	}
	for name, prob := range fixtures {
		_, err := GetOrCreateAnalysis(db, name, prob)
		require.NoError(t, err)
	}

	stats, err := GetAnalysisStats(db)
	require.NoError(t, err)
	assert.EqualValues(4, stats.TotalAccounts)
	assert.EqualValues(4, stats.TotalAnalyses)
	assert.EqualValues(1, stats.HighRiskAccounts)
	assert.EqualValues(1, stats.MediumRiskAccounts)
	assert.EqualValues(2, stats.LowRiskAccounts)
	assert.InDelta(47.25, stats.AvgBotProbability, 1e-9)
}
