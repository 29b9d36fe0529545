// Package models defines the persisted analysis records and their queries.
package models

import (
	"time"

	"gorm.io/gorm"
)

// AnalysisResult is one row per analyzed username, updated in place on
// re-analysis. BotProbability is the presentation-layer percentage (0-100).
type AnalysisResult struct {
	ID             uint      `gorm:"primarykey" json:"-"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	BotProbability float64   `json:"bot_probability"`
	AnalysisCount  int       `gorm:"default:1" json:"analysis_count"`
	LastAnalyzed   time.Time `json:"last_analyzed"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AnalysisResult) TableName() string {
	return "analysis_results"
}

// Fresh reports whether the row was analyzed within the window and can be
// served without re-scoring.
func (r *AnalysisResult) Fresh(window time.Duration) bool {
	return time.Since(r.LastAnalyzed) < window
}

// AutoMigrate creates or updates the schema for all persisted types.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AnalysisResult{})
}

// GetAnalysis returns the stored row for username, or nil without error
// when none exists.
func GetAnalysis(db *gorm.DB, username string) (*AnalysisResult, error) {
	var row AnalysisResult
	err := db.Where("username = ?", username).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetOrCreateAnalysis upserts the row for username: an existing row gets
// the new probability, a bumped analysis count, and a fresh timestamp.
func GetOrCreateAnalysis(db *gorm.DB, username string, botProbability float64) (*AnalysisResult, error) {
	now := time.Now().UTC()

	existing, err := GetAnalysis(db, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.BotProbability = botProbability
		existing.AnalysisCount++
		existing.LastAnalyzed = now
		if err := db.Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	row := &AnalysisResult{
		Username:       username,
		BotProbability: botProbability,
		AnalysisCount:  1,
		LastAnalyzed:   now,
	}
	if err := db.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// RecentAnalyses lists the most recently analyzed accounts, newest first.
func RecentAnalyses(db *gorm.DB, limit int) ([]AnalysisResult, error) {
	var rows []AnalysisResult
	err := db.Order("last_analyzed desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// AnalysisStats is the aggregate snapshot behind the stats endpoint.
type AnalysisStats struct {
	TotalAccounts      int64   `json:"total_accounts"`
	TotalAnalyses      int64   `json:"total_analyses"`
	AvgBotProbability  float64 `json:"avg_bot_probability"`
	HighRiskAccounts   int64   `json:"high_risk_accounts"`
	MediumRiskAccounts int64   `json:"medium_risk_accounts"`
	LowRiskAccounts    int64   `json:"low_risk_accounts"`
}

// GetAnalysisStats aggregates over every stored row. Tier boundaries match
// the presentation rule: >70 high, 40-70 medium, else low.
func GetAnalysisStats(db *gorm.DB) (*AnalysisStats, error) {
	var stats AnalysisStats

	if err := db.Model(&AnalysisResult{}).Count(&stats.TotalAccounts).Error; err != nil {
		return nil, err
	}
	if stats.TotalAccounts == 0 {
		return &stats, nil
	}

	row := db.Model(&AnalysisResult{}).Select("COALESCE(SUM(analysis_count),0), COALESCE(AVG(bot_probability),0)").Row()
	if err := row.Scan(&stats.TotalAnalyses, &stats.AvgBotProbability); err != nil {
		return nil, err
	}

	counts := []struct {
		dest *int64
		cond string
		args []any
	}{
		{&stats.HighRiskAccounts, "bot_probability > ?", []any{70.0}},
		{&stats.MediumRiskAccounts, "bot_probability > ? AND bot_probability <= ?", []any{40.0, 70.0}},
		{&stats.LowRiskAccounts, "bot_probability <= ?", []any{40.0}},
	}
	for _, c := range counts {
		if err := db.Model(&AnalysisResult{}).Where(c.cond, c.args...).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
