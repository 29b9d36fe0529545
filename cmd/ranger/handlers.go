package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bencan1a/RedditRanger/detector"
	"github.com/bencan1a/RedditRanger/detector/countstore"
	"github.com/bencan1a/RedditRanger/models"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var feedbackReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ranger_feedback_received",
	Help: "Number of labeled feedback examples received, by label.",
}, []string{"label"})

type analyzeRequest struct {
	Username string         `json:"username"`
	Account  map[string]any `json:"account"`
}

type analyzeResponse struct {
	Username       string         `json:"username"`
	BotProbability float64        `json:"bot_probability"`
	RiskTier       string         `json:"risk_tier"`
	SubScores      map[string]any `json:"sub_scores"`
	AnalysisCount  int            `json:"analysis_count"`
	LastAnalyzed   time.Time      `json:"last_analyzed"`
}

type feedbackRequest struct {
	Account      map[string]any `json:"account"`
	IsLegitimate *bool          `json:"is_legitimate"`
}

func riskTier(botProbability float64) string {
	switch {
	case botProbability > 70:
		return "high"
	case botProbability > 40:
		return "medium"
	default:
		return "low"
	}
}

func (srv *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   versioninfo.Short(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (srv *Server) handleAnalyze(c echo.Context) error {
	ctx := c.Request().Context()

	decision := srv.limiter.Check(c.RealIP())
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetEpoch, 10))
	if !decision.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
		return c.JSON(http.StatusTooManyRequests, map[string]any{
			"error":       "rate limit exceeded",
			"retry_after": int(decision.RetryAfter.Seconds()),
		})
	}

	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Account == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing account record")
	}
	if req.Username != "" {
		if _, ok := req.Account["username"]; !ok {
			req.Account["username"] = req.Username
		}
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		if s, ok := req.Account["username"].(string); ok {
			username = strings.ToLower(strings.TrimSpace(s))
		}
	}
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing username")
	}

	if cached, err := srv.cache.GetAnalysis(ctx, username); err == nil && cached != "" {
		var resp analyzeResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return c.JSON(http.StatusOK, resp)
		}
	}

	// a fresh persisted row also short-circuits re-scoring, covering cache
	// misses after a restart; sub-scores are not persisted, so none are
	// returned on this path
	if row, err := models.GetAnalysis(srv.db, username); err == nil && row != nil && row.Fresh(srv.cfg.CacheTTL) {
		return c.JSON(http.StatusOK, analyzeResponse{
			Username:       row.Username,
			BotProbability: row.BotProbability,
			RiskTier:       riskTier(row.BotProbability),
			SubScores:      map[string]any{},
			AnalysisCount:  row.AnalysisCount,
			LastAnalyzed:   row.LastAnalyzed,
		})
	}

	acct, err := detector.SanitizeAccount(req.Account)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	activity := detector.ComputeActivityPatterns(acct)
	text := srv.analyzer.AnalyzeComments(acct.CommentBodies(), acct.CommentTimestamps())
	final, subs := srv.scorer.CalculateScore(ctx, acct, &activity, &text)

	botProbability := math.Round((1-final)*1000) / 10
	tier := riskTier(botProbability)

	row, err := models.GetOrCreateAnalysis(srv.db, username, botProbability)
	if err != nil {
		return fmt.Errorf("persisting analysis: %w", err)
	}

	if err := srv.counts.Increment(ctx, "analyses", "all"); err != nil {
		srv.logger.Warn("analysis counter increment failed", "err", err)
	}
	if err := srv.counts.IncrementDistinct(ctx, "tier", tier, username); err != nil {
		srv.logger.Warn("tier counter increment failed", "err", err)
	}

	resp := analyzeResponse{
		Username:       row.Username,
		BotProbability: row.BotProbability,
		RiskTier:       tier,
		SubScores:      subs.Flatten(),
		AnalysisCount:  row.AnalysisCount,
		LastAnalyzed:   row.LastAnalyzed,
	}

	if body, err := json.Marshal(resp); err == nil {
		if err := srv.cache.PutAnalysis(ctx, username, string(body)); err != nil {
			srv.logger.Warn("result cache write failed", "err", err)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (srv *Server) handleFeedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Account == nil || req.IsLegitimate == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing account record or is_legitimate label")
	}

	acct, err := detector.SanitizeAccount(req.Account)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	activity := detector.ComputeActivityPatterns(acct)
	text := srv.analyzer.AnalyzeComments(acct.CommentBodies(), acct.CommentTimestamps())

	accepted := srv.classifier.AddTrainingExample(acct, &activity, &text, *req.IsLegitimate)

	label := "suspicious"
	if *req.IsLegitimate {
		label = "legitimate"
	}
	feedbackReceived.WithLabelValues(label).Inc()

	// a fresh label may change this account's score; drop the cached result
	if err := srv.cache.Invalidate(c.Request().Context(), acct.Username); err != nil {
		srv.logger.Warn("cache invalidation failed", "err", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"accepted":         accepted,
		"trained":          srv.classifier.Trained(),
		"pending_examples": srv.classifier.PendingExamples(),
	})
}

func (srv *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := models.GetAnalysisStats(srv.db)
	if err != nil {
		return fmt.Errorf("loading analysis stats: %w", err)
	}
	recent, err := models.RecentAnalyses(srv.db, 20)
	if err != nil {
		return fmt.Errorf("loading recent analyses: %w", err)
	}

	today, err := srv.counts.GetCount(ctx, "analyses", "all", countstore.PeriodDay)
	if err != nil {
		return fmt.Errorf("reading daily analysis counter: %w", err)
	}
	thisHour, err := srv.counts.GetCount(ctx, "analyses", "all", countstore.PeriodHour)
	if err != nil {
		return fmt.Errorf("reading hourly analysis counter: %w", err)
	}
	tiersToday := map[string]int{}
	for _, tier := range []string{"high", "medium", "low"} {
		n, err := srv.counts.GetCountDistinct(ctx, "tier", tier, countstore.PeriodDay)
		if err != nil {
			return fmt.Errorf("reading tier counter: %w", err)
		}
		tiersToday[tier] = n
	}

	return c.JSON(http.StatusOK, map[string]any{
		"summary": stats,
		"recent":  recent,
		"activity": map[string]any{
			"analyses_today":         today,
			"analyses_this_hour":     thisHour,
			"accounts_by_tier_today": tiersToday,
		},
		"model": map[string]any{
			"trained":          srv.classifier.Trained(),
			"pending_examples": srv.classifier.PendingExamples(),
		},
	})
}
