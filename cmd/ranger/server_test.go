package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bencan1a/RedditRanger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, burst int) *Server {
	t.Helper()
	dir := t.TempDir()
	srv, err := NewServer(Config{
		Bind:            ":0",
		MetricsListen:   ":0",
		DatabaseURL:     "sqlite://" + filepath.Join(dir, "test.sqlite"),
		MaxDBConns:      1,
		ModelCacheDir:   filepath.Join(dir, "model_cache"),
		RateLimitBurst:  burst,
		RateLimitRefill: 0.01,
		CacheTTL:        time.Hour,
	})
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echoContentType, echoJSONType)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSONType    = "application/json"
)

func botAccountJSON(username string) string {
	created := time.Now().UTC().Add(-5 * 24 * time.Hour).Unix()
	comments := make([]string, 0, 10)
	stamp := time.Now().UTC()
	for i := 0; i < 10; i++ {
		stamp = stamp.Add(-10 * time.Minute)
		comments = append(comments, `{"body":"Check out my store for the best price!","created_utc":`+
			jsonNumber(stamp.Unix())+`,"score":1,"subreddit":"deals"}`)
	}
	return `{"username":"` + username + `","account":{` +
		`"username":"` + username + `",` +
		`"created_utc":` + jsonNumber(created) + `,` +
		`"comment_karma":5,"link_karma":40,` +
		`"comments":[` + strings.Join(comments, ",") + `],` +
		`"submissions":[]}}`
}

func jsonNumber(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 100)
	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAnalyzeEndpoint(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t, 100)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", botAccountJSON("DealBot99999"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(rec.Header().Get("X-RateLimit-Remaining"))

	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal("dealbot99999", resp.Username)
	assert.GreaterOrEqual(resp.BotProbability, 0.0)
	assert.LessOrEqual(resp.BotProbability, 100.0)
	assert.Contains([]string{"high", "medium", "low"}, resp.RiskTier)
	assert.Equal(1, resp.AnalysisCount)
	assert.NotEmpty(resp.SubScores)
	assert.NotContains(resp.SubScores, "error")

	// a young templated promo account should not read as low risk
	assert.Greater(resp.BotProbability, 40.0)

	// second request is served from the result cache: same count, same score
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/analyze", botAccountJSON("DealBot99999"))
	require.Equal(t, http.StatusOK, rec.Code)
	var cached analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cached))
	assert.Equal(resp.AnalysisCount, cached.AnalysisCount)
	assert.Equal(resp.BotProbability, cached.BotProbability)
}

func TestAnalyzeRejectsMalformedRequests(t *testing.T) {
	srv := newTestServer(t, 100)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", `{"username":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/analyze", `{"account":{"comment_karma":5}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// created_utc alone is not an identity; no row may be persisted for it
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/analyze", `{"account":{"created_utc":1700000000}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	row, err := models.GetAnalysis(srv.db, "<nil>")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestAnalyzeServesFreshRowAfterCacheLoss(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t, 100)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", botAccountJSON("restartbot"))
	require.Equal(t, http.StatusOK, rec.Code)
	var first analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// simulate a restart losing the in-memory cache: the fresh DB row still
	// short-circuits re-scoring
	require.NoError(t, srv.cache.Invalidate(context.Background(), "restartbot"))

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/analyze", botAccountJSON("restartbot"))
	require.Equal(t, http.StatusOK, rec.Code)
	var second analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))

	assert.Equal(first.AnalysisCount, second.AnalysisCount)
	assert.Equal(first.BotProbability, second.BotProbability)
	assert.Equal(first.RiskTier, second.RiskTier)
}

func TestAnalyzeRateLimited(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", botAccountJSON("burstuser"))
		assert.Equal(http.StatusOK, rec.Code)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", botAccountJSON("burstuser"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(rec.Header().Get("Retry-After"))
	assert.Equal("0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestFeedbackEndpoint(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t, 100)

	payload := strings.Replace(botAccountJSON("feedback_bot"), `{"username":"feedback_bot",`,
		`{"is_legitimate":false,`, 1)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/feedback", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(true, resp["accepted"])
	assert.Equal(false, resp["trained"])
	assert.EqualValues(1, resp["pending_examples"])

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/feedback", `{"account":{"username":"x"}}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	assert := assert.New(t)
	srv := newTestServer(t, 100)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", botAccountJSON("statbot"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Summary struct {
			TotalAccounts int64 `json:"total_accounts"`
		} `json:"summary"`
		Recent   []map[string]any `json:"recent"`
		Activity struct {
			AnalysesToday       int            `json:"analyses_today"`
			AnalysesThisHour    int            `json:"analyses_this_hour"`
			AccountsByTierToday map[string]int `json:"accounts_by_tier_today"`
		} `json:"activity"`
		Model struct {
			Trained bool `json:"trained"`
		} `json:"model"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(1, resp.Summary.TotalAccounts)
	require.Len(t, resp.Recent, 1)
	assert.Equal("statbot", resp.Recent[0]["username"])
	assert.False(resp.Model.Trained)

	// rolling counters reflect the single scored account
	assert.Equal(1, resp.Activity.AnalysesToday)
	assert.Equal(1, resp.Activity.AnalysesThisHour)
	tierTotal := 0
	for _, n := range resp.Activity.AccountsByTierToday {
		tierTotal += n
	}
	assert.Equal(1, tierTotal)
}

func TestRiskTierBoundaries(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("high", riskTier(70.1))
	assert.Equal("medium", riskTier(70.0))
	assert.Equal("medium", riskTier(40.1))
	assert.Equal("low", riskTier(40.0))
	assert.Equal("low", riskTier(0))
}
