package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var scoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "ranger_score_duration_sec",
	Help: "Total duration of account score computation",
})

var scoreCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ranger_scores_computed",
	Help: "Number of account scores computed",
})

var heuristicFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ranger_heuristic_failures",
	Help: "Number of heuristic invocations that panicked and fell back to defaults",
}, []string{"heuristic"})

var classifierFailureCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ranger_classifier_failures",
	Help: "Number of classifier invocations that failed and fell back to the neutral risk",
})

var malformedAccountCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ranger_malformed_accounts",
	Help: "Number of scoring requests rejected for unusable account data",
})
