package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	RepositoryOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posekit",
		Name:      "repository_operations_total",
		Help:      "Template repository operations by kind and outcome",
	}, []string{"op", "result"})

	AssetBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posekit",
		Name:      "asset_bytes_written_total",
		Help:      "Encoded image bytes written to the asset directory",
	})

	MatchScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "posekit",
		Name:      "match_score",
		Help:      "Pose match scores produced per detection frame",
		Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	FramesScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posekit",
		Name:      "frames_scored_total",
		Help:      "Detection frames scored against an active template",
	})
)

// Observe records the outcome of a repository operation
func Observe(op string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	RepositoryOperations.WithLabelValues(op, result).Inc()
}
