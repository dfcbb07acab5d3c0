package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK        = "ok"
	statusError     = "error"
	statusNoTool    = "no_tool_call"
	statusMalformed = "malformed"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenecomposer_llm_requests_total",
			Help: "Total number of scene composition requests sent to the model.",
		},
		[]string{"status"},
	)
	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scenecomposer_llm_request_duration_seconds",
			Help:    "Duration of scene composition requests.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
	)
)
