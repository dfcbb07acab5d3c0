package director

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceRules    = "rules"
	sourceLLM      = "llm"
	sourceFallback = "fallback"
)

var (
	scenesComposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenecomposer_scenes_composed_total",
			Help: "Total number of composed scenes by producer.",
		},
		[]string{"source"}, // rules, llm or fallback
	)
	scenesByMode = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenecomposer_rule_scenes_by_mode_total",
			Help: "Rule-based scenes by scene mode.",
		},
		[]string{"mode"},
	)
)
