package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	configLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "e3wm_api_config_loads_total",
		Help: "Total number of configuration loads by selected origin and result",
	}, []string{"origin", "result"})

	keybindingLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "e3wm_api_keybinding_lookups_total",
		Help: "Total number of keybinding lookups by result",
	}, []string{"result"})

	reloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "e3wm_api_reloads_total",
		Help: "Total number of configuration reload attempts by result",
	}, []string{"result"})
)

// IncConfigLoad records one configuration load. origin is "user", "system",
// or "unknown"; ok selects the "success" or "failure" result label.
func IncConfigLoad(origin string, ok bool) {
	configLoadsTotal.WithLabelValues(normalizeOrigin(origin), resultLabel(ok)).Inc()
}

// IncKeybindingLookup records a keybinding lookup as a hit or a miss.
func IncKeybindingLookup(hit bool) {
	label := "miss"
	if hit {
		label = "hit"
	}
	keybindingLookupsTotal.WithLabelValues(label).Inc()
}

// IncReload records one reload attempt.
func IncReload(ok bool) {
	reloadsTotal.WithLabelValues(resultLabel(ok)).Inc()
}

func normalizeOrigin(origin string) string {
	switch origin {
	case "user", "system":
		return origin
	default:
		return "unknown"
	}
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
