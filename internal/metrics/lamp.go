// Package metrics provides Prometheus metrics for the lighting daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ite5570d",
		Subsystem: "lamp",
		Name:      "frames_written_total",
		Help:      "Full-array fills pushed to the controller",
	}, []string{"mode"})

	configReloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ite5570d",
		Subsystem: "config",
		Name:      "reloads_total",
		Help:      "Lighting config reloads applied",
	})

	configRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ite5570d",
		Subsystem: "config",
		Name:      "reload_failures_total",
		Help:      "Lighting config reloads rejected by validation or parsing",
	})

	deviceReopens = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ite5570d",
		Subsystem: "device",
		Name:      "reopens_total",
		Help:      "Successful hidraw handle recoveries",
	})

	breatheEnvelope = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ite5570d",
		Subsystem: "lamp",
		Name:      "breathe_envelope",
		Help:      "Current breathe brightness envelope, 0-255",
	})

	activeMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ite5570d",
		Subsystem: "lamp",
		Name:      "mode",
		Help:      "Lighting mode in effect (1 for the active mode)",
	}, []string{"mode"})

	hostControl = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ite5570d",
		Subsystem: "device",
		Name:      "host_control",
		Help:      "1 while the host owns lighting control, 0 when the firmware does",
	})
)

// knownModes keeps the mode gauge dense so dashboards see explicit zeros.
var knownModes = []string{"static", "breathe", "off"}

// RecordFrame counts one full-array fill and tracks the breathe envelope.
func RecordFrame(mode string, envelope uint8) {
	framesWritten.WithLabelValues(mode).Inc()
	if mode == "breathe" {
		breatheEnvelope.Set(float64(envelope))
	}
}

// RecordConfigApplied counts a successful reload and marks the active mode.
func RecordConfigApplied(mode string) {
	configReloads.Inc()
	for _, m := range knownModes {
		v := 0.0
		if m == mode {
			v = 1.0
		}
		activeMode.WithLabelValues(m).Set(v)
	}
}

// RecordConfigRejected counts a reload that failed validation or parsing.
func RecordConfigRejected() {
	configRejections.Inc()
}

// RecordDeviceReopen counts a successful stale-handle recovery.
func RecordDeviceReopen() {
	deviceReopens.Inc()
}

// SetHostControl tracks which side owns the lamps.
func SetHostControl(host bool) {
	if host {
		hostControl.Set(1)
	} else {
		hostControl.Set(0)
	}
}
