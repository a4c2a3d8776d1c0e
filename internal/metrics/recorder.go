package metrics

import (
	"github.com/itetools/ite5570d/internal/events"
)

// Recorder mirrors daemon events into Prometheus metrics. It owns nothing
// but its subscriptions; the daemon stays unaware of metrics.
type Recorder struct {
	bus    *events.Bus
	unsubs []func()
}

// NewRecorder creates a recorder bound to the given bus.
func NewRecorder(bus *events.Bus) *Recorder {
	return &Recorder{bus: bus}
}

// Start subscribes to the event types the metrics track.
func (r *Recorder) Start() {
	r.unsubs = append(r.unsubs,
		r.bus.Subscribe(func(e events.FrameWrittenEvent) {
			RecordFrame(e.Mode, uint8(e.Envelope))
		}),
		r.bus.Subscribe(func(e events.ConfigAppliedEvent) {
			RecordConfigApplied(e.Mode)
		}),
		r.bus.Subscribe(func(_ events.ConfigRejectedEvent) {
			RecordConfigRejected()
		}),
		r.bus.Subscribe(func(_ events.DeviceRecoveredEvent) {
			RecordDeviceReopen()
		}),
		r.bus.Subscribe(func(e events.ControlHandoffEvent) {
			SetHostControl(!e.Autonomous)
		}),
	)
}

// Stop removes the subscriptions.
func (r *Recorder) Stop() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}
