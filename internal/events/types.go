package events

// Event type constants for kelindar/event.
const (
	TypeConfigApplied uint32 = iota + 1
	TypeConfigRejected
	TypeModeChanged
	TypeDeviceLost
	TypeDeviceRecovered
	TypeFrameWritten
	TypeControlHandoff
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ConfigAppliedEvent is published when a lighting config reload succeeds
// and the new settings are in force.
type ConfigAppliedEvent struct {
	Mode      string `json:"mode" example:"breathe" doc:"Lighting mode now in effect"`
	Source    string `json:"source" example:"sighup" doc:"What triggered the reload: file, sighup, startup"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConfigAppliedEvent.
func (e ConfigAppliedEvent) Type() uint32 { return TypeConfigApplied }

// ConfigRejectedEvent is published when a lighting config reload fails
// validation or parsing. The previous settings stay in force.
type ConfigRejectedEvent struct {
	Error     string `json:"error" example:"unknown mode \"rainbow\"" doc:"Validation or parse error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConfigRejectedEvent.
func (e ConfigRejectedEvent) Type() uint32 { return TypeConfigRejected }

// ModeChangedEvent is published when the effect engine switches modes.
type ModeChangedEvent struct {
	From      string `json:"from" example:"static" doc:"Previous mode"`
	To        string `json:"to" example:"off" doc:"New mode"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }

// DeviceLostEvent is published when a feature report write fails and the
// hidraw handle has to be reopened.
type DeviceLostEvent struct {
	Path      string `json:"path" example:"/dev/hidraw3" doc:"hidraw device path"`
	Error     string `json:"error" doc:"The write error that triggered recovery"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceLostEvent.
func (e DeviceLostEvent) Type() uint32 { return TypeDeviceLost }

// DeviceRecoveredEvent is published after a successful reopen of the
// hidraw handle.
type DeviceRecoveredEvent struct {
	Path      string `json:"path" example:"/dev/hidraw3" doc:"hidraw device path"`
	Attempts  int    `json:"attempts" example:"2" doc:"Reopen attempts before success"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceRecoveredEvent.
func (e DeviceRecoveredEvent) Type() uint32 { return TypeDeviceRecovered }

// FrameWrittenEvent is published for every full-array fill pushed to the
// controller. Breathe mode emits these at the configured step cadence.
type FrameWrittenEvent struct {
	Mode     string `json:"mode" example:"breathe" doc:"Mode that produced the frame"`
	Envelope int    `json:"envelope" example:"120" doc:"Breathe envelope value, 0-255"`
	Lamps    int    `json:"lamps" example:"128" doc:"Number of lamps addressed"`
}

// Type returns the event type identifier for FrameWrittenEvent.
func (e FrameWrittenEvent) Type() uint32 { return TypeFrameWritten }

// ControlHandoffEvent is published when lighting control moves between
// host and firmware (autonomous mode toggles).
type ControlHandoffEvent struct {
	Autonomous bool   `json:"autonomous" example:"true" doc:"true = firmware owns lighting, false = host"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ControlHandoffEvent.
func (e ControlHandoffEvent) Type() uint32 { return TypeControlHandoff }
