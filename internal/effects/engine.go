// Package effects turns lighting configuration into a sequence of frames.
//
// The Engine is a pure state machine: the daemon calls Tick at the cadence
// reported by Interval and executes the returned Action against the device.
// Keeping device I/O out of the engine makes the effect timing testable
// without hardware.
package effects

import (
	"time"

	"github.com/itetools/ite5570d/internal/config"
)

// envelopeStep is the per-tick brightness increment for breathe mode.
// With the default 20ms tick a full 0..255..0 cycle takes about two seconds.
const envelopeStep = 5

// minInterval is the floor for the breathe tick cadence. The controller
// needs a few milliseconds between feature reports.
const minInterval = 10 * time.Millisecond

// Kind discriminates what the daemon should do with an Action.
type Kind int

const (
	// None means nothing to do this tick.
	None Kind = iota
	// Fill means write the frame to every lamp.
	Fill
	// Release means hand lighting control back to the firmware.
	Release
)

// Frame is one full-array color to push to the controller.
type Frame struct {
	R, G, B   uint8
	Intensity uint8
}

// Action is the engine's instruction for a single tick.
type Action struct {
	Kind  Kind
	Frame Frame
	// Envelope is the breathe brightness at the time the frame was
	// produced, 0-255. Static fills report the configured intensity.
	Envelope uint8
}

// Engine drives the configured lighting effect. Not safe for concurrent
// use; the daemon owns it from a single goroutine.
type Engine struct {
	mode      string
	r, g, b   uint8
	intensity uint8
	step      time.Duration

	// breathe state
	envelope  int
	ascending bool

	// static and off emit a fixed number of actions after Apply
	phase int
}

// NewEngine returns an engine in off mode with nothing to emit.
func NewEngine() *Engine {
	return &Engine{mode: config.ModeOff, phase: 2}
}

// Apply installs a validated lighting config and resets effect state.
// Breathe restarts from a dark envelope; static re-emits its frame; off
// re-runs its blank-and-release sequence.
func (e *Engine) Apply(cfg config.Lighting) {
	r, g, b := cfg.RGB()
	e.mode = cfg.Mode
	e.r, e.g, e.b = r, g, b
	e.intensity = uint8(cfg.Intensity)
	e.step = cfg.Step()
	if e.step < minInterval {
		e.step = minInterval
	}
	e.envelope = 0
	e.ascending = true
	e.phase = 0
}

// Mode returns the mode currently in force.
func (e *Engine) Mode() string { return e.mode }

// Interval returns how long the daemon should wait before the next Tick.
// Zero means the engine is idle until the next config change.
func (e *Engine) Interval() time.Duration {
	switch e.mode {
	case config.ModeBreathe:
		return e.step
	case config.ModeStatic, config.ModeOff:
		if e.phase < e.phaseCount() {
			return minInterval
		}
		return 0
	default:
		return 0
	}
}

// Tick produces the next action for the current effect.
func (e *Engine) Tick() Action {
	switch e.mode {
	case config.ModeStatic:
		return e.tickStatic()
	case config.ModeBreathe:
		return e.tickBreathe()
	case config.ModeOff:
		return e.tickOff()
	default:
		return Action{Kind: None}
	}
}

func (e *Engine) phaseCount() int {
	if e.mode == config.ModeOff {
		return 2
	}
	return 1
}

// tickStatic emits the configured color exactly once per Apply.
func (e *Engine) tickStatic() Action {
	if e.phase > 0 {
		return Action{Kind: None}
	}
	e.phase = 1
	return Action{
		Kind:     Fill,
		Frame:    e.frameAt(e.intensity),
		Envelope: e.intensity,
	}
}

// tickBreathe emits the current envelope and advances it. The envelope
// walks 0 up to 255 and back down, reversing exactly at the endpoints.
func (e *Engine) tickBreathe() Action {
	env := uint8(e.envelope)
	act := Action{
		Kind:     Fill,
		Frame:    e.frameAt(scale(env, e.intensity)),
		Envelope: env,
	}

	if e.ascending {
		e.envelope += envelopeStep
		if e.envelope >= 255 {
			e.envelope = 255
			e.ascending = false
		}
	} else {
		e.envelope -= envelopeStep
		if e.envelope <= 0 {
			e.envelope = 0
			e.ascending = true
		}
	}
	return act
}

// tickOff blanks the array, then releases control to the firmware.
func (e *Engine) tickOff() Action {
	switch e.phase {
	case 0:
		e.phase = 1
		return Action{Kind: Fill, Frame: Frame{}}
	case 1:
		e.phase = 2
		return Action{Kind: Release}
	default:
		return Action{Kind: None}
	}
}

// frameAt renders the configured color at a brightness level. The channel
// bytes carry the scaled color; the intensity byte repeats the level so
// the device dims the same way whether it honors the channels or the
// intensity field.
func (e *Engine) frameAt(level uint8) Frame {
	return Frame{
		R:         scale(e.r, level),
		G:         scale(e.g, level),
		B:         scale(e.b, level),
		Intensity: level,
	}
}

// scale multiplies two 0-255 channels, rounding down.
func scale(a, b uint8) uint8 {
	return uint8(uint16(a) * uint16(b) / 255)
}
