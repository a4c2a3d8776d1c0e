// Package daemon runs the lighting control loop: it owns the effect
// engine, executes its actions against the device, and serializes config
// reloads with effect ticks on a single goroutine.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/itetools/ite5570d/internal/config"
	"github.com/itetools/ite5570d/internal/device"
	"github.com/itetools/ite5570d/internal/effects"
	"github.com/itetools/ite5570d/internal/events"
	"github.com/itetools/ite5570d/internal/logging"
	"github.com/itetools/ite5570d/pkg/lamparray"
)

// Controller is the slice of device.Link the loop needs. Tests substitute
// a fake; the daemon never touches the transport directly.
type Controller interface {
	Acquire() error
	Release() error
	Fill(c lamparray.Color, intensity uint8) error
	Held() bool
	LampCount() int
}

var _ Controller = (*device.Link)(nil)

// Daemon is the single-goroutine control loop.
type Daemon struct {
	link   Controller
	engine *effects.Engine
	bus    *events.Bus
	logger *slog.Logger

	reloadCh chan config.Lighting
}

// New creates a daemon. Run applies the initial config before the first
// tick.
func New(link Controller, bus *events.Bus, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = logging.GetLogger("daemon")
	}
	return &Daemon{
		link:     link,
		engine:   effects.NewEngine(),
		bus:      bus,
		logger:   logger,
		reloadCh: make(chan config.Lighting, 1),
	}
}

// Reload hands a validated lighting config to the loop. Safe to call from
// watcher and signal goroutines; a pending reload is replaced rather than
// queued, only the latest config matters.
func (d *Daemon) Reload(cfg config.Lighting) {
	for {
		select {
		case d.reloadCh <- cfg:
			return
		default:
			select {
			case <-d.reloadCh:
			default:
			}
		}
	}
}

// ReloadError records a reload that failed to load or validate. The
// running config stays in force.
func (d *Daemon) ReloadError(err error) {
	d.logger.Warn("Lighting config rejected, keeping previous settings", "error", err)
	d.publish(events.ConfigRejectedEvent{
		Error:     err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Run drives the loop until ctx is canceled or the device becomes
// unrecoverable. On shutdown the lamps are blanked and control is handed
// back to the firmware; on device loss the release is attempted but the
// hardware may already be gone.
func (d *Daemon) Run(ctx context.Context, initial config.Lighting) error {
	d.apply(initial, "startup")

	for {
		var timer *time.Timer
		var tickC <-chan time.Time
		if interval := d.engine.Interval(); interval > 0 {
			timer = time.NewTimer(interval)
			tickC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return d.shutdown()

		case cfg := <-d.reloadCh:
			if timer != nil {
				timer.Stop()
			}
			d.apply(cfg, "reload")

		case <-tickC:
			if err := d.step(); err != nil {
				d.logger.Error("Device unavailable, stopping control loop", "error", err)
				if relErr := d.link.Release(); relErr != nil {
					d.logger.Warn("Release after device loss failed", "error", relErr)
				}
				return err
			}
		}
	}
}

// apply installs a config into the engine and announces the change.
func (d *Daemon) apply(cfg config.Lighting, source string) {
	prev := d.engine.Mode()
	d.engine.Apply(cfg)

	if prev != cfg.Mode {
		d.logger.Info("Lighting mode changed", "from", prev, "to", cfg.Mode)
		d.publish(events.ModeChangedEvent{
			From:      prev,
			To:        cfg.Mode,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
	d.publish(events.ConfigAppliedEvent{
		Mode:      cfg.Mode,
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// step executes one engine action. Transient device errors are logged and
// the loop keeps ticking; ErrUnavailable means the link exhausted its
// reopen attempts, and is returned so Run can terminate instead of
// burning a full recovery cycle on every tick.
func (d *Daemon) step() error {
	act := d.engine.Tick()
	switch act.Kind {
	case effects.Fill:
		if !d.link.Held() {
			if err := d.link.Acquire(); err != nil {
				if errors.Is(err, device.ErrUnavailable) {
					return err
				}
				d.logger.Warn("Acquire failed, skipping frame", "error", err)
				return nil
			}
		}
		c := lamparray.Color{R: act.Frame.R, G: act.Frame.G, B: act.Frame.B}
		if err := d.link.Fill(c, act.Frame.Intensity); err != nil {
			if errors.Is(err, device.ErrUnavailable) {
				return err
			}
			d.logger.Warn("Frame write failed", "error", err)
			return nil
		}
		d.publish(events.FrameWrittenEvent{
			Mode:     d.engine.Mode(),
			Envelope: int(act.Envelope),
			Lamps:    d.link.LampCount(),
		})

	case effects.Release:
		if err := d.link.Release(); err != nil {
			if errors.Is(err, device.ErrUnavailable) {
				return err
			}
			d.logger.Warn("Release failed", "error", err)
		}

	case effects.None:
	}
	return nil
}

// shutdown blanks the array and returns control to the firmware. The
// keyboard must not be left frozen on the last frame.
func (d *Daemon) shutdown() error {
	d.logger.Info("Shutting down, releasing lighting control")
	if d.link.Held() {
		if err := d.link.Fill(lamparray.Color{}, 0); err != nil {
			d.logger.Warn("Blank on shutdown failed", "error", err)
		}
		if err := d.link.Release(); err != nil {
			d.logger.Warn("Release on shutdown failed", "error", err)
			return err
		}
	}
	return nil
}

func (d *Daemon) publish(ev events.Event) {
	if d.bus != nil {
		d.bus.Publish(ev)
	}
}
