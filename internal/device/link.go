// Package device owns the hidraw handle to the backlight controller. It
// layers acquire/release discipline and stale-handle recovery on top of
// the raw feature report transport.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/itetools/ite5570d/internal/events"
	"github.com/itetools/ite5570d/internal/logging"
	"github.com/itetools/ite5570d/pkg/hidraw"
	"github.com/itetools/ite5570d/pkg/lamparray"
)

// ITE 5570 backlight controller as it enumerates on ASUS laptops.
const (
	VendorID  = 0x0B05
	ProductID = 0x5570
)

// DefaultLampCount is assumed when the attributes query fails. Matches the
// largest per-key array the controller ships with.
const DefaultLampCount = 128

// Transport is the feature report channel to one hidraw node.
// *hidraw.Device satisfies it; tests substitute a fake.
type Transport interface {
	SetFeature(data []byte) error
	GetFeature(reportID byte, length int) ([]byte, error)
	Close() error
}

// Opener opens a transport for a device path.
type Opener func(path string) (Transport, error)

// Finder locates the device path for a vendor/product pair.
type Finder func(vendorID, productID uint16) (string, error)

// Options configures a Link. Zero values fall back to the real hidraw
// implementation and the ITE 5570 IDs.
type Options struct {
	// Path pins the hidraw node to use. Empty means discover by IDs.
	Path      string
	VendorID  uint16
	ProductID uint16

	Opener Opener
	Finder Finder

	// Bus receives device lifecycle events. Optional.
	Bus *events.Bus

	// ReopenAttempts bounds stale-handle recovery. ReopenBackoff is the
	// wait between attempts.
	ReopenAttempts int
	ReopenBackoff  time.Duration

	Logger *slog.Logger
}

// Link is the daemon's handle to the controller. All methods are called
// from the daemon goroutine; Link does not lock.
type Link struct {
	opts      Options
	path      string
	transport Transport
	held      bool
	lampCount int
	logger    *slog.Logger
}

// NewLink creates an unopened link.
func NewLink(opts Options) *Link {
	if opts.VendorID == 0 && opts.ProductID == 0 {
		opts.VendorID = VendorID
		opts.ProductID = ProductID
	}
	if opts.Opener == nil {
		opts.Opener = func(path string) (Transport, error) {
			return hidraw.Open(path)
		}
	}
	if opts.Finder == nil {
		opts.Finder = hidraw.FindDevice
	}
	if opts.ReopenAttempts <= 0 {
		opts.ReopenAttempts = 3
	}
	if opts.ReopenBackoff <= 0 {
		opts.ReopenBackoff = 200 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger("device")
	}
	return &Link{opts: opts, lampCount: DefaultLampCount, logger: logger}
}

// Open locates and opens the controller, then queries the lamp count.
// On a discovered device a failed attributes query is fatal: a node that
// matches the IDs but does not speak the protocol is the wrong device.
// With an explicitly pinned path the operator has vouched for the node,
// so the lamp count falls back to DefaultLampCount instead.
func (l *Link) Open(ctx context.Context) error {
	path := l.opts.Path
	if path == "" {
		found, err := l.opts.Finder(l.opts.VendorID, l.opts.ProductID)
		if err != nil {
			return fmt.Errorf("device: locate %04x:%04x: %w", l.opts.VendorID, l.opts.ProductID, err)
		}
		path = found
	}

	transport, err := l.opts.Opener(path)
	if err != nil {
		return fmt.Errorf("device: open %s: %w", path, err)
	}
	l.path = path
	l.transport = transport
	l.held = false

	attrs, err := l.QueryAttributes(ctx)
	switch {
	case err == nil:
		l.lampCount = int(attrs.LampCount)
		if l.lampCount == 0 {
			l.lampCount = DefaultLampCount
		}
	case l.opts.Path != "":
		l.logger.Warn("Attributes query failed, assuming default lamp count",
			"error", err, "lamps", DefaultLampCount)
		l.lampCount = DefaultLampCount
	default:
		l.transport.Close()
		l.transport = nil
		return fmt.Errorf("device: attributes query on %s: %w", path, err)
	}

	l.logger.Info("Device opened", "path", path, "lamps", l.lampCount)
	return nil
}

// Path returns the hidraw node in use, empty before Open.
func (l *Link) Path() string { return l.path }

// LampCount returns the number of lamps in the array.
func (l *Link) LampCount() int { return l.lampCount }

// Held reports whether the host currently owns lighting control.
func (l *Link) Held() bool { return l.held }

// Acquire switches the controller to host-override mode. The firmware
// stops driving the lamps until Release.
func (l *Link) Acquire() error {
	if l.transport == nil {
		return ErrNotOpen
	}
	if l.held {
		return nil
	}
	if err := l.write(lamparray.EncodeControl(false)); err != nil {
		return err
	}
	l.held = true
	l.publish(events.ControlHandoffEvent{
		Autonomous: false,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	l.logger.Debug("Acquired lighting control")
	return nil
}

// Release hands lighting control back to the firmware.
func (l *Link) Release() error {
	if l.transport == nil {
		return ErrNotOpen
	}
	if !l.held {
		return nil
	}
	if err := l.write(lamparray.EncodeControl(true)); err != nil {
		return err
	}
	l.held = false
	l.publish(events.ControlHandoffEvent{
		Autonomous: true,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	l.logger.Debug("Released lighting control")
	return nil
}

// Fill assigns one color and intensity to every lamp with a single range
// update report.
func (l *Link) Fill(c lamparray.Color, intensity uint8) error {
	if l.transport == nil {
		return ErrNotOpen
	}
	frame, err := lamparray.EncodeRangeUpdate(0, uint16(l.lampCount-1), c, intensity, true)
	if err != nil {
		return err
	}
	return l.write(frame)
}

// Update assigns one color and intensity to specific lamps using
// multi-update reports.
func (l *Link) Update(lampIDs []uint16, c lamparray.Color, intensity uint8) error {
	if l.transport == nil {
		return ErrNotOpen
	}
	frames, err := lamparray.EncodeMultiUpdate(lampIDs, c, intensity)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if err := l.write(frame); err != nil {
			return err
		}
	}
	return nil
}

// QueryAttributes reads the array attributes report. The context bounds
// how long to wait; hidraw ioctls have no native timeout.
func (l *Link) QueryAttributes(ctx context.Context) (lamparray.ArrayAttributes, error) {
	buf, err := l.getFeature(ctx, lamparray.ReportArrayAttributes, lamparray.ArrayAttributesSize)
	if err != nil {
		return lamparray.ArrayAttributes{}, err
	}
	return lamparray.DecodeAttributes(buf)
}

// QueryLamp selects a lamp and reads its attributes response.
func (l *Link) QueryLamp(ctx context.Context, lampID uint16) (lamparray.LampAttributes, error) {
	if l.transport == nil {
		return lamparray.LampAttributes{}, ErrNotOpen
	}
	if err := l.transport.SetFeature(lamparray.EncodeLampAttributesRequest(lampID)); err != nil {
		return lamparray.LampAttributes{}, fmt.Errorf("device: select lamp %d: %w", lampID, err)
	}
	buf, err := l.getFeature(ctx, lamparray.ReportLampAttributesResponse, lamparray.LampAttributesSize)
	if err != nil {
		return lamparray.LampAttributes{}, err
	}
	return lamparray.DecodeLampAttributes(buf)
}

// Close closes the handle. Control deliberately stays where it is: a
// held override survives process exit, so one-shot fills persist until
// something releases them.
func (l *Link) Close() error {
	if l.transport == nil {
		return nil
	}
	err := l.transport.Close()
	l.transport = nil
	l.held = false
	return err
}

// write sends one feature report, recovering the handle once if the write
// fails. Suspend/resume and device re-enumeration leave the old fd dead;
// reopening and re-acquiring brings the session back.
func (l *Link) write(frame lamparray.Frame) error {
	if err := l.transport.SetFeature(frame); err == nil {
		return nil
	} else if reopenErr := l.reopen(err); reopenErr != nil {
		return reopenErr
	}
	if err := l.transport.SetFeature(frame); err != nil {
		return fmt.Errorf("%w: write after reopen: %v", ErrUnavailable, err)
	}
	return nil
}

// reopen replaces a stale transport. The held state survives recovery:
// if the host owned control before, it re-acquires before the caller's
// retry.
func (l *Link) reopen(cause error) error {
	l.logger.Warn("Feature report write failed, reopening device",
		"path", l.path, "error", cause)
	l.publish(events.DeviceLostEvent{
		Path:      l.path,
		Error:     cause.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	l.transport.Close()
	l.transport = nil

	var lastErr error
	for attempt := 1; attempt <= l.opts.ReopenAttempts; attempt++ {
		path := l.opts.Path
		if path == "" {
			// Re-enumeration can move the device to a new node.
			found, err := l.opts.Finder(l.opts.VendorID, l.opts.ProductID)
			if err != nil {
				lastErr = err
				time.Sleep(l.opts.ReopenBackoff)
				continue
			}
			path = found
		}

		transport, err := l.opts.Opener(path)
		if err != nil {
			lastErr = err
			time.Sleep(l.opts.ReopenBackoff)
			continue
		}

		l.path = path
		l.transport = transport
		if l.held {
			if err := transport.SetFeature(lamparray.EncodeControl(false)); err != nil {
				lastErr = err
				transport.Close()
				l.transport = nil
				time.Sleep(l.opts.ReopenBackoff)
				continue
			}
		}

		l.publish(events.DeviceRecoveredEvent{
			Path:      path,
			Attempts:  attempt,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		l.logger.Info("Device reopened", "path", path, "attempts", attempt)
		return nil
	}
	return fmt.Errorf("%w: reopen failed after %d attempts: %v",
		ErrUnavailable, l.opts.ReopenAttempts, lastErr)
}

// getFeature runs a blocking feature read under a context deadline.
func (l *Link) getFeature(ctx context.Context, reportID byte, length int) ([]byte, error) {
	if l.transport == nil {
		return nil, ErrNotOpen
	}

	type result struct {
		buf []byte
		err error
	}
	ch := make(chan result, 1)
	transport := l.transport
	go func() {
		buf, err := transport.GetFeature(reportID, length)
		ch <- result{buf, err}
	}()

	select {
	case res := <-ch:
		return res.buf, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: report 0x%02x", ErrTimeout, reportID)
	}
}

func (l *Link) publish(ev events.Event) {
	if l.opts.Bus != nil {
		l.opts.Bus.Publish(ev)
	}
}
