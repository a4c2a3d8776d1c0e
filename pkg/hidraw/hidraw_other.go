//go:build !linux

package hidraw

import "errors"

// ErrNotFound is returned when no hidraw node matches the requested
// vendor/product pair.
var ErrNotFound = errors.New("hidraw: no matching device")

var errUnsupported = errors.New("hidraw: only supported on linux")

// Info identifies an opened hidraw node.
type Info struct {
	Path      string
	BusType   uint32
	VendorID  uint16
	ProductID uint16
}

// Device is an open hidraw node.
type Device struct{}

// Open is not supported on this platform.
func Open(string) (*Device, error) { return nil, errUnsupported }

// FindDevice is not supported on this platform.
func FindDevice(uint16, uint16) (string, error) { return "", errUnsupported }

// Info returns the identity of the opened node.
func (d *Device) Info() Info { return Info{} }

// SetFeature is not supported on this platform.
func (d *Device) SetFeature([]byte) error { return errUnsupported }

// GetFeature is not supported on this platform.
func (d *Device) GetFeature(byte, int) ([]byte, error) { return nil, errUnsupported }

// Close is a no-op on this platform.
func (d *Device) Close() error { return nil }
