//go:build linux

// Package hidraw provides raw access to Linux /dev/hidraw nodes: device
// discovery by vendor/product ID and feature report I/O over the hidraw
// ioctl interface.
package hidraw

import (
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// ErrNotFound is returned when no hidraw node matches the requested
// vendor/product pair.
var ErrNotFound = errors.New("hidraw: no matching device")

// Info identifies an opened hidraw node.
type Info struct {
	Path      string
	BusType   uint32
	VendorID  uint16
	ProductID uint16
}

// Device is an open hidraw node. Feature report I/O is synchronous; the
// kernel completes the control transfer before the ioctl returns.
type Device struct {
	fd   int
	info Info
}

// devinfo mirrors struct hidraw_devinfo from linux/hidraw.h.
type devinfo struct {
	bustype uint32
	vendor  int16
	product int16
}

// Open opens the hidraw node at path for feature report I/O.
func Open(path string) (*Device, error) {
	fd, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("hidraw: open %s: %w", path, err)
	}

	info, err := rawInfo(fd, path)
	if err != nil {
		closeFd(fd)
		return nil, fmt.Errorf("hidraw: query %s: %w", path, err)
	}

	return &Device{fd: fd, info: info}, nil
}

// FindDevice scans /sys/class/hidraw for a node whose vendor and product
// IDs match and returns its /dev path. When several interfaces of the same
// device are present the lowest-numbered node wins.
func FindDevice(vendorID, productID uint16) (string, error) {
	entries, err := os.ReadDir("/sys/class/hidraw")
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("hidraw: read sysfs: %w", err)
	}

	for _, entry := range entries {
		path := "/dev/" + entry.Name()

		fd, openErr := open(path)
		if openErr != nil {
			// Permission or transient errors on unrelated nodes are
			// expected while scanning.
			continue
		}
		info, infoErr := rawInfo(fd, path)
		closeFd(fd)
		if infoErr != nil {
			continue
		}
		if info.VendorID == vendorID && info.ProductID == productID {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Info returns the identity of the opened node.
func (d *Device) Info() Info {
	return d.info
}

// SetFeature sends a feature report. data[0] must be the report ID.
func (d *Device) SetFeature(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("hidraw: empty feature report")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	if _, err := ioctl(d.fd, hidiocSFeature(len(buf)), unsafe.Pointer(&buf[0])); err != nil {
		return fmt.Errorf("hidraw: set feature 0x%02x: %w", data[0], err)
	}
	return nil
}

// GetFeature reads a feature report of the given length. The report ID
// selects which report the device returns.
func (d *Device) GetFeature(reportID byte, length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("hidraw: invalid feature length %d", length)
	}
	buf := make([]byte, length)
	buf[0] = reportID
	if _, err := ioctl(d.fd, hidiocGFeature(length), unsafe.Pointer(&buf[0])); err != nil {
		return nil, fmt.Errorf("hidraw: get feature 0x%02x: %w", reportID, err)
	}
	return buf, nil
}

// Close releases the file descriptor. Safe to call more than once.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := closeFd(d.fd)
	d.fd = -1
	return err
}

func rawInfo(fd int, path string) (Info, error) {
	var di devinfo
	if _, err := ioctl(fd, hidiocGRawInfo(), unsafe.Pointer(&di)); err != nil {
		return Info{}, err
	}
	return Info{
		Path:      path,
		BusType:   di.bustype,
		VendorID:  uint16(di.vendor),
		ProductID: uint16(di.product),
	}, nil
}
