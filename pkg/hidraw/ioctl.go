//go:build linux

package hidraw

import (
	"syscall"
	"unsafe"
)

// hidraw ioctl numbers, from linux/hidraw.h. The magic byte is 'H' (0x48);
// feature report ioctls encode the buffer length in the size field.
const (
	iocWrite    = 1
	iocRead     = 2
	hidiocMagic = 0x48
)

func hidiocGRawInfo() uint {
	return iocRead<<30 | 8<<16 | hidiocMagic<<8 | 0x03
}

func hidiocSFeature(size int) uint {
	return (iocRead|iocWrite)<<30 | uint(size)<<16 | hidiocMagic<<8 | 0x06
}

func hidiocGFeature(size int) uint {
	return (iocRead|iocWrite)<<30 | uint(size)<<16 | hidiocMagic<<8 | 0x07
}

func ioctl(fd int, req uint, arg unsafe.Pointer) (int, error) {
	n, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

func open(path string) (int, error) {
	return syscall.Open(path, syscall.O_RDWR, 0)
}

func closeFd(fd int) error {
	return syscall.Close(fd)
}
