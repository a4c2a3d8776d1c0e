//go:build linux

package hidraw

import "testing"

// Expected values computed from the linux/hidraw.h _IOC macros.
func TestIoctlNumbers(t *testing.T) {
	tests := []struct {
		name string
		got  uint
		want uint
	}{
		{"HIDIOCGRAWINFO", hidiocGRawInfo(), 0x80084803},
		{"HIDIOCSFEATURE(2)", hidiocSFeature(2), 0xc0024806},
		{"HIDIOCSFEATURE(10)", hidiocSFeature(10), 0xc00a4806},
		{"HIDIOCGFEATURE(23)", hidiocGFeature(23), 0xc0174807},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = 0x%08x, want 0x%08x", tt.name, tt.got, tt.want)
			}
		})
	}
}
