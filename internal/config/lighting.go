package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Lighting modes. The set is closed: the controller protocol and the
// daemon's tick loop only know these three.
const (
	ModeStatic  = "static"
	ModeBreathe = "breathe"
	ModeOff     = "off"
)

// Lighting is the hot-reloadable lighting configuration. A value only
// becomes active after Validate passes; an invalid file never displaces
// the running configuration.
type Lighting struct {
	Mode          string `toml:"mode"`
	Color         []int  `toml:"color"`
	Intensity     int    `toml:"intensity"`
	BreatheStepMs int    `toml:"breathe_step_ms"`
}

// lightingFile is the on-disk shape: a [lighting] table.
type lightingFile struct {
	Lighting Lighting `toml:"lighting"`
}

// DefaultLighting returns the configuration used when fields are absent
// from the file: static red at full intensity.
func DefaultLighting() Lighting {
	return Lighting{
		Mode:          ModeStatic,
		Color:         []int{255, 0, 0},
		Intensity:     255,
		BreatheStepMs: 20,
	}
}

// LoadLighting reads and validates the lighting config file. Absent fields
// take their defaults; any invalid field rejects the whole file.
func LoadLighting(path string) (Lighting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lighting{}, fmt.Errorf("read lighting config: %w", err)
	}

	file := lightingFile{Lighting: DefaultLighting()}
	if err := toml.Unmarshal(data, &file); err != nil {
		return Lighting{}, fmt.Errorf("parse lighting config: %w", err)
	}

	cfg := file.Lighting
	if err := cfg.Validate(); err != nil {
		return Lighting{}, err
	}
	return cfg, nil
}

// Validate checks every field. Unknown modes are rejected rather than
// falling back to static, so a typo never silently changes behavior.
func (l Lighting) Validate() error {
	switch l.Mode {
	case ModeStatic, ModeBreathe, ModeOff:
	default:
		return fmt.Errorf("lighting: unknown mode %q", l.Mode)
	}
	if len(l.Color) != 3 {
		return fmt.Errorf("lighting: color must have 3 components, got %d", len(l.Color))
	}
	for i, c := range l.Color {
		if c < 0 || c > 255 {
			return fmt.Errorf("lighting: color[%d] = %d out of range 0..255", i, c)
		}
	}
	if l.Intensity < 0 || l.Intensity > 255 {
		return fmt.Errorf("lighting: intensity %d out of range 0..255", l.Intensity)
	}
	if l.BreatheStepMs <= 0 {
		return fmt.Errorf("lighting: breathe_step_ms must be positive, got %d", l.BreatheStepMs)
	}
	return nil
}

// RGB returns the color channels. Only valid after Validate.
func (l Lighting) RGB() (r, g, b uint8) {
	return uint8(l.Color[0]), uint8(l.Color[1]), uint8(l.Color[2])
}

// Step returns the breathe tick period.
func (l Lighting) Step() time.Duration {
	return time.Duration(l.BreatheStepMs) * time.Millisecond
}
